package dynamic

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

// browserNames are looked up on PATH after the install locations
var browserNames = []string{
	"google-chrome-stable", "google-chrome", "chromium", "chromium-browser",
	"chrome", "msedge", "brave", "brave-browser",
}

// FindChrome locates a Chromium-family executable. Order: preferred,
// CHROME_PATH, install locations for the OS, then PATH. It returns "" when
// nothing is found.
func FindChrome(preferred string) string {
	for _, p := range []string{preferred, os.Getenv("CHROME_PATH")} {
		if p == "" {
			continue
		}
		if isExecutable(p) {
			return p
		}
		log.Warn().Str("path", p).Msg("Configured Chrome path is not executable")
	}

	for _, p := range installPaths(runtime.GOOS, os.Getenv) {
		if isExecutable(p) {
			log.Debug().Str("path", p).Msg("Chrome found")
			return p
		}
	}

	for _, name := range browserNames {
		if p, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", p).Msg("Chrome found in PATH")
			return p
		}
	}

	log.Debug().Str("os", runtime.GOOS).Msg("Chrome not found")
	return ""
}

// installPaths lists the usual browser locations for goos
func installPaths(goos string, getenv func(string) string) []string {
	home := getenv("HOME")
	var paths []string

	switch goos {
	case "darwin":
		for _, app := range []string{"Google Chrome", "Chromium", "Microsoft Edge", "Brave Browser"} {
			paths = append(paths, filepath.Join("/Applications", app+".app", "Contents", "MacOS", app))
			if home != "" {
				paths = append(paths, filepath.Join(home, "Applications", app+".app", "Contents", "MacOS", app))
			}
		}
	case "windows":
		for _, base := range []string{getenv("ProgramFiles"), getenv("ProgramFiles(x86)"), getenv("LocalAppData")} {
			if base == "" {
				continue
			}
			paths = append(paths,
				filepath.Join(base, "Google", "Chrome", "Application", "chrome.exe"),
				filepath.Join(base, "Chromium", "Application", "chrome.exe"),
				filepath.Join(base, "Microsoft", "Edge", "Application", "msedge.exe"),
				filepath.Join(base, "BraveSoftware", "Brave-Browser", "Application", "brave.exe"),
			)
		}
	case "linux":
		for _, name := range browserNames {
			paths = append(paths, filepath.Join("/usr/bin", name))
		}
		paths = append(paths, "/snap/bin/chromium")
		if home != "" {
			flatpak := filepath.Join(home, ".local", "share", "flatpak", "exports", "bin")
			paths = append(paths,
				filepath.Join(flatpak, "com.google.Chrome"),
				filepath.Join(flatpak, "org.chromium.Chromium"),
			)
		}
	}
	return paths
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}
