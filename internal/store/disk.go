package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxStemLength = 100

// DiskStore keeps one file per page under a directory. File age is used as
// the entry age.
type DiskStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskStore creates dir if needed
func NewDiskStore(dir string, ttl time.Duration) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DiskStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (d *DiskStore) Save(_ context.Context, url, html string) (Handle, error) {
	key := KeyFor(url)
	path := d.path(key)

	// Write to a temp file first so readers never see a partial page
	tmp, err := os.CreateTemp(d.dir, ".page-*")
	if err != nil {
		return key, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return key, fmt.Errorf("failed to write page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return key, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return key, fmt.Errorf("failed to store page: %w", err)
	}

	log.Debug().Str("key", string(key)).Str("file", path).Int("bytes", len(html)).Msg("Stored page on disk")
	return key, nil
}

func (d *DiskStore) Load(_ context.Context, h Handle) (string, bool, error) {
	path := d.path(h)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if d.now().Sub(info.ModTime()) > d.ttl {
		os.Remove(path)
		return "", false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (d *DiskStore) Close() error { return nil }

func (d *DiskStore) path(h Handle) string {
	return filepath.Join(d.dir, fileNameFor(h))
}

// fileNameFor maps a handle to a flat, traversal-safe file name. The readable
// stem is lossy, the hash suffix keeps names unique.
func fileNameFor(h Handle) string {
	sum := sha256.Sum256([]byte(h))
	return sanitizeStem(string(h)) + "_" + hex.EncodeToString(sum[:8]) + ".html"
}

func sanitizeStem(input string) string {
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		input = u.Host + u.Path
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	input = replacer.Replace(input)
	input = strings.Trim(strings.TrimSpace(input), "._")

	if input == "" {
		input = "page"
	}
	if len(input) > maxStemLength {
		input = input[:maxStemLength]
	}
	return input
}
