package ui

import (
	"fmt"

	"github.com/law-makers/seocrawl/pkg/models"
)

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorWhite  = "\033[97m"
)

// Score thresholds for coloring
const (
	GoodScore = 80
	FairScore = 50
)

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Dim(s string) string {
	return ColorDim + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Score renders "n/100" green, yellow or red by band
func Score(n int) string {
	color := ColorRed
	switch {
	case n >= GoodScore:
		color = ColorGreen
	case n >= FairScore:
		color = ColorYellow
	}
	return fmt.Sprintf("%s%d/100%s", color, n, ColorReset)
}

// Severity renders a site issue severity tag
func Severity(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return ColorRed + "[high]" + ColorReset
	case models.SeverityMedium:
		return ColorYellow + "[medium]" + ColorReset
	default:
		return ColorCyan + "[" + string(s) + "]" + ColorReset
	}
}
