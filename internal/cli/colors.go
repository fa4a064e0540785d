package cli

import (
	"fmt"
	"os"
)

const (
	ResetCode = "\033[0m"
	DimCode   = "\033[2m"
	Bold      = "\033[1m"
	Red       = "\033[31m"
	Green     = "\033[32m"
	Yellow    = "\033[33m"
	Blue      = "\033[34m"
	Purple    = "\033[35m"
	Cyan      = "\033[36m"
)

// RGB represents a TrueColor
type RGB struct {
	R, G, B float64
}

var (
	BrandBlue   = RGB{0, 120, 255}
	BrandPurple = RGB{189, 52, 235}
)

// Enabled reports whether ANSI colours should be emitted. NO_COLOR wins.
func Enabled() bool {
	_, off := os.LookupEnv("NO_COLOR")
	return !off
}

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if !Enabled() {
		return text
	}
	return colorCode + text + ResetCode
}

// Gradient colours text by interpolating between start and end at progress
// (0.0 to 1.0).
func Gradient(text string, start, end RGB, progress float64) string {
	if !Enabled() {
		return text
	}
	r := start.R + (end.R-start.R)*progress
	g := start.G + (end.G-start.G)*progress
	b := start.B + (end.B-start.B)*progress
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s%s", int(r), int(g), int(b), text, ResetCode)
}

func CheckMark() string {
	return Style("✔", Green)
}

func Arrow() string {
	return Style("➜", Blue)
}

func CrossMark() string {
	return Style("✘", Red)
}
