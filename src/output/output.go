package output

import (
	"os"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

// Colorize wraps text in an ANSI color when enabled.
func Colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return color + text + colorReset
}

// Bold returns bold text if color is enabled.
func Bold(text string, color bool) string {
	return Colorize(text, colorBold, color)
}

// Dimmed returns gray text if color is enabled.
func Dimmed(text string, color bool) string {
	return Colorize(text, colorGray, color)
}

// Failed returns red text if color is enabled.
func Failed(text string, color bool) string {
	return Colorize(text, colorRed, color)
}

// Succeeded returns green text if color is enabled.
func Succeeded(text string, color bool) string {
	return Colorize(text, colorGreen, color)
}
