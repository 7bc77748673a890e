// Package ui styles help output and run summaries with ANSI escapes.
package ui

import "sync"

// ANSI escapes. SetEnabled(false) blanks them so the same output can go to
// a file or a pipe.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

var (
	mu      sync.Mutex
	enabled = true
	palette = [...]*string{&ColorReset, &ColorBold, &ColorDim, &ColorCyan, &ColorGreen, &ColorYellow, &ColorWhite, &ColorRed}
	codes   = [...]string{"\033[0m", "\033[1m", "\033[2m", "\033[36m", "\033[32m", "\033[33m", "\033[97m", "\033[31m"}
)

// SetEnabled switches styling on or off for every later call
func SetEnabled(on bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = on
	for i, p := range palette {
		if on {
			*p = codes[i]
		} else {
			*p = ""
		}
	}
}

// Enabled reports whether styling is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}

// Heading styles a command title in help output
func Heading(s string) string {
	return ColorBold + ColorCyan + s + ColorReset
}

// Section styles a help section title
func Section(s string) string {
	return ColorBold + ColorWhite + s + ColorReset
}

// Outcome colours an item status word: value, absent or error
func Outcome(status string) string {
	switch status {
	case "value":
		return Success(status)
	case "absent":
		return Info(status)
	default:
		return Error(status)
	}
}
