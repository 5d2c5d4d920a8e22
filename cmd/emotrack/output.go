package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// statusOut receives status lines; command results go to the command's stdout.
var statusOut io.Writer = os.Stderr

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// scoreColor maps a score (or rounded average) to a color. The scale is
// inverted: low scores are the good end.
func scoreColor(score int) string {
	switch {
	case score <= 3:
		return colorGreen
	case score <= 5:
		return colorBlue
	case score <= 7:
		return colorYellow
	default:
		return colorRed
	}
}

func printLine(color, symbol, format string, args []any) {
	fmt.Fprintln(statusOut, colorize(color, symbol+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printLine(colorGreen, "✓", format, args) }

func printError(format string, args ...any) { printLine(colorRed, "✗", format, args) }

func printWarning(format string, args ...any) { printLine(colorYellow, "⚠", format, args) }

func printStep(format string, args ...any) { printLine(colorCyan, "→", format, args) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(statusOut, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
