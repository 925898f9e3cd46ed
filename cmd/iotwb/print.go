package main

import (
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// printSuccess prints a success line with a check mark.
func printSuccess(w io.Writer, format string, a ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

// printWarning prints a warning line.
func printWarning(w io.Writer, format string, a ...any) {
	_, _ = warningColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

// printInfo prints an indented informational line.
func printInfo(w io.Writer, format string, a ...any) {
	_, _ = infoColor.Fprintf(w, "  "+format+"\n", a...)
}
