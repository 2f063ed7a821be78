// Package ui provides terminal output for the inventory CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headingColor = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

// Message displays a plain message.
func Message(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
	fmt.Fprintln(stdout)
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	warningColor.Fprintf(stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Debug displays a message only in verbose mode.
func Debug(format string, args ...interface{}) {
	if !verboseFlag {
		return
	}
	dimColor.Fprintf(stdout, "· %s\n", fmt.Sprintf(format, args...))
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(stdout)
}

// Section displays a section header.
func Section(title string) {
	headingColor.Fprintf(stdout, "\n%s\n", title)
	fmt.Fprintf(stdout, "%s\n\n", strings.Repeat("=", len([]rune(title))))
}

// KeyValue displays a key-value pair.
func KeyValue(key, value string) {
	fmt.Fprintf(stdout, "  %s: %s\n", key, value)
}

// Hint prints a dimmed usage hint.
func Hint(format string, args ...interface{}) {
	dimColor.Fprintf(stdout, "%s\n", fmt.Sprintf(format, args...))
}
