package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	noColorFlag bool
	verboseFlag bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// InitUI initializes the UI with color and verbose settings.
func InitUI(noColor, verbose bool) {
	noColorFlag = noColor
	verboseFlag = verbose

	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects UI output. Nil writers restore the process streams.
func SetOutput(out, errOut io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout = out
	stderr = errOut
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verboseFlag
}
