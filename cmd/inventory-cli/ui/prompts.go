package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LineReader reads trimmed input lines after printing a prompt.
type LineReader struct {
	reader *bufio.Reader
}

// NewLineReader creates a reader over r, or stdin when r is nil.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		r = os.Stdin
	}
	return &LineReader{reader: bufio.NewReader(r)}
}

// Prompt prints message and returns the next trimmed line. io.EOF is
// returned once input is exhausted and nothing was read.
func (l *LineReader) Prompt(message string) (string, error) {
	headingColor.Fprintf(stdout, "%s ", message)
	input, err := l.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		if err == io.EOF {
			fmt.Fprintln(stdout)
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}
