package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Table displays data in a formatted table.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// Box displays text in a box with borders.
func Box(title string, content string) {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	maxWidth := len([]rune(title))
	for _, line := range lines {
		if n := len([]rune(line)); n > maxWidth {
			maxWidth = n
		}
	}
	if maxWidth < 40 {
		maxWidth = 40
	}

	horizontal := strings.Repeat("─", maxWidth+2)
	fmt.Fprintf(stdout, "┌%s┐\n", horizontal)
	if title != "" {
		fmt.Fprintf(stdout, "│ %s │\n", pad(title, maxWidth))
		fmt.Fprintf(stdout, "├%s┤\n", horizontal)
	}
	for _, line := range lines {
		fmt.Fprintf(stdout, "│ %s │\n", pad(line, maxWidth))
	}
	fmt.Fprintf(stdout, "└%s┘\n", horizontal)
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// Truncate shortens s to maxLen runes, marking the cut with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen || maxLen < 4 {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
