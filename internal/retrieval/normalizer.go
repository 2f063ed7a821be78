package retrieval

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, drops every character that is not a letter,
// digit or whitespace, and splits on whitespace. Dropped characters are
// removed rather than replaced, so "stock-value" becomes "stockvalue" and
// "1,250" becomes "1250". Empty input yields no tokens.
func Normalize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// isNumeric reports whether the token consists of ASCII digits only.
func isNumeric(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}

// tokenSet is a membership view over a token sequence.
type tokenSet map[string]struct{}

func newTokenSet(tokens []string) tokenSet {
	set := make(tokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func (s tokenSet) has(token string) bool {
	_, ok := s[token]
	return ok
}

// any reports whether any of words is present.
func (s tokenSet) any(words []string) bool {
	for _, w := range words {
		if s.has(w) {
			return true
		}
	}
	return false
}
