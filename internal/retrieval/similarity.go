package retrieval

import (
	"github.com/hbollon/go-edlib"
)

// Similarity returns the Levenshtein similarity ratio of a and b in [0, 1],
// where 1 means identical. Inputs are compared as given; callers lowercase.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(score)
}

// Match is the outcome of a best-match lookup.
type Match struct {
	Value string
	Index int
	Score float64
}

// BestMatch returns the single closest choice to query scoring at least cutoff.
// On equal scores the earliest choice wins.
func BestMatch(query string, choices []string, cutoff float64) (Match, bool) {
	best := Match{Index: -1}
	for i, choice := range choices {
		score := Similarity(query, choice)
		if score >= cutoff && score > best.Score {
			best = Match{Value: choice, Index: i, Score: score}
		}
	}
	return best, best.Index >= 0
}
