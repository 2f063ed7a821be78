package retrieval

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

const (
	minIDDigits    = 4
	maxPhraseWords = 6
)

// Extraction is the field, condition and value recognized in a query. Any of
// them may be missing independently.
type Extraction struct {
	Field     catalog.Field
	Condition Condition
	Value     *catalog.Value
	// ValueSource records how the value was found: id, exact, fuzzy, numeric or literal.
	ValueSource string
}

// HasField reports whether a field was recognized.
func (e Extraction) HasField() bool {
	return e.Field != ""
}

// Extractor maps query tokens onto a field, condition and value.
type Extractor struct {
	valueCutoff float64
}

// NewExtractor creates an extractor accepting fuzzy value matches at or
// above valueCutoff.
func NewExtractor(valueCutoff float64) *Extractor {
	if valueCutoff <= 0 {
		valueCutoff = 0.7
	}
	return &Extractor{valueCutoff: valueCutoff}
}

// Extract runs field, condition and value detection. It has no side effects.
func (x *Extractor) Extract(tokens []string, idx *catalog.Index) Extraction {
	set := newTokenSet(tokens)
	cond, _ := detectCondition(set)
	out := Extraction{Condition: cond}

	field, ok := detectField(set)
	if !ok {
		return out
	}
	out.Field = field

	if field == catalog.FieldItemID {
		if v, ok := idValue(tokens); ok {
			out.Value, out.ValueSource = v, "id"
			return out
		}
	}

	phrase := valueTokens(tokens)

	if field.IsText() && idx != nil {
		domain := idx.Values(field)
		if v, ok := exactValue(tokens, phrase, idx, field); ok {
			out.Value, out.ValueSource = v, "exact"
			return out
		}
		if v, ok := x.fuzzyValue(phrase, domain); ok {
			out.Value, out.ValueSource = v, "fuzzy"
			return out
		}
	}

	if v, ok := firstNumber(phrase); ok {
		out.Value, out.ValueSource = v, "numeric"
		return out
	}

	// Substring search does not need the value to exist in the index.
	if cond == ConditionContains && field.IsText() && len(phrase) > 0 {
		out.Value = &catalog.Value{Text: strings.Join(phrase, " ")}
		out.ValueSource = "literal"
	}

	return out
}

// idValue returns the first purely numeric token of at least four digits,
// falling back to any numeric token.
func idValue(tokens []string) (*catalog.Value, bool) {
	for _, t := range tokens {
		if isNumeric(t) && len(t) >= minIDDigits {
			return numericValue(t)
		}
	}
	return firstNumber(tokens)
}

func firstNumber(tokens []string) (*catalog.Value, bool) {
	for _, t := range tokens {
		if isNumeric(t) {
			return numericValue(t)
		}
	}
	return nil, false
}

func numericValue(token string) (*catalog.Value, bool) {
	n, ok := catalog.ParseNumber(token)
	if !ok {
		return nil, false
	}
	return &catalog.Value{Num: n, Numeric: true, Text: token}, true
}

// valueTokens drops field aliases, condition keywords and stop words, leaving
// the words that can name a value.
func valueTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if isNoiseWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// candidatePhrases lists contiguous n-grams of tokens, longest first and left
// to right within a length.
func candidatePhrases(tokens []string) []string {
	var out []string
	maxLen := len(tokens)
	if maxLen > maxPhraseWords {
		maxLen = maxPhraseWords
	}
	for n := maxLen; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// exactValue looks for a domain value among the n-grams of the full token
// sequence first, so values containing stop words or keywords ("acid for
// wool") still match, then among the n-grams of the stripped phrase.
func exactValue(tokens, phrase []string, idx *catalog.Index, field catalog.Field) (*catalog.Value, bool) {
	for _, candidate := range candidatePhrases(tokens) {
		if isNoiseWord(candidate) {
			continue
		}
		if idx.Contains(field, candidate) {
			return &catalog.Value{Text: candidate}, true
		}
	}
	for _, candidate := range candidatePhrases(phrase) {
		if idx.Contains(field, candidate) {
			return &catalog.Value{Text: candidate}, true
		}
	}
	return nil, false
}

// isNoiseWord reports whether a single-word candidate is a field alias,
// condition keyword or stop word.
func isNoiseWord(candidate string) bool {
	return fieldAliasSet.has(candidate) || conditionWordSet.has(candidate) || stopWords.has(candidate)
}

// fuzzyValue returns the single best domain value over all candidate phrases.
// Earlier (longer) candidates win ties.
func (x *Extractor) fuzzyValue(phrase []string, domain []string) (*catalog.Value, bool) {
	var best Match
	found := false
	for _, candidate := range candidatePhrases(phrase) {
		if isNumeric(candidate) {
			continue
		}
		m, ok := BestMatch(candidate, domain, x.valueCutoff)
		if ok && (!found || m.Score > best.Score) {
			best, found = m, true
		}
	}
	if !found {
		return nil, false
	}
	return &catalog.Value{Text: best.Value}, true
}
