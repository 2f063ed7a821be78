package retrieval

import "github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"

// Tally is one labelled count in a ranked or grouped answer.
type Tally struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Answer is a scalar or narrative result.
type Answer struct {
	Text    string   `json:"text"`
	Value   *float64 `json:"value,omitempty"`
	Tallies []Tally  `json:"tallies,omitempty"`
}

// QueryResult holds either an Answer or a record list with its total match
// count, never both. The zero value is the empty result.
type QueryResult struct {
	Answer  *Answer          `json:"answer,omitempty"`
	Records []catalog.Record `json:"records,omitempty"`
	Total   int              `json:"total"`
}

// ResultKind discriminates QueryResult variants.
type ResultKind string

const (
	ResultEmpty   ResultKind = "empty"
	ResultAnswer  ResultKind = "answer"
	ResultRecords ResultKind = "records"
)

// AnswerResult builds an answer-only result.
func AnswerResult(a Answer) QueryResult {
	return QueryResult{Answer: &a}
}

// RecordsResult builds a record result. total may exceed len(records) when
// the list is a capped preview. No records yields the empty result.
func RecordsResult(records []catalog.Record, total int) QueryResult {
	if len(records) == 0 {
		return QueryResult{}
	}
	if total < len(records) {
		total = len(records)
	}
	return QueryResult{Records: records, Total: total}
}

// Kind reports which variant is populated.
func (r QueryResult) Kind() ResultKind {
	switch {
	case r.Answer != nil:
		return ResultAnswer
	case len(r.Records) > 0:
		return ResultRecords
	default:
		return ResultEmpty
	}
}

// Empty reports whether nothing matched.
func (r QueryResult) Empty() bool {
	return r.Kind() == ResultEmpty
}
