package retrieval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

// QAEntry is one curated question and its answer.
type QAEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QATable is an immutable set of curated answers matched by fuzzy question text.
type QATable struct {
	entries   []QAEntry
	questions []string // lowercased, trimmed; parallel to entries
}

// NewQATable builds a table, dropping entries without a question or answer.
func NewQATable(entries []QAEntry) *QATable {
	t := &QATable{}
	for _, e := range entries {
		q := normalizeQuestion(e.Question)
		if q == "" || strings.TrimSpace(e.Answer) == "" {
			continue
		}
		t.entries = append(t.entries, e)
		t.questions = append(t.questions, q)
	}
	return t
}

// LoadQAFile reads a QA document. A missing file is not an error: it returns
// an empty table and found=false. A malformed file is a config error.
func LoadQAFile(path string) (table *QATable, found bool, err error) {
	if path == "" {
		return NewQATable(nil), false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewQATable(nil), false, nil
	}
	if err != nil {
		return nil, false, domain.ConfigError(fmt.Sprintf("read qa source %s", path), err)
	}
	table, err = ParseQA(data)
	if err != nil {
		return nil, true, err
	}
	return table, true, nil
}

// ParseQA accepts either a JSON array of entries or {"qa": [...]}.
func ParseQA(data []byte) (*QATable, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return NewQATable(nil), nil
	}

	var entries []QAEntry
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, domain.ConfigError("parse qa source", err)
		}
		return NewQATable(entries), nil
	}

	var doc struct {
		QA *[]QAEntry `json:"qa"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, domain.ConfigError("parse qa source", err)
	}
	if doc.QA == nil {
		return nil, domain.ConfigError(`qa source has no "qa" array`, nil)
	}
	return NewQATable(*doc.QA), nil
}

// Len returns the number of entries.
func (t *QATable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the entries in source order.
func (t *QATable) Entries() []QAEntry {
	if t == nil {
		return nil
	}
	return t.entries
}

// Lookup returns the entry whose question best matches text at or above
// cutoff. Earlier entries win ties.
func (t *QATable) Lookup(text string, cutoff float64) (QAEntry, float64, bool) {
	if t.Len() == 0 {
		return QAEntry{}, 0, false
	}
	q := normalizeQuestion(text)
	if q == "" {
		return QAEntry{}, 0, false
	}
	m, ok := BestMatch(q, t.questions, cutoff)
	if !ok {
		return QAEntry{}, 0, false
	}
	return t.entries[m.Index], m.Score, true
}

func normalizeQuestion(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
