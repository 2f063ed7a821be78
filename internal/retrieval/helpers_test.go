package retrieval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

const scenarioCatalog = `{"items":[
  {"itemId": 1, "description": "Bleach White", "major": "Chemicals", "stockvalue": 100},
  {"itemId": 2, "description": "Olive Dye", "major": "Dyes", "stockvalue": 500}
]}`

const richCatalog = `{"items":[
  {"itemId": 1001, "description": "Bleach White", "major": "Chemicals", "fabType": "Cotton", "qty": 200, "stockValue": 5000, "secQty": 50},
  {"itemId": 1002, "description": "Olive Dye", "major": "Dyes", "fabType": "Cotton", "qty": 80, "stockValue": 12500, "secQty": 20},
  {"itemId": 1003, "description": "Sulphur Olive Green", "major": "Dyes", "fabType": "Polyester", "qty": 45, "stockValue": 9800},
  {"itemId": 1004, "description": "Caustic Soda Flakes", "major": "Chemicals", "fabType": "Cotton", "qty": 1500, "stockValue": 61000},
  {"itemId": 1005, "description": "Olive Dye", "major": "Dyes", "fabType": "Blend", "qty": 25, "stockValue": 12500},
  {"itemId": 1006, "description": "Acetic Acid", "major": "Chemicals", "qty": "n/a"}
]}`

func mustCatalog(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)
	return c
}

func itemIDs(records []catalog.Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ItemID
	}
	return ids
}

// fakeDelegate answers with a fixed string or error and counts calls.
type fakeDelegate struct {
	answer  string
	err     error
	calls   atomic.Int32
	block   chan struct{}
	records atomic.Int32
}

func (f *fakeDelegate) Answer(ctx context.Context, question string, records []catalog.Record) (string, error) {
	f.calls.Add(1)
	f.records.Store(int32(len(records)))
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

var errProviderDown = errors.New("provider unavailable")

// recordingAuditor keeps every audited response.
type recordingAuditor struct {
	mu        sync.Mutex
	responses []*Response
}

func (a *recordingAuditor) Record(_ context.Context, resp *Response) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses = append(a.responses, resp)
}

func (a *recordingAuditor) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.responses)
}
