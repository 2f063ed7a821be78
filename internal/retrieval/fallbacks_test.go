package retrieval

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

func testQATable() *QATable {
	return NewQATable([]QAEntry{
		{Question: "what are your working hours", Answer: "Monday to Saturday, 9am to 6pm."},
	})
}

func TestFallbackChain_QAFirst(t *testing.T) {
	delegate := &fakeDelegate{answer: "from model"}
	chain := NewFallbackChain(nil, testQATable(), delegate, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	res := chain.Resolve(context.Background(), "What are your working hours?", snap)
	assert.Equal(t, OutcomeQAHit, res.Outcome)
	assert.Equal(t, "qa", res.Source)
	assert.Equal(t, "Monday to Saturday, 9am to 6pm.", res.Answer)
	assert.Greater(t, res.Score, 0.9)
	assert.Zero(t, delegate.calls.Load())
}

func TestFallbackChain_Delegates(t *testing.T) {
	delegate := &fakeDelegate{answer: "  • Olive Dye\n"}
	chain := NewFallbackChain(nil, testQATable(), delegate, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	res := chain.Resolve(context.Background(), "which dye is olive", snap)
	assert.Equal(t, OutcomeDelegated, res.Outcome)
	assert.Equal(t, "llm", res.Source)
	assert.Equal(t, "• Olive Dye", res.Answer)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(1), delegate.calls.Load())
	assert.Equal(t, int32(2), delegate.records.Load())
}

func TestFallbackChain_DelegateFailure(t *testing.T) {
	delegate := &fakeDelegate{err: errProviderDown}
	chain := NewFallbackChain(nil, nil, delegate, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	res := chain.Resolve(context.Background(), "anything at all", snap)
	assert.Equal(t, OutcomeDelegationFailed, res.Outcome)
	assert.Equal(t, "❌ Inventory assistant error: provider unavailable", res.Answer)
	assert.ErrorIs(t, res.Err, errProviderDown)

	// Failures are not retried.
	assert.Equal(t, int32(1), delegate.calls.Load())
}

func TestFallbackChain_NoDelegate(t *testing.T) {
	chain := NewFallbackChain(nil, nil, nil, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	res := chain.Resolve(context.Background(), "anything at all", snap)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Equal(t, "policy", res.Source)
	assert.Equal(t, DefaultFallbackConfig().DefaultResponseMessage, res.Answer)
	assert.ErrorIs(t, res.Err, ErrNoDelegate)
}

func TestFallbackChain_Timeout(t *testing.T) {
	delegate := &fakeDelegate{answer: "late", block: make(chan struct{})}
	cfg := DefaultFallbackConfig()
	cfg.DelegateTimeout = 50 * time.Millisecond
	chain := NewFallbackChain(nil, nil, delegate, nil, cfg)
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	res := chain.Resolve(context.Background(), "slow question", snap)
	assert.Equal(t, OutcomeDelegationFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestFallbackChain_CallerCancel(t *testing.T) {
	delegate := &fakeDelegate{answer: "late", block: make(chan struct{})}
	defer close(delegate.block)
	chain := NewFallbackChain(nil, nil, delegate, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := chain.Resolve(ctx, "slow question", snap)
	assert.Equal(t, OutcomeDelegationFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestFallbackChain_SharesInFlightCalls(t *testing.T) {
	delegate := &fakeDelegate{answer: "shared", block: make(chan struct{})}
	chain := NewFallbackChain(nil, nil, delegate, nil, DefaultFallbackConfig())
	snap := catalog.NewSnapshot(mustCatalog(t, scenarioCatalog))

	const callers = 4
	var wg sync.WaitGroup
	results := make([]FallbackResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = chain.Resolve(context.Background(), "Same Question", snap)
		}(i)
	}

	require.Eventually(t, func() bool { return delegate.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(delegate.block)
	wg.Wait()

	assert.Equal(t, int32(1), delegate.calls.Load())
	for _, res := range results {
		assert.Equal(t, OutcomeDelegated, res.Outcome)
		assert.Equal(t, "shared", res.Answer)
	}
}

func TestFallbackChain_ReplaceQA(t *testing.T) {
	chain := NewFallbackChain(nil, nil, nil, nil, DefaultFallbackConfig())
	_, ok := chain.LookupQA("what are your working hours")
	assert.False(t, ok)
	assert.Zero(t, chain.QAGeneration())

	chain.ReplaceQA(testQATable())
	assert.Equal(t, uint64(1), chain.QAGeneration())
	assert.Equal(t, 1, chain.QA().Len())
	_, ok = chain.LookupQA("what are your working hours")
	assert.True(t, ok)

	chain.ReplaceQA(nil)
	assert.Equal(t, 0, chain.QA().Len())
}
