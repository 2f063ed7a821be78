package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// ErrNoDelegate is reported when the chain reaches the model stage with no
// delegate configured.
var ErrNoDelegate = errors.New("no language model delegate configured")

// Delegate answers a free-text question grounded on catalog records. The
// answer text is passed through untouched.
type Delegate interface {
	Answer(ctx context.Context, question string, records []catalog.Record) (string, error)
}

// FallbackConfig configures fallback behavior.
type FallbackConfig struct {
	// QACutoff is the minimum similarity for a curated answer
	QACutoff float64
	// DelegateTimeout bounds a single model call
	DelegateTimeout time.Duration
	// MaxConcurrent limits simultaneous model calls
	MaxConcurrent int
	// DefaultResponseMessage is returned when no delegate is available
	DefaultResponseMessage string
}

// DefaultFallbackConfig returns default fallback configuration.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		QACutoff:               0.6,
		DelegateTimeout:        30 * time.Second,
		MaxConcurrent:          4,
		DefaultResponseMessage: "The inventory assistant is currently unavailable.",
	}
}

// FallbackResult contains the result of fallback resolution.
type FallbackResult struct {
	Outcome Outcome
	Answer  string
	// Source is qa, llm or policy
	Source string
	// Score is the QA similarity on a qa hit
	Score float64
	Err   error
}

// FallbackChain consults the curated QA table, then the language model.
// Model calls are bounded, deduplicated per question, and never retried.
type FallbackChain struct {
	logger   *observability.Logger
	metrics  *observability.Metrics
	qa       atomic.Pointer[QATable]
	qaGen    atomic.Uint64
	delegate Delegate
	sem      *semaphore.Weighted
	flights  singleflight.Group
	config   FallbackConfig
}

// NewFallbackChain creates a chain. qa and delegate may be nil.
func NewFallbackChain(logger *observability.Logger, qa *QATable, delegate Delegate, metrics *observability.Metrics, config FallbackConfig) *FallbackChain {
	def := DefaultFallbackConfig()
	if config.QACutoff <= 0 {
		config.QACutoff = def.QACutoff
	}
	if config.DelegateTimeout <= 0 {
		config.DelegateTimeout = def.DelegateTimeout
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	if config.DefaultResponseMessage == "" {
		config.DefaultResponseMessage = def.DefaultResponseMessage
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	fc := &FallbackChain{
		logger:   logger,
		metrics:  metrics,
		delegate: delegate,
		sem:      semaphore.NewWeighted(int64(config.MaxConcurrent)),
		config:   config,
	}
	if qa == nil {
		qa = NewQATable(nil)
	}
	fc.qa.Store(qa)
	return fc
}

// ReplaceQA swaps in a new curated table and advances the QA generation.
func (f *FallbackChain) ReplaceQA(qa *QATable) {
	if qa == nil {
		qa = NewQATable(nil)
	}
	f.qa.Store(qa)
	f.qaGen.Add(1)
}

// QAGeneration counts curated table replacements. Cached responses are keyed
// on it so an answer computed against an old table is never served again.
func (f *FallbackChain) QAGeneration() uint64 {
	return f.qaGen.Load()
}

// QA returns the live curated table.
func (f *FallbackChain) QA() *QATable {
	return f.qa.Load()
}

// LookupQA runs only the curated stage.
func (f *FallbackChain) LookupQA(question string) (FallbackResult, bool) {
	entry, score, ok := f.qa.Load().Lookup(question, f.config.QACutoff)
	if !ok {
		return FallbackResult{}, false
	}
	return FallbackResult{Outcome: OutcomeQAHit, Answer: entry.Answer, Source: "qa", Score: score}, true
}

// Resolve runs the full chain for a question against a snapshot.
func (f *FallbackChain) Resolve(ctx context.Context, question string, snap *catalog.Snapshot) FallbackResult {
	if hit, ok := f.LookupQA(question); ok {
		f.logger.Debug().Float64("score", hit.Score).Msg("Curated answer matched")
		return hit
	}

	if f.delegate == nil {
		f.metrics.ObserveDelegation("skipped")
		return FallbackResult{
			Outcome: OutcomeEmpty,
			Answer:  f.config.DefaultResponseMessage,
			Source:  "policy",
			Err:     ErrNoDelegate,
		}
	}

	answer, err := f.delegateOnce(ctx, question, snap)
	if err != nil {
		f.metrics.ObserveDelegation("error")
		f.logger.Warn().Err(err).Msg("Model delegation failed")
		return FallbackResult{
			Outcome: OutcomeDelegationFailed,
			Answer:  fmt.Sprintf("❌ Inventory assistant error: %v", errors.Unwrap(err)),
			Source:  "llm",
			Err:     err,
		}
	}

	f.metrics.ObserveDelegation("ok")
	return FallbackResult{Outcome: OutcomeDelegated, Answer: answer, Source: "llm"}
}

// delegateOnce shares one in-flight model call among identical questions on
// the same snapshot. The shared call is detached from any single caller's
// cancellation; each caller still stops waiting when its own context ends.
func (f *FallbackChain) delegateOnce(ctx context.Context, question string, snap *catalog.Snapshot) (string, error) {
	key := snap.Version + "|" + normalizeQuestion(question)

	ch := f.flights.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.config.DelegateTimeout)
		defer cancel()

		if err := f.sem.Acquire(callCtx, 1); err != nil {
			return nil, err
		}
		defer f.sem.Release(1)

		start := time.Now()
		answer, err := f.delegate.Answer(callCtx, question, snap.Catalog.Records())
		f.logger.Debug().Dur("duration", time.Since(start)).Bool("ok", err == nil).Msg("Model call finished")
		return answer, err
	})

	select {
	case <-ctx.Done():
		return "", domain.DelegationError("model call abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", domain.DelegationError("model call failed", res.Err)
		}
		return strings.TrimSpace(res.Val.(string)), nil
	}
}
