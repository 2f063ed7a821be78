// Package retrieval resolves natural-language inventory questions into
// deterministic catalog answers, falling back to curated answers and an
// external language model.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// NoMatchMessage is shown when a well-formed query matched nothing.
const NoMatchMessage = "⚠️ No matching records found."

// MaxPageSize caps caller-provided page sizes.
const MaxPageSize = 100

// Outcome is the terminal state of one query.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeClarify          Outcome = "clarify"
	OutcomeEmpty            Outcome = "empty"
	OutcomeQAHit            Outcome = "qa_hit"
	OutcomeDelegated        Outcome = "delegated"
	OutcomeDelegationFailed Outcome = "delegation_failed"
	OutcomeNoQuery          Outcome = "no_query"
)

// Deterministic reports whether the same question on the same catalog always
// produces this outcome, which makes the response cacheable.
func (o Outcome) Deterministic() bool {
	switch o {
	case OutcomeAnswered, OutcomeClarify, OutcomeEmpty, OutcomeQAHit:
		return true
	}
	return false
}

// Request is one question plus the caller-held page cursor.
type Request struct {
	Question string
	Page     int
	PageSize int
}

// Response is the resolved query.
type Response struct {
	ID             string                `json:"id"`
	Question       string                `json:"question"`
	Intent         Intent                `json:"intent,omitempty"`
	Category       Category              `json:"category,omitempty"`
	Field          catalog.Field         `json:"field,omitempty"`
	Condition      Condition             `json:"condition,omitempty"`
	Value          string                `json:"value,omitempty"`
	Outcome        Outcome               `json:"outcome"`
	Result         QueryResult           `json:"result"`
	Page           *Page[catalog.Record] `json:"page,omitempty"`
	Answer         string                `json:"answer"`
	Source         string                `json:"source"`
	CatalogVersion string                `json:"catalogVersion"`
	LatencyMs      int64                 `json:"latencyMs"`
	Cached         bool                  `json:"cached"`
}

// Auditor records every resolved query. Implementations must not block the
// caller on failure.
type Auditor interface {
	Record(ctx context.Context, resp *Response)
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	PageSize        int
	ValueCutoff     float64
	FallbackOnEmpty bool
	CacheResults    bool
	Executor        ExecutorConfig
}

// DefaultRouterConfig returns the standard router settings.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		PageSize:        DefaultPageSize,
		ValueCutoff:     0.7,
		FallbackOnEmpty: true,
		CacheResults:    true,
		Executor:        DefaultExecutorConfig(),
	}
}

// Router runs the per-query state machine: normalize, extract and classify
// in parallel, execute, page, and fall back when there is no signal.
type Router struct {
	logger     *observability.Logger
	store      *catalog.Store
	extractor  *Extractor
	classifier *IntentClassifier
	executor   *Executor
	fallback   *FallbackChain
	cache      *ResponseCache
	auditor    Auditor
	metrics    *observability.Metrics
	config     RouterConfig
}

// NewRouter creates a new query router. fallback, responseCache and metrics may be nil.
func NewRouter(
	logger *observability.Logger,
	store *catalog.Store,
	fallback *FallbackChain,
	responseCache *ResponseCache,
	metrics *observability.Metrics,
	cfg RouterConfig,
) *Router {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if fallback == nil {
		fallback = NewFallbackChain(logger, nil, nil, metrics, DefaultFallbackConfig())
	}

	return &Router{
		logger:     logger,
		store:      store,
		extractor:  NewExtractor(cfg.ValueCutoff),
		classifier: NewIntentClassifier(),
		executor:   NewExecutor(cfg.Executor),
		fallback:   fallback,
		cache:      responseCache,
		metrics:    metrics,
		config:     cfg,
	}
}

// SetAuditor attaches a query auditor.
func (r *Router) SetAuditor(a Auditor) {
	r.auditor = a
}

// Fallback returns the router's fallback chain.
func (r *Router) Fallback() *FallbackChain {
	return r.fallback
}

// InvalidateCache drops cached responses, e.g. after a catalog reload.
func (r *Router) InvalidateCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(ctx)
}

// Query resolves one question against the live catalog snapshot.
func (r *Router) Query(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	snap := r.store.Snapshot()
	if snap == nil {
		return nil, domain.CatalogError("no catalog loaded", nil)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = r.config.PageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	resp := &Response{
		ID:             uuid.NewString(),
		Question:       req.Question,
		CatalogVersion: snap.Version,
	}
	logger := r.logger.WithContext(ctx).WithQuery(resp.ID)

	var cacheKey string
	if r.config.CacheResults && r.cache != nil {
		version := snap.Version + "/qa" + strconv.FormatUint(r.fallback.QAGeneration(), 10)
		cacheKey = r.cache.CacheKey(version, req.Question, req.Page, pageSize)
		if cached, ok := r.cache.Get(ctx, cacheKey); ok {
			cached.ID = resp.ID
			cached.Cached = true
			r.finish(ctx, logger, cached, start)
			return cached, nil
		}
	}

	tokens := Normalize(req.Question)

	logger.Debug().
		Str("question", req.Question).
		Strs("tokens", tokens).
		Msg("Processing inventory query")

	if len(tokens) == 0 {
		// Only the curated stage may answer an empty query; the model never sees it.
		if hit, ok := r.fallback.LookupQA(req.Question); ok {
			applyFallback(resp, hit)
		} else {
			resp.Outcome = OutcomeNoQuery
			resp.Answer = "Please ask a question about the inventory."
			resp.Source = "engine"
		}
	} else {
		var (
			ex  Extraction
			cls Classification
		)
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error {
			ex = r.extractor.Extract(tokens, snap.Catalog.Index())
			return nil
		})
		g.Go(func() error {
			cls = r.classifier.Classify(tokens)
			return nil
		})
		_ = g.Wait()

		logger.Debug().
			Str("intent", string(cls.Intent)).
			Float64("confidence", cls.Confidence).
			Str("field", string(ex.Field)).
			Str("condition", string(ex.Condition)).
			Str("value_source", ex.ValueSource).
			Msg("Query classified")

		r.resolve(ctx, resp, snap, tokens, ex, cls, req.Page, pageSize)
	}

	r.finish(ctx, logger, resp, start)

	if cacheKey != "" && resp.Outcome.Deterministic() {
		_ = r.cache.Set(ctx, cacheKey, resp)
	}

	return resp, nil
}

func (r *Router) resolve(
	ctx context.Context,
	resp *Response,
	snap *catalog.Snapshot,
	tokens []string,
	ex Extraction,
	cls Classification,
	page, pageSize int,
) {
	resp.Intent = cls.Intent
	resp.Category = cls.Category
	resp.Field = ex.Field
	if ex.HasField() {
		resp.Condition = ex.Condition
	}
	if ex.Value != nil {
		resp.Value = ex.Value.String()
	}

	// A count that names a field and value counts the filtered records.
	if cls.Intent == IntentStockCount && ex.HasField() && ex.Value != nil {
		setResult(resp, r.executor.CountFilter(snap.Catalog, ex), page, pageSize)
		return
	}

	if cls.Matched() {
		result := r.executor.ExecuteIntent(snap.Catalog, cls, tokens)
		setResult(resp, result, page, pageSize)
		return
	}

	// Free text with no recognizable field always goes down the fallback chain.
	if !ex.HasField() {
		applyFallback(resp, r.fallback.Resolve(ctx, resp.Question, snap))
		return
	}

	if ex.Value == nil {
		resp.Outcome = OutcomeClarify
		resp.Answer = fmt.Sprintf("Which %s are you looking for?", ex.Field)
		resp.Source = "engine"
		return
	}

	result := r.executor.ExecuteFilter(snap.Catalog, ex)
	if result.Empty() && r.config.FallbackOnEmpty {
		fb := r.fallback.Resolve(ctx, resp.Question, snap)
		if errors.Is(fb.Err, ErrNoDelegate) {
			// The filter ran and matched nothing; say so rather than report an outage.
			fb.Answer = NoMatchMessage
		}
		applyFallback(resp, fb)
		return
	}
	setResult(resp, result, page, pageSize)
}

func setResult(resp *Response, result QueryResult, page, pageSize int) {
	resp.Result = result
	resp.Source = "engine"

	switch result.Kind() {
	case ResultEmpty:
		resp.Outcome = OutcomeEmpty
		resp.Answer = NoMatchMessage

	case ResultAnswer:
		resp.Outcome = OutcomeAnswered
		resp.Answer = result.Answer.Text

	case ResultRecords:
		resp.Outcome = OutcomeAnswered
		p := Paginate(result.Records, page, pageSize)
		resp.Page = &p
		if result.Total > len(result.Records) {
			resp.Answer = fmt.Sprintf("Showing %d of %d matching items", len(result.Records), result.Total)
		} else {
			resp.Answer = fmt.Sprintf("Found %d matching items", result.Total)
		}
	}
}

func applyFallback(resp *Response, fb FallbackResult) {
	resp.Outcome = fb.Outcome
	resp.Answer = fb.Answer
	resp.Source = fb.Source
}

func (r *Router) finish(ctx context.Context, logger *observability.Logger, resp *Response, start time.Time) {
	elapsed := time.Since(start)
	resp.LatencyMs = elapsed.Milliseconds()

	r.metrics.ObserveQuery(string(resp.Intent), string(resp.Outcome), elapsed)

	if r.auditor != nil {
		r.auditor.Record(ctx, resp)
	}

	logger.Info().
		Str("intent", string(resp.Intent)).
		Str("outcome", string(resp.Outcome)).
		Str("source", resp.Source).
		Int("results", resp.Result.Total).
		Bool("cached", resp.Cached).
		Int64("latency_ms", resp.LatencyMs).
		Msg("Query resolved")
}
