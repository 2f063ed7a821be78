// Package monitoring provides query audit logging.
package monitoring

import (
	"context"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

const persistTimeout = 2 * time.Second

// QueryLogStore persists audit entries.
type QueryLogStore interface {
	Insert(ctx context.Context, e *storage.QueryLogEntry) error
}

// AuditLogger writes every resolved query to the structured log and, when a
// store is configured, to the query log table. Persistence failures are
// logged and never surface to the caller.
type AuditLogger struct {
	logger *observability.Logger
	store  QueryLogStore
}

// NewAuditLogger creates a new audit logger. store may be nil.
func NewAuditLogger(logger *observability.Logger, store QueryLogStore) *AuditLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AuditLogger{
		logger: logger.WithOperation("audit"),
		store:  store,
	}
}

// Record implements retrieval.Auditor.
func (a *AuditLogger) Record(ctx context.Context, resp *retrieval.Response) {
	entry := EntryFromResponse(resp)
	entry.RequestID = observability.RequestIDFromContext(ctx)

	a.logger.Info().
		Str("query_id", resp.ID).
		Str("request_id", entry.RequestID).
		Str("intent", entry.Intent).
		Str("outcome", entry.Outcome).
		Int("result_count", entry.ResultCount).
		Msg("Audit event")

	if a.store == nil {
		return
	}

	// The audit write outlives a cancelled request but not a stuck database.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := a.store.Insert(writeCtx, entry); err != nil {
		a.logger.Warn().Err(err).Str("query_id", resp.ID).Msg("Failed to persist audit event")
	}
}

// LogCatalogReload records a catalog reload attempt.
func (a *AuditLogger) LogCatalogReload(snap *catalog.Snapshot, err error) {
	if err != nil {
		a.logger.Warn().Err(err).Msg("Catalog reload rejected")
		return
	}
	a.logger.Info().
		Str("catalog_version", snap.Version).
		Int("records", snap.Catalog.Len()).
		Msg("Catalog reloaded")
}

// EntryFromResponse maps a router response onto a query log row.
func EntryFromResponse(resp *retrieval.Response) *storage.QueryLogEntry {
	return &storage.QueryLogEntry{
		Question:       resp.Question,
		Intent:         string(resp.Intent),
		Category:       string(resp.Category),
		Field:          string(resp.Field),
		Condition:      string(resp.Condition),
		Value:          resp.Value,
		Outcome:        string(resp.Outcome),
		Source:         resp.Source,
		ResultCount:    resp.Result.Total,
		LatencyMs:      resp.LatencyMs,
		CatalogVersion: resp.CatalogVersion,
		Cached:         resp.Cached,
	}
}
