package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// QueryLogEntry is one audited query.
type QueryLogEntry struct {
	ID             uuid.UUID `json:"id"`
	RequestID      string    `json:"requestId,omitempty"`
	Question       string    `json:"question"`
	Intent         string    `json:"intent,omitempty"`
	Category       string    `json:"category,omitempty"`
	Field          string    `json:"field,omitempty"`
	Condition      string    `json:"condition,omitempty"`
	Value          string    `json:"value,omitempty"`
	Outcome        string    `json:"outcome"`
	Source         string    `json:"source"`
	ResultCount    int       `json:"resultCount"`
	LatencyMs      int64     `json:"latencyMs"`
	CatalogVersion string    `json:"catalogVersion"`
	Cached         bool      `json:"cached"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// QueryLogRepository handles query log persistence.
type QueryLogRepository struct {
	db DB
}

// NewQueryLogRepository creates a new query log repository.
func NewQueryLogRepository(db DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

const queryLogColumns = `id, request_id, question, intent, category, field, match_condition, value,
	outcome, source, result_count, latency_ms, catalog_version, cached, occurred_at`

// Insert stores an entry, assigning an ID and timestamp when unset.
func (r *QueryLogRepository) Insert(ctx context.Context, e *QueryLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO query_log (` + queryLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(), e.RequestID, e.Question, e.Intent, e.Category, e.Field, e.Condition, e.Value,
		e.Outcome, e.Source, e.ResultCount, e.LatencyMs, e.CatalogVersion, e.Cached, e.OccurredAt,
	)
	return err
}

// GetByID retrieves an entry by ID.
func (r *QueryLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*QueryLogEntry, error) {
	query := `SELECT ` + queryLogColumns + ` FROM query_log WHERE id = $1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit entries, newest first.
func (r *QueryLogRepository) Recent(ctx context.Context, limit int) ([]QueryLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + queryLogColumns + ` FROM query_log ORDER BY occurred_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []QueryLogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// CountByOutcome returns the number of entries per outcome.
func (r *QueryLogRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM query_log GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*QueryLogEntry, error) {
	e := &QueryLogEntry{}
	var id string
	err := row.Scan(
		&id, &e.RequestID, &e.Question, &e.Intent, &e.Category, &e.Field, &e.Condition, &e.Value,
		&e.Outcome, &e.Source, &e.ResultCount, &e.LatencyMs, &e.CatalogVersion, &e.Cached, &e.OccurredAt,
	)
	if err != nil {
		return nil, err
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	return e, nil
}
