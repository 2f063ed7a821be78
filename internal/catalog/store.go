package catalog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// Snapshot is one consistent catalog generation. Queries hold a snapshot for
// their whole lifetime so a concurrent reload is never observed half-way.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	Catalog  *Catalog
}

// NewSnapshot wraps a catalog in a fresh snapshot.
func NewSnapshot(c *Catalog) *Snapshot {
	return &Snapshot{
		Version:  uuid.NewString(),
		LoadedAt: time.Now().UTC(),
		Catalog:  c,
	}
}

// Store serves the live snapshot and swaps it atomically on reload.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes reloads
	logger  *observability.Logger
	metrics *observability.Metrics
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *observability.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithMetrics sets the store metrics sink.
func WithMetrics(m *observability.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// Open loads the catalog at path and returns a store serving it. A missing
// or malformed source fails here rather than producing an empty catalog.
func Open(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{path: path, logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStore returns a store serving an in-memory catalog with no backing file.
func NewStore(c *Catalog, opts ...StoreOption) *Store {
	s := &Store{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(NewSnapshot(c))
	s.metrics.ObserveCatalogLoad(c.Len(), nil)
	return s
}

// Snapshot returns the live snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Path returns the backing file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file and swaps in a new snapshot. On failure
// the previous snapshot stays live.
func (s *Store) Reload() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return s.current.Load(), nil
	}

	start := time.Now()
	c, err := LoadFile(s.path)
	s.metrics.ObserveCatalogLoad(recordCount(c), err)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Catalog load failed")
		return nil, err
	}

	snap := NewSnapshot(c)
	s.current.Store(snap)

	s.logger.Info().
		Str("path", s.path).
		Str("version", snap.Version).
		Int("records", c.Len()).
		Dur("duration", time.Since(start)).
		Msg("Catalog loaded")

	return snap, nil
}

// Replace swaps in an already-built catalog.
func (s *Store) Replace(c *Catalog) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := NewSnapshot(c)
	s.current.Store(snap)
	s.metrics.ObserveCatalogLoad(c.Len(), nil)
	return snap
}

func recordCount(c *Catalog) int {
	if c == nil {
		return 0
	}
	return c.Len()
}
