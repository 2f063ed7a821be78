package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

// Reloader re-reads the catalog and curated answers from their sources.
type Reloader interface {
	ReloadCatalog(ctx context.Context) (*catalog.Snapshot, error)
	ReloadQA(ctx context.Context) (*retrieval.QATable, error)
}

// CatalogHandler serves catalog and curated answer administration.
type CatalogHandler struct {
	logger   *observability.Logger
	store    *catalog.Store
	fallback *retrieval.FallbackChain
	reloader Reloader
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(logger *observability.Logger, store *catalog.Store, fallback *retrieval.FallbackChain, reloader Reloader) *CatalogHandler {
	return &CatalogHandler{
		logger:   logger.WithOperation("catalog"),
		store:    store,
		fallback: fallback,
		reloader: reloader,
	}
}

// CatalogStatsDTO describes the live catalog snapshot.
type CatalogStatsDTO struct {
	Version  string        `json:"version"`
	LoadedAt time.Time     `json:"loadedAt"`
	Source   string        `json:"source,omitempty"`
	Stats    catalog.Stats `json:"stats"`
}

// QAListDTO lists the curated answers.
type QAListDTO struct {
	Count   int                 `json:"count"`
	Entries []retrieval.QAEntry `json:"entries"`
}

// Stats handles GET /catalog/stats.
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded", "")
		return
	}
	writeJSON(w, http.StatusOK, h.statsDTO(snap))
}

// Reload handles POST /catalog/reload. A failed reload keeps serving the
// previous snapshot.
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, err := h.reloader.ReloadCatalog(ctx)
	if err != nil {
		h.logger.WithContext(ctx).Error().Err(err).Msg("Catalog reload failed")
		writeError(w, http.StatusUnprocessableEntity, "catalog reload failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.statsDTO(snap))
}

// ListQA handles GET /qa.
func (h *CatalogHandler) ListQA(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, qaList(h.fallback.QA()))
}

// ReloadQA handles POST /qa/reload.
func (h *CatalogHandler) ReloadQA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qa, err := h.reloader.ReloadQA(ctx)
	if err != nil {
		h.logger.WithContext(ctx).Error().Err(err).Msg("QA reload failed")
		writeError(w, http.StatusUnprocessableEntity, "qa reload failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, qaList(qa))
}

func qaList(qa *retrieval.QATable) QAListDTO {
	entries := qa.Entries()
	if entries == nil {
		entries = []retrieval.QAEntry{}
	}
	return QAListDTO{Count: len(entries), Entries: entries}
}

func (h *CatalogHandler) statsDTO(snap *catalog.Snapshot) CatalogStatsDTO {
	return CatalogStatsDTO{
		Version:  snap.Version,
		LoadedAt: snap.LoadedAt,
		Source:   h.store.Path(),
		Stats:    snap.Catalog.Stats(),
	}
}
