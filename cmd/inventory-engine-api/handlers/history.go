package handlers

import (
	"net/http"
	"strconv"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

const maxHistoryLimit = 500

// HistoryHandler serves the persisted query audit log.
type HistoryHandler struct {
	logger *observability.Logger
	repo   *storage.QueryLogRepository
}

// NewHistoryHandler creates a new history handler. repo may be nil when the
// audit log is disabled.
func NewHistoryHandler(logger *observability.Logger, repo *storage.QueryLogRepository) *HistoryHandler {
	return &HistoryHandler{
		logger: logger.WithOperation("history"),
		repo:   repo,
	}
}

// HistoryDTO lists recent queries, newest first.
type HistoryDTO struct {
	Entries []storage.QueryLogEntry `json:"entries"`
}

// Recent handles GET /history.
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "query audit log is disabled", "")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", raw)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Loading query history failed")
		writeError(w, http.StatusInternalServerError, "history unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HistoryDTO{Entries: entries})
}

// Summary handles GET /history/summary.
func (h *HistoryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "query audit log is disabled", "")
		return
	}

	counts, err := h.repo.CountByOutcome(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Summarizing query history failed")
		writeError(w, http.StatusInternalServerError, "history unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"outcomes": counts})
}
