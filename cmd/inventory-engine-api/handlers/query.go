package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

// MaxBatchQuestions caps one batch request.
const MaxBatchQuestions = 100

// QueryHandler handles inventory questions.
type QueryHandler struct {
	logger *observability.Logger
	router *retrieval.Router
	batch  *retrieval.BatchProcessor
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(logger *observability.Logger, router *retrieval.Router, batch *retrieval.BatchProcessor) *QueryHandler {
	return &QueryHandler{
		logger: logger.WithOperation("query"),
		router: router,
		batch:  batch,
	}
}

// QueryRequestDTO represents the API request for one question.
type QueryRequestDTO struct {
	Question string `json:"question"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// QueryResponseDTO represents the API response for one question.
type QueryResponseDTO struct {
	ID             string            `json:"id"`
	Question       string            `json:"question"`
	Outcome        string            `json:"outcome"`
	Answer         string            `json:"answer"`
	Source         string            `json:"source"`
	Intent         string            `json:"intent,omitempty"`
	Category       string            `json:"category,omitempty"`
	Field          string            `json:"field,omitempty"`
	Condition      string            `json:"condition,omitempty"`
	Value          string            `json:"value,omitempty"`
	Scalar         *float64          `json:"scalar,omitempty"`
	Tallies        []retrieval.Tally `json:"tallies,omitempty"`
	Items          []catalog.Record  `json:"items,omitempty"`
	Page           *PageDTO          `json:"page,omitempty"`
	CatalogVersion string            `json:"catalogVersion"`
	LatencyMs      int64             `json:"latencyMs"`
	Cached         bool              `json:"cached"`
}

// PageDTO carries the page cursor for record results.
type PageDTO struct {
	Index      int  `json:"index"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// BatchRequestDTO represents a batch of questions.
type BatchRequestDTO struct {
	Questions []string `json:"questions"`
}

// BatchItemDTO is one answered or failed question in a batch.
type BatchItemDTO struct {
	Question string            `json:"question"`
	Response *QueryResponseDTO `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchResponseDTO represents the API response for a batch.
type BatchResponseDTO struct {
	Items   []BatchItemDTO `json:"items"`
	Summary map[string]int `json:"summary"`
}

// Query handles POST /query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO QueryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if reqDTO.Page < 0 || reqDTO.PageSize < 0 {
		writeError(w, http.StatusBadRequest, "page and pageSize must not be negative", "")
		return
	}

	resp, err := h.router.Query(ctx, retrieval.Request{
		Question: reqDTO.Question,
		Page:     reqDTO.Page,
		PageSize: reqDTO.PageSize,
	})
	if err != nil {
		h.logger.WithContext(ctx).Error().Err(err).Msg("Query failed")
		writeError(w, StatusFor(err), "query failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toQueryResponseDTO(resp))
}

// Batch handles POST /query/batch.
func (h *QueryHandler) Batch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO BatchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(reqDTO.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "questions are required", "")
		return
	}
	if len(reqDTO.Questions) > MaxBatchQuestions {
		writeError(w, http.StatusBadRequest, "too many questions", "at most 100 questions per batch")
		return
	}

	items, err := h.batch.Process(ctx, reqDTO.Questions, nil)
	if err != nil {
		h.logger.WithContext(ctx).Warn().Err(err).Int("questions", len(items)).Msg("Batch finished with errors")
	}

	out := BatchResponseDTO{
		Items:   make([]BatchItemDTO, 0, len(items)),
		Summary: make(map[string]int),
	}
	for _, item := range items {
		dto := BatchItemDTO{Question: item.Question, Error: item.Error}
		if item.Response != nil {
			dto.Response = toQueryResponseDTO(item.Response)
		}
		out.Items = append(out.Items, dto)
	}
	for outcome, n := range retrieval.Summary(items) {
		out.Summary[string(outcome)] = n
	}

	writeJSON(w, http.StatusOK, out)
}

func toQueryResponseDTO(resp *retrieval.Response) *QueryResponseDTO {
	dto := &QueryResponseDTO{
		ID:             resp.ID,
		Question:       resp.Question,
		Outcome:        string(resp.Outcome),
		Answer:         resp.Answer,
		Source:         resp.Source,
		Intent:         string(resp.Intent),
		Category:       string(resp.Category),
		Field:          string(resp.Field),
		Condition:      string(resp.Condition),
		Value:          resp.Value,
		CatalogVersion: resp.CatalogVersion,
		LatencyMs:      resp.LatencyMs,
		Cached:         resp.Cached,
	}
	if a := resp.Result.Answer; a != nil {
		dto.Scalar = a.Value
		dto.Tallies = a.Tallies
	}
	if p := resp.Page; p != nil {
		dto.Items = p.Items
		dto.Page = &PageDTO{
			Index:      p.Index,
			Size:       p.Size,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasNext:    p.HasNext,
			HasPrev:    p.HasPrev,
		}
	}
	return dto
}
