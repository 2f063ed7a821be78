// Package engine provides the public Go SDK for the Inventory Engine API.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is the public SDK client for the Inventory Engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// NewClient creates a new Inventory Engine client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8086"
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// APIError is a non-2xx response from the engine.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("inventory engine: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("inventory engine: %d %s", e.StatusCode, e.Message)
}

// QueryRequest is one question. Page is zero-based.
type QueryRequest struct {
	Question string `json:"question"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// Item is one inventory record. Absent fields are nil.
type Item struct {
	ItemID      int64    `json:"itemId"`
	Description *string  `json:"description,omitempty"`
	Major       *string  `json:"major,omitempty"`
	FabType     *string  `json:"fabType,omitempty"`
	Qty         *float64 `json:"qty,omitempty"`
	StockValue  *float64 `json:"stockValue,omitempty"`
	SecQty      *float64 `json:"secQty,omitempty"`
	Aging       *Aging   `json:"agingBuckets,omitempty"`
}

// Aging holds stock quantities by age bucket in days.
type Aging struct {
	D60      *float64 `json:"d60,omitempty"`
	D90      *float64 `json:"d90,omitempty"`
	D180     *float64 `json:"d180,omitempty"`
	D180Plus *float64 `json:"d180plus,omitempty"`
}

// Tally is one labelled count.
type Tally struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Page is the cursor for record results.
type Page struct {
	Index      int  `json:"index"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// QueryResponse is a resolved question.
type QueryResponse struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Outcome        string   `json:"outcome"`
	Answer         string   `json:"answer"`
	Source         string   `json:"source"`
	Intent         string   `json:"intent,omitempty"`
	Category       string   `json:"category,omitempty"`
	Field          string   `json:"field,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Value          string   `json:"value,omitempty"`
	Scalar         *float64 `json:"scalar,omitempty"`
	Tallies        []Tally  `json:"tallies,omitempty"`
	Items          []Item   `json:"items,omitempty"`
	Page           *Page    `json:"page,omitempty"`
	CatalogVersion string   `json:"catalogVersion"`
	LatencyMs      int64    `json:"latencyMs"`
	Cached         bool     `json:"cached"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Question string         `json:"question"`
	Response *QueryResponse `json:"response,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// BatchResponse holds per-question results in input order.
type BatchResponse struct {
	Items   []BatchItem    `json:"items"`
	Summary map[string]int `json:"summary"`
}

// CategoryCount is the number of items in one major category.
type CategoryCount struct {
	Major string `json:"major"`
	Count int    `json:"count"`
}

// CatalogStats describes the live catalog.
type CatalogStats struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loadedAt"`
	Source   string    `json:"source,omitempty"`
	Stats    struct {
		Records         int             `json:"records"`
		TotalStockValue float64         `json:"totalStockValue"`
		Categories      []CategoryCount `json:"categories"`
		DomainSizes     map[string]int  `json:"domainSizes"`
	} `json:"stats"`
}

// HistoryEntry is one audited question.
type HistoryEntry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId,omitempty"`
	Question    string    `json:"question"`
	Intent      string    `json:"intent,omitempty"`
	Outcome     string    `json:"outcome"`
	Source      string    `json:"source"`
	ResultCount int       `json:"resultCount"`
	LatencyMs   int64     `json:"latencyMs"`
	Cached      bool      `json:"cached"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Query resolves one question.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ask resolves a question and returns its first page.
func (c *Client) Ask(ctx context.Context, question string) (*QueryResponse, error) {
	return c.Query(ctx, QueryRequest{Question: question})
}

// Batch resolves up to 100 questions in one call.
func (c *Client) Batch(ctx context.Context, questions []string) (*BatchResponse, error) {
	var resp BatchResponse
	body := map[string][]string{"questions": questions}
	if err := c.do(ctx, http.MethodPost, "/api/v1/query/batch", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns the live catalog summary.
func (c *Client) Stats(ctx context.Context) (*CatalogStats, error) {
	var resp CatalogStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/catalog/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReloadCatalog asks the server to re-read its catalog.
func (c *Client) ReloadCatalog(ctx context.Context) (*CatalogStats, error) {
	var resp CatalogStats
	if err := c.do(ctx, http.MethodPost, "/api/v1/catalog/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the most recent audited questions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Entries []HistoryEntry `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
