package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

func testRecords(t *testing.T) []catalog.Record {
	t.Helper()
	c, err := catalog.Parse([]byte(`{"items":[
		{"itemId": 1, "description": "Bleach White", "major": "Chemicals", "stockValue": 100},
		{"itemId": 2, "description": "Olive Dye", "major": "Dyes", "stockValue": 500}
	]}`))
	require.NoError(t, err)
	return c.Records()
}

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role string `json:"role"`
	} `json:"messages"`
	raw string
}

func newCompletionServer(t *testing.T, status int, content string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.raw = string(body)
		require.NoError(t, json.Unmarshal(body, captured))

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   captured.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestClient_Answer(t *testing.T) {
	srv, captured := newCompletionServer(t, http.StatusOK, "• Olive Dye (ID 2, Qty 0, Value 500)")

	client, err := NewClient(Config{BaseURL: srv.URL + "/v1/", APIKey: "test-key", Temperature: 0.2})
	require.NoError(t, err)

	answer, err := client.Answer(context.Background(), "which dyes are in stock", testRecords(t))
	require.NoError(t, err)
	assert.Equal(t, "• Olive Dye (ID 2, Qty 0, Value 500)", answer)

	assert.Equal(t, defaultModel, captured.Model)
	assert.InDelta(t, 0.2, captured.Temperature, 1e-9)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Contains(t, captured.raw, "Olive Dye")
	assert.Contains(t, captured.raw, "which dyes are in stock")
}

func TestClient_AnswerError(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusTooManyRequests, "")

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Answer(context.Background(), "anything", testRecords(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groq api error")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestBuildSystemPrompt(t *testing.T) {
	records := testRecords(t)
	prompt, err := BuildSystemPrompt(records)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Using ONLY this JSON data")
	assert.Contains(t, prompt, `"description": "Olive Dye"`)
	assert.Contains(t, prompt, `"itemId": 2`)
	assert.Contains(t, prompt, "⚠️ No matching records found.")
	assert.Contains(t, prompt, "at most 50 items")
	// Absent fields are left out rather than shown as placeholders.
	assert.NotContains(t, prompt, "fabType")
	assert.NotContains(t, prompt, catalog.Unknown)
}

func TestRandomSampler(t *testing.T) {
	records := make([]catalog.Record, 250)
	for i := range records {
		records[i] = catalog.Record{ItemID: int64(i)}
	}

	s := NewRandomSampler(42)
	sample := s.Sample(records, 100)
	require.Len(t, sample, 100)

	seen := make(map[int64]bool)
	for i, r := range sample {
		assert.False(t, seen[r.ItemID], "duplicate %d", r.ItemID)
		seen[r.ItemID] = true
		if i > 0 {
			assert.Greater(t, r.ItemID, sample[i-1].ItemID)
		}
	}

	again := NewRandomSampler(42).Sample(records, 100)
	assert.Equal(t, sample, again)

	small := s.Sample(records[:7], 100)
	assert.Len(t, small, 7)

	assert.Len(t, s.Sample(records, 1000), MaxSample)
}
