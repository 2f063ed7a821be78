package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "inventory-engine"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).WithQuery("q-1").Info().
		Str("intent", "stockCount").
		Int("results", 2).
		Msg("Query resolved")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "inventory-engine", entry["service"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "q-1", entry["query_id"])
	assert.Equal(t, "stockCount", entry["intent"])
	assert.Equal(t, float64(2), entry["results"])
	assert.Equal(t, "Query resolved", entry["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
	assert.Equal(t, "debug", parseLevel("debug").String())
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveQuery("stockCount", "answered", 2*time.Millisecond)
	m.ObserveQuery("", "qa_hit", time.Millisecond)
	m.ObserveDelegation("error")
	m.ObserveCatalogLoad(12, nil)
	m.ObserveCatalogLoad(0, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.queriesTotal.WithLabelValues("stockCount", "answered")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.queriesTotal.WithLabelValues("none", "qa_hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.delegations.WithLabelValues("error")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.catalogRecords))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.catalogReloads.WithLabelValues("error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveQuery("x", "answered", time.Second)
		m.ObserveDelegation("ok")
		m.ObserveCatalogLoad(1, nil)
	})
}
