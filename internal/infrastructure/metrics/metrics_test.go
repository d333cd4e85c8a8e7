package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLookup("found", 10*time.Millisecond)
	m.ObserveLookup("found", 5*time.Millisecond)
	m.ObserveArticle("simple", true)
	m.ObserveArticle("compound", false)
	m.ObserveIngest("mail", 42, nil)
	m.ObserveIngest("upload", 0, errors.New("boom"))
	m.ObserveMailPoll("empty")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.articlesTotal.WithLabelValues("compound", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestsTotal.WithLabelValues("upload", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.catalogRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailPollsTotal.WithLabelValues("empty")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup("found", time.Second)
		m.ObserveArticle("simple", false)
		m.ObserveIngest("mail", 1, nil)
		m.ObserveMailPoll("error")
	})
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveIngest("file", 7, nil)

	router := NewRouter(reg, func(ctx context.Context) (string, string) {
		return "ok", "7 rows"
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "stockbot_catalog_rows 7"))
	})

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp healthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "7 rows", resp.Message)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
