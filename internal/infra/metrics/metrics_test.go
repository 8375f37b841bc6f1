package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.StorageError("write")
	m.EstimatesMigrated(3)
	m.EstimatesMigrated(0)
	m.EstimateSaved()
	m.Export("pdf", nil)
	m.Export("pdf", errors.New("boom"))
	m.Update("message")

	body := scrape(t, m)
	assert.Contains(t, body, `smeta_storage_errors_total{op="write"} 1`)
	assert.Contains(t, body, `smeta_estimates_migrated_total 3`)
	assert.Contains(t, body, `smeta_estimate_saves_total 1`)
	assert.Contains(t, body, `smeta_exports_total{format="pdf",result="ok"} 1`)
	assert.Contains(t, body, `smeta_exports_total{format="pdf",result="error"} 1`)
	assert.Contains(t, body, `smeta_bot_updates_total{kind="message"} 1`)
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rc := chi.NewRouteContext()
	rc.RoutePatterns = append(rc.RoutePatterns, "/api/estimates")
	req := httptest.NewRequest(http.MethodGet, "/api/estimates", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	assert.Contains(t, scrape(t, m), `smeta_http_requests_total{code="418",route="/api/estimates"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.StorageError("read")
	m.EstimatesMigrated(1)
	m.EstimateSaved()
	m.Export("xlsx", nil)
	m.Update("callback")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
