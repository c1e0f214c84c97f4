package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWithRegistry(reg, reg)
}

func TestRecordAnalysis(t *testing.T) {
	m := newTestMetrics()

	m.RecordAnalysis("ok", false, 10*time.Millisecond)
	m.RecordAnalysis("ok", true, time.Millisecond)
	m.RecordAnalysis("InvalidCredential", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysisTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisTotal.WithLabelValues("InvalidCredential")))
	assert.Equal(t, int64(3), m.Snapshot().Analyses)
}

func TestRecordCacheAndNormalize(t *testing.T) {
	m := newTestMetrics()

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordNormalize("direct")
	m.RecordNormalize("fallback")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(1), snap.Fallbacks)
}

func TestTimerNilMetrics(t *testing.T) {
	timer := NewTimer(nil, "gemini")
	assert.GreaterOrEqual(t, timer.Stop("success"), time.Duration(0))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "textwarden_http_requests_total"))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalErrors)
}
