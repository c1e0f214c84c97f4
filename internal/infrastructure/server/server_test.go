package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
)

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Call(_ context.Context, req analysis.Request) (string, error) {
	if req.Credential != "good-key" {
		return "", fmt.Errorf("API key not valid")
	}
	return `[{"issue":"teh","type":"spelling","explanation":"typo","suggestion":"the"}]`, nil
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	if mutate != nil {
		mutate(cfg)
	}

	reg := prometheus.NewRegistry()
	srv, err := NewServer(cfg,
		WithProvider(echoProvider{}),
		WithLogger(logging.NewNop()),
		WithMetrics(monitoring.NewMetricsWithRegistry(reg, reg)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func request(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	w := request(srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(srv, http.MethodPost, "/api/ai/suggest", `{"text":"teh cat"}`,
		map[string]string{"X-User-API-Key": "good-key"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suggestion":[`)
	assert.Contains(t, w.Body.String(), `"issue":"teh"`)

	w = request(srv, http.MethodPost, "/api/ai/suggest", `{"text":"teh cat"}`,
		map[string]string{"X-User-API-Key": "bad-key"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(srv, http.MethodPost, "/api/ai/suggest", `{"text":"teh cat"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "textwarden_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.CORS.AllowOrigins = []string{"https://app.example.org"}
	})

	w := request(srv, http.MethodOptions, "/api/ai/suggest", "", map[string]string{
		"Origin":                         "https://app.example.org",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type,x-user-api-key",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitFromConfig(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.RateLimit.RequestsPerSecond = 1
		c.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, request(srv, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(srv, http.MethodGet, "/health", "", nil).Code)
}

func TestBodyLimitFromConfig(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Server.BodyLimit = 16
	})

	w := request(srv, http.MethodPost, "/api/ai/suggest", `{"text":"this body is far too long"}`,
		map[string]string{"X-User-API-Key": "good-key"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Server.ShutdownTimeout = time.Second
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "API is operational")
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestAddr(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.Port = "4100" })
	assert.Equal(t, "127.0.0.1:4100", srv.Addr())
}
