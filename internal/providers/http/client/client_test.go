package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/resilience"
)

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.RetryMax = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	return cfg
}

// statusServer answers each request with the next status in the list, then repeats the last
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&hits, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func post(t *testing.T, c *Client) (*resty.Response, error) {
	t.Helper()
	req, err := c.Request(context.Background())
	if err != nil {
		return nil, err
	}
	return c.Execute(func() (*resty.Response, error) {
		return req.SetBody(`{"x":1}`).Post("/call")
	})
}

func TestRetries(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		want     int
		hits     int32
	}{
		{"success", []int{200}, 200, 1},
		{"recovers after 5xx", []int{503, 502, 200}, 200, 3},
		{"gives up after retry budget", []int{500}, 500, 3},
		{"quota is not retried", []int{429}, 429, 1},
		{"client errors are not retried", []int{403}, 403, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := statusServer(t, tt.statuses...)
			c := New("test", testConfig(srv.URL), WithLogger(logging.NewNop()))

			resp, err := post(t, c)
			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.want, resp.StatusCode())
			assert.Equal(t, tt.hits, atomic.LoadInt32(hits))
		})
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv, _ := statusServer(t, 403)
	c := New("test", testConfig(srv.URL))

	for i := 0; i < 10; i++ {
		_, err := post(t, c)
		require.NoError(t, err)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
	assert.EqualValues(t, 10, c.BreakerCounts().TotalSuccesses)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	srv, hits := statusServer(t, 500)
	cfg := testConfig(srv.URL)
	cfg.RetryMax = 0
	c := New("test", cfg, WithBreakerSettings(resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}))

	for i := 0; i < 3; i++ {
		resp, err := post(t, c)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode())
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := post(t, c)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 3, atomic.LoadInt32(hits), "open breaker fails fast")
}

func TestRateLimit(t *testing.T) {
	c := New("test", DefaultConfig())
	c.SetRateLimit(1)

	_, err := c.Request(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := c.Request(ctx)
	assert.Error(t, err)
	assert.Nil(t, req)
}
