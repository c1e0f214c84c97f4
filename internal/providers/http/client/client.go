package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/resilience"
)

// ErrUnavailable is returned while the breaker is open
var ErrUnavailable = errors.New("external service unavailable: circuit breaker open")

var errUpstreamStatus = errors.New("upstream server error")

// Config tunes an outbound client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second, 0 means unlimited
	RateLimit float64
	UserAgent string
}

// DefaultConfig mirrors the limits used for model calls
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		UserAgent:    "TextWarden/1.0",
	}
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// Option configures a Client
type Option func(*options)

type options struct {
	logger   *logging.Logger
	settings *resilience.Settings
}

// WithLogger routes retry logging through zap
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBreakerSettings overrides the default trip policy
func WithBreakerSettings(s resilience.Settings) Option {
	return func(o *options) { o.settings = &s }
}

// New creates a client named after the service it talks to
func New(name string, cfg Config, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	if o.logger != nil {
		retryClient.Logger = leveled{o.logger.Named("http." + name).Sugar()}
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	if cfg.BaseURL != "" {
		restyClient.SetBaseURL(cfg.BaseURL)
	}

	settings := resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.6)
		},
	}
	if o.settings != nil {
		settings = *o.settings
	}
	if o.logger != nil && settings.OnStateChange == nil {
		logger := o.logger
		settings.OnStateChange = func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}
	}

	c := &Client{
		resty:   restyClient,
		breaker: resilience.New(name, settings),
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// checkRetry retries transport errors and 5xx, never 429 or other 4xx
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// SetRateLimit configures requests per second, 0 means unlimited
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request creates a request after the breaker and rate limiter admit it
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, ErrUnavailable
	}

	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}

// Execute runs fn under the breaker. Responses with a 5xx status count as
// failures but are still returned to the caller.
func (c *Client) Execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	resp, err := resilience.Do(c.breaker, func() (*resty.Response, error) {
		resp, err := fn()
		if err == nil && resp != nil && resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errUpstreamStatus
		}
		return resp, err
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, ErrUnavailable
	case errors.Is(err, errUpstreamStatus):
		return resp, nil
	}
	return resp, err
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

// leveled adapts zap to retryablehttp.LeveledLogger
type leveled struct {
	s *zap.SugaredLogger
}

func (l leveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
