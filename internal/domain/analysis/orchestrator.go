package analysis

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/cache"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/normalize"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
)

// DefaultMinLength is the shortest text (in runes) worth analysing
const DefaultMinLength = 5

// Request is what a provider receives for one call
type Request struct {
	Text       string
	Checks     []issue.Check
	Credential string
}

// Provider obtains raw model output for a request
type Provider interface {
	Name() string
	Call(ctx context.Context, req Request) (string, error)
}

// CredentialSource yields the credential to use for the next call.
// An empty string means no credential is configured.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function into a CredentialSource
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) Credential(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticCredential always returns the same credential
func StaticCredential(key string) CredentialSource {
	return CredentialFunc(func(context.Context) (string, error) {
		return key, nil
	})
}

type credentialKey struct{}

// ContextWithCredential attaches a per-request credential
func ContextWithCredential(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, credentialKey{}, key)
}

// ContextCredential reads the credential attached by ContextWithCredential.
// Used by the stateless proxy, where every request carries its own key.
func ContextCredential() CredentialSource {
	return CredentialFunc(func(ctx context.Context) (string, error) {
		key, _ := ctx.Value(credentialKey{}).(string)
		return key, nil
	})
}

// Result of one analysis
type Result struct {
	Issues   []issue.Issue
	Err      *Error
	Cached   bool
	Strategy normalize.Strategy
}

// OK reports whether the analysis succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Orchestrator runs analysis cycles against a provider
type Orchestrator struct {
	provider    Provider
	credentials CredentialSource
	cache       *cache.Cache
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	minLength   int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables metric recording
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithMinLength overrides the minimum analysable length
func WithMinLength(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minLength = n
		}
	}
}

// New creates an orchestrator. A nil cache disables memoisation.
func New(provider Provider, credentials CredentialSource, c *cache.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		credentials: credentials,
		cache:       c,
		logger:      logging.NewNop(),
		minLength:   DefaultMinLength,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.credentials == nil {
		o.credentials = StaticCredential("")
	}
	return o
}

// Cache returns the backing cache, possibly nil
func (o *Orchestrator) Cache() *cache.Cache {
	return o.cache
}

// MinLength returns the minimum analysable length in runes
func (o *Orchestrator) MinLength() int {
	return o.minLength
}

// Analyze runs one analysis cycle
func (o *Orchestrator) Analyze(ctx context.Context, text string, checks []string) Result {
	start := time.Now()
	res := o.analyze(ctx, text, checks)

	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Kind)
	}
	o.metrics.RecordAnalysis(outcome, res.Cached, time.Since(start))
	return res
}

func (o *Orchestrator) analyze(ctx context.Context, text string, checks []string) Result {
	if utf8.RuneCountInString(text) < o.minLength {
		return failure(KindEmptyInput, "")
	}

	selected := issue.FilterChecks(checks)
	if len(selected) == 0 {
		return failure(KindNoChecksSelected, "")
	}

	if o.cache != nil {
		issues, ok := o.cache.Get(text, selected)
		o.metrics.RecordCacheLookup(ok)
		if ok {
			o.logger.Debug("Cache hit", zap.Int("issues", len(issues)))
			return Result{Issues: issues, Cached: true}
		}
	}

	credential, err := o.credentials.Credential(ctx)
	if err != nil {
		o.logger.Warn("Credential lookup failed", zap.Error(err))
		return failure(KindMissingCredential, err.Error())
	}
	if credential == "" {
		return failure(KindMissingCredential, "")
	}

	raw, err := o.call(ctx, Request{Text: text, Checks: selected, Credential: credential})
	if err != nil {
		kind := Classify(err)
		o.logger.Warn("Provider call failed",
			zap.String("provider", o.provider.Name()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return failure(kind, err.Error())
	}

	outcome := normalize.Parse(raw)
	o.metrics.RecordNormalize(string(outcome.Strategy))
	if outcome.Fallback() {
		o.logger.Warn("Model output was not parseable",
			zap.String("sample", normalize.Truncate(raw, normalize.FallbackLimit)))
	}

	if o.cache != nil {
		o.cache.Put(text, selected, outcome.Issues)
	}

	return Result{Issues: outcome.Issues, Strategy: outcome.Strategy}
}

func (o *Orchestrator) call(ctx context.Context, req Request) (string, error) {
	timer := monitoring.NewTimer(o.metrics, o.provider.Name())
	raw, err := o.provider.Call(ctx, req)

	status := "ok"
	if err != nil {
		status = string(Classify(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = "canceled"
		}
	}
	timer.Stop(status)
	return raw, err
}

func failure(kind ErrorKind, msg string) Result {
	return Result{Err: &Error{Kind: kind, Message: msg}}
}
