package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/TextWarden/internal/domain/cache"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/normalize"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/monitoring"
)

type fakeProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Call(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.response, f.err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const sample = `[{"issue":"teh","type":"spelling","explanation":"typo","suggestion":"the"}]`

func TestAnalyzeSuccess(t *testing.T) {
	p := &fakeProvider{response: sample}
	o := New(p, StaticCredential("key-123"), cache.New())

	res := o.Analyze(context.Background(), "teh cat sat", []string{"spelling", "grammar"})

	require.True(t, res.OK())
	assert.False(t, res.Cached)
	assert.Equal(t, normalize.StrategyDirect, res.Strategy)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "the", res.Issues[0].Suggestion)

	require.Equal(t, 1, p.count())
	assert.Equal(t, "key-123", p.calls[0].Credential)
	assert.Equal(t, []issue.Check{issue.CheckSpelling, issue.CheckGrammar}, p.calls[0].Checks)
}

func TestAnalyzeCacheIgnoresCheckOrder(t *testing.T) {
	p := &fakeProvider{response: sample}
	o := New(p, StaticCredential("k"), cache.New())
	ctx := context.Background()

	first := o.Analyze(ctx, "teh cat sat", []string{"grammar", "spelling"})
	second := o.Analyze(ctx, "teh cat sat", []string{"spelling", "grammar"})

	assert.Equal(t, 1, p.count())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Issues, second.Issues)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		checks []string
		kind   ErrorKind
	}{
		{"empty text", "", []string{"grammar"}, KindEmptyInput},
		{"too short", "abcd", []string{"grammar"}, KindEmptyInput},
		{"short multibyte", "héllo"[:3], []string{"grammar"}, KindEmptyInput},
		{"no checks", "hello world", nil, KindNoChecksSelected},
		{"unknown checks", "hello world", []string{"tone", "punctuation"}, KindNoChecksSelected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{response: sample}
			o := New(p, StaticCredential("k"), cache.New())

			res := o.Analyze(context.Background(), tt.text, tt.checks)

			require.NotNil(t, res.Err)
			assert.Equal(t, tt.kind, res.Err.Kind)
			assert.Zero(t, p.count())
		})
	}
}

func TestAnalyzeFiveRunesIsEnough(t *testing.T) {
	p := &fakeProvider{response: "[]"}
	o := New(p, StaticCredential("k"), nil)

	res := o.Analyze(context.Background(), "héllo", []string{"style"})

	assert.True(t, res.OK())
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, p.count())
}

func TestAnalyzeMissingCredential(t *testing.T) {
	p := &fakeProvider{response: sample}
	o := New(p, StaticCredential(""), cache.New())

	res := o.Analyze(context.Background(), "hello world", []string{"grammar"})

	require.NotNil(t, res.Err)
	assert.Equal(t, KindMissingCredential, res.Err.Kind)
	assert.True(t, res.Err.Kind.UserActionable())
	assert.Zero(t, p.count())
}

func TestAnalyzeCredentialSourceError(t *testing.T) {
	p := &fakeProvider{response: sample}
	src := CredentialFunc(func(context.Context) (string, error) {
		return "", errors.New("settings unavailable")
	})
	o := New(p, src, nil)

	res := o.Analyze(context.Background(), "hello world", []string{"grammar"})

	require.NotNil(t, res.Err)
	assert.Equal(t, KindMissingCredential, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "settings unavailable")
}

func TestAnalyzeProviderErrorsNotCached(t *testing.T) {
	p := &fakeProvider{err: &ProviderError{Message: "You exceeded your current quota", StatusCode: 429}}
	c := cache.New()
	o := New(p, StaticCredential("k"), c)
	ctx := context.Background()

	res := o.Analyze(ctx, "hello world", []string{"grammar"})
	require.NotNil(t, res.Err)
	assert.Equal(t, KindQuotaExceeded, res.Err.Kind)
	assert.Equal(t, 0, c.Len())

	p.err = nil
	p.response = sample
	res = o.Analyze(ctx, "hello world", []string{"grammar"})
	assert.True(t, res.OK())
	assert.Equal(t, 2, p.count())
}

func TestAnalyzeFallbackLogsAndCaches(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := &fakeProvider{response: "I could not find any problems, sorry."}
	c := cache.New()
	o := New(p, StaticCredential("k"), c, WithLogger(logging.Wrap(zap.New(core))))

	res := o.Analyze(context.Background(), "hello world", []string{"grammar"})

	require.True(t, res.OK())
	assert.Equal(t, normalize.StrategyFallback, res.Strategy)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, issue.TypeGeneral, res.Issues[0].Type)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, logs.FilterMessage("Model output was not parseable").Len())
}

func TestAnalyzeRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetricsWithRegistry(reg, reg)
	p := &fakeProvider{response: sample}
	o := New(p, StaticCredential("k"), cache.New(), WithMetrics(m))
	ctx := context.Background()

	o.Analyze(ctx, "teh cat sat", []string{"spelling"})
	o.Analyze(ctx, "teh cat sat", []string{"spelling"})
	o.Analyze(ctx, "", []string{"spelling"})

	snap := m.Snapshot()
	assert.EqualValues(t, 3, snap.Analyses)
	assert.EqualValues(t, 1, snap.CacheHits)
}

func TestWithMinLength(t *testing.T) {
	p := &fakeProvider{response: "[]"}
	o := New(p, StaticCredential("k"), nil, WithMinLength(10), WithMinLength(0))

	assert.Equal(t, 10, o.MinLength())
	res := o.Analyze(context.Background(), "too short", []string{"grammar"})
	require.NotNil(t, res.Err)
	assert.Equal(t, KindEmptyInput, res.Err.Kind)
}

func TestContextCredential(t *testing.T) {
	p := &fakeProvider{response: "[]"}
	o := New(p, ContextCredential(), nil)

	res := o.Analyze(context.Background(), "teh cat sat", []string{"grammar"})
	require.NotNil(t, res.Err)
	assert.Equal(t, KindMissingCredential, res.Err.Kind)

	ctx := ContextWithCredential(context.Background(), "per-request")
	res = o.Analyze(ctx, "teh cat sat", []string{"grammar"})
	assert.True(t, res.OK())
	require.Equal(t, 1, p.count())
	assert.Equal(t, "per-request", p.calls[0].Credential)
}
