package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/normalize"
	"github.com/GriffinCanCode/TextWarden/internal/providers/http/client"
)

func newProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := client.DefaultConfig()
	cfg.RetryMax = 0
	return New(srv.URL+"/", cfg, nil)
}

func TestCallSendsKeyAndChecks(t *testing.T) {
	var (
		got  suggestRequest
		key  string
		path string
	)
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get(KeyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestion":[{"issue":"teh","type":"spelling","suggestion":"the"}]}`))
	})

	raw, err := p.Call(context.Background(), analysis.Request{
		Text:       "teh cat",
		Checks:     []issue.Check{issue.CheckSpelling, issue.CheckGrammar},
		Credential: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/ai/suggest", path)
	assert.Equal(t, "secret", key)
	assert.Equal(t, suggestRequest{Text: "teh cat", Checks: []string{"spelling", "grammar"}}, got)

	out := normalize.Parse(raw)
	assert.False(t, out.Fallback())
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "teh", out.Issues[0].Text)
}

func TestCallMapsStatuses(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   analysis.ErrorKind
	}{
		{401, `{"error":true,"message":"API Key is missing. Please add it in the extension settings."}`, analysis.KindMissingCredential},
		{403, `{"error":true,"message":"Error: The provided API Key is not valid. Please check your key in the extension settings."}`, analysis.KindInvalidCredential},
		{429, `{"error":true,"message":"Error: API quota exceeded."}`, analysis.KindQuotaExceeded},
		{402, `{"error":true,"message":"Error: Billing issue with the API key."}`, analysis.KindBillingIssue},
		{500, `{"error":true,"message":"Server error processing your request. Please try again."}`, analysis.KindUpstreamError},
		{403, ``, analysis.KindInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Call(context.Background(), analysis.Request{Text: "some text", Credential: "k"})
			require.Error(t, err)
			assert.Equal(t, tt.kind, analysis.Classify(err))
		})
	}
}
