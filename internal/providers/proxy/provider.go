// Package proxy calls a TextWarden proxy server instead of the model API.
//
// The proxy answers with HTTP statuses; they are mapped back onto messages
// carrying the same markers a direct provider would produce, so error
// classification does not depend on which provider is configured.
package proxy

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/providers/http/client"
)

// KeyHeader carries the user's credential to the proxy
const KeyHeader = "X-User-API-Key"

const suggestPath = "/api/ai/suggest"

// Provider implements analysis.Provider against a proxy server
type Provider struct {
	http *client.Client
}

// New creates a provider for the proxy at baseURL
func New(baseURL string, cfg client.Config, logger *logging.Logger) *Provider {
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	var opts []client.Option
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	return &Provider{http: client.New("proxy", cfg, opts...)}
}

func (p *Provider) Name() string { return "proxy" }

type suggestRequest struct {
	Text   string   `json:"text"`
	Checks []string `json:"checks"`
}

// Call posts the text and returns the raw {suggestion: [...]} envelope,
// which the normaliser unwraps.
func (p *Provider) Call(ctx context.Context, req analysis.Request) (string, error) {
	r, err := p.http.Request(ctx)
	if err != nil {
		return "", err
	}

	resp, err := p.http.Execute(func() (*resty.Response, error) {
		return r.
			SetHeader(KeyHeader, req.Credential).
			SetBody(suggestRequest{Text: req.Text, Checks: issue.Strings(req.Checks)}).
			Post(suggestPath)
	})
	if err != nil {
		return "", fmt.Errorf("proxy request: %w", err)
	}

	if resp.IsError() {
		return "", statusError(resp.StatusCode(), gjson.GetBytes(resp.Body(), "message").String())
	}
	return resp.String(), nil
}

// statusError restores classification markers the proxy expressed as a status
func statusError(status int, msg string) error {
	marker := ""
	switch status {
	case http.StatusUnauthorized:
		marker = analysis.MarkerMissingKey
	case http.StatusForbidden:
		marker = analysis.MarkerInvalidKey
	case http.StatusTooManyRequests:
		marker = analysis.MarkerQuota
	case http.StatusPaymentRequired:
		marker = analysis.MarkerBilling
	}

	if msg == "" {
		msg = fmt.Sprintf("proxy returned %d %s", status, http.StatusText(status))
	}
	if marker != "" && !strings.Contains(msg, marker) {
		msg = marker + ": " + msg
	}
	return &analysis.ProviderError{Message: msg, StatusCode: status}
}
