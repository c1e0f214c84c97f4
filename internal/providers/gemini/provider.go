// Package gemini calls the Google Generative Language REST API directly with
// the user's own key.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/providers/http/client"
	"github.com/GriffinCanCode/TextWarden/internal/shared/utils"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	generatePath = "/v1beta/models/{model}:generateContent"
	keyHeader    = "x-goog-api-key"
)

// Config for the provider
type Config struct {
	BaseURL string
	Model   string
	// Language asks for explanations in this BCP 47 language, empty means English
	Language string
	HTTP     client.Config
}

// DefaultConfig targets the public endpoint
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		HTTP:    client.DefaultConfig(),
	}
}

// Provider implements analysis.Provider against Gemini
type Provider struct {
	model    string
	language string
	http     *client.Client
	logger   *logging.Logger
}

// New creates a provider
func New(cfg Config, logger *logging.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.HTTP.BaseURL = cfg.BaseURL

	return &Provider{
		model:    cfg.Model,
		language: cfg.Language,
		http:     client.New("gemini", cfg.HTTP, client.WithLogger(logger)),
		logger:   logger.Named("gemini"),
	}
}

func (p *Provider) Name() string { return "gemini" }

// Call sends one generateContent request and returns the model's text
func (p *Provider) Call(ctx context.Context, req analysis.Request) (string, error) {
	if req.Credential == "" {
		return "", &analysis.ProviderError{
			Message:    "API Key is missing. Please add it in the extension settings.",
			StatusCode: http.StatusUnauthorized,
		}
	}

	payload, err := BuildPayload(BuildPrompt(req.Text, req.Checks, p.language))
	if err != nil {
		return "", fmt.Errorf("build gemini payload: %w", err)
	}

	r, err := p.http.Request(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := p.http.Execute(func() (*resty.Response, error) {
		return r.
			SetHeader(keyHeader, req.Credential).
			SetHeader("Content-Type", "application/json").
			SetPathParam("model", p.model).
			SetBody(payload).
			Post(generatePath)
	})
	if err != nil {
		p.logger.Warn("Gemini request failed",
			zap.String("key", utils.RedactSecret(req.Credential)),
			zap.Error(err))
		return "", fmt.Errorf("gemini request: %w", err)
	}

	p.logger.Debug("Gemini responded",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(resp.Body())))

	if resp.IsError() {
		return "", responseError(resp.StatusCode(), resp.Body())
	}
	return ExtractText(resp.Body())
}

// BuildPrompt renders the instruction sent to the model
func BuildPrompt(text string, checks []issue.Check, lang string) string {
	if len(checks) == 0 {
		checks = issue.AllChecks
	}

	var b strings.Builder
	b.WriteString("You are TextWarden, an AI writing assistant that analyzes text for issues and provides suggestions for improvement.\n\n")
	fmt.Fprintf(&b, "Analyze the following text for %s issues. For each issue you find, provide:\n", strings.Join(issue.Strings(checks), ", "))
	b.WriteString("1. The problematic text, quoted exactly as it appears\n")
	b.WriteString("2. The type of issue (grammar, spelling, style, or clarity)\n")
	b.WriteString("3. A brief explanation of the issue\n")
	b.WriteString("4. A suggested correction\n\n")
	b.WriteString("Format your response as a valid JSON array of objects with the following structure:\n")
	b.WriteString("[\n  {\n    \"issue\": \"problematic text\",\n    \"type\": \"issue type (grammar, spelling, style, or clarity)\",\n")
	b.WriteString("    \"explanation\": \"brief explanation of the issue\",\n    \"suggestion\": \"suggested correction\"\n  }\n]\n\n")
	b.WriteString("If you find no issues, return an empty array: []\n")
	if name := languageName(lang); name != "" {
		fmt.Fprintf(&b, "Write every explanation in %s. Keep \"issue\" exactly as it appears in the text.\n", name)
	}
	b.WriteString("\nTEXT TO ANALYZE:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n\nRESPONSE (valid JSON array only, without markdown fences):")
	return b.String()
}

// languageName returns the English name of a non-English tag
func languageName(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	if base, _ := tag.Base(); base.String() == "en" {
		return ""
	}
	return display.English.Tags().Name(tag)
}

// BuildPayload wraps a prompt into a generateContent body
func BuildPayload(prompt string) (string, error) {
	body := `{}`
	var err error
	sets := []struct {
		path  string
		value interface{}
	}{
		{"contents.0.role", "user"},
		{"contents.0.parts.0.text", prompt},
		{"generationConfig.responseMimeType", "text/plain"},
		{"generationConfig.thinkingConfig.thinkingBudget", 0},
	}
	for _, s := range sets {
		if body, err = sjson.Set(body, s.path, s.value); err != nil {
			return "", err
		}
	}
	return body, nil
}

// ExtractText joins the text parts of the first candidate
func ExtractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &analysis.ProviderError{Message: "invalid JSON from Gemini", StatusCode: http.StatusBadGateway}
	}

	doc := gjson.ParseBytes(body)
	candidate := doc.Get("candidates.0")
	if !candidate.Exists() {
		if reason := doc.Get("promptFeedback.blockReason").String(); reason != "" {
			return "", &analysis.ProviderError{Message: "response blocked: " + reason}
		}
		return "", &analysis.ProviderError{Message: "Gemini returned no candidates"}
	}

	var b strings.Builder
	for _, part := range candidate.Get("content.parts.#.text").Array() {
		b.WriteString(part.String())
	}
	return b.String(), nil
}

// responseError turns an error body into a ProviderError carrying Google's message
func responseError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = fmt.Sprintf("Gemini returned %d %s", status, http.StatusText(status))
	}
	return &analysis.ProviderError{Message: msg, StatusCode: status}
}
