package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/api/middleware"
	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TextWarden/internal/shared/utils"
)

// Analyzer runs one analysis; the orchestrator satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, text string, checks []string) analysis.Result
}

// Handlers contains the proxy's HTTP handlers
type Handlers struct {
	analyzer Analyzer
	logger   *logging.Logger
	version  string
}

// NewHandlers creates a new handler set
func NewHandlers(analyzer Analyzer, logger *logging.Logger, version string) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{analyzer: analyzer, logger: logger, version: version}
}

// SuggestRequest is the body of POST /api/ai/suggest
type SuggestRequest struct {
	Text   string   `json:"text"`
	Checks []string `json:"checks"`
}

// SuggestResponse is returned on success
type SuggestResponse struct {
	Suggestion []issue.Issue `json:"suggestion"`
}

// ErrorResponse is the envelope of every failure
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: true, Message: message})
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "TextWarden proxy",
		"version": h.version,
	})
}

// Health is the server-level health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running"})
}

// APIHealth is the API-level health check
func (h *Handlers) APIHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "API is operational"})
}

// NotFound answers unknown routes with the JSON error envelope
func (h *Handlers) NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "Endpoint not found")
}

// Suggest analyses text with the caller's own credential. The proxy keeps
// no state between requests: no cache, no stored keys.
func (h *Handlers) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		fail(c, http.StatusBadRequest, "Request body must be a JSON object.")
		return
	}

	if req.Text == "" {
		fail(c, http.StatusBadRequest, analysis.KindEmptyInput.UserMessage())
		return
	}
	if err := utils.ValidateText(req.Text); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateChecks(req.Checks); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	checks := req.Checks
	if len(checks) == 0 {
		checks = issue.Strings(issue.AllChecks)
	}

	ctx := analysis.ContextWithCredential(c.Request.Context(), c.GetHeader(middleware.APIKeyHeader))
	res := h.analyzer.Analyze(ctx, req.Text, checks)
	if res.Err != nil {
		kind := res.Err.Kind
		h.logger.Warn("Suggestion failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("kind", string(kind)),
			zap.String("detail", res.Err.Message))
		fail(c, kind.HTTPStatus(), kind.UserMessage())
		return
	}

	issues := res.Issues
	if issues == nil {
		issues = []issue.Issue{}
	}
	c.JSON(http.StatusOK, SuggestResponse{Suggestion: issues})
}
