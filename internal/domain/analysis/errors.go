package analysis

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed analysis
type ErrorKind string

const (
	KindEmptyInput        ErrorKind = "EmptyInput"
	KindNoChecksSelected  ErrorKind = "NoChecksSelected"
	KindMissingCredential ErrorKind = "MissingCredential"
	KindInvalidCredential ErrorKind = "InvalidCredential"
	KindQuotaExceeded     ErrorKind = "QuotaExceeded"
	KindBillingIssue      ErrorKind = "BillingIssue"
	KindUpstreamError     ErrorKind = "UpstreamError"
)

// Provider message markers used for classification (case-sensitive)
const (
	MarkerMissingKey = "API Key is missing"
	MarkerInvalidKey = "API key not valid"
	MarkerQuota      = "quota"
	MarkerBilling    = "billing"
)

// UserActionable reports whether the user can fix the condition themselves
func (k ErrorKind) UserActionable() bool {
	return k == KindMissingCredential || k == KindInvalidCredential
}

// HTTPStatus maps a kind onto the proxy's response status
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindEmptyInput, KindNoChecksSelected:
		return http.StatusBadRequest
	case KindMissingCredential:
		return http.StatusUnauthorized
	case KindInvalidCredential:
		return http.StatusForbidden
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindBillingIssue:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message shown to users for a kind
func (k ErrorKind) UserMessage() string {
	switch k {
	case KindEmptyInput:
		return "Input text is required."
	case KindNoChecksSelected:
		return "At least one valid check type is required (grammar, spelling, style, clarity)."
	case KindMissingCredential:
		return "API Key is missing. Please add it in the extension settings."
	case KindInvalidCredential:
		return "Error: The provided API Key is not valid. Please check your key in the extension settings."
	case KindQuotaExceeded:
		return "Error: Your Gemini API key has exceeded its quota limit."
	case KindBillingIssue:
		return "Error: There might be a billing issue associated with your API key."
	default:
		return "Error generating suggestion due to an issue with the AI service or your API key."
	}
}

// Error is a typed analysis failure
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ProviderError is returned by providers when the upstream call fails
type ProviderError struct {
	Message    string
	StatusCode int
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Classify maps a provider failure onto an ErrorKind by message substring
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}

	msg := err.Error()
	var perr *ProviderError
	if errors.As(err, &perr) {
		msg = perr.Message
	}

	return ClassifyMessage(msg)
}

// ClassifyMessage maps a provider message onto an ErrorKind
func ClassifyMessage(msg string) ErrorKind {
	switch {
	case strings.Contains(msg, MarkerMissingKey):
		return KindMissingCredential
	case strings.Contains(msg, MarkerInvalidKey):
		return KindInvalidCredential
	case strings.Contains(msg, MarkerQuota):
		return KindQuotaExceeded
	case strings.Contains(msg, MarkerBilling):
		return KindBillingIssue
	default:
		return KindUpstreamError
	}
}
