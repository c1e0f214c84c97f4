package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Size limits
const (
	MaxJSONSize = 1 * 1024 * 1024 // 1MB - maximum request body accepted by the proxy
	MaxTextSize = 512 * 1024      // 512KB - maximum text submitted for analysis
	MaxChecks   = 16
)

// ValidateText checks that analysis input is present and within limits
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("input text is required")
	}
	if len(text) > MaxTextSize {
		return fmt.Errorf("input text exceeds maximum size of %d bytes", MaxTextSize)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("input text must be valid UTF-8")
	}
	return nil
}

// ValidateChecks bounds the number of requested checks
func ValidateChecks(checks []string) error {
	if len(checks) > MaxChecks {
		return fmt.Errorf("too many checks requested (maximum %d)", MaxChecks)
	}
	return nil
}

// RedactSecret keeps the first four and last four characters of a credential
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}
