// Package normalize turns an unreliable model response into an ordered list of issues.
//
// Strategies are attempted in order and the first one that yields issues wins:
//   - Direct: the trimmed payload is a JSON array or object
//   - ArrayScan: the first bracketed array of objects found in the text
//   - ObjectScan: every balanced {...} substring parsed on its own
//   - Fence: code fences stripped, then parsed directly
//   - Fallback: one synthetic, non-applicable issue carrying a prefix of the payload
//
// Normalize never fails. It is a pure function; callers log and count.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/tidwall/gjson"
)

// Strategy identifies which parsing step produced the result
type Strategy string

const (
	StrategyDirect     Strategy = "direct"
	StrategyArrayScan  Strategy = "array_scan"
	StrategyObjectScan Strategy = "object_scan"
	StrategyFence      Strategy = "fence"
	StrategyFallback   Strategy = "fallback"
)

const (
	// FallbackLimit is the maximum number of runes of the raw payload kept in the fallback issue
	FallbackLimit = 200

	// FallbackExplanation is stored on the synthetic issue
	FallbackExplanation = "response could not be parsed"

	ellipsis = "…"
)

var (
	arrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
	fencePattern = regexp.MustCompile("```[A-Za-z0-9_+-]*")

	// envelope keys unwrapped when a single object carries no issue fields
	envelopeKeys = []string{"issues", "suggestions", "suggestion"}
)

// Outcome is the result of Parse
type Outcome struct {
	Issues   []issue.Issue
	Strategy Strategy
}

// Fallback reports whether the payload could not be parsed at all
func (o Outcome) Fallback() bool {
	return o.Strategy == StrategyFallback
}

// Normalize returns the issues contained in raw
func Normalize(raw string) []issue.Issue {
	return Parse(raw).Issues
}

// Parse returns the issues contained in raw together with the winning strategy
func Parse(raw string) Outcome {
	if issues, ok := parseDirect(raw); ok {
		return Outcome{Issues: issues, Strategy: StrategyDirect}
	}

	if match := arrayPattern.FindString(raw); match != "" {
		if issues, ok := parseDirect(match); ok && len(issues) > 0 {
			return Outcome{Issues: issues, Strategy: StrategyArrayScan}
		}
	}

	if issues := scanObjects(raw); len(issues) > 0 {
		return Outcome{Issues: issues, Strategy: StrategyObjectScan}
	}

	stripped := fencePattern.ReplaceAllString(raw, "")
	if issues, ok := parseDirect(stripped); ok {
		return Outcome{Issues: issues, Strategy: StrategyFence}
	}

	return Outcome{Issues: []issue.Issue{fallbackIssue(raw)}, Strategy: StrategyFallback}
}

// parseDirect parses s as a JSON value. An empty array (bare or in an envelope)
// is an authoritative "no issues"; a non-empty array must contain at least one
// object. An object yields one issue unless it is an envelope.
func parseDirect(s string) ([]issue.Issue, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}

	value := gjson.Parse(s)
	switch {
	case value.IsArray():
		return fromArray(value)
	case value.IsObject():
		if inner, ok := envelope(value); ok {
			return fromArray(inner)
		}
		return []issue.Issue{coerce(value)}, true
	default:
		return nil, false
	}
}

func fromArray(value gjson.Result) ([]issue.Issue, bool) {
	elements := value.Array()
	issues := make([]issue.Issue, 0, len(elements))
	for _, el := range elements {
		if !el.IsObject() {
			continue
		}
		issues = append(issues, coerce(el))
	}
	return issues, len(elements) == 0 || len(issues) > 0
}

func envelope(obj gjson.Result) (gjson.Result, bool) {
	if obj.Get("issue").Exists() || obj.Get("issueText").Exists() {
		return gjson.Result{}, false
	}
	for _, key := range envelopeKeys {
		if inner := obj.Get(key); inner.IsArray() {
			return inner, true
		}
	}
	return gjson.Result{}, false
}

// coerce converts one parsed object into an Issue; non-string fields become empty
func coerce(obj gjson.Result) issue.Issue {
	text := stringField(obj, "issue")
	if text == "" {
		text = stringField(obj, "issueText")
	}
	return issue.Issue{
		Text:        text,
		Type:        issue.ParseType(stringField(obj, "type")),
		Explanation: stringField(obj, "explanation"),
		Suggestion:  stringField(obj, "suggestion"),
	}
}

func stringField(obj gjson.Result, key string) string {
	field := obj.Get(key)
	if field.Type != gjson.String {
		return ""
	}
	return field.String()
}

// scanObjects collects every non-overlapping balanced {...} substring that parses
func scanObjects(raw string) []issue.Issue {
	var issues []issue.Issue
	for pos := 0; pos < len(raw); {
		start := strings.IndexByte(raw[pos:], '{')
		if start < 0 {
			break
		}
		start += pos

		end := matchBrace(raw, start)
		if end < 0 {
			break
		}

		candidate := raw[start : end+1]
		if gjson.Valid(candidate) {
			issues = append(issues, coerce(gjson.Parse(candidate)))
		}
		pos = end + 1
	}
	return issues
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON string literals are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func fallbackIssue(raw string) issue.Issue {
	return issue.Issue{
		Text:        "",
		Type:        issue.TypeGeneral,
		Explanation: FallbackExplanation,
		Suggestion:  Truncate(strings.TrimSpace(raw), FallbackLimit),
	}
}

// Truncate shortens s to at most limit runes, appending an ellipsis when cut
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}
