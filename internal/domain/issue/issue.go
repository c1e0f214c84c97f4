package issue

import (
	"sort"
	"strings"
)

// Type classifies an issue
type Type string

const (
	TypeGrammar  Type = "grammar"
	TypeSpelling Type = "spelling"
	TypeStyle    Type = "style"
	TypeClarity  Type = "clarity"
	TypeGeneral  Type = "general"
)

// ParseType maps a raw type string onto a known Type, falling back to general
func ParseType(raw string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeGrammar:
		return TypeGrammar
	case TypeSpelling:
		return TypeSpelling
	case TypeStyle:
		return TypeStyle
	case TypeClarity:
		return TypeClarity
	default:
		return TypeGeneral
	}
}

// Issue is one detected problem instance
type Issue struct {
	Text        string `json:"issue"`
	Type        Type   `json:"type"`
	Explanation string `json:"explanation,omitempty"`
	Suggestion  string `json:"suggestion"`
}

// Applicable reports whether the issue carries enough to be applied to a surface.
// Issues with an empty quoted text or an empty suggestion are informational only.
func (i Issue) Applicable() bool {
	return i.Text != "" && i.Suggestion != ""
}

// Locatable reports whether the issue can be mapped back onto text spans
func (i Issue) Locatable() bool {
	return i.Text != ""
}

// DisplayExplanation returns the explanation, or the type-keyed default when empty
func (i Issue) DisplayExplanation() string {
	if strings.TrimSpace(i.Explanation) != "" {
		return i.Explanation
	}
	return DefaultExplanation(i.Type)
}

// DefaultExplanation returns the display template for a type
func DefaultExplanation(t Type) string {
	switch t {
	case TypeGrammar:
		return "This appears to be a grammatical error that affects sentence structure."
	case TypeSpelling:
		return "This word may be misspelled or not recognized."
	case TypeStyle:
		return "This phrasing could be improved for better readability or clarity."
	case TypeClarity:
		return "This text may be confusing or ambiguous to readers."
	default:
		return "This text could be improved for better writing quality."
	}
}

// GroupByText returns the issues sharing the given quoted text, in order
func GroupByText(issues []Issue, text string) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Text == text {
			out = append(out, iss)
		}
	}
	return out
}

// ============================================================================
// Check Sets
// ============================================================================

// Check is a requestable analysis category
type Check string

const (
	CheckGrammar  Check = "grammar"
	CheckSpelling Check = "spelling"
	CheckStyle    Check = "style"
	CheckClarity  Check = "clarity"
)

// AllChecks lists every recognised check in canonical order
var AllChecks = []Check{CheckGrammar, CheckSpelling, CheckStyle, CheckClarity}

var checkRank = map[Check]int{
	CheckGrammar:  0,
	CheckSpelling: 1,
	CheckStyle:    2,
	CheckClarity:  3,
}

// IsValid reports whether the check is in the recognised set
func (c Check) IsValid() bool {
	_, ok := checkRank[c]
	return ok
}

// FilterChecks drops unrecognised and duplicate entries, keeping first-seen order
func FilterChecks(raw []string) []Check {
	seen := make(map[Check]bool, len(raw))
	out := make([]Check, 0, len(raw))
	for _, r := range raw {
		c := Check(strings.TrimSpace(r))
		if !c.IsValid() || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Canonical returns a copy of checks sorted into canonical order
func Canonical(checks []Check) []Check {
	out := make([]Check, len(checks))
	copy(out, checks)
	sort.SliceStable(out, func(a, b int) bool {
		return checkRank[out[a]] < checkRank[out[b]]
	})
	return out
}

// Strings converts checks to their string form
func Strings(checks []Check) []string {
	out := make([]string, len(checks))
	for i, c := range checks {
		out[i] = string(c)
	}
	return out
}
