package normalize

import (
	"encoding/json"
	"testing"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type rawIssue struct {
	Issue       string `json:"issue"`
	Type        string `json:"type,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Suggestion  string `json:"suggestion,omitempty"`
}

func genRawIssue() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.OneConstOf("grammar", "spelling", "style", "clarity", "general", "", "tone"),
		gen.AlphaString(),
		gen.AlphaString(),
	).Map(func(values []interface{}) rawIssue {
		return rawIssue{
			Issue:       values[0].(string),
			Type:        values[1].(string),
			Explanation: values[2].(string),
			Suggestion:  values[3].(string),
		}
	})
}

func TestProperty_WellFormedArrays(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("count, order and fields survive normalization", prop.ForAll(
		func(src []rawIssue) bool {
			data, err := json.Marshal(src)
			if err != nil {
				return false
			}
			got := Normalize(string(data))
			if len(got) != len(src) {
				return false
			}
			for i, r := range src {
				if got[i].Text != r.Issue || got[i].Suggestion != r.Suggestion || got[i].Explanation != r.Explanation {
					return false
				}
				if got[i].Type != issue.ParseType(r.Type) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRawIssue()),
	))

	properties.Property("fenced arrays normalize like the inner array", prop.ForAll(
		func(src []rawIssue, lang string) bool {
			data, err := json.Marshal(src)
			if err != nil {
				return false
			}
			inner := Normalize(string(data))
			fenced := Normalize("```" + lang + "\n" + string(data) + "\n```")
			if len(inner) != len(fenced) {
				return false
			}
			for i := range inner {
				if inner[i] != fenced[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRawIssue()),
		gen.OneConstOf("", "json", "JSON"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_NeverPanics(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("arbitrary text yields at least one issue or an authoritative parse", prop.ForAll(
		func(raw string) bool {
			out := Parse(raw)
			if out.Fallback() {
				return len(out.Issues) == 1 && out.Issues[0].Text == ""
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
