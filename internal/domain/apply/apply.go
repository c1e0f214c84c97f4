// Package apply writes suggestions back into a surface.
//
// Apply replaces the first occurrence of an issue's quoted text only. ApplyAll
// locates every issue against the pre-edit text, then splices from the right
// so earlier edits never shift the offsets of edits still pending. Both write
// the surface once and emit exactly one change notification; rejected edits
// leave the surface untouched and silent.
package apply

import (
	"errors"
	"sort"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/span"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
)

// RangeReplacer is implemented by surfaces that can edit a range in place,
// including ranges that cross markup, without flattening their content
type RangeReplacer interface {
	ReplaceRange(start, end int, replacement string)
}

var (
	// ErrNotApplicable is returned for issues without quoted text or suggestion
	ErrNotApplicable = errors.New("issue has no applicable suggestion")
	// ErrNotFound is returned when the quoted text no longer occurs in the field
	ErrNotFound = errors.New("issue text not found in field")
)

// Report summarises a batch application
type Report struct {
	Applied []issue.Issue
	Skipped []issue.Issue
}

// Apply replaces the first occurrence of the issue's text with its suggestion
func Apply(field surface.Surface, is issue.Issue) (string, error) {
	if !is.Applicable() {
		return "", ErrNotApplicable
	}

	text := field.Text()
	at := span.First(text, is.Text)
	if at < 0 {
		return "", ErrNotFound
	}

	edit := splice{span: span.Span{Start: at, End: at + len(is.Text)}, replacement: is.Suggestion}
	sel := edit.shift(field.Selection())

	updated := write(field, text, []splice{edit})
	field.SetSelection(sel)
	field.Notify()
	return updated, nil
}

// ApplyAll applies every applicable issue in descending order of its first
// occurrence in the current text. Issues that are not applicable, not found,
// or whose span overlaps an edit already made are skipped. The surface is
// written and notified once, and only when at least one edit applied.
func ApplyAll(field surface.Surface, issues []issue.Issue) (string, Report) {
	text := field.Text()

	type located struct {
		issue issue.Issue
		at    int
	}
	var (
		report  Report
		pending []located
	)
	for _, is := range issues {
		if !is.Applicable() {
			report.Skipped = append(report.Skipped, is)
			continue
		}
		at := span.First(text, is.Text)
		if at < 0 {
			report.Skipped = append(report.Skipped, is)
			continue
		}
		pending = append(pending, located{issue: is, at: at})
	}

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at > pending[j].at })

	var edits []splice
	sel := field.Selection()
	// left edge of the region already rewritten, in pre-edit offsets
	boundary := len(text)
	for _, p := range pending {
		edit := splice{span: span.Span{Start: p.at, End: p.at + len(p.issue.Text)}, replacement: p.issue.Suggestion}
		if edit.span.End > boundary {
			report.Skipped = append(report.Skipped, p.issue)
			continue
		}
		edits = append(edits, edit)
		sel = edit.shift(sel)
		boundary = edit.span.Start
		report.Applied = append(report.Applied, p.issue)
	}

	if len(report.Applied) == 0 {
		return text, report
	}

	updated := write(field, text, edits)
	field.SetSelection(sel)
	field.Notify()
	return updated, report
}

// write performs edits, ordered right to left, against the field
func write(field surface.Surface, text string, edits []splice) string {
	if rr, ok := field.(RangeReplacer); ok {
		for _, e := range edits {
			rr.ReplaceRange(e.span.Start, e.span.End, e.replacement)
		}
		return field.Text()
	}

	for _, e := range edits {
		text = e.apply(text)
	}
	field.SetText(text)
	return text
}

type splice struct {
	span        span.Span
	replacement string
}

func (s splice) apply(text string) string {
	return text[:s.span.Start] + s.replacement + text[s.span.End:]
}

// shift moves a caret so it stays on the same logical character: positions
// after the edit move by the length delta, positions inside it land at its end
func (s splice) shift(sel surface.Selection) surface.Selection {
	delta := len(s.replacement) - s.span.Len()
	move := func(pos int) int {
		switch {
		case pos >= s.span.End:
			return pos + delta
		case pos > s.span.Start:
			return s.span.Start + len(s.replacement)
		default:
			return pos
		}
	}
	return surface.Selection{Start: move(sel.Start), End: move(sel.End)}
}
