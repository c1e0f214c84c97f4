// Package span finds where an issue's quoted text occurs in a field.
//
// Offsets are byte offsets into the Go string. Surfaces that need character
// columns convert with RuneOffset.
package span

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End)
type Span struct {
	Start int
	End   int
}

// Len returns the span width in bytes
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Locate returns the start offset of every exact occurrence of needle in
// haystack, scanning left to right and resuming one byte after each match
// start. Locate("aaa", "a") is [0 1 2]. An empty needle yields nothing.
func Locate(haystack, needle string) []int {
	if needle == "" || len(needle) > len(haystack) {
		return nil
	}

	var offsets []int
	from := 0
	for from <= len(haystack)-len(needle) {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		offsets = append(offsets, from+idx)
		from += idx + 1
	}
	return offsets
}

// First returns the first occurrence of needle, or -1
func First(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	return strings.Index(haystack, needle)
}

// Spans converts every occurrence into a span
func Spans(haystack, needle string) []Span {
	offsets := Locate(haystack, needle)
	if len(offsets) == 0 {
		return nil
	}
	spans := make([]Span, len(offsets))
	for i, off := range offsets {
		spans[i] = Span{Start: off, End: off + len(needle)}
	}
	return spans
}

// Disjoint keeps spans, in start order, that do not overlap an earlier kept one
func Disjoint(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	sorted := append([]Span(nil), spans...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	kept := sorted[:1]
	for _, s := range sorted[1:] {
		if s.Start >= kept[len(kept)-1].End {
			kept = append(kept, s)
		}
	}
	return kept
}

// RuneOffset converts a byte offset into a rune index
func RuneOffset(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	return utf8.RuneCountInString(s[:byteOffset])
}

// Replace substitutes the first occurrence of needle with replacement.
// ok is false when needle is empty or absent.
func Replace(haystack, needle, replacement string) (string, int, bool) {
	idx := First(haystack, needle)
	if idx < 0 {
		return haystack, -1, false
	}
	return haystack[:idx] + replacement + haystack[idx+len(needle):], idx, true
}
