// Package issue defines the canonical shape of a single detected writing problem.
//
// An Issue is produced by the response normalizer from one analysis call and
// lives only as long as the cache entry or the markers derived from it.
//
// Types:
//   - grammar, spelling, style, clarity: requestable check types
//   - general: fallback for missing or unrecognised types
//
// Explanations are substituted at display time (DisplayExplanation) and are
// never written back into the Issue, so re-serialisation stays faithful.
//
// Example Usage:
//
//	iss := issue.Issue{Text: "teh", Type: issue.TypeSpelling, Suggestion: "the"}
//	if iss.Applicable() {
//		fmt.Println(iss.DisplayExplanation())
//	}
package issue
