// Package analysis orchestrates one analysis cycle: validate input, consult the
// suggestion cache, fetch the credential, call the external provider, normalise
// its raw payload and memoise the result.
//
// Errors never escape as panics or bare errors. Analyze returns a Result whose
// Err carries one of the ErrorKind values:
//   - EmptyInput, NoChecksSelected: local validation, provider never called
//   - MissingCredential, InvalidCredential: user-actionable credential problems
//   - QuotaExceeded, BillingIssue, UpstreamError: provider failures
//
// Unparseable model output is not an error: it degrades to the synthetic
// fallback issue produced by the normalize package. Errors are never cached.
//
// Example Usage:
//
//	orch := analysis.New(provider, analysis.StaticCredential(key), cache.New())
//	res := orch.Analyze(ctx, text, []string{"grammar", "spelling"})
//	if res.Err != nil && res.Err.Kind.UserActionable() {
//		notify(res.Err)
//	}
package analysis
