// Package providers builds the analysis provider selected by configuration.
//
// Two providers exist:
//   - gemini: calls the model REST API directly with the user's key
//   - proxy: posts to a TextWarden proxy server, which calls the model
//
// Both return raw model output; normalisation and error classification
// happen in the analysis package, so callers never branch on the kind.
//
// Example Usage:
//
//	p, err := providers.New(cfg.Provider, "en", logger)
//	orch := analysis.New(p, store, cache.New())
package providers
