// Package http implements the stateless TextWarden proxy API.
//
// Routes:
//   - POST /api/ai/suggest (and /ai/suggest): analyse {text, checks} with the
//     key from X-User-API-Key, answering {suggestion: Issue[]}
//   - GET /api/health, GET /health: liveness
//   - GET /metrics: Prometheus metrics
//
// Failures use the envelope {error: true, message}. Status codes follow the
// analysis error kind: 400 invalid input, 401 missing key, 403 invalid key,
// 429 quota, 402 billing, 500 anything else.
package http
