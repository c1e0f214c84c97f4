// Package middleware holds the gin middleware of the proxy server:
// CORS for the extension origin, per-IP rate limiting, request body limits,
// request ids, access logging and JSON panic recovery.
package middleware
