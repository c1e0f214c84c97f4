// Package main is the entry point for the TextWarden proxy server.
//
// The proxy lets the browser extension analyse text without calling the
// model API directly. Each request carries the user's key in the
// X-User-API-Key header; the server keeps no keys and no cache.
//
// Architecture:
//
//	Extension → Proxy (/api/ai/suggest) → Gemini generateContent
//
// The server provides:
//   - POST /api/ai/suggest (and /ai/suggest)
//   - Health checks and Prometheus metrics
//   - Per-IP rate limiting, CORS and body size limits
//
// Configuration:
//   - Environment variables and an optional .env file
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 3000
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
