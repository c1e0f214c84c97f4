/*
Package monitoring provides Prometheus metrics for the proxy and the suggestion pipeline.

# Overview

Metrics cover three areas: HTTP traffic through the proxy, the analysis
pipeline (orchestrator outcomes, cache lookups, normalizer strategies,
provider latency) and surface activity (tracked fields, markers, applied
corrections).

# Usage

	// Create metrics collector on a private registry
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWithRegistry(reg, reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", metrics.Handler())

	// Time provider calls
	timer := monitoring.NewTimer(metrics, "gemini")
	// ... perform call ...
	timer.Stop("success")

All recording helpers are safe for concurrent use.
*/
package monitoring
