// Package config provides 12-factor configuration for the proxy server and CLI.
//
// An optional .env file is read first (godotenv), then environment variables
// are decoded with envconfig. Existing environment variables are never
// overwritten by the .env file.
//
// Configuration Sections:
//   - Server: listen address, body limit, shutdown timeout
//   - Provider: gemini or proxy, model, endpoint, retries, outbound rate
//   - Pipeline: quiet period, minimum text length, cache size
//   - Logging: level, format, optional rotating file
//   - RateLimit: per-IP rate limiting
//   - CORS: allowed origins
//   - Settings: user settings file and page host
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Proxy listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
