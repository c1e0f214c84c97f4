// Package client is the outbound HTTP client shared by analysis providers.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp round tripper:
//   - transport-level retries with exponential backoff on 5xx and network errors
//   - no retry on 429, a spent quota does not recover within a backoff window
//   - token-bucket rate limiting per client instance (x/time/rate)
//   - a circuit breaker that trips on upstream failures but ignores 4xx answers,
//     so a bad credential never locks out a good one
//
// Example Usage:
//
//	c := client.New("gemini", client.DefaultConfig())
//	req, err := c.Request(ctx)
//	if err != nil {
//	    return err
//	}
//	resp, err := c.Execute(func() (*resty.Response, error) {
//	    return req.SetBody(payload).Post(url)
//	})
package client
