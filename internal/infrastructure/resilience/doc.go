/*
Package resilience provides the circuit breaker guarding outbound model calls.

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                               Open

Each reset starts a new generation; a call admitted in one generation and
finishing in another does not move the counters.

# Usage

	breaker := resilience.New("gemini", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	text, err := resilience.Do(breaker, func() (string, error) {
		return provider.Call(ctx, req)
	})
*/
package resilience
