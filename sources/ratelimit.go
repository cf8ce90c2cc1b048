package sources

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter builds a token-bucket rate limiter allowing requestsPerSecond
// sustained throughput with a burst of one, matching the original
// connectors' per-server requests_per_second configuration
// (src/mcp_servers/base_mcp.py: _check_rate_limit).
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

func waitForSlot(ctx context.Context, limiter *rate.Limiter) error {
	return limiter.Wait(ctx)
}
