// Package server throttles inbound frames per connection to protect the relay
// from abusive clients.
package server

import "golang.org/x/time/rate"

// newFrameLimiter builds a token bucket allowing cfg.Burst frames per refill
// interval, refilled continuously.
func newFrameLimiter(cfg RateLimitConfig) *rate.Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = defaultConfig().RateLimit.RefillInterval
	}
	return rate.NewLimiter(rate.Limit(float64(burst)/interval.Seconds()), burst)
}
