package limiter

import (
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited indicates the outbound budget is exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter guards calls to an upstream provider with a token bucket.
// A disabled limiter allows everything.
type Limiter struct {
	enabled bool
	bucket  *rate.Limiter
}

// Config contains parameters for limiter construction.
type Config struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// New creates a Limiter from the supplied configuration.
func New(cfg Config) *Limiter {
	if !cfg.Enabled {
		return &Limiter{enabled: false}
	}

	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Limiter{
		enabled: true,
		bucket:  rate.NewLimiter(limit, cfg.Burst),
	}
}

// Allow reports ErrRateLimited when no token is available right now.
// It never blocks.
func (l *Limiter) Allow() error {
	if l == nil || !l.enabled {
		return nil
	}
	if !l.bucket.Allow() {
		return ErrRateLimited
	}
	return nil
}
