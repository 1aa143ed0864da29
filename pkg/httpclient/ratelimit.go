package httpclient

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client-side rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

func (c RateLimitConfig) validate() error {
	if c.RequestsPerWindow < 1 || c.Window <= 0 {
		return errx.New(errx.KindInvalidHTTPOptions, "rate limit needs a positive request count and window")
	}
	if c.Burst < 0 {
		return errx.New(errx.KindInvalidHTTPOptions, "rate limit burst must be zero or positive")
	}
	return nil
}

// rateLimiter keeps one token bucket per host. The set of hosts is small and
// fixed by Options, so limiters are never evicted.
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	config   RateLimitConfig
}

func newRateLimiter(c RateLimitConfig) *rateLimiter {
	burst := c.Burst
	if burst == 0 {
		burst = c.RequestsPerWindow
	}
	return &rateLimiter{
		rate:   rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds()),
		burst:  burst,
		config: c,
	}
}

// getLimiter retrieves or creates the limiter for host.
func (rl *rateLimiter) getLimiter(host string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(host); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(host, limiter)
	return actual.(*rate.Limiter)
}

// allow takes a token for host or fails with KindRateLimited. It never waits.
func (rl *rateLimiter) allow(host string) error {
	limiter := rl.getLimiter(host)
	if limiter.Allow() {
		return nil
	}

	// When the next token will be available, without consuming it.
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	return &errx.Error{
		Kind:       errx.KindRateLimited,
		Message:    "client-side rate limit exceeded for " + host,
		RetryAfter: max(int(delay.Seconds()), 1),
	}
}
