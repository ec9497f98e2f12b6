package pacer

import (
	"time"

	"golang.org/x/time/rate"
)

// Token is a Pacer backed by a token bucket from golang.org/x/time/rate.
// Steady-state spacing matches the configured delay, but up to burst
// forwards may happen back to back after a quiet stretch. Use it when
// occasional catch-up bursts are preferable to strict spacing.
type Token struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewToken creates a Token pacer that replenishes one forward per delay and
// allows at most burst consecutive forwards. burst values below 1 are
// raised to 1, which makes Token behave like Interval.
func NewToken(delay time.Duration, burst int) *Token {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	return &Token{
		limiter: rate.NewLimiter(limit, burst),
		delay:   delay,
	}
}

// Remaining reports how long until a token is available, without consuming
// one.
func (p *Token) Remaining(now time.Time) time.Duration {
	res := p.limiter.ReserveN(now, 1)
	d := res.DelayFrom(now)
	res.CancelAt(now)
	return d
}

// Mark consumes one token at now.
func (p *Token) Mark(now time.Time) {
	p.limiter.AllowN(now, 1)
}

// Delay returns the configured replenish interval.
func (p *Token) Delay() time.Duration {
	return p.delay
}
