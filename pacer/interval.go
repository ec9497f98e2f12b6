package pacer

import "time"

// Interval is a Pacer that enforces a fixed minimum spacing between
// forwards, measured from the previous forward. This is the default policy.
type Interval struct {
	delay time.Duration
	last  time.Time
}

// NewInterval creates an Interval pacer. The last-forward instant starts at
// now minus delay, so the very first forward is allowed immediately.
func NewInterval(delay time.Duration) *Interval {
	if delay < 0 {
		delay = 0
	}
	return &Interval{
		delay: delay,
		last:  time.Now().Add(-delay),
	}
}

// Remaining reports the unexpired portion of the delay window.
func (p *Interval) Remaining(now time.Time) time.Duration {
	elapsed := now.Sub(p.last)
	if elapsed >= p.delay {
		return 0
	}
	return p.delay - elapsed
}

// Mark records a forward at now, opening a fresh delay window.
func (p *Interval) Mark(now time.Time) {
	p.last = now
}

// Delay returns the configured spacing.
func (p *Interval) Delay() time.Duration {
	return p.delay
}
