// Package pacer defines the pacing policies that decide when a ratechan
// worker may forward its next value.
package pacer

import "time"

// Pacer is the interface that abstracts the pacing policy. A Pacer is owned
// by exactly one worker goroutine, so implementations do not need to be
// safe for concurrent use.
type Pacer interface {
	// Remaining reports how long until the next forward is allowed, as of
	// now. Zero (or negative) means a forward may happen immediately.
	Remaining(now time.Time) time.Duration
	// Mark records that a forward happened at now.
	Mark(now time.Time)
}
