package pacer_test

import (
	"testing"
	"time"

	"github.com/parkerroan/ratechan/pacer"
	"github.com/stretchr/testify/assert"
)

func TestIntervalFirstForwardAllowedImmediately(t *testing.T) {
	p := pacer.NewInterval(time.Second)

	// The last-forward instant starts a full delay in the past.
	assert.Equal(t, time.Duration(0), p.Remaining(time.Now()))
}

func TestIntervalSpacing(t *testing.T) {
	p := pacer.NewInterval(time.Second)
	now := time.Now()

	p.Mark(now)

	remaining := p.Remaining(now)
	assert.Equal(t, time.Second, remaining)

	remaining = p.Remaining(now.Add(400 * time.Millisecond))
	assert.Equal(t, 600*time.Millisecond, remaining)

	remaining = p.Remaining(now.Add(time.Second))
	assert.Equal(t, time.Duration(0), remaining)

	remaining = p.Remaining(now.Add(2 * time.Second))
	assert.Equal(t, time.Duration(0), remaining)
}

func TestIntervalMarkOpensFreshWindow(t *testing.T) {
	p := pacer.NewInterval(500 * time.Millisecond)
	now := time.Now()

	p.Mark(now)
	p.Mark(now.Add(500 * time.Millisecond))

	assert.Equal(t, 500*time.Millisecond, p.Remaining(now.Add(500*time.Millisecond)))
}

func TestIntervalNegativeDelayClamped(t *testing.T) {
	p := pacer.NewInterval(-time.Second)

	assert.Equal(t, time.Duration(0), p.Delay())
	assert.Equal(t, time.Duration(0), p.Remaining(time.Now()))

	p.Mark(time.Now())
	assert.Equal(t, time.Duration(0), p.Remaining(time.Now()))
}
