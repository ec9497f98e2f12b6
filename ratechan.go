package ratechan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parkerroan/ratechan/pacer"
	"golang.org/x/exp/slog"
)

// DefaultOutputBuffer is the capacity of the output channel unless
// overridden with WithOutputBuffer. It bounds how far the worker can run
// ahead of a slow consumer before forwards start blocking.
const DefaultOutputBuffer = 100

// Option configures a Throttler using the functional options pattern.
type Option[T any] func(*Throttler[T])

// WithOutputBuffer sets the capacity of the output channel. A capacity of
// zero makes every forward rendezvous directly with the consumer.
func WithOutputBuffer[T any](size int) Option[T] {
	return func(t *Throttler[T]) {
		if size >= 0 {
			t.outputCap = size
		}
	}
}

// WithPacer replaces the default fixed-interval pacing policy.
func WithPacer[T any](p pacer.Pacer) Option[T] {
	return func(t *Throttler[T]) {
		t.pacer = p
	}
}

// WithLogger sets the logger used for worker lifecycle events. Values
// flowing through the adapter are never logged.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(t *Throttler[T]) {
		t.log = log
	}
}

// WithContext ties the worker's lifetime to ctx. Cancelling it is the
// consumer-side disconnect: the worker exits on its next suspension point,
// abandoning any pending value, and closes the output channel.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(t *Throttler[T]) {
		t.parent = ctx
	}
}

// Throttler connects an input channel to a rate-limited output channel.
// One worker goroutine owns the read side of input and the write side of
// output; all of its state is private to that goroutine, so no locking is
// involved on the hot path.
type Throttler[T any] struct {
	input     <-chan T
	output    chan T
	delay     time.Duration
	outputCap int
	pacer     pacer.Pacer
	log       *slog.Logger
	id        string

	parent context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats counters
}

// New connects input to a new rate-limited output channel and returns the
// read side. At most one value is forwarded per delay, and the value
// forwarded is always the most recent one received; everything older is
// discarded. The output channel closes when input closes.
//
// This is shorthand for NewThrottler(...).Output(); use the Throttler form
// when you need Stop or Stats.
func New[T any](input <-chan T, delay time.Duration, opts ...Option[T]) <-chan T {
	return NewThrottler(input, delay, opts...).Output()
}

// NewThrottler creates a Throttler and starts its worker. delay is the
// minimum spacing between two forwarded values; a negative delay is treated
// as zero, which degenerates to pass-through as fast as the consumer allows.
func NewThrottler[T any](input <-chan T, delay time.Duration, opts ...Option[T]) *Throttler[T] {
	if delay < 0 {
		delay = 0
	}

	t := &Throttler[T]{
		input:     input,
		delay:     delay,
		outputCap: DefaultOutputBuffer,
		log:       slog.Default(),
		id:        uuid.NewString(),
		parent:    context.Background(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.pacer == nil {
		t.pacer = pacer.NewInterval(delay)
	}
	t.output = make(chan T, t.outputCap)

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(t.parent)

	t.wg.Add(1)
	go t.run(ctx)

	return t
}

// Output returns the read-only channel carrying the throttled stream.
func (t *Throttler[T]) Output() <-chan T {
	return t.output
}

// Stop disconnects the consumer side. The worker exits at its next
// suspension point, dropping any pending value, and the output channel is
// closed by the time Stop returns. Safe to call more than once.
func (t *Throttler[T]) Stop() {
	t.cancel()
	t.wg.Wait()
}

// Stats returns a snapshot of the worker's forward/coalesce counters.
func (t *Throttler[T]) Stats() Stats {
	return t.stats.snapshot()
}

// run is the worker loop. It blocks waiting for a value when idle, then
// holds the value until the pacer allows a forward, replacing it with any
// newer arrival in the meantime. Either endpoint closing ends the loop.
func (t *Throttler[T]) run(ctx context.Context) {
	defer t.wg.Done()
	defer close(t.output)

	t.log.Debug("ratechan worker started",
		slog.String("worker_id", t.id),
		slog.Duration("delay", t.delay),
	)

	for {
		var value T
		select {
		case v, ok := <-t.input:
			if !ok {
				t.log.Debug("ratechan worker stopping: input closed",
					slog.String("worker_id", t.id))
				return
			}
			value = v
		case <-ctx.Done():
			t.log.Debug("ratechan worker stopping: consumer disconnected",
				slog.String("worker_id", t.id))
			return
		}

		if !t.hold(ctx, value) {
			t.log.Debug("ratechan worker stopping",
				slog.String("worker_id", t.id))
			return
		}
	}
}

// hold waits out the remainder of the delay for value, coalescing any newer
// arrivals into its place, and forwards whatever value is current when the
// window elapses. It reports false when the worker should terminate; the
// value in hand at that moment is dropped, never forwarded.
func (t *Throttler[T]) hold(ctx context.Context, value T) bool {
	for {
		remaining := t.pacer.Remaining(time.Now())

		if remaining <= 0 {
			select {
			case t.output <- value:
				t.pacer.Mark(time.Now())
				t.stats.forwarded.Add(1)
				return true
			case <-ctx.Done():
				return false
			}
		}

		timer := time.NewTimer(remaining)
		select {
		case v, ok := <-t.input:
			timer.Stop()
			if !ok {
				return false
			}
			// Newer value wins; the one we were holding is gone.
			value = v
			t.stats.coalesced.Add(1)
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}
