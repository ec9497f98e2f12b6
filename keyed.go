package ratechan

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/parkerroan/ratechan/pacer"
	"golang.org/x/exp/slog"
)

// Entry is one keyed value on a Keyed output stream.
type Entry[T any] struct {
	Key   string
	Value T
}

// KeyedOption configures a Keyed throttler.
type KeyedOption[T any] func(*Keyed[T])

// WithKeyTTL sets how long an idle key's worker is kept alive. Each Send
// refreshes the key's TTL; once it expires the worker is shut down and the
// next Send for that key starts a fresh one.
// default: 1 minute
func WithKeyTTL[T any](ttl time.Duration) KeyedOption[T] {
	return func(k *Keyed[T]) {
		if ttl > 0 {
			k.ttl = ttl
		}
	}
}

// WithKeyedOutputBuffer sets the capacity of the shared output channel.
func WithKeyedOutputBuffer[T any](size int) KeyedOption[T] {
	return func(k *Keyed[T]) {
		if size >= 0 {
			k.outputCap = size
		}
	}
}

// WithKeyedLogger sets the logger used for lane lifecycle events.
func WithKeyedLogger[T any](log *slog.Logger) KeyedOption[T] {
	return func(k *Keyed[T]) {
		k.log = log
	}
}

// Keyed throttles a stream of keyed values with one independent worker per
// key, fanning every key's throttled output into a single Entry stream. Each
// key gets the same latest-wins, at-most-one-per-delay treatment a plain
// Throttler gives its channel. Idle keys are expired by a TTL cache so the
// worker population tracks the set of recently active keys.
type Keyed[T any] struct {
	delay     time.Duration
	ttl       time.Duration
	outputCap int
	log       *slog.Logger

	out    chan Entry[T]
	cache  *ristretto.Cache
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards lanes and every lane inlet operation, so a lane can never
	// be sent on after retire closes it.
	mu     sync.Mutex
	lanes  map[string]*lane[T]
	closed bool
}

// lane is the per-key inlet. Capacity 1: a send either lands, or displaces
// the value already waiting (latest wins at the entrance too).
type lane[T any] struct {
	key string
	in  chan T
}

// NewKeyed creates a Keyed throttler and starts its eviction cache. delay
// applies per key.
func NewKeyed[T any](delay time.Duration, opts ...KeyedOption[T]) (*Keyed[T], error) {
	if delay < 0 {
		delay = 0
	}

	k := &Keyed[T]{
		delay:     delay,
		ttl:       time.Minute,
		outputCap: DefaultOutputBuffer,
		log:       slog.Default(),
		lanes:     make(map[string]*lane[T]),
	}

	for _, opt := range opts {
		opt(k)
	}

	k.out = make(chan Entry[T], k.outputCap)
	k.ctx, k.cancel = context.WithCancel(context.Background())

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000, // at most ~1000 live keys before LFU eviction kicks in
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			if l, ok := item.Value.(*lane[T]); ok {
				k.retire(l)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	k.cache = cache

	return k, nil
}

// Send hands a value to key's worker, starting one if the key is new or was
// expired. The send never blocks: if the key's inlet already holds an
// undelivered value, the newer value displaces it.
func (k *Keyed[T]) Send(key string, value T) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return
	}

	l, ok := k.lanes[key]
	if !ok {
		l = &lane[T]{key: key, in: make(chan T, 1)}
		k.lanes[key] = l
		k.wg.Add(1)
		go k.runLane(l)
		k.log.Debug("ratechan lane started", slog.String("key", key))
	}

	// Refresh the TTL. If the cache declines the entry the lane simply
	// lives until Stop; eviction trims idle lanes, it is not load-bearing.
	k.cache.SetWithTTL(key, l, 1, k.ttl)

	select {
	case l.in <- value:
	default:
		select {
		case <-l.in:
		default:
		}
		select {
		case l.in <- value:
		default:
		}
	}
}

// Output returns the shared read-only stream of throttled keyed values.
// Ordering is preserved per key; entries for different keys interleave in
// forward order.
func (k *Keyed[T]) Output() <-chan Entry[T] {
	return k.out
}

// Stop shuts down every lane worker and closes the output channel. Sends
// after Stop are dropped.
func (k *Keyed[T]) Stop() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return
	}
	k.closed = true
	for _, l := range k.lanes {
		close(l.in)
	}
	k.lanes = make(map[string]*lane[T])
	k.mu.Unlock()

	k.cancel()
	k.wg.Wait()
	k.cache.Close()
	close(k.out)
}

// retire shuts down one lane after its TTL expired. Runs on the cache's
// eviction goroutine.
func (k *Keyed[T]) retire(l *lane[T]) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.lanes[l.key] != l {
		return
	}
	delete(k.lanes, l.key)
	close(l.in)
	k.log.Debug("ratechan lane expired", slog.String("key", l.key))
}

// runLane is the per-key worker: the same hold-then-forward loop a plain
// Throttler runs, writing tagged entries to the shared output.
func (k *Keyed[T]) runLane(l *lane[T]) {
	defer k.wg.Done()

	p := pacer.NewInterval(k.delay)

	for {
		var value T
		select {
		case v, ok := <-l.in:
			if !ok {
				return
			}
			value = v
		case <-k.ctx.Done():
			return
		}

	holding:
		for {
			remaining := p.Remaining(time.Now())

			if remaining <= 0 {
				select {
				case k.out <- Entry[T]{Key: l.key, Value: value}:
					p.Mark(time.Now())
					break holding
				case <-k.ctx.Done():
					return
				}
			}

			timer := time.NewTimer(remaining)
			select {
			case v, ok := <-l.in:
				timer.Stop()
				if !ok {
					return
				}
				value = v
			case <-timer.C:
			case <-k.ctx.Done():
				timer.Stop()
				return
			}
		}
	}
}
