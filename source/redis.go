// Package source adapts external feeds into input channels for ratechan.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

type redisSource struct {
	buffer  int
	log     *slog.Logger
	backoff *backoff.Backoff
}

// RedisOption configures a Redis source.
type RedisOption func(*redisSource)

// WithBuffer sets the capacity of the channel the source writes into. When
// the buffer is full the source drops the message rather than stall the
// subscription; a ratechan consumer only wants the latest values anyway.
// default: 100
func WithBuffer(size int) RedisOption {
	return func(s *redisSource) {
		if size >= 0 {
			s.buffer = size
		}
	}
}

// WithLogger sets the logger used for subscription lifecycle events.
func WithLogger(log *slog.Logger) RedisOption {
	return func(s *redisSource) {
		s.log = log
	}
}

// Redis subscribes to a Redis pub/sub channel and returns a channel of
// message payloads suitable as the input side of ratechan.New. The returned
// channel closes when ctx is cancelled. Lost subscriptions are re-established
// with exponential backoff.
func Redis(ctx context.Context, rdb *redis.Client, channel string, opts ...RedisOption) <-chan string {
	// Create an exponential backoff configuration
	b := &backoff.Backoff{
		//These are the defaults
		Min:    100 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: false,
	}

	s := &redisSource{
		buffer:  100,
		log:     slog.Default(),
		backoff: b,
	}

	// Apply all provided options
	for _, opt := range opts {
		opt(s)
	}

	out := make(chan string, s.buffer)
	go s.run(ctx, rdb, channel, out)
	return out
}

func (s *redisSource) run(ctx context.Context, rdb *redis.Client, channel string, out chan<- string) {
	defer close(out)

	for {
		// Check the context before a new subscription attempt starts
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				s.log.Info("Context was cancelled, cleaning up")
			}
			return
		}

		sub := rdb.Subscribe(ctx, channel)
		if _, err := sub.Receive(ctx); err != nil {
			sub.Close()
			if errors.Is(err, context.Canceled) {
				s.log.Info("Context was cancelled, cleaning up")
				return
			}
			s.log.Error("Error subscribing to channel", slog.Any("error", err))
			time.Sleep(s.backoff.Duration())
			continue
		}
		s.backoff.Reset()

		if !s.receive(ctx, sub, out) {
			sub.Close()
			return
		}

		// Subscription dropped; go around and re-subscribe.
		sub.Close()
		s.log.Error("Subscription lost, reconnecting")
		time.Sleep(s.backoff.Duration())
	}
}

// receive pumps messages until the subscription drops (returns true) or the
// context is done (returns false).
func (s *redisSource) receive(ctx context.Context, sub *redis.PubSub, out chan<- string) bool {
	ch := sub.Channel()
	for {
		select {
		case msg, open := <-ch:
			if !open {
				return true
			}
			select {
			case out <- msg.Payload:
			default:
				// Buffer full: the consumer is behind. Drop the message;
				// throttled consumers only care about the latest values.
			}
		case <-ctx.Done():
			s.log.Info("Context was cancelled, cleaning up")
			return false
		}
	}
}
