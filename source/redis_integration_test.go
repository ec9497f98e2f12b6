//go:build integration

package source_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/parkerroan/ratechan"
	"github.com/parkerroan/ratechan/source"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func init() {
	//load test.env file
	if _, err := os.Stat("test.env"); err == nil {
		// The file exists, now let's try to load it
		if err := godotenv.Load(); err != nil {
			// The file couldn't be loaded, log the error
			log.Fatalf("Error loading .env file: %s", err)
		}
	}
}

func TestRedisSource_Integration(t *testing.T) {
	// Set up a Redis client.
	// Note: For a real integration test, you might want to use a separate Redis instance (e.g., via Docker)
	rdb := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_TEST_URL"), // use the correct address
	})

	// Ensure the connection is alive
	_, err := rdb.Ping(context.Background()).Result()
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const channel = "ratechan-source-integration-test"

	input := source.Redis(ctx, rdb, channel)

	// Give the subscription a moment to establish before publishing.
	time.Sleep(250 * time.Millisecond)

	want := []string{"one", "two", "three"}
	for _, payload := range want {
		err := rdb.Publish(ctx, channel, payload).Err()
		assert.NoError(t, err)
	}

	var got []string
	for len(got) < len(want) {
		select {
		case msg := <-input:
			got = append(got, msg)
		case <-ctx.Done():
			t.Fatalf("timed out, received %v so far", got)
		}
	}
	assert.Equal(t, want, got)

	// Cancelling the context ends the stream.
	cancel()
	select {
	case _, open := <-input:
		assert.False(t, open, "input should close after context cancel")
	case <-time.After(5 * time.Second):
		t.Fatal("input did not close after context cancel")
	}
}

func TestRedisSource_ThrottledEndToEnd_Integration(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_TEST_URL"),
	})

	_, err := rdb.Ping(context.Background()).Result()
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const channel = "ratechan-e2e-integration-test"

	input := source.Redis(ctx, rdb, channel)
	output := ratechan.New(input, 500*time.Millisecond, ratechan.WithContext[string](ctx))

	time.Sleep(250 * time.Millisecond)

	// Publish a burst; the throttle should deliver the first immediately and
	// coalesce the rest down to the final payload.
	for _, payload := range []string{"a", "b", "c", "d"} {
		err := rdb.Publish(ctx, channel, payload).Err()
		assert.NoError(t, err)
	}

	first := <-output
	assert.Equal(t, "a", first)

	second := <-output
	assert.Equal(t, "d", second)
}
