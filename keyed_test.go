package ratechan_test

import (
	"testing"
	"time"

	"github.com/parkerroan/ratechan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedFirstValuePerKeyForwardedImmediately(t *testing.T) {
	k, err := ratechan.NewKeyed[int](time.Second)
	require.NoError(t, err)
	defer k.Stop()

	k.Send("a", 1)
	k.Send("b", 10)

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		e, ok := receiveOne(t, k.Output(), 500*time.Millisecond)
		if !ok {
			t.Fatal("output closed early")
		}
		got[e.Key] = e.Value
	}

	assert.Equal(t, map[string]int{"a": 1, "b": 10}, got)
}

func TestKeyedLatestWinsPerKey(t *testing.T) {
	const delay = 200 * time.Millisecond

	k, err := ratechan.NewKeyed[int](delay)
	require.NoError(t, err)
	defer k.Stop()

	k.Send("a", 1)
	e, _ := receiveOne(t, k.Output(), 500*time.Millisecond)
	assert.Equal(t, "a", e.Key)
	assert.Equal(t, 1, e.Value)
	firstAt := time.Now()

	// Both land inside a's open window; only the newer survives.
	k.Send("a", 2)
	k.Send("a", 3)

	e, _ = receiveOne(t, k.Output(), time.Second)
	assert.Equal(t, "a", e.Key)
	assert.Equal(t, 3, e.Value)
	assert.GreaterOrEqual(t, time.Since(firstAt), delay-20*time.Millisecond)
}

func TestKeyedKeysDoNotThrottleEachOther(t *testing.T) {
	k, err := ratechan.NewKeyed[int](time.Second)
	require.NoError(t, err)
	defer k.Stop()

	start := time.Now()
	k.Send("a", 1)
	k.Send("b", 2)
	k.Send("c", 3)

	for i := 0; i < 3; i++ {
		_, ok := receiveOne(t, k.Output(), 500*time.Millisecond)
		if !ok {
			t.Fatal("output closed early")
		}
	}

	// Three distinct keys, three immediate first forwards.
	assert.Less(t, time.Since(start), time.Second)
}

func TestKeyedStop(t *testing.T) {
	k, err := ratechan.NewKeyed[int](time.Second)
	require.NoError(t, err)

	k.Send("a", 1)
	_, _ = receiveOne(t, k.Output(), 500*time.Millisecond)

	k.Stop()

	_, ok := <-k.Output()
	assert.False(t, ok, "output should be closed once Stop returns")

	// Sends after Stop are dropped, not panics.
	k.Send("a", 2)

	// Stop is idempotent.
	k.Stop()
}
