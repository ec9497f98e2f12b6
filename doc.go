/*
Package ratechan provides a rate-limited channel adapter that sits between a
producer and a consumer, forwarding only the most recently produced value at
most once per fixed delay.

It is built for streams where the producer emits faster than the consumer
should react (sensor samples, UI state updates) and the consumer only ever
cares about the latest value. Intermediate values are coalesced away by
design: whenever more than one value arrives inside a delay window, only the
newest survives.

Example:

	import (
		"time"
		"github.com/parkerroan/ratechan"
	)

	input := make(chan int, 1000)

	// Forward at most one value per second from input.
	output := ratechan.New(input, time.Second)

	go producer(input) // closes input when done

	for v := range output {
		// v is the most recent value as of each 1s boundary
	}

The first value ever received is forwarded immediately; every later forward
waits out the remainder of the delay measured from the previous forward.
Closing the input channel shuts the adapter down and closes the output
channel. A consumer that wants to walk away early uses the Throttler form and
calls Stop (or cancels the context passed via WithContext), after which the
adapter stops reading input entirely. Producers that might outlive the
consumer should select on their own context when sending.

The pacing policy is pluggable via the pacer subpackage; the default is the
fixed-interval policy described above. For per-key throttling over a shared
stream (one worker per sensor id, user id, etc.) see Keyed. For feeding an
adapter from Redis pub/sub see the source subpackage.
*/
package ratechan
