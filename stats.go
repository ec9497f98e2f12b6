package ratechan

import "sync/atomic"

// Stats is a point-in-time snapshot of a worker's counters. Only counts are
// tracked, never the values themselves.
type Stats struct {
	// Forwarded is the number of values sent on the output channel.
	Forwarded uint64
	// Coalesced is the number of values discarded because a newer value
	// arrived before their delay window elapsed.
	Coalesced uint64
}

type counters struct {
	forwarded atomic.Uint64
	coalesced atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Forwarded: c.forwarded.Load(),
		Coalesced: c.coalesced.Load(),
	}
}
