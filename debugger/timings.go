package debugger

import (
	"time"
)

// timingRing is a bounded, drop-oldest history of per-step durations. When a
// new sample would exceed the capacity, the oldest sample is evicted.
type timingRing struct {
	samples []time.Duration
	head    int
	count   int
}

func newTimingRing(capacity int) *timingRing {
	if capacity < 1 {
		capacity = 1
	}
	return &timingRing{samples: make([]time.Duration, capacity)}
}

func (ring *timingRing) Append(d time.Duration) {
	if ring.count < len(ring.samples) {
		ring.samples[(ring.head+ring.count)%len(ring.samples)] = d
		ring.count += 1
		return
	}

	ring.samples[ring.head] = d
	ring.head = (ring.head + 1) % len(ring.samples)
}

func (ring *timingRing) Len() int {
	return ring.count
}

// Samples returns the retained history, oldest first.
func (ring *timingRing) Samples() []time.Duration {
	out := make([]time.Duration, ring.count)
	for n := range ring.count {
		out[n] = ring.samples[(ring.head+n)%len(ring.samples)]
	}
	return out
}

func (ring *timingRing) Reset() {
	ring.head = 0
	ring.count = 0
}
