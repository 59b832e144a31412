// Package clubid allocates the local node's UUID and holds the local
// logical clock (spec.md §3 "SequenceNumber", invariant 4). Grounded
// on election/state.go's NewState, which computes SelfID/SelfTerm once
// at construction time the same way — except the hub's clock keeps
// advancing after construction instead of being fixed per term.
package clubid

import (
	"sync"

	"github.com/Meander-Cloud/go-club/wire"
)

// Allocate returns a fresh local UUID, spec.md §3's IdAllocator.
func Allocate() wire.UUID {
	return wire.NewUUID()
}

// Clock is the local monotone logical timestamp, spec.md invariant 4:
// non-decreasing across both send and receive paths.
type Clock struct {
	mutex sync.Mutex
	ts    wire.SequenceNumber
}

// NewClock starts a clock at zero. All mutation happens on the
// arbiter goroutine in practice, but the mutex keeps Clock safe to
// read from a diagnostic/other goroutine too.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock by one and returns the new value, for
// composing an outbound header ("on send, ++local_ts before
// composing the header").
func (c *Clock) Next() wire.SequenceNumber {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.ts++
	return c.ts
}

// Observe folds in a received timestamp: "on receive, local_ts :=
// max(local_ts, msg.time_stamp)".
func (c *Clock) Observe(ts wire.SequenceNumber) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ts > c.ts {
		c.ts = ts
	}
}

func (c *Clock) Current() wire.SequenceNumber {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.ts
}
