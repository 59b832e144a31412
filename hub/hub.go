// Package hub is the core: the per-node state machine that inducts
// peers via fuse handshakes, gossips causally-tagged protocol
// messages, maintains a replicated ackable log, advances a
// quorum-based commit cursor, installs configurations, delivers a
// total order of user payloads, and offers best-effort unreliable
// broadcast. Every algorithmic detail here is grounded line-for-line
// on original_source/src/club/hub.cpp, the reference implementation
// this module's specification was distilled from; the method-per-
// file-per-concern split follows election/*.go's shape (candidate.go,
// follower.go, leader.go, ... each a set of methods on *Election).
package hub

import (
	"net"
	"sync/atomic"

	"github.com/Meander-Cloud/go-club/clubarbiter"
	"github.com/Meander-Cloud/go-club/clubid"
	"github.com/Meander-Cloud/go-club/clublog"
	"github.com/Meander-Cloud/go-club/config"
	"github.com/Meander-Cloud/go-club/configstore"
	"github.com/Meander-Cloud/go-club/nodetable"
	"github.com/Meander-Cloud/go-club/routing"
	"github.com/Meander-Cloud/go-club/seenset"
	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

// Socket is the handshake-capable transport.Socket the Fuser needs:
// the reliable-exchange step (spec.md §4.5 step 1) runs directly
// against the raw connection before the framed read loop is started.
type Socket interface {
	transport.Socket
	Conn() net.Conn
	Run()
}

// Hub is the per-node state machine, spec.md §2's top-level component.
type Hub struct {
	self wire.UUID

	cfg *config.Config
	arb *clubarbiter.Arbiter

	clock   *clubid.Clock
	seen    *seenset.SeenSet
	log     *clublog.Log
	configs *configstore.Store
	nodes   *nodetable.Table
	routing *routing.RoutingTable
	conngraph *routing.ConnectionGraph

	callbacks *CallbackBroker
	alive     *atomic.Bool

	unreliable transport.UnreliableSocket
}

// New constructs a single-node club of just self, spec.md invariant 1.
// arb is an already-constructed clubarbiter.Arbiter (ambient-stack
// wiring: the arbiter is first-class here, not an anonymous io_service&,
// the same way election.NewElection builds its own arbiter.NewArbiter(c)
// and hands it down to tcp.NewMatrix). cfg is validated the same way
// election.NewElection validates its own config before using it, filling
// in defaults for any unset duration.
func New(cfg *config.Config, arb *clubarbiter.Arbiter) (*Hub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	self := clubid.Allocate()

	alive := new(atomic.Bool)
	alive.Store(true)

	h := &Hub{
		self: self,

		cfg: cfg,
		arb: arb,

		clock:     clubid.NewClock(),
		seen:      seenset.New(),
		log:       clublog.New(self),
		configs:   configstore.New(self),
		nodes:     nodetable.New(),
		routing:   routing.NewRoutingTable(self),
		conngraph: routing.NewConnectionGraph(),

		alive: alive,
	}
	h.callbacks = NewCallbackBroker(alive)

	h.scheduleLogSweep()

	return h, nil
}

// Self returns the local node's identity.
func (h *Hub) Self() wire.UUID {
	return h.self
}

// Close flips the destroyed flag and shuts the arbiter down. Every
// outstanding continuation captures h.alive and returns early once
// this fires, spec.md §5's only cancellation primitive.
func (h *Hub) Close() {
	h.alive.Store(false)
	h.arb.Shutdown()
}

func (h *Hub) destroyed() bool {
	return !h.alive.Load()
}

// FindPath exposes the dialing hint of SPEC_FULL §6.2: a shortest
// chain of directly-connected UUIDs from self to to, or ok=false if
// to is unreachable in the currently known connection graph. It is a
// dialing hint only; nothing in transport or cmd/clubnode calls it, and
// the CommitEngine and Dispatcher never consult it.
func (h *Hub) FindPath(to wire.UUID) (path []wire.UUID, ok bool) {
	return h.conngraph.FindPath(h.self, to)
}
