package hub

import (
	"testing"
	"time"

	"github.com/Meander-Cloud/go-club/clubarbiter"
	"github.com/Meander-Cloud/go-club/config"
	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

const testTimeout = 5 * time.Second

func newTestHub(t *testing.T, name string) *Hub {
	t.Helper()

	arb := clubarbiter.NewArbiter(
		&clubarbiter.Options{
			EventChannelLength: 256,
			LogPrefix:          name,
		},
	)

	h, err := New(
		&config.Config{
			LogPrefix:            name,
			FuseHandshakeTimeout: time.Second,
			LogSweepInterval:     50 * time.Millisecond,
		},
		arb,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

// fusePair connects a and b over an in-memory pipe and blocks until
// both sides report a completed handshake, spec.md S1.
func fusePair(t *testing.T, a, b *Hub) {
	t.Helper()

	sa, sb := transport.NewPipePair(a.Self().String()+"->"+b.Self().String(), b.Self().String()+"->"+a.Self().String())

	errch := make(chan error, 2)
	a.Fuse(sa, func(err error, peer wire.UUID) { errch <- err })
	b.Fuse(sb, func(err error, peer wire.UUID) { errch <- err })

	for i := 0; i < 2; i++ {
		select {
		case err := <-errch:
			if err != nil {
				t.Fatalf("fuse handshake failed: %v", err)
			}
		case <-time.After(testTimeout):
			t.Fatal("timed out waiting for fuse handshake")
		}
	}
}

// captureMembership installs fn as an on_insert/on_remove slot and
// returns a channel fed with every delta it is called with.
func captureMembership(setFn func(MembershipFunc)) <-chan wire.UUIDSet {
	ch := make(chan wire.UUIDSet, 16)
	setFn(func(ids wire.UUIDSet) {
		ch <- ids
		// no reinstall needed: the destroy-guard restores this callback
		// after the call returns, since the slot is still empty then, so
		// it keeps observing subsequent deltas.
	})
	return ch
}

func waitMembership(t *testing.T, ch <-chan wire.UUIDSet, want wire.UUID) wire.UUIDSet {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case ids := <-ch:
			if ids.Contains(want) {
				return ids
			}
		case <-deadline:
			t.Fatalf("timed out waiting for membership delta containing %s", want.String())
		}
	}
}

func captureReceive(h *Hub) <-chan []byte {
	ch := make(chan []byte, 16)
	h.OnReceive(func(origin wire.UUID, payload []byte) {
		ch <- payload
	})
	return ch
}

func waitPayload(t *testing.T, ch <-chan []byte, want string) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case got := <-ch:
			if string(got) == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for payload %q", want)
		}
	}
}

// runOnArbiter dispatches f onto h's arbiter and blocks until it has
// run, for tests that need to drive internal state deterministically
// rather than relying on real handshake/gossip timing.
func runOnArbiter(t *testing.T, h *Hub, f func()) {
	t.Helper()
	done := make(chan struct{})
	if err := h.arb.Dispatch(func() {
		f()
		close(done)
	}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for arbiter dispatch")
	}
}

// S1 — Two-node fuse.
func TestTwoNodeFuse(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")

	insertsAtA := captureMembership(a.OnInsert)
	insertsAtB := captureMembership(b.OnInsert)

	fusePair(t, a, b)

	waitMembership(t, insertsAtA, b.Self())
	waitMembership(t, insertsAtB, a.Self())

	_, membersA := a.configs.Current()
	_, membersB := b.configs.Current()

	want := wire.NewUUIDSet(a.Self(), b.Self())
	if len(membersA) != len(want) || !membersA.Contains(a.Self()) || !membersA.Contains(b.Self()) {
		t.Errorf("A's terminal config = %v, want {A, B}", membersA.Slice())
	}
	if len(membersB) != len(want) || !membersB.Contains(a.Self()) || !membersB.Contains(b.Self()) {
		t.Errorf("B's terminal config = %v, want {A, B}", membersB.Slice())
	}

	if _, ok := a.FindPath(b.Self()); !ok {
		t.Error("A has no connection path to B")
	}
	if _, ok := b.FindPath(a.Self()); !ok {
		t.Error("B has no connection path to A")
	}
}

// S2 — User message total order.
func TestTwoNodeUserMessageTotalOrder(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")
	fusePair(t, a, b)

	recvA := captureReceive(a)
	recvB := captureReceive(b)

	a.TotalOrderBroadcast([]byte("x"))
	b.TotalOrderBroadcast([]byte("y"))

	waitPayload(t, recvA, "x")
	waitPayload(t, recvA, "y")
	waitPayload(t, recvB, "x")
	waitPayload(t, recvB, "y")
}

// S3 — Three-node fuse cascade.
func TestThreeNodeFuseCascade(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")
	c := newTestHub(t, "C")

	insertsAtA := captureMembership(a.OnInsert)
	insertsAtB := captureMembership(b.OnInsert)
	insertsAtC := captureMembership(c.OnInsert)

	fusePair(t, a, b)
	waitMembership(t, insertsAtA, b.Self())
	waitMembership(t, insertsAtB, a.Self())

	fusePair(t, a, c)
	waitMembership(t, insertsAtA, c.Self())
	waitMembership(t, insertsAtC, a.Self())

	// C eventually learns about B too, via gossiped reconfiguration,
	// and B eventually learns about C.
	waitMembership(t, insertsAtB, c.Self())
	waitMembership(t, insertsAtC, b.Self())

	for _, h := range []*Hub{a, b, c} {
		_, members := h.configs.Current()
		if len(members) != 3 || !members.Contains(a.Self()) || !members.Contains(b.Self()) || !members.Contains(c.Self()) {
			t.Errorf("%s: terminal config = %v, want {A, B, C}", h.cfg.LogPrefix, members.Slice())
		}
	}
}

// S4 — Peer drop.
func TestPeerDrop(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")
	c := newTestHub(t, "C")

	fusePair(t, a, b)
	fusePair(t, a, c)

	// wait for the 3-node configuration to settle on all three first
	removesAtA := captureMembership(a.OnRemove)
	removesAtB := captureMembership(b.OnRemove)

	deadline := time.Now().Add(testTimeout)
	for {
		_, ma := a.configs.Current()
		_, mb := b.configs.Current()
		_, mc := c.configs.Current()
		if len(ma) == 3 && len(mb) == 3 && len(mc) == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for 3-node configuration to settle")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// simulate C's socket to both peers dropping: closing either end
	// of a net.Pipe fails reads on both ends, so the sockets bound at
	// C are closed directly rather than reaching into A/B's nodetable.
	c.nodes.Erase(a.Self())
	c.nodes.Erase(b.Self())

	waitMembership(t, removesAtA, c.Self())
	waitMembership(t, removesAtB, c.Self())

	_, membersA := a.configs.Current()
	_, membersB := b.configs.Current()
	if len(membersA) != 2 || membersA.Contains(c.Self()) {
		t.Errorf("A's terminal config = %v, want {A, B}", membersA.Slice())
	}
	if len(membersB) != 2 || membersB.Contains(c.Self()) {
		t.Errorf("B's terminal config = %v, want {A, B}", membersB.Slice())
	}

	if a.seen.Contains(wire.NewMessageId(0, c.Self())) {
		t.Error("expected C's SeenSet entries to be forgotten at A")
	}
}

// S5 — Concurrent fuse loser: two peers neither can reach are proposed
// at nearly the same time. The fuse with the larger MessageId is acked
// by both nodes (no node votes for a fuse lower than the highest one it
// holds, spec.md §4.8's mid.GreaterOrEqual(hf) gate) and becomes the
// terminal configuration everywhere. Neither target ever joins: each
// fuse's quorum is its originator's connected set {A, B}, so committing
// it installs {A, B} again. No UserData concurrently in flight is lost
// to the loser's erasure.
func TestConcurrentFuseLoserDoesNotLoseUserData(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")
	fusePair(t, a, b)

	insertsAtA := captureMembership(a.OnInsert)
	insertsAtB := captureMembership(b.OnInsert)
	recvA := captureReceive(a)
	recvB := captureReceive(b)

	d := wire.NewUUID() // unreachable peer proposed by A
	e := wire.NewUUID() // unreachable peer proposed by B

	var midD, midE wire.MessageId
	runOnArbiter(t, a, func() {
		a.insertAndBroadcastFuse(d)
		hf, _ := a.log.FindHighestFuseEntry()
		midD = hf.Message.MessageId()
		a.runCommitEngine()
	})
	runOnArbiter(t, b, func() {
		b.insertAndBroadcastFuse(e)
		hf, _ := b.log.FindHighestFuseEntry()
		midE = hf.Message.MessageId()
		b.runCommitEngine()
	})

	a.TotalOrderBroadcast([]byte("x"))
	b.TotalOrderBroadcast([]byte("y"))

	waitPayload(t, recvA, "x")
	waitPayload(t, recvA, "y")
	waitPayload(t, recvB, "x")
	waitPayload(t, recvB, "y")

	winner := midD
	if midD.Less(midE) {
		winner = midE
	}

	var membersA, membersB wire.UUIDSet
	deadline := time.Now().Add(testTimeout)
	for {
		var idA, idB wire.MessageId
		runOnArbiter(t, a, func() { idA, membersA = a.configs.Current() })
		runOnArbiter(t, b, func() { idB, membersB = b.configs.Current() })
		if idA.Equal(winner) && idB.Equal(winner) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the winning fuse %s to be the terminal configuration at both nodes", winner.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if membersA.Contains(d) || membersA.Contains(e) || membersB.Contains(d) || membersB.Contains(e) {
		t.Errorf("expected neither unreachable fuse target to be a member: A=%v B=%v", membersA.Slice(), membersB.Slice())
	}
	if len(membersA) != 2 || len(membersB) != 2 {
		t.Errorf("expected the terminal configuration {A, B} at both nodes: A=%v B=%v", membersA.Slice(), membersB.Slice())
	}

	for _, inserts := range []<-chan wire.UUIDSet{insertsAtA, insertsAtB} {
	drain:
		for {
			select {
			case ids := <-inserts:
				if ids.Contains(d) || ids.Contains(e) {
					t.Errorf("unreachable fuse target should never be inserted: %v", ids.Slice())
				}
			default:
				break drain
			}
		}
	}
}

// S6 — Callback swap during delivery.
func TestCallbackSwapDuringDelivery(t *testing.T) {
	a := newTestHub(t, "A")
	b := newTestHub(t, "B")
	fusePair(t, a, b)

	first := make(chan []byte, 1)
	second := make(chan []byte, 1)

	a.OnReceive(func(origin wire.UUID, payload []byte) {
		first <- payload
		// reinstall a replacement from within the callback itself
		a.OnReceive(func(origin wire.UUID, payload []byte) {
			second <- payload
		})
	})

	b.TotalOrderBroadcast([]byte("one"))

	select {
	case got := <-first:
		if string(got) != "one" {
			t.Fatalf("first handler got %q, want %q", got, "one")
		}
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for first delivery")
	}

	b.TotalOrderBroadcast([]byte("two"))

	select {
	case got := <-second:
		if string(got) != "two" {
			t.Fatalf("replacement handler got %q, want %q", got, "two")
		}
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for replacement delivery")
	}
}
