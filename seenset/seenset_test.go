package seenset

import (
	"testing"

	"github.com/Meander-Cloud/go-club/wire"
)

func TestInsertContainsIdempotent(t *testing.T) {
	s := New()
	op := wire.NewUUID()
	id := wire.NewMessageId(3, op)

	if s.Contains(id) {
		t.Fatal("fresh set should not contain anything")
	}

	s.Insert(id)
	s.Insert(id) // second insert must be a no-op, not an error

	if !s.Contains(id) {
		t.Fatal("expected id to be seen after insert")
	}
}

func TestForgetMessagesFrom(t *testing.T) {
	s := New()
	a := wire.NewUUID()
	b := wire.NewUUID()

	s.Insert(wire.NewMessageId(1, a))
	s.Insert(wire.NewMessageId(2, a))
	s.Insert(wire.NewMessageId(1, b))

	s.ForgetMessagesFrom(a)

	if s.Contains(wire.NewMessageId(1, a)) || s.Contains(wire.NewMessageId(2, a)) {
		t.Fatal("expected all of a's messages to be forgotten")
	}
	if !s.Contains(wire.NewMessageId(1, b)) {
		t.Fatal("b's messages should be unaffected")
	}
}

func TestSeenEverythingUpTo(t *testing.T) {
	s := New()
	op := wire.NewUUID()

	s.Insert(wire.NewMessageId(1, op))
	s.Insert(wire.NewMessageId(2, op))
	s.Insert(wire.NewMessageId(5, op))

	s.SeenEverythingUpTo(wire.NewMessageId(2, op))

	if s.Contains(wire.NewMessageId(1, op)) {
		t.Fatal("expected id strictly < cursor to be compacted")
	}
	if !s.Contains(wire.NewMessageId(2, op)) {
		t.Fatal("expected the cursor's own id to remain tracked, not be evicted by its own compaction")
	}
	if !s.Contains(wire.NewMessageId(5, op)) {
		t.Fatal("expected id > cursor to remain tracked")
	}
}
