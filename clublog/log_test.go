package clublog

import (
	"testing"

	"github.com/Meander-Cloud/go-club/wire"
)

func fuseEntry(ts wire.SequenceNumber, originator wire.UUID, quorum wire.UUIDSet) (wire.MessageId, *wire.Message) {
	header := wire.Header{Originator: originator, TimeStamp: ts}
	msg := wire.FuseMessage(wire.Fuse{
		Header: header,
		Target: wire.NewUUID(),
	})
	return header.MessageId(), msg
}

func TestApplyAckCreatesStubThenMergesOnInsert(t *testing.T) {
	l := New(wire.NewUUID())

	a := wire.NewUUID()
	voter := wire.NewUUID()
	mid, msg := fuseEntry(1, a, wire.NewUUIDSet(a, voter))

	// the vote arrives before the message itself
	l.ApplyAck(voter, wire.AckData{MessageID: mid})

	entry, ok := l.Get(mid)
	if !ok {
		t.Fatal("expected a stub entry after ApplyAck")
	}
	if entry.Message.Fuse != nil {
		t.Fatal("stub entry should not carry a real message yet")
	}

	inserted := l.InsertEntry(*msg, nil, wire.NewUUIDSet(a, voter))
	if _, voted := inserted.Acks[voter]; !voted {
		t.Fatal("expected the pre-arrived vote to be preserved on insert")
	}
}

func TestAckedByQuorum(t *testing.T) {
	l := New(wire.NewUUID())
	a, b, c := wire.NewUUID(), wire.NewUUID(), wire.NewUUID()

	mid, msg := fuseEntry(1, a, wire.NewUUIDSet(a, b, c))
	entry := l.InsertEntry(*msg, nil, wire.NewUUIDSet(a, b, c))

	if entry.AckedByQuorum() {
		t.Fatal("fresh entry should not be acked by quorum")
	}

	l.ApplyAck(a, wire.AckData{MessageID: mid})
	l.ApplyAck(b, wire.AckData{MessageID: mid})
	if entry.AckedByQuorum() {
		t.Fatal("partial votes should not satisfy quorum")
	}

	l.ApplyAck(c, wire.AckData{MessageID: mid})
	if !entry.AckedByQuorum() {
		t.Fatal("expected full quorum to be satisfied")
	}
}

func TestAckedByQuorumUnderIgnoresDeadVoters(t *testing.T) {
	l := New(wire.NewUUID())
	a, b, dead := wire.NewUUID(), wire.NewUUID(), wire.NewUUID()

	mid, msg := fuseEntry(1, a, wire.NewUUIDSet(a, b, dead))
	entry := l.InsertEntry(*msg, nil, wire.NewUUIDSet(a, b, dead))

	l.ApplyAck(a, wire.AckData{MessageID: mid})
	l.ApplyAck(b, wire.AckData{MessageID: mid})

	live := wire.NewUUIDSet(a, b)
	if !entry.AckedByQuorumUnder(live) {
		t.Fatal("expected quorum restricted to live voters to be satisfied")
	}
	if entry.AckedByQuorum() {
		t.Fatal("strict quorum should still be unsatisfied: dead never voted")
	}
}

func TestGetPredecessorTimeAndFindHighestFuseEntry(t *testing.T) {
	l := New(wire.NewUUID())
	op := wire.NewUUID()

	midUser, userMsg := func() (wire.MessageId, *wire.Message) {
		h := wire.Header{Originator: op, TimeStamp: 1}
		return h.MessageId(), wire.UserDataMessage(wire.UserData{Header: h})
	}()
	l.InsertEntry(*userMsg, nil, nil)

	midFuse, fuseMsg := fuseEntry(2, op, nil)
	l.InsertEntry(*fuseMsg, nil, nil)

	pred := l.GetPredecessorTime(midFuse)
	if !pred.Equal(midUser) {
		t.Errorf("GetPredecessorTime(fuse) = %v, want %v", pred, midUser)
	}

	hf, ok := l.FindHighestFuseEntry()
	if !ok {
		t.Fatal("expected a fuse entry to be found")
	}
	if !hf.Message.MessageId().Equal(midFuse) {
		t.Errorf("FindHighestFuseEntry returned wrong entry")
	}
}

func TestEraseRemovesEntry(t *testing.T) {
	l := New(wire.NewUUID())
	mid, msg := fuseEntry(1, wire.NewUUID(), nil)
	l.InsertEntry(*msg, nil, nil)

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}

	l.Erase(mid)
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Erase", l.Len())
	}
	if _, ok := l.Get(mid); ok {
		t.Fatal("expected entry to be gone after Erase")
	}
}
