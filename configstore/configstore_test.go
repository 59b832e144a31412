package configstore

import (
	"testing"

	"github.com/Meander-Cloud/go-club/wire"
)

func TestNewStoreIsNeverEmpty(t *testing.T) {
	self := wire.NewUUID()
	s := New(self)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	id, members := s.Current()
	if !id.Equal(wire.NewMessageId(0, self)) {
		t.Errorf("initial id = %v", id)
	}
	if !members.Contains(self) || len(members) != 1 {
		t.Errorf("initial members = %v, want {self}", members)
	}
}

func TestAppendAdvancesCurrent(t *testing.T) {
	self := wire.NewUUID()
	peer := wire.NewUUID()
	s := New(self)

	id := wire.NewMessageId(5, self)
	s.Append(id, wire.NewUUIDSet(self, peer))

	gotID, members := s.Current()
	if !gotID.Equal(id) {
		t.Errorf("Current id = %v, want %v", gotID, id)
	}
	if !members.Contains(peer) {
		t.Errorf("expected peer in current members")
	}
	if !s.Contains(wire.NewMessageId(0, self)) {
		t.Errorf("expected initial config to remain present")
	}
}
