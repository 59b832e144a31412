package wire

import (
	"bytes"

	"github.com/google/uuid"
)

// UUID is the 128-bit opaque node identity. It has a total order
// (byte-wise comparison of the underlying 16 bytes) used for tie-breaks
// throughout the hub.
type UUID [16]byte

var Nil UUID

func NewUUID() UUID {
	return UUID(uuid.New())
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

func (u UUID) IsNil() bool {
	return u == Nil
}

// Less orders UUIDs byte-wise; used for tie-breaking MessageId
// comparisons that share a TimeStamp.
func (u UUID) Less(other UUID) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

func (u UUID) Compare(other UUID) int {
	return bytes.Compare(u[:], other[:])
}

// UUIDSet is a set of UUIDs, encoded as a length-prefixed list on the
// wire (msgpack already does this for map[UUID]struct{}, but a few
// call sites want ordinary set helpers).
type UUIDSet map[UUID]struct{}

func NewUUIDSet(ids ...UUID) UUIDSet {
	s := make(UUIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UUIDSet) Contains(id UUID) bool {
	_, ok := s[id]
	return ok
}

func (s UUIDSet) Add(id UUID) {
	s[id] = struct{}{}
}

func (s UUIDSet) Clone() UUIDSet {
	c := make(UUIDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

func (s UUIDSet) Slice() []UUID {
	out := make([]UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Difference returns (from \ to, to \ from): elements only in from, and
// elements only in to.
func Difference(from, to UUIDSet) (removed, added UUIDSet) {
	removed = make(UUIDSet)
	added = make(UUIDSet)

	for id := range from {
		if !to.Contains(id) {
			removed.Add(id)
		}
	}
	for id := range to {
		if !from.Contains(id) {
			added.Add(id)
		}
	}

	return removed, added
}
