// Package configstore holds the ordered history of committed
// membership sets (spec.md §3 "Configuration"). It mirrors hub.cpp's
// _configs: a std::map<MessageId, set<uuid>>, always non-empty.
package configstore

import (
	"sort"

	"github.com/Meander-Cloud/go-club/wire"
)

type entry struct {
	id      wire.MessageId
	members wire.UUIDSet
}

// Store is an ordered MessageId -> set<UUID> mapping. It is never
// empty once constructed: spec.md invariant 1.
type Store struct {
	entries []entry // kept sorted ascending by id
}

// New seeds the store with the single-node initial configuration of
// spec.md invariant 1: (MessageId(0, self) -> {self}).
func New(self wire.UUID) *Store {
	return &Store{
		entries: []entry{
			{id: wire.NewMessageId(0, self), members: wire.NewUUIDSet(self)},
		},
	}
}

// Append installs a newly committed configuration. Callers (the
// CommitEngine, via on_commit_fuse) are responsible for calling this
// only with ids greater than every existing entry's id, as spec.md
// §4.10 requires, though Append itself keeps entries sorted
// regardless.
func (s *Store) Append(id wire.MessageId, members wire.UUIDSet) {
	s.entries = append(s.entries, entry{id: id, members: members})
	sort.Slice(s.entries, func(i, j int) bool {
		return s.entries[i].id.Less(s.entries[j].id)
	})
}

// Current returns the id and member set of the last (most recently
// installed) configuration.
func (s *Store) Current() (wire.MessageId, wire.UUIDSet) {
	last := s.entries[len(s.entries)-1]
	return last.id, last.members
}

// CurrentMembers is a convenience accessor for Current's second
// return value.
func (s *Store) CurrentMembers() wire.UUIDSet {
	_, members := s.Current()
	return members
}

// Contains reports whether id names an installed configuration.
func (s *Store) Contains(id wire.MessageId) bool {
	for _, e := range s.entries {
		if e.id.Equal(id) {
			return true
		}
	}
	return false
}

func (s *Store) Len() int {
	return len(s.entries)
}
