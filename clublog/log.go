// Package clublog holds the replicated log of not-yet-committed
// ackable operations (Fuse and UserData messages) and the cursors the
// CommitEngine advances over it. Grounded line-for-line on
// original_source/src/club/hub.cpp's Log/LogEntry.
package clublog

import (
	"sort"

	"github.com/Meander-Cloud/go-club/wire"
)

// LogEntry is spec.md §3's {message, predecessors, acks, quorum}.
type LogEntry struct {
	Message      wire.Message
	Predecessors []wire.MessageId
	Acks         map[wire.UUID]wire.AckData
	Quorum       wire.UUIDSet
}

func newStubEntry() *LogEntry {
	return &LogEntry{
		Acks: make(map[wire.UUID]wire.AckData),
	}
}

// AckedBy reports whether every member of s has voted for exactly
// this entry's MessageId (spec.md §4.4).
func (e *LogEntry) AckedBy(s wire.UUIDSet) bool {
	mid := e.Message.MessageId()
	for u := range s {
		vote, ok := e.Acks[u]
		if !ok || !vote.MessageID.Equal(mid) {
			return false
		}
	}
	return true
}

// AckedByQuorum reports whether e.Quorum has fully voted.
func (e *LogEntry) AckedByQuorum() bool {
	return e.AckedBy(e.Quorum)
}

// AckedByQuorumUnder reports whether the intersection of the entry's
// quorum with liveNodes has fully voted — spec.md §4.4's "acked by
// quorum under live_nodes", used to judge concurrent fuse losers
// against a newer committable fuse's chosen live set.
func (e *LogEntry) AckedByQuorumUnder(liveNodes wire.UUIDSet) bool {
	mid := e.Message.MessageId()
	for u := range e.Quorum {
		if !liveNodes.Contains(u) {
			continue
		}
		vote, ok := e.Acks[u]
		if !ok || !vote.MessageID.Equal(mid) {
			return false
		}
	}
	return true
}

func (e *LogEntry) IsFuse() bool {
	return e.Message.Fuse != nil
}

func (e *LogEntry) IsUserData() bool {
	return e.Message.UserData != nil
}

type logSlot struct {
	id    wire.MessageId
	entry *LogEntry
}

// Log is the ordered map<MessageId, LogEntry> of spec.md §4.3.
// Entries are kept in a slice sorted by MessageId; working sets are
// small (bounded by in-flight unacked messages) so a sorted slice
// with binary-search insertion beats the constant overhead of an
// imported balanced tree here — see DESIGN.md.
type Log struct {
	slots []logSlot

	LastCommitted  wire.MessageId
	LastFuseCommit wire.MessageId
	LastCommitOp   wire.UUID
}

func New(selfID wire.UUID) *Log {
	return &Log{
		LastCommitted:  wire.Zero,
		LastFuseCommit: wire.Zero,
		LastCommitOp:   selfID,
	}
}

func (l *Log) search(id wire.MessageId) int {
	return sort.Search(len(l.slots), func(i int) bool {
		return !l.slots[i].id.Less(id)
	})
}

func (l *Log) Get(id wire.MessageId) (*LogEntry, bool) {
	i := l.search(id)
	if i < len(l.slots) && l.slots[i].id.Equal(id) {
		return l.slots[i].entry, true
	}
	return nil, false
}

func (l *Log) insertAt(id wire.MessageId, entry *LogEntry) {
	i := l.search(id)
	if i < len(l.slots) && l.slots[i].id.Equal(id) {
		l.slots[i].entry = entry
		return
	}
	l.slots = append(l.slots, logSlot{})
	copy(l.slots[i+1:], l.slots[i:])
	l.slots[i] = logSlot{id: id, entry: entry}
}

// InsertEntry creates a new entry for msg, or — if an ack-stub already
// exists at this MessageId — merges the stub's collected acks into
// the real entry, preserving votes gathered before the message itself
// arrived (spec.md §4.3's merge-on-reinsert rule).
func (l *Log) InsertEntry(msg wire.Message, predecessors []wire.MessageId, quorum wire.UUIDSet) *LogEntry {
	id := msg.MessageId()

	entry := &LogEntry{
		Message:      msg,
		Predecessors: predecessors,
		Acks:         make(map[wire.UUID]wire.AckData),
		Quorum:       quorum,
	}

	if existing, ok := l.Get(id); ok {
		for voter, ack := range existing.Acks {
			entry.Acks[voter] = ack
		}
	}

	l.insertAt(id, entry)
	return entry
}

// ApplyAck records voter's vote, creating a predecessor-only stub
// entry if the real message hasn't arrived yet (spec.md §4.3).
func (l *Log) ApplyAck(voter wire.UUID, ack wire.AckData) {
	entry, ok := l.Get(ack.MessageID)
	if !ok {
		entry = newStubEntry()
		l.insertAt(ack.MessageID, entry)
	}
	entry.Acks[voter] = ack
}

// FindHighestFuseEntry returns the latest Fuse-variant entry in the
// log (spec.md §4.3), scanning from the newest id backward.
func (l *Log) FindHighestFuseEntry() (*LogEntry, bool) {
	for i := len(l.slots) - 1; i >= 0; i-- {
		if l.slots[i].entry.IsFuse() {
			return l.slots[i].entry, true
		}
	}
	return nil, false
}

// GetPredecessorTime returns the greatest MessageId strictly less
// than id currently in the log (the causal predecessor used when
// constructing a new ackable message, spec.md §4.3).
func (l *Log) GetPredecessorTime(id wire.MessageId) wire.MessageId {
	i := l.search(id)
	if i == 0 {
		return wire.Zero
	}
	return l.slots[i-1].id
}

// Erase removes the entry at id, if any.
func (l *Log) Erase(id wire.MessageId) {
	i := l.search(id)
	if i < len(l.slots) && l.slots[i].id.Equal(id) {
		l.slots = append(l.slots[:i], l.slots[i+1:]...)
	}
}

// Ascending returns (id, entry) pairs in increasing MessageId order —
// the CommitEngine's scan direction.
func (l *Log) Ascending() []struct {
	ID    wire.MessageId
	Entry *LogEntry
} {
	out := make([]struct {
		ID    wire.MessageId
		Entry *LogEntry
	}, len(l.slots))
	for i, s := range l.slots {
		out[i].ID = s.id
		out[i].Entry = s.entry
	}
	return out
}

// Reversed returns (id, entry) pairs in decreasing MessageId order —
// used by commit_what_was_seen_by_everyone's reverse scan for the
// highest committable fuse.
func (l *Log) Reversed() []struct {
	ID    wire.MessageId
	Entry *LogEntry
} {
	asc := l.Ascending()
	for i, j := 0, len(asc)-1; i < j; i, j = i+1, j-1 {
		asc[i], asc[j] = asc[j], asc[i]
	}
	return asc
}

func (l *Log) Len() int {
	return len(l.slots)
}
