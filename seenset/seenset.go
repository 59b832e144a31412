// Package seenset tracks recently observed message identifiers so the
// Dispatcher can suppress duplicate gossip deliveries. Suppression is
// best-effort by design (spec.md §4.1): a second delivery of an
// already-processed frame must still be a safe no-op downstream, so
// this set is free to prune liberally.
package seenset

import "github.com/Meander-Cloud/go-club/wire"

// SeenSet remembers seen wire.SequenceNumbers grouped by originator,
// so ForgetMessagesFrom (called when a node leaves the committed
// configuration, spec.md invariant 6) is a single map delete rather
// than a scan.
type SeenSet struct {
	byOriginator map[wire.UUID]map[wire.SequenceNumber]struct{}
}

func New() *SeenSet {
	return &SeenSet{
		byOriginator: make(map[wire.UUID]map[wire.SequenceNumber]struct{}),
	}
}

func (s *SeenSet) Insert(id wire.MessageId) {
	bucket, ok := s.byOriginator[id.Originator]
	if !ok {
		bucket = make(map[wire.SequenceNumber]struct{})
		s.byOriginator[id.Originator] = bucket
	}
	bucket[id.TimeStamp] = struct{}{}
}

func (s *SeenSet) Contains(id wire.MessageId) bool {
	bucket, ok := s.byOriginator[id.Originator]
	if !ok {
		return false
	}
	_, ok = bucket[id.TimeStamp]
	return ok
}

// ForgetMessagesFrom erases every id whose originator is uuid, spec.md
// §4.1 and invariant 6 ("a node that leaves the last committed
// configuration has all its messages forgotten").
func (s *SeenSet) ForgetMessagesFrom(id wire.UUID) {
	delete(s.byOriginator, id)
}

// SeenEverythingUpTo compacts per-origin entries strictly older than
// id: once a MessageId commits, nothing before it in that origin's
// stream needs individual tracking any more, because the commit
// cursor itself (clublog.Log.LastCommitted) now subsumes that job.
func (s *SeenSet) SeenEverythingUpTo(id wire.MessageId) {
	bucket, ok := s.byOriginator[id.Originator]
	if !ok {
		return
	}
	for ts := range bucket {
		if ts < id.TimeStamp {
			delete(bucket, ts)
		}
	}
	if len(bucket) == 0 {
		delete(s.byOriginator, id.Originator)
	}
}
