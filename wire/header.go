package wire

// Header is carried by every protocol message: spec.md §3.
//
// Visited always includes the originator (set at construction) and
// every node that has since forwarded the frame; it is what lets the
// Broadcaster avoid gossip loops (spec.md §4.7) without a TTL.
type Header struct {
	Originator UUID           `msgpack:"op"`
	TimeStamp  SequenceNumber `msgpack:"ts"`
	ConfigID   MessageId      `msgpack:"cfg"`
	Visited    UUIDSet        `msgpack:"vis"`
}

func (h Header) MessageId() MessageId {
	return NewMessageId(h.TimeStamp, h.Originator)
}

// MarkVisited records that id has seen and (about to, or already)
// forwarded this frame.
func (h *Header) MarkVisited(id UUID) {
	if h.Visited == nil {
		h.Visited = make(UUIDSet, 1)
	}
	h.Visited.Add(id)
}
