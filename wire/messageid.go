package wire

import "strconv"

// SequenceNumber is a monotone non-negative per-node logical clock.
type SequenceNumber uint64

// MessageId is the pair (time_stamp, originator_uuid), ordered
// lexicographically: spec.md §3.
type MessageId struct {
	TimeStamp  SequenceNumber `msgpack:"ts"`
	Originator UUID           `msgpack:"op"`
}

func NewMessageId(ts SequenceNumber, op UUID) MessageId {
	return MessageId{TimeStamp: ts, Originator: op}
}

// Zero is the lowest possible MessageId, used as the sentinel "no
// commit yet" cursor value and as the initial ConfigStore key's time
// component.
var Zero = MessageId{}

// Less implements the lexicographic order of spec.md §3: compare
// TimeStamp first, then break ties on Originator.
func (id MessageId) Less(other MessageId) bool {
	if id.TimeStamp != other.TimeStamp {
		return id.TimeStamp < other.TimeStamp
	}
	return id.Originator.Less(other.Originator)
}

func (id MessageId) Equal(other MessageId) bool {
	return id.TimeStamp == other.TimeStamp && id.Originator == other.Originator
}

func (id MessageId) LessOrEqual(other MessageId) bool {
	return id.Equal(other) || id.Less(other)
}

func (id MessageId) Greater(other MessageId) bool {
	return other.Less(id)
}

func (id MessageId) GreaterOrEqual(other MessageId) bool {
	return id.Equal(other) || id.Greater(other)
}

// Compare returns -1/0/1, in the style of bytes.Compare, for use by
// sort.Slice and binary search over ordered MessageId slices.
func (id MessageId) Compare(other MessageId) int {
	switch {
	case id.Equal(other):
		return 0
	case id.Less(other):
		return -1
	default:
		return 1
	}
}

func (id MessageId) String() string {
	return id.Originator.String() + "@" + strconv.FormatUint(uint64(id.TimeStamp), 10)
}
