package wire

// MessageType identifies the wire variant ahead of the msgpack body,
// spec.md §6.1.
type MessageType uint8

const (
	TypeInvalid   MessageType = 0
	TypeFuse      MessageType = 1
	TypePortOffer MessageType = 2
	TypeUserData  MessageType = 3
	TypeAck       MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case TypeFuse:
		return "Fuse"
	case TypePortOffer:
		return "PortOffer"
	case TypeUserData:
		return "UserData"
	case TypeAck:
		return "Ack"
	default:
		return "Invalid"
	}
}

// Fuse is the membership-change message: a join or a departure,
// spec.md §3. Target names the peer being fused in or dropped.
type Fuse struct {
	Header Header  `msgpack:"hdr"`
	Ack    AckData `msgpack:"ack"`
	Target UUID    `msgpack:"tgt"`
}

// UserData is application payload to be totally ordered.
type UserData struct {
	Header  Header  `msgpack:"hdr"`
	Ack     AckData `msgpack:"ack"`
	Payload []byte  `msgpack:"pld"`
}

// PortOffer is a NAT hint; non-ackable, and treated only shallowly by
// the hub (spec.md §4.8, §9.2).
type PortOffer struct {
	Header       Header `msgpack:"hdr"`
	Addressor    UUID   `msgpack:"adr"`
	InternalPort uint16 `msgpack:"ip"`
	ExternalPort uint16 `msgpack:"ep"`
}

// Ack carries an ack vote on behalf of the originator for one prior
// message.
type Ack struct {
	Header  Header  `msgpack:"hdr"`
	AckData AckData `msgpack:"ack"`
}

// Message is the tagged union of the four wire variants. It is
// represented as one envelope struct with optional pointer fields
// rather than a Go interface, the same shape as the teacher's
// message.Message (ParticipantInit/CandidateVoteRequest/...) — a
// msgpack-friendly encoding that round-trips cleanly, unlike
// interface-typed fields.
type Message struct {
	Fuse      *Fuse      `msgpack:"fuse,omitempty"`
	UserData  *UserData  `msgpack:"user,omitempty"`
	PortOffer *PortOffer `msgpack:"port,omitempty"`
	Ack       *Ack       `msgpack:"ack,omitempty"`
}

func FuseMessage(f Fuse) *Message           { return &Message{Fuse: &f} }
func UserDataMessage(u UserData) *Message   { return &Message{UserData: &u} }
func PortOfferMessage(p PortOffer) *Message { return &Message{PortOffer: &p} }
func AckMessage(a Ack) *Message             { return &Message{Ack: &a} }

// Type returns the variant's MessageType, or an error if the envelope
// carries zero or more than one variant (a decode/construction bug).
func (m *Message) Type() (MessageType, error) {
	count := 0
	var t MessageType

	if m.Fuse != nil {
		count++
		t = TypeFuse
	}
	if m.UserData != nil {
		count++
		t = TypeUserData
	}
	if m.PortOffer != nil {
		count++
		t = TypePortOffer
	}
	if m.Ack != nil {
		count++
		t = TypeAck
	}

	if count != 1 {
		return TypeInvalid, errAmbiguousVariant(count)
	}
	return t, nil
}

type errAmbiguousVariant int

func (e errAmbiguousVariant) Error() string {
	return "wire: message envelope must carry exactly one variant"
}

// GetHeader returns the header of whichever variant is set.
func (m *Message) GetHeader() Header {
	switch {
	case m.Fuse != nil:
		return m.Fuse.Header
	case m.UserData != nil:
		return m.UserData.Header
	case m.PortOffer != nil:
		return m.PortOffer.Header
	case m.Ack != nil:
		return m.Ack.Header
	default:
		return Header{}
	}
}

func (m *Message) SetHeader(h Header) {
	switch {
	case m.Fuse != nil:
		m.Fuse.Header = h
	case m.UserData != nil:
		m.UserData.Header = h
	case m.PortOffer != nil:
		m.PortOffer.Header = h
	case m.Ack != nil:
		m.Ack.Header = h
	}
}

// MessageId reads the embedded header's (TimeStamp, Originator) pair.
func (m *Message) MessageId() MessageId {
	return m.GetHeader().MessageId()
}

// Originator is a convenience accessor, spec.md's "original_poster".
func (m *Message) Originator() UUID {
	return m.GetHeader().Originator
}

// IsAckable reports whether this variant carries AckData and
// participates in quorum commit (spec.md glossary: "ackable message").
func (m *Message) IsAckable() bool {
	return m.Fuse != nil || m.UserData != nil
}
