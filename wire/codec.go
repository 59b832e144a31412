package wire

import (
	"github.com/vmihailenco/msgpack/v5"
)

// MarshalMsgpack/UnmarshalMsgpack pin UUID's wire representation to a
// raw 16-byte binary blob (spec.md §6.1's "16B UUID") rather than
// msgpack's default fixed-array-of-uint8 encoding, which would cost
// 17 bytes of framing overhead per UUID and isn't stable as a map key
// across encoder versions.
var _ msgpack.CustomEncoder = UUID{}
var _ msgpack.CustomDecoder = (*UUID)(nil)

func (u UUID) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(u[:])
}

func (u *UUID) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	if len(b) != len(u) {
		return errInvalidUUIDLength(len(b))
	}
	copy(u[:], b)
	return nil
}

type errInvalidUUIDLength int

func (e errInvalidUUIDLength) Error() string {
	return "wire: invalid UUID length on decode"
}

// Encode appends the MessageType tag byte followed by the msgpack
// encoding of msg, matching spec.md §6.1's "MessageType (1 byte) ‖ body".
func Encode(msg *Message) ([]byte, error) {
	var buf []byte
	mt, err := msg.Type()
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(mt))

	body, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

// Decode reverses Encode. It does not validate the leading
// MessageType byte against the decoded body's actual variant; callers
// that care (the Dispatcher) check Message.Type() themselves.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < 1 {
		return nil, errShortFrame
	}

	msg := new(Message)
	if err := msgpack.Unmarshal(buf[1:], msg); err != nil {
		return nil, err
	}
	return msg, nil
}

var errShortFrame = shortFrameError{}

type shortFrameError struct{}

func (shortFrameError) Error() string { return "wire: frame too short to contain a MessageType" }
