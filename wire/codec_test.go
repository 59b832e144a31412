package wire

import "testing"

func TestEncodeDecodeUserDataRoundTrip(t *testing.T) {
	op := NewUUID()
	msg := UserDataMessage(UserData{
		Header: Header{
			Originator: op,
			TimeStamp:  7,
			ConfigID:   NewMessageId(0, op),
			Visited:    NewUUIDSet(op),
		},
		Ack: AckData{
			MessageID:     NewMessageId(7, op),
			PredecessorID: NewMessageId(6, op),
			Neighbors:     NewUUIDSet(op),
		},
		Payload: []byte("hello club"),
	})

	buf, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if MessageType(buf[0]) != TypeUserData {
		t.Fatalf("leading type byte = %d, want %d", buf[0], TypeUserData)
	}

	decoded, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.UserData == nil {
		t.Fatalf("decoded.UserData is nil")
	}
	if string(decoded.UserData.Payload) != "hello club" {
		t.Errorf("payload = %q", decoded.UserData.Payload)
	}
	if !decoded.MessageId().Equal(msg.MessageId()) {
		t.Errorf("message id mismatch: got %v want %v", decoded.MessageId(), msg.MessageId())
	}
	if decoded.Originator() != op {
		t.Errorf("originator mismatch")
	}
}

func TestEncodeDecodeFuseRoundTrip(t *testing.T) {
	op := NewUUID()
	target := NewUUID()
	msg := FuseMessage(Fuse{
		Header: Header{
			Originator: op,
			TimeStamp:  1,
			ConfigID:   NewMessageId(0, op),
			Visited:    NewUUIDSet(op),
		},
		Ack: AckData{
			MessageID:     NewMessageId(1, op),
			PredecessorID: Zero,
			Neighbors:     NewUUIDSet(op, target),
		},
		Target: target,
	})

	buf, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Fuse == nil {
		t.Fatalf("decoded.Fuse is nil")
	}
	if decoded.Fuse.Target != target {
		t.Errorf("target mismatch")
	}
	if len(decoded.Fuse.Ack.Neighbors) != 2 {
		t.Errorf("neighbors size = %d, want 2", len(decoded.Fuse.Ack.Neighbors))
	}
}

func TestMessageIdOrdering(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	if a == b {
		t.Fatal("generated colliding uuids")
	}

	lo, hi := a, b
	if !lo.Less(hi) {
		lo, hi = hi, lo
	}

	idLo := NewMessageId(5, lo)
	idHi := NewMessageId(5, hi)

	if !idLo.Less(idHi) {
		t.Errorf("expected tie-break on originator to order %v before %v", idLo, idHi)
	}

	idLater := NewMessageId(6, lo)
	if !idLo.Less(idLater) {
		t.Errorf("expected lower timestamp to order first")
	}
}
