package hub

import (
	"github.com/Meander-Cloud/go-club/clublog"
	"github.com/Meander-Cloud/go-club/wire"
)

// buildHeader composes the header for a freshly originated message,
// spec.md invariant 4 ("on send, ++local_ts before composing the
// header") and §3 (ConfigID is the MessageId of the configuration
// installed when the message was built, Visited starts as {self}).
func (h *Hub) buildHeader() wire.Header {
	ts := h.clock.Next()
	configID, _ := h.configs.Current()

	header := wire.Header{
		Originator: h.self,
		TimeStamp:  ts,
		ConfigID:   configID,
	}
	header.MarkVisited(h.self)
	return header
}

// buildAckData composes the AckData for an ackable message being
// originated locally: the vote is simply "I vote for my own message",
// and Neighbors is this node's current connection set, spec.md §3.
func (h *Hub) buildAckData(mid wire.MessageId) wire.AckData {
	neighbors := make(wire.UUIDSet)
	for _, n := range h.nodes.Connected() {
		neighbors.Add(n.ID)
	}

	return wire.AckData{
		MessageID:     mid,
		PredecessorID: h.log.GetPredecessorTime(mid),
		Neighbors:     neighbors,
	}
}

// quorumFromAck resolves the quorum an ackable message was constructed
// against, spec.md invariant 5's "fixed at creation" rule. Grounded on
// hub.cpp's LogEntry(Message) constructor, which derives quorum purely
// from the message itself rather than a ConfigStore lookup: quorum is
// the originator's Neighbors (its own ack.Neighbors vote) plus the
// originator. For a disconnect-triggered Fuse this is exactly the
// surviving set the originator is still connected to, which is why
// such a Fuse can reach strict AckedByQuorum() even though the
// departed peer can never vote again.
func quorumFromAck(originator wire.UUID, ack wire.AckData) wire.UUIDSet {
	quorum := make(wire.UUIDSet, len(ack.Neighbors)+1)
	for n := range ack.Neighbors {
		quorum.Add(n)
	}
	quorum.Add(originator)
	return quorum
}

// insertAndBroadcastFuse originates a Fuse(target) message: compose
// it, append to the log, broadcast it, and ack it locally — the
// second half of spec.md §4.5 step 5, also reused by
// OnPeerDisconnected (SPEC_FULL §6.1) to announce a departure.
func (h *Hub) insertAndBroadcastFuse(target wire.UUID) {
	header := h.buildHeader()
	mid := header.MessageId()
	ack := h.buildAckData(mid)

	msg := wire.FuseMessage(wire.Fuse{
		Header: header,
		Ack:    ack,
		Target: target,
	})

	h.insertLogEntry(msg, mid, h.self, ack)
	h.broadcast(msg)
	h.constructAck(mid)
}

// TotalOrderBroadcast originates a UserData message: application ->
// construct ackable message -> Log.insert -> Broadcaster ->
// CommitEngine, spec.md §2's "control flow for user sends."
func (h *Hub) TotalOrderBroadcast(payload []byte) {
	h.arb.Dispatch(func() {
		h.totalOrderBroadcast(payload)
	})
}

// invoked on arbiter goroutine
func (h *Hub) totalOrderBroadcast(payload []byte) {
	if h.destroyed() {
		return
	}

	header := h.buildHeader()
	mid := header.MessageId()
	ack := h.buildAckData(mid)

	msg := wire.UserDataMessage(wire.UserData{
		Header:  header,
		Ack:     ack,
		Payload: payload,
	})

	h.insertLogEntry(msg, mid, h.self, ack)
	h.broadcast(msg)
	h.constructAck(mid)

	h.runCommitEngine()
}

// insertLogEntry resolves the quorum from the originator's ack vote
// and inserts msg into the log at its own MessageId, spec.md §4.3's
// InsertEntry.
func (h *Hub) insertLogEntry(msg *wire.Message, mid wire.MessageId, originator wire.UUID, ack wire.AckData) *clublog.LogEntry {
	predecessors := []wire.MessageId{h.log.GetPredecessorTime(mid)}
	quorum := quorumFromAck(originator, ack)
	return h.log.InsertEntry(*msg, predecessors, quorum)
}

// constructAck builds and broadcasts an Ack(mid) vote on behalf of
// self, and applies it to the local log immediately — spec.md §4.8's
// "construct_ack ... also apply the ack to the local log immediately
// (the originator never receives their own broadcast back)."
func (h *Hub) constructAck(mid wire.MessageId) {
	header := h.buildHeader()
	ackData := h.buildAckData(mid)
	ackData.MessageID = mid // the vote is for mid, not for this Ack frame's own id

	ackMsg := wire.AckMessage(wire.Ack{
		Header:  header,
		AckData: ackData,
	})

	h.broadcast(ackMsg)
	h.log.ApplyAck(h.self, ackData)
}
