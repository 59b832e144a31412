package hub

import (
	"log"

	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

// Hub implements transport.Handler: one instance fans in every
// connected peer's inbound frames.

// OnFrame is called from the socket's read-loop goroutine; it
// re-dispatches onto the arbiter before touching any hub state,
// spec.md §5's single suspension point for socket I/O completions.
func (h *Hub) OnFrame(s transport.Socket, payload []byte) {
	h.arb.Dispatch(func() {
		h.onRecvRaw(s, payload)
	})
}

// OnClosed is called from the socket's read-loop goroutine when the
// peer disconnects, spec.md §4's "Peer drop" / SPEC_FULL §6.1.
func (h *Hub) OnClosed(s transport.Socket) {
	h.arb.Dispatch(func() {
		h.onSocketClosed(s)
	})
}

// invoked on arbiter goroutine
func (h *Hub) onSocketClosed(s transport.Socket) {
	if h.destroyed() {
		return
	}

	for _, n := range h.nodes.Connected() {
		if n.Socket == s {
			h.OnPeerDisconnected(n.ID)
			return
		}
	}
}

// invoked on arbiter goroutine. spec.md §4.6's on_recv_raw: decode
// MessageType+body; on decode error, disconnect the proxy node.
func (h *Hub) onRecvRaw(proxySocket transport.Socket, buffer []byte) {
	if h.destroyed() {
		return
	}

	msg, err := wire.Decode(buffer)
	if err != nil {
		log.Printf("%s: decode error from %s, disconnecting: %s", h.cfg.LogPrefix, proxySocket.RemoteDescriptor(), err.Error())
		h.disconnectSocket(proxySocket)
		return
	}

	// wire.Decode leaves the envelope check to its caller: exactly one
	// variant, matching the leading MessageType byte.
	if mt, err := msg.Type(); err != nil || byte(mt) != buffer[0] {
		log.Printf("%s: malformed message envelope from %s, disconnecting", h.cfg.LogPrefix, proxySocket.RemoteDescriptor())
		h.disconnectSocket(proxySocket)
		return
	}

	h.onRecv(proxySocket, msg)
}

func (h *Hub) disconnectSocket(s transport.Socket) {
	for _, n := range h.nodes.Connected() {
		if n.Socket == s {
			h.nodes.Erase(n.ID)
			return
		}
	}
	s.Close()
}

// invoked on arbiter goroutine. spec.md §4.6 steps 1-9.
func (h *Hub) onRecv(proxySocket transport.Socket, msg *wire.Message) {
	header := msg.GetHeader()
	header.MarkVisited(h.self) // step 1
	msg.SetHeader(header)

	mid := msg.MessageId()

	if h.seen.Contains(mid) { // step 2
		return
	}
	h.seen.Insert(mid) // step 3

	h.clock.Observe(header.TimeStamp) // step 4

	originator := header.Originator
	if originator == h.self { // step 6 (moved ahead of placeholder insert: never insert self)
		log.Printf("%s: dropping frame echoed from self, mid=%s", h.cfg.LogPrefix, mid.String())
		return
	}

	h.nodes.GetOrInsert(originator) // step 5: insert placeholder if unknown

	h.broadcast(msg) // step 7: gossip forward

	h.process(originator, msg) // step 8

	h.runCommitEngine() // step 9
}

// process dispatches by variant, spec.md §4.8.
func (h *Hub) process(originator wire.UUID, msg *wire.Message) {
	switch {
	case msg.Ack != nil:
		h.processAck(originator, msg.Ack)
	case msg.Fuse != nil:
		h.processFuse(msg.Fuse)
	case msg.PortOffer != nil:
		h.processPortOffer(originator, msg.PortOffer)
	case msg.UserData != nil:
		h.processUserData(msg.UserData)
	}
}

func (h *Hub) processAck(voter wire.UUID, ack *wire.Ack) {
	h.log.ApplyAck(voter, ack.AckData)
}

func (h *Hub) processFuse(f *wire.Fuse) {
	mid := f.Header.MessageId()
	h.insertLogEntry(wire.FuseMessage(*f), mid, f.Header.Originator, f.Ack)

	hf, hasHf := h.log.FindHighestFuseEntry()
	if !hasHf || mid.GreaterOrEqual(hf.Message.MessageId()) {
		h.constructAck(mid)
		h.runCommitEngine()
	}
}

func (h *Hub) processPortOffer(originator wire.UUID, po *wire.PortOffer) {
	if po.Addressor != h.self {
		return
	}
	node := h.nodes.GetOrInsert(originator)
	node.InternalPort = po.InternalPort
	node.ExternalPort = po.ExternalPort
}

func (h *Hub) processUserData(u *wire.UserData) {
	mid := u.Header.MessageId()

	h.constructAck(mid)

	h.insertLogEntry(wire.UserDataMessage(*u), mid, u.Header.Originator, u.Ack)
}
