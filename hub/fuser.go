package hub

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/Meander-Cloud/go-schedule/scheduler"

	"github.com/Meander-Cloud/go-club/timergroup"
	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

// ProtocolVersion is the sole compatibility gate of the handshake
// preamble, spec.md §6.2.
const ProtocolVersion uint32 = 1

const preambleLen = 4 + 16 // uint32 version + 16-byte UUID

func encodePreamble(self wire.UUID) []byte {
	buf := make([]byte, preambleLen)
	binary.LittleEndian.PutUint32(buf[0:4], ProtocolVersion)
	copy(buf[4:], self[:])
	return buf
}

func decodePreamble(buf []byte) (version uint32, peer wire.UUID, err error) {
	if len(buf) != preambleLen {
		return 0, wire.Nil, fmt.Errorf("hub: preamble length=%d, want %d", len(buf), preambleLen)
	}
	version = binary.LittleEndian.Uint32(buf[0:4])
	copy(peer[:], buf[4:])
	return version, peer, nil
}

// Fuse performs the handshake with a freshly connected socket,
// spec.md §4.5. onFused is invoked at most once, on the arbiter
// goroutine, with either an error (the transport error as-is, or
// ErrConnectionRefused, ErrNoProtocolOption or ErrAlreadyConnected) or
// (nil, peer_id) on success. It is not invoked if the hub is closed
// before the handshake completes, or if the OnDirectConnect callback
// closes it. onFused may destroy the hub.
func (h *Hub) Fuse(socket Socket, onFused func(err error, peer wire.UUID)) {
	h.arb.Dispatch(func() {
		h.startFuseHandshake(socket, onFused)
	})
}

// invoked on arbiter goroutine
func (h *Hub) startFuseHandshake(socket Socket, onFused func(err error, peer wire.UUID)) {
	preamble := encodePreamble(h.self)

	h.arb.Scheduler().ProcessSync(
		&scheduler.ScheduleAsyncEvent[timergroup.Group]{
			AsyncVariant: scheduler.TimerAsync(
				true,
				[]timergroup.Group{timergroup.GroupFuseHandshake},
				h.cfg.FuseHandshakeTimeout,
				func() {
					// invoked on arbiter goroutine
					log.Printf("%s: fuse handshake timed out, closing socket", h.cfg.LogPrefix)
					socket.Close()
				},
				nil,
			),
		},
	)

	// the reliable exchange blocks on socket I/O; run it off the
	// arbiter goroutine and dispatch the result back, the same split
	// protocol.Client.ReadLoop makes between its blocking read loop
	// goroutine and arbiter-dispatched handler invocations.
	go func() {
		peerPreamble, err := transport.ReliableExchange(socket.Conn(), preamble)

		h.arb.Dispatch(func() {
			h.releaseFuseHandshakeWait()
			h.completeFuseHandshake(socket, peerPreamble, err, onFused)
		})
	}()
}

// invoked on arbiter goroutine
func (h *Hub) releaseFuseHandshakeWait() {
	h.arb.Scheduler().ProcessSync(
		&scheduler.ReleaseGroupEvent[timergroup.Group]{
			Group: timergroup.GroupFuseHandshake,
		},
	)
}

// invoked on arbiter goroutine
func (h *Hub) completeFuseHandshake(socket Socket, peerPreamble []byte, exchangeErr error, onFused func(err error, peer wire.UUID)) {
	if h.destroyed() {
		return
	}

	if exchangeErr != nil {
		log.Printf("%s: fuse handshake transport error: %s", h.cfg.LogPrefix, exchangeErr.Error())
		socket.Close()
		onFused(exchangeErr, wire.Nil)
		return
	}

	version, peerID, err := decodePreamble(peerPreamble)
	if err != nil {
		log.Printf("%s: fuse handshake decode error: %s", h.cfg.LogPrefix, err.Error())
		socket.Close()
		onFused(ErrConnectionRefused, wire.Nil)
		return
	}

	if version != ProtocolVersion {
		log.Printf("%s: fuse handshake version mismatch, peer=%d self=%d", h.cfg.LogPrefix, version, ProtocolVersion)
		socket.Close()
		onFused(ErrNoProtocolOption, wire.Nil)
		return
	}

	if peerID == h.self {
		log.Printf("%s: fuse handshake self-connect rejected", h.cfg.LogPrefix)
		socket.Close()
		onFused(ErrAlreadyConnected, wire.Nil)
		return
	}

	h.nodes.BindSocket(peerID, socket)
	socket.SetHandler(h)
	go socket.Run()

	h.conngraph.AddConnection(h.self, peerID)

	h.insertAndBroadcastFuse(peerID)

	if h.onPeerConnected(peerID) {
		return
	}

	onFused(nil, peerID)
	if h.destroyed() {
		return
	}

	h.runCommitEngine()
}
