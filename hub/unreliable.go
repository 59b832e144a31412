package hub

import (
	"log"
	"sync/atomic"

	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

// SetUnreliableSocket installs the shared best-effort datagram channel
// unreliable broadcast rides on, spec.md §4.12. Unlike the per-peer
// reliable Socket, this channel is addressed, not per-connection: a
// peer's already-connected reliable socket's RemoteDescriptor doubles
// as its unreliable address, the simplest grounding available given
// NAT/port-offer address resolution is out of scope (spec.md §1).
func (h *Hub) SetUnreliableSocket(s transport.UnreliableSocket) {
	h.unreliable = s
	s.SetUnreliableHandler(func(from string, payload []byte) {
		h.arb.Dispatch(func() {
			h.onRecvUnreliable(from, payload)
		})
	})
}

// UnreliableBroadcast is spec.md §4.12's unreliable_broadcast(bytes,
// on_complete()): wrap payload with self's UUID and fan it out to
// every currently connected peer, counting send completions. When no
// peer is connected, onComplete is scheduled on the arbiter rather
// than invoked synchronously, matching spec.md's explicit carve-out.
func (h *Hub) UnreliableBroadcast(payload []byte, onComplete func()) {
	h.arb.Dispatch(func() {
		h.unreliableBroadcast(payload, onComplete)
	})
}

// invoked on arbiter goroutine
func (h *Hub) unreliableBroadcast(payload []byte, onComplete func()) {
	if h.destroyed() {
		return
	}

	if h.unreliable == nil {
		log.Printf("%s: unreliable broadcast attempted with no socket installed", h.cfg.LogPrefix)
		if onComplete != nil {
			h.arb.Dispatch(onComplete)
		}
		return
	}

	peers := h.nodes.Connected()
	if len(peers) == 0 {
		if onComplete != nil {
			h.arb.Dispatch(onComplete)
		}
		return
	}

	frame := wire.EncodeUnreliable(h.self, payload)

	var remaining atomic.Int32
	remaining.Store(int32(len(peers)))

	finish := func() {
		if remaining.Add(-1) == 0 && onComplete != nil {
			h.arb.Dispatch(onComplete)
		}
	}

	for _, n := range peers {
		addr := n.Socket.RemoteDescriptor()
		if err := h.unreliable.SendTo(addr, frame, func(sendErr error) {
			if sendErr != nil {
				log.Printf("%s: unreliable send to %s failed: %s", h.cfg.LogPrefix, addr, sendErr.Error())
			}
			finish()
		}); err != nil {
			log.Printf("%s: unreliable send to %s failed synchronously: %s", h.cfg.LogPrefix, addr, err.Error())
			finish()
		}
	}
}

// invoked on arbiter goroutine. spec.md §4.12's on-receive path: decode,
// require a known originator, relay to RoutingTable.Targets(originator),
// then surface via on_receive_unreliable.
func (h *Hub) onRecvUnreliable(from string, buf []byte) {
	if h.destroyed() {
		return
	}

	originator, payload, err := wire.DecodeUnreliable(buf)
	if err != nil {
		log.Printf("%s: unreliable decode error from %s: %s", h.cfg.LogPrefix, from, err.Error())
		return
	}

	if _, known := h.nodes.Get(originator); !known && originator != h.self {
		return
	}

	h.relayUnreliable(originator, payload)

	h.callbacks.RunOnReceiveUnreliable(originator, payload)
}

func (h *Hub) relayUnreliable(originator wire.UUID, payload []byte) {
	if h.unreliable == nil {
		return
	}

	targets := h.routing.Targets(originator)
	if len(targets) == 0 {
		return
	}

	frame := wire.EncodeUnreliable(originator, payload)

	for target := range targets {
		n, ok := h.nodes.Get(target)
		if !ok || n.Socket == nil {
			continue
		}
		if err := h.unreliable.SendTo(n.Socket.RemoteDescriptor(), frame, nil); err != nil {
			log.Printf("%s: unreliable relay to %s failed: %s", h.cfg.LogPrefix, target.String(), err.Error())
		}
	}
}
