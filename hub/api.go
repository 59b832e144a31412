package hub

import "github.com/Meander-Cloud/go-club/wire"

// OnInsert installs the callback fired when committing a Fuse adds
// members to the configuration, spec.md §6.4/§4.11.
func (h *Hub) OnInsert(fn MembershipFunc) {
	h.callbacks.SetOnInsert(fn)
}

// OnRemove installs the callback fired when committing a Fuse drops
// members from the configuration.
func (h *Hub) OnRemove(fn MembershipFunc) {
	h.callbacks.SetOnRemove(fn)
}

// OnReceive installs the callback fired for every committed UserData
// payload, in the single global total order, spec.md §4.9/§8.
func (h *Hub) OnReceive(fn ReceiveFunc) {
	h.callbacks.SetOnReceive(fn)
}

// OnReceiveUnreliable installs the callback fired for every relayed
// unreliable-broadcast frame, spec.md §4.12.
func (h *Hub) OnReceiveUnreliable(fn ReceiveFunc) {
	h.callbacks.SetOnReceiveUnreliable(fn)
}

// OnDirectConnect installs spec.md §9.3's on_peer_connected hook.
func (h *Hub) OnDirectConnect(fn DirectConnectFunc) {
	h.callbacks.SetOnDirectConnect(fn)
}

// invoked on arbiter goroutine after a successful Fuse handshake,
// spec.md §9.3's on_peer_connected stub. Returns whether the callback
// destroyed the hub.
func (h *Hub) onPeerConnected(id wire.UUID) bool {
	return h.callbacks.RunOnDirectConnect(id)
}
