package hub

import (
	"log"

	"github.com/Meander-Cloud/go-club/clublog"
	"github.com/Meander-Cloud/go-club/routing"
	"github.com/Meander-Cloud/go-club/wire"
)

// onCommitFuse runs spec.md §4.10 when a Fuse entry commits with
// quorum: rebuild the routing graph from the collected acks, diff the
// membership, install the new configuration, forget departed peers,
// and fire on_insert/on_remove.
func (h *Hub) onCommitFuse(id wire.MessageId, e *clublog.LogEntry) bool {
	g := routing.NewGraph()
	g.Nodes.Add(h.self)
	for voter, ack := range e.Acks {
		g.Nodes.Add(voter)
		for n := range ack.Neighbors {
			g.AddEdge(voter, n)
		}
	}
	h.routing.Recalculate(g)

	prevMembers := h.configs.CurrentMembers()
	newMembers := e.Quorum

	removed, added := wire.Difference(prevMembers, newMembers)

	h.configs.Append(id, newMembers)

	for u := range removed {
		h.seen.ForgetMessagesFrom(u)
		h.nodes.Erase(u)
	}

	log.Printf(
		"%s: installed configuration %s, members=%d, added=%d, removed=%d",
		h.cfg.LogPrefix, id.String(), len(newMembers), len(added), len(removed),
	)

	if destroyed := h.callbacks.RunOnInsert(added); destroyed {
		return true
	}
	if destroyed := h.callbacks.RunOnRemove(removed); destroyed {
		return true
	}
	return h.destroyed()
}

// OnPeerDisconnected is SPEC_FULL §6.1, grounded on hub.cpp:281-286's
// on_peer_disconnected, which never touches _nodes: it only broadcasts
// an ackable Fuse naming the departed peer and lets
// commit_what_was_seen_by_everyone (here, onCommitFuse) erase the node
// once that Fuse actually commits with quorum, per invariant 6 ("a
// node that leaves the last committed configuration ... is removed
// from NodeTable") and the Lifecycles paragraph's "removed only by
// commit of a fuse that excludes them from the new configuration."
// The node is marked StateClosed instead, which already excludes it
// from nodetable.Table.Connected() — and so from buildAckData's
// Neighbors vote and broadcast's fanout — without erasing the record
// any UserData still awaiting quorum may still name as originator.
// Called from the Dispatcher's OnClosed -> onSocketClosed once the
// closed socket is matched to a node.
func (h *Hub) OnPeerDisconnected(id wire.UUID) {
	if h.destroyed() {
		return
	}

	if _, known := h.nodes.Get(id); !known {
		return
	}

	h.nodes.MarkClosed(id)
	h.insertAndBroadcastFuse(id)
	h.runCommitEngine()
}
