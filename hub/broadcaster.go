package hub

import (
	"log"

	"github.com/Meander-Cloud/go-club/wire"
)

// broadcast is the Broadcaster of spec.md §4.7: encode once, send the
// same buffer to every connected peer not already in the message's
// visited set. Reliable gossip deliberately does not consult the
// RoutingTable — that is unreliable broadcast's job only (spec.md
// §4.2) — because "everyone I'm connected to minus visited" is more
// robust to a stale or not-yet-recalculated routing table.
func (h *Hub) broadcast(msg *wire.Message) {
	buf, err := wire.Encode(msg)
	if err != nil {
		log.Printf("%s: failed to encode message for broadcast: %s", h.cfg.LogPrefix, err.Error())
		return
	}

	visited := msg.GetHeader().Visited

	for _, n := range h.nodes.Connected() {
		if visited.Contains(n.ID) {
			continue
		}
		if err := n.Socket.Send(buf); err != nil {
			log.Printf("%s: failed to send to %s: %s", h.cfg.LogPrefix, n.ID.String(), err.Error())
		}
	}
}
