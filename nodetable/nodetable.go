// Package nodetable holds the per-UUID peer record the hub needs:
// socket, advertised peer addresses, and connection state. Grounded
// on net/tcp/protocol.ConnState/ConnVolatileData, generalized from one
// TCP connection's volatile peer data to the hub's durable per-UUID
// Node (spec.md §3 "Node").
package nodetable

import (
	"github.com/Meander-Cloud/go-club/transport"
	"github.com/Meander-Cloud/go-club/wire"
)

type ConnState uint8

const (
	StateUnknown   ConnState = 0 // inserted as a placeholder, never directly connected
	StateConnected ConnState = 1
	StateClosed    ConnState = 2
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Node is spec.md §3's {id, socket?, peers, connection_state}.
// InternalPort/ExternalPort are the NAT hints applied by process(PortOffer),
// spec.md §4.8.
type Node struct {
	ID     wire.UUID
	Socket transport.Socket
	Peers  map[wire.UUID]string // advertised peer address, dialing hint only
	State  ConnState

	InternalPort uint16
	ExternalPort uint16
}

func newPlaceholder(id wire.UUID) *Node {
	return &Node{
		ID:    id,
		Peers: make(map[wire.UUID]string),
		State: StateUnknown,
	}
}

// Table is the UUID -> Node map, spec.md §3 "NodeTable".
type Table struct {
	nodes map[wire.UUID]*Node
}

func New() *Table {
	return &Table{
		nodes: make(map[wire.UUID]*Node),
	}
}

// GetOrInsert returns the existing node for id, or inserts and
// returns a fresh placeholder — spec.md §3's lifecycle rule "nodes are
// inserted on receipt of any message from an unknown originator."
func (t *Table) GetOrInsert(id wire.UUID) *Node {
	n, ok := t.nodes[id]
	if ok {
		return n
	}
	n = newPlaceholder(id)
	t.nodes[id] = n
	return n
}

func (t *Table) Get(id wire.UUID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// BindSocket attaches an already-connected socket to id's node,
// creating the node if unknown, spec.md §4.5 step 4.
func (t *Table) BindSocket(id wire.UUID, s transport.Socket) *Node {
	n := t.GetOrInsert(id)
	n.Socket = s
	n.State = StateConnected
	return n
}

// MarkClosed flips id's node to StateClosed without erasing it from
// the table, spec.md §5's distinction between "socket gone" and
// "removed from NodeTable": the node stops being a Connected() vote/
// fanout target immediately, but the Node record itself, and any
// UserData still in flight naming it as originator, survive until the
// departure's Fuse actually commits (invariant 6) and onCommitFuse's
// removed loop erases it for real.
func (t *Table) MarkClosed(id wire.UUID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	n.State = StateClosed
}

// Erase removes id's node, closing its socket if any — spec.md §5
// "a Node erased from NodeTable closes its socket" and invariant 6.
func (t *Table) Erase(id wire.UUID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	if n.Socket != nil {
		n.Socket.Close()
	}
	delete(t.nodes, id)
}

// Connected returns every node with a live socket, the Broadcaster's
// fanout set (spec.md §4.7).
func (t *Table) Connected() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		if n.State == StateConnected && n.Socket != nil {
			out = append(out, n)
		}
	}
	return out
}

func (t *Table) Len() int {
	return len(t.nodes)
}
