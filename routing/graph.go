// Package routing computes, from a membership graph, the set of
// neighbours each node must relay a frame to for best-effort
// unreliable broadcast (spec.md §4.2), and the connection graph used
// to find a dialing path to an indirectly-known peer (SPEC_FULL §6.2,
// grounded on hub.cpp's ConnectionGraph/find_address_to).
package routing

import "github.com/Meander-Cloud/go-club/wire"

// Graph is an undirected adjacency structure over node UUIDs, built
// at Fuse-commit time from the committing entry's collected
// AckData.Neighbors (hub.cpp's acks_to_graph): an edge u->v exists
// whenever u's ack names v as a neighbor.
type Graph struct {
	Nodes wire.UUIDSet
	edges map[wire.UUID]wire.UUIDSet
}

func NewGraph() *Graph {
	return &Graph{
		Nodes: make(wire.UUIDSet),
		edges: make(map[wire.UUID]wire.UUIDSet),
	}
}

func SingleNodeGraph(id wire.UUID) *Graph {
	g := NewGraph()
	g.Nodes.Add(id)
	return g
}

func (g *Graph) AddEdge(u, v wire.UUID) {
	g.Nodes.Add(u)
	g.Nodes.Add(v)

	g.neighborSet(u).Add(v)
	g.neighborSet(v).Add(u)
}

func (g *Graph) neighborSet(u wire.UUID) wire.UUIDSet {
	s, ok := g.edges[u]
	if !ok {
		s = make(wire.UUIDSet)
		g.edges[u] = s
	}
	return s
}

func (g *Graph) Neighbors(u wire.UUID) wire.UUIDSet {
	s, ok := g.edges[u]
	if !ok {
		return nil
	}
	return s
}

