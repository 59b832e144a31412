package routing

import "github.com/Meander-Cloud/go-club/wire"

// RoutingTable answers, for unreliable broadcast only (reliable gossip
// uses the simpler visited-set rule of spec.md §4.7), which of this
// node's direct neighbours a frame originating at source must be
// relayed to. spec.md §4.2: run BFS from source; a neighbour of self
// that sits one hop farther from source than self does is on a shortest
// path carrying the frame onward, and becomes a forward target.
type RoutingTable struct {
	self    wire.UUID
	targets map[wire.UUID]wire.UUIDSet
}

func NewRoutingTable(self wire.UUID) *RoutingTable {
	rt := &RoutingTable{self: self}
	rt.Recalculate(SingleNodeGraph(self))
	return rt
}

// Recalculate rebuilds the full source->targets table from a freshly
// committed membership graph (called from hub's on_commit_fuse,
// spec.md §4.10 step 2).
func (rt *RoutingTable) Recalculate(g *Graph) {
	targets := make(map[wire.UUID]wire.UUIDSet, len(g.Nodes))

	selfNeighbors := g.Neighbors(rt.self)

	for source := range g.Nodes {
		dist := bfsDistances(g, source)

		selfDist, reachable := dist[rt.self]
		if !reachable {
			targets[source] = nil
			continue
		}

		set := make(wire.UUIDSet)
		for n := range selfNeighbors {
			nDist, ok := dist[n]
			if ok && nDist == selfDist+1 {
				set.Add(n)
			}
		}
		targets[source] = set
	}

	rt.targets = targets
}

// Targets returns the neighbours this node must forward an unreliable
// frame from source to. Unknown sources (not part of the last
// recalculated graph) yield an empty set.
func (rt *RoutingTable) Targets(source wire.UUID) wire.UUIDSet {
	set, ok := rt.targets[source]
	if !ok {
		return nil
	}
	return set
}

func bfsDistances(g *Graph, source wire.UUID) map[wire.UUID]int {
	dist := map[wire.UUID]int{source: 0}
	queue := []wire.UUID{source}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for v := range g.Neighbors(u) {
			if _, seen := dist[v]; seen {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
		}
	}

	return dist
}
