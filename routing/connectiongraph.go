package routing

import "github.com/Meander-Cloud/go-club/wire"

// ConnectionGraph tracks known direct-address edges between nodes —
// a dialing hint, not a membership/quorum structure. Grounded on
// hub.cpp's ConnectionGraph/find_address_to (hub.cpp:867-885):
// exposed through Hub.FindPath as a hint for reaching a node that
// isn't yet directly connected; the CommitEngine and Dispatcher never
// consult it.
type ConnectionGraph struct {
	g *Graph
}

func NewConnectionGraph() *ConnectionGraph {
	return &ConnectionGraph{g: NewGraph()}
}

func (c *ConnectionGraph) AddConnection(from, to wire.UUID) {
	c.g.AddEdge(from, to)
}

// FindPath returns a shortest chain of UUIDs from `from` to `to`
// (inclusive of both endpoints), or ok=false if `to` is unreachable
// in the currently known connection graph.
func (c *ConnectionGraph) FindPath(from, to wire.UUID) (path []wire.UUID, ok bool) {
	if from == to {
		return []wire.UUID{from}, true
	}

	parent := map[wire.UUID]wire.UUID{from: from}
	queue := []wire.UUID{from}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		if u == to {
			break
		}

		for v := range c.g.Neighbors(u) {
			if _, seen := parent[v]; seen {
				continue
			}
			parent[v] = u
			queue = append(queue, v)
		}
	}

	if _, reached := parent[to]; !reached {
		return nil, false
	}

	for cur := to; ; {
		path = append([]wire.UUID{cur}, path...)
		if cur == from {
			break
		}
		cur = parent[cur]
	}

	return path, true
}
