package routing

import (
	"testing"

	"github.com/Meander-Cloud/go-club/wire"
)

// Line topology: a - b - c - d. RoutingTable lives at b.
func TestRoutingTableLineTopology(t *testing.T) {
	a, b, c, d := wire.NewUUID(), wire.NewUUID(), wire.NewUUID(), wire.NewUUID()

	g := NewGraph()
	g.AddEdge(a, b)
	g.AddEdge(b, c)
	g.AddEdge(c, d)

	rt := NewRoutingTable(b)
	rt.Recalculate(g)

	// A frame originating at a (one hop away) should be relayed by b
	// only towards c (the direction away from a).
	targets := rt.Targets(a)
	if !targets.Contains(c) || targets.Contains(a) {
		t.Errorf("targets(a) = %v, want {c}", targets)
	}

	// A frame originating at d should be relayed by b only towards a.
	targets = rt.Targets(d)
	if !targets.Contains(a) || targets.Contains(c) {
		t.Errorf("targets(d) = %v, want {a}", targets)
	}

	// A frame originating at b itself goes to both neighbours.
	targets = rt.Targets(b)
	if !targets.Contains(a) || !targets.Contains(c) {
		t.Errorf("targets(b) = %v, want {a, c}", targets)
	}
}

func TestConnectionGraphFindPath(t *testing.T) {
	a, b, c := wire.NewUUID(), wire.NewUUID(), wire.NewUUID()

	cg := NewConnectionGraph()
	cg.AddConnection(a, b)
	cg.AddConnection(b, c)

	path, ok := cg.FindPath(a, c)
	if !ok {
		t.Fatal("expected a path from a to c")
	}
	if len(path) != 3 || path[0] != a || path[2] != c {
		t.Errorf("path = %v", path)
	}

	unknown := wire.NewUUID()
	if _, ok := cg.FindPath(a, unknown); ok {
		t.Errorf("expected no path to an unconnected node")
	}
}
