package layout

import (
	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// Tree layout spacing.
const (
	treeLevelGap = 140.0
	treeNodeGap  = 120.0
)

// ---------------------------------------------------------------------------
// Tree — layered top-to-bottom hierarchy
// ---------------------------------------------------------------------------

// Tree places nodes in horizontal layers ranked by their depth in the
// containment tree, with each parent centred over its children. It is
// fully deterministic and the default engine for dependency exploration.
type Tree struct{}

// NewTree returns the hierarchical tree engine.
func NewTree() *Tree { return &Tree{} }

// Name implements Engine.
func (t *Tree) Name() string { return "tree" }

// Compute implements Engine. The containment tree from the analysis pass
// guarantees a single root (virtual when needed) covering every node, so
// a recursive subtree walk assigns each node exactly one position.
func (t *Tree) Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result {
	positions := make(map[string]Position, len(nodes))
	if len(nodes) == 0 {
		return &Result{Positions: positions}
	}

	// First pass: subtree widths. A leaf occupies one slot.
	widths := make(map[string]float64, len(nodes))
	var measure func(id string) float64
	measure = func(id string) float64 {
		children := res.TreeChildren[id]
		if len(children) == 0 {
			widths[id] = treeNodeGap
			return treeNodeGap
		}
		total := 0.0
		for _, c := range children {
			total += measure(c)
		}
		widths[id] = total
		return total
	}
	measure(res.RootID)

	// Second pass: place every subtree inside its allotted span, parent
	// centred over the span.
	var place func(id string, left float64)
	place = func(id string, left float64) {
		positions[id] = Position{
			X: left + widths[id]/2.0,
			Y: float64(res.TreeDepths[id]) * treeLevelGap,
		}
		childLeft := left
		for _, c := range res.TreeChildren[id] {
			place(c, childLeft)
			childLeft += widths[c]
		}
	}
	place(res.RootID, -widths[res.RootID]/2.0)

	// The virtual root is positional scaffolding only; it is not part of
	// the surviving node set and must not leak into the result.
	if res.VirtualRoot != nil {
		delete(positions, analysis.VirtualRootID)
	}
	return &Result{Positions: positions}
}
