package layout

import (
	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// radialUnitRadius is the distance between consecutive depth rings.
const radialUnitRadius = 160.0

// ---------------------------------------------------------------------------
// Radial — rings around the focus node
// ---------------------------------------------------------------------------

// Radial places the focus node at the origin and every other node on a
// ring whose radius is unitRadius × its BFS depth from the focus.
// Re-centering on a new focus is just a fresh analysis pass followed by
// repositioning — no other view state is reset.
type Radial struct{}

// NewRadial returns the radial-focus engine.
func NewRadial() *Radial { return &Radial{} }

// Name implements Engine.
func (r *Radial) Name() string { return "radial" }

// Compute implements Engine. Nodes the BFS never reached land together on
// one ring past the deepest reached level; the encoder renders them
// deprioritised rather than dropping them.
func (r *Radial) Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result {
	positions := make(map[string]Position, len(nodes))
	if len(nodes) == 0 {
		return &Result{Positions: positions}
	}

	// Bucket by depth, preserving input order within each ring.
	rings := make(map[int][]string)
	maxDepth := 0
	var unreached []string
	for _, n := range nodes {
		d := res.Depths[n.ID]
		if d == analysis.DepthUnreached {
			unreached = append(unreached, n.ID)
			continue
		}
		rings[d] = append(rings[d], n.ID)
		if d > maxDepth {
			maxDepth = d
		}
	}

	positions[res.FocusID] = Position{X: 0, Y: 0}
	for d := 1; d <= maxDepth; d++ {
		placeRing(positions, rings[d], radialUnitRadius*float64(d))
	}
	placeRing(positions, unreached, radialUnitRadius*float64(maxDepth+1))

	return &Result{Positions: positions}
}
