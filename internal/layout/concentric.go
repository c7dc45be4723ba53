package layout

import (
	"sort"

	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// concentricRingGap is the distance between consecutive degree rings.
const concentricRingGap = 150.0

// ---------------------------------------------------------------------------
// Concentric — rings ordered by degree
// ---------------------------------------------------------------------------

// Concentric arranges nodes in rings by total degree, most-connected
// innermost. Unlike the radial view it is independent of any focus node:
// it shows global centrality rather than a local neighbourhood.
type Concentric struct{}

// NewConcentric returns the concentric-by-degree engine.
func NewConcentric() *Concentric { return &Concentric{} }

// Name implements Engine.
func (c *Concentric) Name() string { return "concentric" }

// Compute implements Engine. Nodes sharing a degree value share a ring;
// rings are ordered by descending degree. A single top node sits at the
// centre.
func (c *Concentric) Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result {
	positions := make(map[string]Position, len(nodes))
	if len(nodes) == 0 {
		return &Result{Positions: positions}
	}

	buckets := make(map[int][]string)
	for _, n := range nodes {
		d := res.Degrees[n.ID].Total()
		buckets[d] = append(buckets[d], n.ID)
	}

	degrees := make([]int, 0, len(buckets))
	for d := range buckets {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))

	ring := 0
	for _, d := range degrees {
		ids := buckets[d]
		if ring == 0 && len(ids) == 1 {
			positions[ids[0]] = Position{X: 0, Y: 0}
		} else {
			placeRing(positions, ids, concentricRingGap*float64(ring+1))
		}
		ring++
	}

	return &Result{Positions: positions}
}
