// Package analysis computes the derived attributes every view depends on:
// BFS depth from the focus node, per-node degree, and descendant counts
// over the containment tree. All of it is produced in a single pass per
// filtered-set change so downstream layouts and encodings never drift
// apart on stale values.
package analysis

import (
	"math"

	"github.com/drishti/drishti-viz/internal/graph"
)

// DepthUnreached marks nodes the focus-centred BFS never reached. Such
// nodes are rendered deprioritised (low opacity), never dropped.
const DepthUnreached = math.MaxInt32

// VirtualRootID is the ID of the synthesised tree root. A virtual root is
// created whenever the surviving set does not contain exactly one entry
// point, so the hierarchical layout always has a single root. It carries
// no source metrics.
const VirtualRootID = "__virtual_root__"

// ---------------------------------------------------------------------------
// Result types
// ---------------------------------------------------------------------------

// Degree holds the in/out edge counts for a single node.
type Degree struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// Total returns the combined degree.
func (d Degree) Total() int { return d.In + d.Out }

// Result is the immutable outcome of one analysis pass. It is consumed by
// every layout engine and by the visual encoder; nothing mutates it after
// Analyze returns.
type Result struct {
	// FocusID is the node the depth BFS was centred on. Defaults to the
	// highest-degree node when the caller did not specify one.
	FocusID string

	// RootID is the root of the containment tree: the single entry point
	// when exactly one survives, VirtualRootID otherwise.
	RootID string

	// VirtualRoot is non-nil when RootID refers to a synthesised node.
	VirtualRoot *graph.Node

	// Depths maps node ID to BFS distance from FocusID, treating edges as
	// undirected — a dependency is "close" whether traversed forward or
	// backward. Unreached nodes map to DepthUnreached.
	Depths map[string]int

	// Degrees maps node ID to its in/out degree over the active edge set.
	Degrees map[string]Degree

	// Descendants maps node ID to the number of nodes in the subtree
	// rooted at it (excluding itself).
	Descendants map[string]int

	// TreeChildren and TreeDepths describe the containment tree built by
	// directed BFS from the root set. Every surviving node appears in the
	// tree exactly once.
	TreeChildren map[string][]string
	TreeDepths   map[string]int
}

// ---------------------------------------------------------------------------
// Analyze
// ---------------------------------------------------------------------------

// Analyze runs the full derived-attribute pass over the given node/edge
// subset. focusID may be empty, in which case the highest total-degree
// node becomes the focus. The input slices are not mutated.
func Analyze(nodes []*graph.Node, edges []*graph.Edge, focusID string) *Result {
	r := &Result{
		Depths:       make(map[string]int, len(nodes)),
		Degrees:      make(map[string]Degree, len(nodes)),
		Descendants:  make(map[string]int, len(nodes)),
		TreeChildren: make(map[string][]string),
		TreeDepths:   make(map[string]int, len(nodes)),
	}
	if len(nodes) == 0 {
		return r
	}

	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	// Adjacency over edges whose endpoints both survive. Edges referencing
	// filtered-out nodes are skipped here, mirroring the render-side drop.
	out := make(map[string][]string, len(nodes))
	in := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !present[e.SourceID] || !present[e.TargetID] {
			continue
		}
		out[e.SourceID] = append(out[e.SourceID], e.TargetID)
		in[e.TargetID] = append(in[e.TargetID], e.SourceID)
	}

	for _, n := range nodes {
		r.Degrees[n.ID] = Degree{In: len(in[n.ID]), Out: len(out[n.ID])}
	}

	r.FocusID = focusID
	if r.FocusID == "" || !present[r.FocusID] {
		r.FocusID = defaultFocus(nodes, r.Degrees)
	}

	computeDepths(r, nodes, out, in)
	reached := buildTree(r, nodes, out, in)
	countDescendants(r)
	attachOrphans(r, nodes, reached)
	return r
}

// defaultFocus picks the node with the highest total degree; ties resolve
// to the earliest node in input order.
func defaultFocus(nodes []*graph.Node, degrees map[string]Degree) string {
	best := nodes[0].ID
	bestDeg := degrees[best].Total()
	for _, n := range nodes[1:] {
		if d := degrees[n.ID].Total(); d > bestDeg {
			best = n.ID
			bestDeg = d
		}
	}
	return best
}

// computeDepths runs an undirected BFS from the focus node.
func computeDepths(r *Result, nodes []*graph.Node, out, in map[string][]string) {
	for _, n := range nodes {
		r.Depths[n.ID] = DepthUnreached
	}

	queue := []string{r.FocusID}
	r.Depths[r.FocusID] = 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := r.Depths[cur]

		for _, next := range neighbours(cur, out, in) {
			if r.Depths[next] == DepthUnreached {
				r.Depths[next] = d + 1
				queue = append(queue, next)
			}
		}
	}
}

// neighbours merges forward and backward adjacency for undirected traversal.
func neighbours(id string, out, in map[string][]string) []string {
	res := make([]string, 0, len(out[id])+len(in[id]))
	res = append(res, out[id]...)
	res = append(res, in[id]...)
	return res
}

// buildTree constructs the containment tree by directed BFS from the root
// set. The root set is every surviving entry point; when none exist it
// falls back to nodes with zero in-degree, then to the focus node. A
// virtual root is synthesised unless exactly one entry point survives.
// Returns the set of nodes the BFS reached; anything outside it is placed
// later by attachOrphans.
func buildTree(r *Result, nodes []*graph.Node, out, in map[string][]string) map[string]bool {
	var roots []string
	for _, n := range nodes {
		if n.IsEntryPoint() {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		for _, n := range nodes {
			if len(in[n.ID]) == 0 {
				roots = append(roots, n.ID)
			}
		}
	}
	if len(roots) == 0 {
		roots = []string{r.FocusID}
	}

	if len(roots) == 1 {
		r.RootID = roots[0]
		r.TreeDepths[r.RootID] = 0
	} else {
		r.VirtualRoot = &graph.Node{ID: VirtualRootID, Label: "root", Type: graph.NodeTypeModule}
		r.RootID = VirtualRootID
		r.TreeDepths[VirtualRootID] = 0
		for _, id := range roots {
			r.TreeChildren[VirtualRootID] = append(r.TreeChildren[VirtualRootID], id)
			r.TreeDepths[id] = 1
		}
	}

	visited := make(map[string]bool, len(nodes))
	visited[r.RootID] = true
	queue := make([]string, 0, len(roots))
	for _, id := range roots {
		visited[id] = true
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range out[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			r.TreeChildren[cur] = append(r.TreeChildren[cur], next)
			r.TreeDepths[next] = r.TreeDepths[cur] + 1
			queue = append(queue, next)
		}
	}

	return visited
}

// countDescendants fills r.Descendants bottom-up over the containment tree.
// It runs before orphan attachment: a node only counts toward its ancestors
// when it is actually reachable downward from them.
func countDescendants(r *Result) {
	var walk func(id string) int
	walk = func(id string) int {
		total := 0
		for _, child := range r.TreeChildren[id] {
			total += 1 + walk(child)
		}
		r.Descendants[id] = total
		return total
	}
	walk(r.RootID)
}

// attachOrphans hangs nodes the tree BFS never reached (cycles, islands)
// directly off the root so every node has a layout slot. They are not
// reachable downward from the root, so they contribute no descendant counts.
func attachOrphans(r *Result, nodes []*graph.Node, reached map[string]bool) {
	for _, n := range nodes {
		if reached[n.ID] {
			continue
		}
		reached[n.ID] = true
		r.TreeChildren[r.RootID] = append(r.TreeChildren[r.RootID], n.ID)
		r.TreeDepths[n.ID] = r.TreeDepths[r.RootID] + 1
		r.Descendants[n.ID] = 0
	}
}

// ---------------------------------------------------------------------------
// Annotate
// ---------------------------------------------------------------------------

// Annotate writes the derived attributes back onto the given node copies.
// Callers are expected to pass clones (see graph.Snapshot.CloneNodes); the
// authoritative snapshot must never be annotated.
func (r *Result) Annotate(nodes []*graph.Node) {
	for _, n := range nodes {
		deg := r.Degrees[n.ID]
		n.IncomingEdges = deg.In
		n.OutgoingEdges = deg.Out
		n.TotalEdges = deg.Total()
		if d, ok := r.Depths[n.ID]; ok {
			n.Depth = d
		}
		n.DescendantCount = r.Descendants[n.ID]
	}
}
