package zoom

import (
	"math"
	"strings"

	"github.com/drishti/drishti-viz/internal/graph"
)

// ---------------------------------------------------------------------------
// Filter — the semantic-zoom cut
// ---------------------------------------------------------------------------

// Filter keeps the ceil(total·percent/100) top-scoring nodes plus every
// entry point, then re-derives the edge set by intersecting with the
// survivors. percent is clamped to [0,100]; 100 is a fast path that
// returns the inputs unfiltered without scoring anything.
//
// Survivors are returned in original snapshot order, which together with
// the stable score sort makes the output fully deterministic: filtering
// twice with identical inputs yields identical results, and raising the
// percentage never removes a previously visible node.
func Filter(nodes []*graph.Node, edges []*graph.Edge, percent int, w Weights) ([]*graph.Node, []*graph.Edge) {
	if percent >= 100 {
		return nodes, edges
	}
	if percent < 0 {
		percent = 0
	}

	keep := int(math.Ceil(float64(len(nodes)) * float64(percent) / 100.0))

	survivors := make(map[string]bool, keep)
	for _, sn := range ScoreAll(nodes, w) {
		if len(survivors) >= keep {
			break
		}
		survivors[sn.Node.ID] = true
	}
	// Entry points always survive at any non-zero zoom level, even when
	// the score cut alone would have dropped one.
	if percent > 0 {
		for _, n := range nodes {
			if n.IsEntryPoint() {
				survivors[n.ID] = true
			}
		}
	}

	kept := make([]*graph.Node, 0, len(survivors))
	for _, n := range nodes {
		if survivors[n.ID] {
			kept = append(kept, n)
		}
	}
	return kept, IntersectEdges(edges, survivors)
}

// IntersectEdges returns the edges whose source and target are both in the
// surviving set. Edges referencing a filtered-out node are an expected,
// frequent condition — they are dropped silently, never rendered dangling.
func IntersectEdges(edges []*graph.Edge, survivors map[string]bool) []*graph.Edge {
	kept := make([]*graph.Edge, 0, len(edges))
	for _, e := range edges {
		if survivors[e.SourceID] && survivors[e.TargetID] {
			kept = append(kept, e)
		}
	}
	return kept
}

// ---------------------------------------------------------------------------
// Refinement — secondary filters layered on the zoom cut
// ---------------------------------------------------------------------------

// Refinement narrows the survivor set further. All criteria are optional;
// zero values match everything.
type Refinement struct {
	// Search is a case-insensitive substring match on the node label.
	Search string
	// Folder keeps nodes whose file path lives under the given folder.
	Folder string
	// Type keeps nodes of a single NodeType.
	Type graph.NodeType
}

// IsZero reports whether the refinement matches every node.
func (f Refinement) IsZero() bool {
	return f.Search == "" && f.Folder == "" && f.Type == ""
}

// Apply runs the refinement over the zoom survivors and re-derives edges.
func (f Refinement) Apply(nodes []*graph.Node, edges []*graph.Edge) ([]*graph.Node, []*graph.Edge) {
	if f.IsZero() {
		return nodes, edges
	}

	search := strings.ToLower(f.Search)
	kept := make([]*graph.Node, 0, len(nodes))
	survivors := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if search != "" && !strings.Contains(strings.ToLower(n.Label), search) {
			continue
		}
		if f.Folder != "" && !underFolder(n.Folder(), f.Folder) {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		kept = append(kept, n)
		survivors[n.ID] = true
	}
	return kept, IntersectEdges(edges, survivors)
}

// underFolder reports whether dir equals folder or is nested inside it.
func underFolder(dir, folder string) bool {
	folder = strings.TrimSuffix(folder, "/")
	return dir == folder || strings.HasPrefix(dir, folder+"/")
}
