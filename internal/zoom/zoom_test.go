package zoom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drishti/drishti-viz/internal/graph"
)

func fn(id string, cx, loc int) *graph.Node {
	return &graph.Node{ID: id, Label: id, Type: graph.NodeTypeFunction, CyclomaticComplexity: cx, LinesOfCode: loc}
}

func mod(id string) *graph.Node {
	return &graph.Node{ID: id, Label: id, Type: graph.NodeTypeModule}
}

func ids(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestScore(t *testing.T) {
	t.Run("entry point always scores one", func(t *testing.T) {
		n := mod("m")
		assert.Equal(t, 1.0, Score(n, DefaultWeights()))
		assert.Equal(t, 1.0, Score(n, Weights{}))
	})

	t.Run("stays within unit interval for any non-negative weights", func(t *testing.T) {
		n := fn("f", 400, 9000)
		n.TotalEdges = 700
		for _, w := range []Weights{
			{Complexity: 1, LinesOfCode: 1, Connections: 1},
			{Complexity: 10, LinesOfCode: 0.1, Connections: 3},
			{Complexity: 0, LinesOfCode: 0, Connections: 5},
		} {
			s := Score(n, w)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	})

	t.Run("zero weights give zero score", func(t *testing.T) {
		assert.Equal(t, 0.0, Score(fn("f", 50, 100), Weights{}))
	})

	t.Run("negative weights are treated as zero", func(t *testing.T) {
		n := fn("f", 50, 250)
		got := Score(n, Weights{Complexity: -5, LinesOfCode: 1})
		want := Score(n, Weights{LinesOfCode: 1})
		assert.Equal(t, want, got)
	})

	t.Run("missing metrics contribute zero", func(t *testing.T) {
		n := fn("f", 0, 0)
		assert.Equal(t, 0.0, Score(n, DefaultWeights()))
	})

	t.Run("metric above cap clamps to cap", func(t *testing.T) {
		capped := Score(fn("a", 100, 0), Weights{Complexity: 1})
		over := Score(fn("b", 5000, 0), Weights{Complexity: 1})
		assert.Equal(t, capped, over)
		assert.Equal(t, 1.0, over)
	})
}

func TestScoreAll(t *testing.T) {
	t.Run("sorted descending", func(t *testing.T) {
		nodes := []*graph.Node{fn("low", 5, 0), fn("high", 90, 0), fn("mid", 40, 0)}
		scored := ScoreAll(nodes, Weights{Complexity: 1})
		require.Len(t, scored, 3)
		assert.Equal(t, "high", scored[0].Node.ID)
		assert.Equal(t, "mid", scored[1].Node.ID)
		assert.Equal(t, "low", scored[2].Node.ID)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		nodes := []*graph.Node{fn("a", 50, 0), fn("b", 50, 0), fn("c", 50, 0)}
		scored := ScoreAll(nodes, Weights{Complexity: 1})
		assert.Equal(t, "a", scored[0].Node.ID)
		assert.Equal(t, "b", scored[1].Node.ID)
		assert.Equal(t, "c", scored[2].Node.ID)
		assert.Equal(t, 0, scored[0].Index)
		assert.Equal(t, 1, scored[1].Index)
		assert.Equal(t, 2, scored[2].Index)
	})
}

func TestFilter(t *testing.T) {
	build := func() ([]*graph.Node, []*graph.Edge) {
		nodes := []*graph.Node{
			mod("main"),
			fn("a", 95, 0), fn("b", 85, 0), fn("c", 75, 0),
			fn("d", 65, 0), fn("e", 55, 0), fn("f", 45, 0),
			fn("g", 35, 0), fn("h", 25, 0), fn("i", 15, 0),
		}
		edges := []*graph.Edge{
			{ID: "e1", SourceID: "main", TargetID: "a", Type: graph.EdgeTypeContains},
			{ID: "e2", SourceID: "a", TargetID: "i", Type: graph.EdgeTypeCalls},
			{ID: "e3", SourceID: "b", TargetID: "c", Type: graph.EdgeTypeCalls},
		}
		return nodes, edges
	}

	t.Run("hundred percent is a pass-through", func(t *testing.T) {
		nodes, edges := build()
		gotN, gotE := Filter(nodes, edges, 100, DefaultWeights())
		assert.Equal(t, nodes, gotN)
		assert.Equal(t, edges, gotE)
	})

	t.Run("keeps ceil of the percentage by score", func(t *testing.T) {
		nodes, edges := build()
		kept, _ := Filter(nodes, edges, 50, Weights{Complexity: 1})
		// ceil(10·0.5) = 5: the module plus the four highest complexities.
		assert.Equal(t, []string{"main", "a", "b", "c", "d"}, ids(kept))
	})

	t.Run("drops edges with a filtered endpoint", func(t *testing.T) {
		nodes, edges := build()
		_, keptEdges := Filter(nodes, edges, 50, Weights{Complexity: 1})
		// a→i lost its target, b→c survives intact.
		var edgeIDs []string
		for _, e := range keptEdges {
			edgeIDs = append(edgeIDs, e.ID)
		}
		assert.Equal(t, []string{"e1", "e3"}, edgeIDs)
	})

	t.Run("entry points survive aggressive filtering", func(t *testing.T) {
		nodes, edges := build()
		kept, _ := Filter(nodes, edges, 10, Weights{Complexity: 1})
		var hasModule bool
		for _, n := range kept {
			if n.ID == "main" {
				hasModule = true
			}
		}
		assert.True(t, hasModule)
	})

	t.Run("zero percent hides everything including entry points", func(t *testing.T) {
		nodes, edges := build()
		kept, keptEdges := Filter(nodes, edges, 0, DefaultWeights())
		assert.Empty(t, kept)
		assert.Empty(t, keptEdges)
	})

	t.Run("monotonic: raising percent never hides a visible node", func(t *testing.T) {
		nodes, edges := build()
		w := Weights{Complexity: 1}
		prev := map[string]bool{}
		for pct := 10; pct <= 100; pct += 10 {
			kept, _ := Filter(nodes, edges, pct, w)
			cur := map[string]bool{}
			for _, n := range kept {
				cur[n.ID] = true
			}
			for id := range prev {
				assert.True(t, cur[id], "node %s vanished when zooming from below %d%%", id, pct)
			}
			prev = cur
		}
	})

	t.Run("idempotent for identical inputs", func(t *testing.T) {
		nodes, edges := build()
		w := DefaultWeights()
		n1, e1 := Filter(nodes, edges, 40, w)
		n2, e2 := Filter(nodes, edges, 40, w)
		assert.Equal(t, ids(n1), ids(n2))
		assert.Equal(t, e1, e2)
	})

	t.Run("out of range percent clamps", func(t *testing.T) {
		nodes, edges := build()
		keptLow, _ := Filter(nodes, edges, -10, DefaultWeights())
		assert.Empty(t, keptLow)
		keptHigh, _ := Filter(nodes, edges, 250, DefaultWeights())
		assert.Len(t, keptHigh, len(nodes))
	})
}

func TestRefinement(t *testing.T) {
	nodes := []*graph.Node{
		{ID: "h1", Label: "HandleRequest", Type: graph.NodeTypeFunction, FilePath: "src/api/handler.py"},
		{ID: "h2", Label: "handle_error", Type: graph.NodeTypeFunction, FilePath: "src/api/errors.py"},
		{ID: "u1", Label: "parse_config", Type: graph.NodeTypeFunction, FilePath: "src/util/config.py"},
		{ID: "c1", Label: "Handler", Type: graph.NodeTypeClass, FilePath: "src/api/handler.py"},
	}
	edges := []*graph.Edge{
		{ID: "e1", SourceID: "h1", TargetID: "u1", Type: graph.EdgeTypeCalls},
		{ID: "e2", SourceID: "h1", TargetID: "c1", Type: graph.EdgeTypeCalls},
	}

	t.Run("zero refinement passes everything", func(t *testing.T) {
		n, e := Refinement{}.Apply(nodes, edges)
		assert.Len(t, n, 4)
		assert.Len(t, e, 2)
	})

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		n, _ := Refinement{Search: "handle"}.Apply(nodes, edges)
		assert.Equal(t, []string{"h1", "h2"}, ids(n))
	})

	t.Run("folder filter includes nested paths", func(t *testing.T) {
		n, _ := Refinement{Folder: "src/api"}.Apply(nodes, edges)
		assert.Equal(t, []string{"h1", "h2", "c1"}, ids(n))
	})

	t.Run("folder filter does not match prefix of a longer name", func(t *testing.T) {
		n, _ := Refinement{Folder: "src/ap"}.Apply(nodes, edges)
		assert.Empty(t, n)
	})

	t.Run("type filter", func(t *testing.T) {
		n, _ := Refinement{Type: graph.NodeTypeClass}.Apply(nodes, edges)
		assert.Equal(t, []string{"c1"}, ids(n))
	})

	t.Run("combined criteria intersect and re-derive edges", func(t *testing.T) {
		n, e := Refinement{Search: "handle", Folder: "src/api", Type: graph.NodeTypeFunction}.Apply(nodes, edges)
		assert.Equal(t, []string{"h1", "h2"}, ids(n))
		assert.Empty(t, e)
	})
}
