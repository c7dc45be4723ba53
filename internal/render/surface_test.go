package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
)

func testNodes() ([]*graph.Node, []*graph.Edge, map[string]layout.Position, map[string]encoding.Style) {
	nodes := []*graph.Node{
		{ID: "a", Label: "alpha", Type: graph.NodeTypeFunction},
		{ID: "b", Label: "beta", Type: graph.NodeTypeFunction},
		{ID: "c", Label: "gamma", Type: graph.NodeTypeFunction},
	}
	edges := []*graph.Edge{
		{ID: "ab", SourceID: "a", TargetID: "b", Type: graph.EdgeTypeCalls},
		{ID: "bc", SourceID: "b", TargetID: "c", Type: graph.EdgeTypeCalls},
	}
	positions := map[string]layout.Position{
		"a": {X: 0, Y: 0}, "b": {X: 100, Y: 0}, "c": {X: 200, Y: 0},
	}
	styles := map[string]encoding.Style{
		"a": {Fill: "#111111", Size: 10, Opacity: 1},
		"b": {Fill: "#222222", Size: 20, Opacity: 1},
		"c": {Fill: "#333333", Size: 30, Opacity: 1},
	}
	return nodes, edges, positions, styles
}

func populated(t *testing.T) *Surface {
	t.Helper()
	s := New()
	nodes, edges, positions, styles := testNodes()
	require.NoError(t, s.Populate(nodes, edges, positions, styles))
	return s
}

func TestLifecycle(t *testing.T) {
	t.Run("dispose makes every mutation fail", func(t *testing.T) {
		s := populated(t)
		s.Dispose()
		assert.True(t, s.Disposed())

		nodes, edges, positions, styles := testNodes()
		assert.ErrorIs(t, s.Populate(nodes, edges, positions, styles), ErrDisposed)
		assert.ErrorIs(t, s.SetStyle("a", encoding.Style{}), ErrDisposed)
		assert.ErrorIs(t, s.SetOpacity("a", 0), ErrDisposed)
		assert.ErrorIs(t, s.SetPosition("a", layout.Position{}), ErrDisposed)
		assert.ErrorIs(t, s.Remove("a"), ErrDisposed)
		assert.ErrorIs(t, s.Add(nodes[0], positions["a"], styles["a"]), ErrDisposed)
		assert.ErrorIs(t, s.AddEdge(edges[0]), ErrDisposed)
		assert.ErrorIs(t, s.Hover("a"), ErrDisposed)
		assert.ErrorIs(t, s.Pan(1, 1), ErrDisposed)
		assert.ErrorIs(t, s.Zoom(2), ErrDisposed)
		_, err := s.Tooltip("a")
		assert.ErrorIs(t, err, ErrDisposed)
	})

	t.Run("dispose is idempotent", func(t *testing.T) {
		s := populated(t)
		s.Dispose()
		s.Dispose()
		assert.True(t, s.Disposed())
	})

	t.Run("populate preserves viewport", func(t *testing.T) {
		s := populated(t)
		require.NoError(t, s.Pan(50, -30))
		require.NoError(t, s.Zoom(2))

		nodes, edges, positions, styles := testNodes()
		require.NoError(t, s.Populate(nodes, edges, positions, styles))

		scene := s.Scene()
		assert.Equal(t, 50.0, scene.Viewport.PanX)
		assert.Equal(t, -30.0, scene.Viewport.PanY)
		assert.Equal(t, 2.0, scene.Viewport.Scale)
	})
}

func TestSceneSnapshot(t *testing.T) {
	t.Run("sorted and complete", func(t *testing.T) {
		s := populated(t)
		scene := s.Scene()
		require.Len(t, scene.Elements, 3)
		assert.Equal(t, "a", scene.Elements[0].ID)
		assert.Equal(t, "b", scene.Elements[1].ID)
		assert.Equal(t, "c", scene.Elements[2].ID)
		require.Len(t, scene.Edges, 2)
		assert.False(t, scene.Empty)
	})

	t.Run("empty surface reports the empty-state message", func(t *testing.T) {
		s := New()
		scene := s.Scene()
		assert.True(t, scene.Empty)
		assert.Equal(t, "no nodes match current filters", scene.Message)
		assert.Empty(t, scene.Elements)
	})

	t.Run("dangling edges are dropped at populate", func(t *testing.T) {
		s := New()
		nodes, _, positions, styles := testNodes()
		edges := []*graph.Edge{
			{ID: "ok", SourceID: "a", TargetID: "b", Type: graph.EdgeTypeCalls},
			{ID: "dangling", SourceID: "a", TargetID: "ghost", Type: graph.EdgeTypeCalls},
		}
		require.NoError(t, s.Populate(nodes, edges, positions, styles))
		scene := s.Scene()
		require.Len(t, scene.Edges, 1)
		assert.Equal(t, "ok", scene.Edges[0].ID)
	})
}

func TestMutations(t *testing.T) {
	t.Run("remove deletes touching edges", func(t *testing.T) {
		s := populated(t)
		require.NoError(t, s.Remove("b"))
		assert.False(t, s.Has("b"))
		assert.Empty(t, s.Scene().Edges)
	})

	t.Run("set style and position for unknown element fails", func(t *testing.T) {
		s := populated(t)
		assert.Error(t, s.SetStyle("ghost", encoding.Style{}))
		assert.Error(t, s.SetPosition("ghost", layout.Position{}))
	})

	t.Run("add edge with missing endpoint is silently dropped", func(t *testing.T) {
		s := populated(t)
		require.NoError(t, s.AddEdge(&graph.Edge{ID: "x", SourceID: "a", TargetID: "ghost"}))
		assert.Len(t, s.Scene().Edges, 2)
	})
}

func TestHover(t *testing.T) {
	s := populated(t)
	require.NoError(t, s.Hover("b"))

	scene := s.Scene()
	byID := map[string]*Element{}
	for _, el := range scene.Elements {
		byID[el.ID] = el
	}

	// b touches both edges: a, b, c are all neighbours here.
	assert.True(t, byID["b"].Highlighted)
	assert.True(t, byID["a"].Highlighted)
	assert.True(t, byID["c"].Highlighted)
	for _, e := range scene.Edges {
		assert.True(t, e.Highlighted)
	}

	t.Run("hover on a leaf dims the rest", func(t *testing.T) {
		require.NoError(t, s.Hover("a"))
		scene := s.Scene()
		for _, el := range scene.Elements {
			switch el.ID {
			case "a", "b":
				assert.True(t, el.Highlighted)
				assert.False(t, el.Dimmed)
			default:
				assert.True(t, el.Dimmed)
			}
		}
	})

	t.Run("empty id clears hover state", func(t *testing.T) {
		require.NoError(t, s.Hover(""))
		for _, el := range s.Scene().Elements {
			assert.False(t, el.Highlighted)
			assert.False(t, el.Dimmed)
		}
	})

	t.Run("unknown id is an error", func(t *testing.T) {
		assert.Error(t, s.Hover("ghost"))
	})
}

func TestTooltip(t *testing.T) {
	s := New()
	n := &graph.Node{
		ID: "f", Label: "handler", Type: graph.NodeTypeFunction,
		FilePath: "src/api.py", StartLine: 10, EndLine: 42,
		CyclomaticComplexity: 7, LinesOfCode: 33,
		IncomingEdges: 2, OutgoingEdges: 3, Depth: 1, DescendantCount: 0,
	}
	require.NoError(t, s.Populate([]*graph.Node{n}, nil, nil, nil))

	tip, err := s.Tooltip("f")
	require.NoError(t, err)
	assert.Equal(t, "handler", tip.Label)
	assert.Equal(t, "src/api.py:10-42", tip.Location)
	assert.Equal(t, 7, tip.Complexity)
	assert.Equal(t, 2, tip.InDegree)
	assert.Equal(t, 3, tip.OutDegree)

	_, err = s.Tooltip("ghost")
	assert.Error(t, err)
}

func TestViewport(t *testing.T) {
	s := populated(t)

	t.Run("pan accumulates", func(t *testing.T) {
		require.NoError(t, s.Pan(10, 5))
		require.NoError(t, s.Pan(-4, 1))
		v := s.Scene().Viewport
		assert.Equal(t, 6.0, v.PanX)
		assert.Equal(t, 6.0, v.PanY)
	})

	t.Run("zoom clamps to bounds", func(t *testing.T) {
		require.NoError(t, s.Zoom(100))
		assert.Equal(t, 8.0, s.Scene().Viewport.Scale)
		require.NoError(t, s.Zoom(0.000001))
		assert.Equal(t, 0.1, s.Scene().Viewport.Scale)
	})
}
