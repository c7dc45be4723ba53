package transition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
)

// stepScheduler queues continuations so tests drive phases explicitly.
type stepScheduler struct {
	pending []func()
}

func (s *stepScheduler) AfterFunc(_ time.Duration, fn func()) func() {
	s.pending = append(s.pending, fn)
	idx := len(s.pending) - 1
	return func() { s.pending[idx] = nil }
}

// step runs the oldest queued continuation, if any survives cancellation.
func (s *stepScheduler) step() bool {
	for i, fn := range s.pending {
		if fn != nil {
			s.pending[i] = nil
			fn()
			return true
		}
	}
	return false
}

func frameOf(ids ...string) *Frame {
	f := &Frame{
		Positions: make(map[string]layout.Position, len(ids)),
		Styles:    make(map[string]encoding.Style, len(ids)),
	}
	for i, id := range ids {
		f.Nodes = append(f.Nodes, &graph.Node{ID: id, Label: id, Type: graph.NodeTypeFunction})
		f.Positions[id] = layout.Position{X: float64(i * 100)}
		f.Styles[id] = encoding.Style{Fill: "#3498db", Size: 12, Opacity: 1}
	}
	for i := 1; i < len(ids); i++ {
		f.Edges = append(f.Edges, &graph.Edge{
			ID:       ids[i-1] + "->" + ids[i],
			SourceID: ids[i-1],
			TargetID: ids[i],
			Type:     graph.EdgeTypeCalls,
		})
	}
	return f
}

func sceneIDs(c *Controller) []string {
	var out []string
	for _, el := range c.Scene().Elements {
		out = append(out, el.ID)
	}
	return out
}

func TestFirstFrameRebuilds(t *testing.T) {
	c := NewController(ImmediateScheduler{}, time.Millisecond)

	var events []Event
	c.OnEvent = func(ev Event) { events = append(events, ev) }

	c.Apply(frameOf("a", "b"))

	require.Len(t, events, 1)
	assert.Equal(t, "rebuild", events[0].Kind)
	assert.Equal(t, 2, events[0].Shown)
	assert.Equal(t, []string{"a", "b"}, sceneIDs(c))
	assert.Equal(t, StateIdle, c.State())
}

func TestDiffTransition(t *testing.T) {
	c := NewController(ImmediateScheduler{}, time.Millisecond)

	var events []Event
	c.OnEvent = func(ev Event) { events = append(events, ev) }

	c.Apply(frameOf("a", "b", "c"))
	c.Apply(frameOf("b", "c", "d"))

	require.Len(t, events, 2)
	diff := events[1]
	assert.Equal(t, "diff", diff.Kind)
	assert.Equal(t, 1, diff.Hidden)   // a
	assert.Equal(t, 1, diff.Shown)    // d
	assert.Equal(t, 2, diff.Restyled) // b, c

	assert.Equal(t, []string{"b", "c", "d"}, sceneIDs(c))
	assert.Equal(t, StateIdle, c.State())

	t.Run("additions end at full style, not staged opacity", func(t *testing.T) {
		for _, el := range c.Scene().Elements {
			assert.Equal(t, 1.0, el.Style.Opacity, "element %s", el.ID)
		}
	})

	t.Run("edges follow the new frame", func(t *testing.T) {
		scene := c.Scene()
		var edgeIDs []string
		for _, e := range scene.Edges {
			edgeIDs = append(edgeIDs, e.ID)
		}
		assert.ElementsMatch(t, []string{"b->c", "c->d"}, edgeIDs)
	})
}

func TestDiffPhases(t *testing.T) {
	sched := &stepScheduler{}
	c := NewController(sched, time.Millisecond)

	c.Apply(frameOf("a", "b"))
	c.Apply(frameOf("b", "c"))

	// Phase 1 ran synchronously: "a" faded but still present.
	assert.Equal(t, StateDiffing, c.State())
	scene := c.Scene()
	require.Equal(t, []string{"a", "b"}, sceneIDs(c))
	assert.Equal(t, 0.0, scene.Elements[0].Style.Opacity)

	// Phase 2: removal, restyle, staged addition.
	require.True(t, sched.step())
	scene = c.Scene()
	require.Equal(t, []string{"b", "c"}, sceneIDs(c))
	assert.Equal(t, 0.0, scene.Elements[1].Style.Opacity, "new node staged invisible")

	// Phase 3: fade-in and commit.
	require.True(t, sched.step())
	scene = c.Scene()
	assert.Equal(t, 1.0, scene.Elements[1].Style.Opacity)
	assert.Equal(t, StateIdle, c.State())
}

func TestSupersession(t *testing.T) {
	sched := &stepScheduler{}
	c := NewController(sched, time.Millisecond)

	var events []Event
	c.OnEvent = func(ev Event) { events = append(events, ev) }

	c.Apply(frameOf("a", "b"))
	c.Apply(frameOf("b", "c")) // in-flight, phase 2 pending
	c.Apply(frameOf("a", "d")) // supersedes before phase 2 runs

	// Drain every queued continuation; stale ones must be inert.
	for sched.step() {
	}

	assert.Equal(t, []string{"a", "d"}, sceneIDs(c))
	assert.Equal(t, StateIdle, c.State())

	// Exactly one rebuild (first frame) and one diff (the winner).
	require.Len(t, events, 2)
	assert.Equal(t, "rebuild", events[0].Kind)
	assert.Equal(t, "diff", events[1].Kind)
	assert.Equal(t, 1, events[1].Shown) // d
}

func TestExplicitRebuild(t *testing.T) {
	c := NewController(ImmediateScheduler{}, time.Millisecond)
	c.Apply(frameOf("a", "b"))

	var events []Event
	c.OnEvent = func(ev Event) { events = append(events, ev) }

	c.Rebuild(frameOf("x"))

	require.Len(t, events, 1)
	assert.Equal(t, "rebuild", events[0].Kind)
	assert.Equal(t, []string{"x"}, sceneIDs(c))
	assert.Equal(t, StateIdle, c.State())
}

func TestEmptyFrame(t *testing.T) {
	c := NewController(ImmediateScheduler{}, time.Millisecond)
	c.Apply(frameOf("a"))
	c.Apply(frameOf())

	scene := c.Scene()
	assert.True(t, scene.Empty)
	assert.Equal(t, "no nodes match current filters", scene.Message)
}

func TestDelegation(t *testing.T) {
	c := NewController(ImmediateScheduler{}, time.Millisecond)
	c.Apply(frameOf("a", "b"))

	require.NoError(t, c.Hover("a"))
	require.NoError(t, c.Pan(5, 5))
	require.NoError(t, c.Zoom(2))

	tip, err := c.Tooltip("a")
	require.NoError(t, err)
	assert.Equal(t, "a", tip.Label)

	v := c.Scene().Viewport
	assert.Equal(t, 5.0, v.PanX)
	assert.Equal(t, 2.0, v.Scale)
}
