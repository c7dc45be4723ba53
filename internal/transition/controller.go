// Package transition animates changes between view states. On every
// filter-relevant change the controller diffs the previously visible node
// set against the new one and drives a three-phase animation: fade out the
// removed nodes, restyle the survivors, fade in the additions. Any failure
// along the diff path falls back to a full teardown-and-rebuild of the
// render surface — the surface is never left half-destroyed.
package transition

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
	"github.com/drishti/drishti-viz/internal/render"
)

// DefaultPhaseDuration is how long each animation phase runs.
const DefaultPhaseDuration = 250 * time.Millisecond

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDiffing
	StateRebuilding
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiffing:
		return "diffing"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

// Frame is one fully computed view state: annotated nodes, surviving
// edges, layout positions and per-node styles.
type Frame struct {
	Nodes     []*graph.Node
	Edges     []*graph.Edge
	Positions map[string]layout.Position
	Styles    map[string]encoding.Style
}

func (f *Frame) visible() map[string]bool {
	v := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		v[n.ID] = true
	}
	return v
}

// Event describes one completed transition, reported to the observer.
type Event struct {
	Kind     string `json:"kind"` // "diff" or "rebuild"
	Hidden   int    `json:"hidden"`
	Shown    int    `json:"shown"`
	Restyled int    `json:"restyled"`
}

// ---------------------------------------------------------------------------
// Controller
// ---------------------------------------------------------------------------

// Controller owns the render surface exclusively: every visual mutation
// flows through it, and external reads go through its delegating methods.
// Starting a new transition supersedes any in-flight one — the superseded
// transition's pending phases are discarded, never interleaved.
type Controller struct {
	mu        sync.Mutex
	surface   *render.Surface
	scheduler Scheduler
	phase     time.Duration

	state           State
	previousVisible map[string]bool
	generation      uint64
	cancelPending   func()
	pending         *Frame

	// OnEvent, when set, observes completed transitions. Invoked without
	// the controller lock held.
	OnEvent func(Event)
}

// NewController creates a controller with a fresh surface.
func NewController(sched Scheduler, phase time.Duration) *Controller {
	if sched == nil {
		sched = TimerScheduler{}
	}
	if phase <= 0 {
		phase = DefaultPhaseDuration
	}
	return &Controller{
		surface:         render.New(),
		scheduler:       sched,
		phase:           phase,
		previousVisible: make(map[string]bool),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ---------------------------------------------------------------------------
// Apply — the transition entry point
// ---------------------------------------------------------------------------

// Apply moves the surface to the given frame. The first frame (and any
// frame arriving on a disposed surface) populates directly; later frames
// go through the three-phase diff animation. Apply supersedes any
// transition still in flight.
func (c *Controller) Apply(frame *Frame) {
	c.mu.Lock()
	c.supersedeLocked()
	gen := c.generation

	if c.surface.Disposed() || len(c.previousVisible) == 0 {
		ev := c.rebuildLocked(frame)
		c.mu.Unlock()
		c.emit(ev)
		return
	}

	toHide, err := c.startDiffLocked(frame)
	if err != nil {
		log.Printf("transition: diff failed, rebuilding: %v", err)
		ev := c.rebuildLocked(frame)
		c.mu.Unlock()
		c.emit(ev)
		return
	}
	c.mu.Unlock()

	// Scheduling happens outside the lock so a synchronous scheduler can
	// re-enter the controller without deadlocking.
	c.schedule(gen, func() { c.runPhase2(gen, toHide) })
}

// Rebuild forces a full teardown-and-rebuild from the given frame,
// cancelling any in-flight diff.
func (c *Controller) Rebuild(frame *Frame) {
	c.mu.Lock()
	c.supersedeLocked()
	ev := c.rebuildLocked(frame)
	c.mu.Unlock()
	c.emit(ev)
}

// supersedeLocked bumps the generation and discards any pending phase
// callbacks of an in-flight transition. Caller holds c.mu.
func (c *Controller) supersedeLocked() {
	c.generation++
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
	c.pending = nil
}

// schedule registers a phase continuation unless the transition has been
// superseded in the meantime.
func (c *Controller) schedule(gen uint64, fn func()) {
	cancel := c.scheduler.AfterFunc(c.phase, fn)
	c.mu.Lock()
	if gen == c.generation && c.pending != nil {
		c.cancelPending = cancel
	} else {
		c.mu.Unlock()
		cancel()
		return
	}
	c.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Diff phases
// ---------------------------------------------------------------------------

// startDiffLocked computes the visibility diff and runs phase 1: fading
// the removed nodes to zero opacity and size. Caller holds c.mu.
func (c *Controller) startDiffLocked(frame *Frame) (toHide []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("phase 1 panic: %v", r)
		}
	}()

	c.state = StateDiffing
	c.pending = frame
	newVisible := frame.visible()

	for id := range c.previousVisible {
		if !newVisible[id] {
			toHide = append(toHide, id)
		}
	}
	sort.Strings(toHide)

	for _, id := range toHide {
		if !c.surface.Has(id) {
			continue
		}
		if e := c.surface.SetStyle(id, encoding.Style{Size: 0, Opacity: 0}); e != nil {
			return nil, e
		}
	}
	return toHide, nil
}

// runPhase2 removes the faded nodes, restyles and repositions survivors
// to the new view mode, and stages additions at zero opacity.
func (c *Controller) runPhase2(gen uint64, toHide []string) {
	c.mu.Lock()
	if gen != c.generation || c.pending == nil {
		c.mu.Unlock()
		return // superseded
	}
	frame := c.pending

	var shown []string
	restyled := 0
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("phase 2 panic: %v", r)
			}
		}()

		for _, id := range toHide {
			if e := c.surface.Remove(id); e != nil {
				return e
			}
		}

		for _, n := range frame.Nodes {
			if !c.surface.Has(n.ID) {
				shown = append(shown, n.ID)
				continue
			}
			if e := c.surface.SetStyle(n.ID, frame.Styles[n.ID]); e != nil {
				return e
			}
			if e := c.surface.SetPosition(n.ID, frame.Positions[n.ID]); e != nil {
				return e
			}
			restyled++
		}

		sort.Strings(shown)
		byID := make(map[string]*graph.Node, len(frame.Nodes))
		for _, n := range frame.Nodes {
			byID[n.ID] = n
		}
		for _, id := range shown {
			style := frame.Styles[id]
			style.Opacity = 0
			if e := c.surface.Add(byID[id], frame.Positions[id], style); e != nil {
				return e
			}
		}
		for _, edge := range frame.Edges {
			if e := c.surface.AddEdge(edge); e != nil {
				return e
			}
		}
		return nil
	}()
	if err != nil {
		log.Printf("transition: diff failed, rebuilding: %v", err)
		ev := c.rebuildLocked(frame)
		c.mu.Unlock()
		c.emit(ev)
		return
	}
	c.mu.Unlock()

	c.schedule(gen, func() { c.runPhase3(gen, len(toHide), restyled, shown) })
}

// runPhase3 fades the staged additions up to their computed style and
// commits the new visible set.
func (c *Controller) runPhase3(gen uint64, hidden, restyled int, shown []string) {
	c.mu.Lock()
	if gen != c.generation || c.pending == nil {
		c.mu.Unlock()
		return // superseded
	}
	frame := c.pending

	for _, id := range shown {
		if err := c.surface.SetStyle(id, frame.Styles[id]); err != nil {
			log.Printf("transition: fade-in failed, rebuilding: %v", err)
			ev := c.rebuildLocked(frame)
			c.mu.Unlock()
			c.emit(ev)
			return
		}
	}

	c.previousVisible = frame.visible()
	c.pending = nil
	c.cancelPending = nil
	c.state = StateIdle
	c.mu.Unlock()

	c.emit(Event{Kind: "diff", Hidden: hidden, Shown: len(shown), Restyled: restyled})
}

// ---------------------------------------------------------------------------
// Rebuild path
// ---------------------------------------------------------------------------

// rebuildLocked disposes the current surface and constructs a fresh one
// from the frame. Dispose-before-create is mandatory: no handle to the
// old surface survives a rebuild. Caller holds c.mu.
func (c *Controller) rebuildLocked(frame *Frame) Event {
	c.state = StateRebuilding
	c.pending = nil
	c.cancelPending = nil

	c.surface.Dispose()
	c.surface = render.New()
	if err := c.surface.Populate(frame.Nodes, frame.Edges, frame.Positions, frame.Styles); err != nil {
		// Populate only fails on a disposed surface, which a fresh one
		// cannot be; log and continue with the empty scene.
		log.Printf("transition: rebuild populate: %v", err)
	}

	c.previousVisible = frame.visible()
	c.state = StateIdle
	return Event{Kind: "rebuild", Shown: len(frame.Nodes)}
}

func (c *Controller) emit(ev Event) {
	if c.OnEvent != nil {
		c.OnEvent(ev)
	}
}

// ---------------------------------------------------------------------------
// Surface delegation — reads and interaction
// ---------------------------------------------------------------------------

// Scene returns the current scene snapshot.
func (c *Controller) Scene() render.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.Scene()
}

// Hover forwards hover highlighting to the surface.
func (c *Controller) Hover(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.Hover(id)
}

// Tooltip returns the tooltip payload for an element.
func (c *Controller) Tooltip(id string) (render.Tooltip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.Tooltip(id)
}

// Pan forwards a viewport pan to the surface.
func (c *Controller) Pan(dx, dy float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.Pan(dx, dy)
}

// Zoom forwards a viewport zoom to the surface.
func (c *Controller) Zoom(factor float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.Zoom(factor)
}
