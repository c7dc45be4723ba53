package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
)

// Viewport scale bounds.
const (
	minScale = 0.1
	maxScale = 8.0
)

// ErrDisposed is returned by every mutation on a disposed surface.
var ErrDisposed = errors.New("render: surface disposed")

// ---------------------------------------------------------------------------
// Surface
// ---------------------------------------------------------------------------

// Surface is the single drawing-context instance. It holds the current
// elements, edges and viewport, and exposes the mutations the transition
// controller and interaction handlers drive.
//
// Lifecycle: New → (Populate | mutations)* → Dispose. After Dispose every
// mutation fails with ErrDisposed; a rebuild constructs a fresh instance.
// The surface is not goroutine-safe — its owner serialises access.
type Surface struct {
	elements map[string]*Element
	edges    map[string]*EdgeLine
	nodes    map[string]*graph.Node // annotated nodes backing tooltips
	viewport Viewport
	hoverID  string
	disposed bool
}

// New creates an empty surface with an identity viewport.
func New() *Surface {
	return &Surface{
		elements: make(map[string]*Element),
		edges:    make(map[string]*EdgeLine),
		nodes:    make(map[string]*graph.Node),
		viewport: Viewport{Scale: 1.0},
	}
}

// Disposed reports whether the surface has been torn down.
func (s *Surface) Disposed() bool { return s.disposed }

// Dispose tears the surface down, releasing every element. Idempotent.
func (s *Surface) Dispose() {
	s.elements = nil
	s.edges = nil
	s.nodes = nil
	s.hoverID = ""
	s.disposed = true
}

// ---------------------------------------------------------------------------
// Population
// ---------------------------------------------------------------------------

// Populate replaces the surface contents with the given annotated nodes,
// their positions and styles, and the surviving edges. The viewport is
// preserved across populations so pan/zoom survives re-filters.
func (s *Surface) Populate(nodes []*graph.Node, edges []*graph.Edge, positions map[string]layout.Position, styles map[string]encoding.Style) error {
	if s.disposed {
		return ErrDisposed
	}
	s.elements = make(map[string]*Element, len(nodes))
	s.nodes = make(map[string]*graph.Node, len(nodes))
	s.hoverID = ""

	for _, n := range nodes {
		pos := positions[n.ID]
		s.elements[n.ID] = &Element{
			ID:    n.ID,
			Label: n.Label,
			X:     pos.X,
			Y:     pos.Y,
			Style: styles[n.ID],
		}
		s.nodes[n.ID] = n
	}

	s.edges = make(map[string]*EdgeLine, len(edges))
	for _, e := range edges {
		// Dropped, not drawn: an edge to a missing element would dangle.
		if s.elements[e.SourceID] == nil || s.elements[e.TargetID] == nil {
			continue
		}
		s.edges[e.ID] = &EdgeLine{
			ID:       e.ID,
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			Type:     string(e.Type),
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Element mutations (used by the transition phases)
// ---------------------------------------------------------------------------

// SetStyle restyles a single element.
func (s *Surface) SetStyle(id string, style encoding.Style) error {
	if s.disposed {
		return ErrDisposed
	}
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("render: element %q not found", id)
	}
	el.Style = style
	return nil
}

// SetOpacity overrides a single element's opacity, used for fade phases.
func (s *Surface) SetOpacity(id string, opacity float64) error {
	if s.disposed {
		return ErrDisposed
	}
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("render: element %q not found", id)
	}
	el.Style.Opacity = opacity
	return nil
}

// SetPosition moves a single element to a new layout position.
func (s *Surface) SetPosition(id string, pos layout.Position) error {
	if s.disposed {
		return ErrDisposed
	}
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("render: element %q not found", id)
	}
	el.X, el.Y = pos.X, pos.Y
	return nil
}

// Remove deletes an element and every edge touching it.
func (s *Surface) Remove(id string) error {
	if s.disposed {
		return ErrDisposed
	}
	delete(s.elements, id)
	delete(s.nodes, id)
	for eid, e := range s.edges {
		if e.SourceID == id || e.TargetID == id {
			delete(s.edges, eid)
		}
	}
	if s.hoverID == id {
		s.hoverID = ""
	}
	return nil
}

// Add inserts one element (with its backing node) into a live surface.
func (s *Surface) Add(n *graph.Node, pos layout.Position, style encoding.Style) error {
	if s.disposed {
		return ErrDisposed
	}
	s.elements[n.ID] = &Element{ID: n.ID, Label: n.Label, X: pos.X, Y: pos.Y, Style: style}
	s.nodes[n.ID] = n
	return nil
}

// AddEdge inserts an edge, dropping it silently if either endpoint is
// missing from the surface.
func (s *Surface) AddEdge(e *graph.Edge) error {
	if s.disposed {
		return ErrDisposed
	}
	if s.elements[e.SourceID] == nil || s.elements[e.TargetID] == nil {
		return nil
	}
	s.edges[e.ID] = &EdgeLine{ID: e.ID, SourceID: e.SourceID, TargetID: e.TargetID, Type: string(e.Type)}
	return nil
}

// Has reports whether an element with the given id is on the surface.
func (s *Surface) Has(id string) bool {
	return !s.disposed && s.elements[id] != nil
}

// ---------------------------------------------------------------------------
// Interaction
// ---------------------------------------------------------------------------

// Hover highlights the given element and its direct neighbours and dims
// everything else. An empty id clears the hover state.
func (s *Surface) Hover(id string) error {
	if s.disposed {
		return ErrDisposed
	}
	if id == "" {
		s.clearHover()
		return nil
	}
	if s.elements[id] == nil {
		return fmt.Errorf("render: element %q not found", id)
	}
	s.clearHover()
	s.hoverID = id

	keep := map[string]bool{id: true}
	for _, e := range s.edges {
		if e.SourceID == id || e.TargetID == id {
			e.Highlighted = true
			keep[e.SourceID] = true
			keep[e.TargetID] = true
		}
	}
	for eid, el := range s.elements {
		el.Highlighted = keep[eid]
		el.Dimmed = !keep[eid]
	}
	return nil
}

func (s *Surface) clearHover() {
	for _, el := range s.elements {
		el.Highlighted = false
		el.Dimmed = false
	}
	for _, e := range s.edges {
		e.Highlighted = false
	}
	s.hoverID = ""
}

// Tooltip returns the hover detail payload for the given element.
func (s *Surface) Tooltip(id string) (Tooltip, error) {
	if s.disposed {
		return Tooltip{}, ErrDisposed
	}
	n, ok := s.nodes[id]
	if !ok {
		return Tooltip{}, fmt.Errorf("render: element %q not found", id)
	}
	return TooltipFor(n), nil
}

// Pan shifts the viewport by the given screen-space delta.
func (s *Surface) Pan(dx, dy float64) error {
	if s.disposed {
		return ErrDisposed
	}
	s.viewport.PanX += dx
	s.viewport.PanY += dy
	return nil
}

// Zoom scales the viewport by factor, clamped to [minScale, maxScale].
func (s *Surface) Zoom(factor float64) error {
	if s.disposed {
		return ErrDisposed
	}
	scale := s.viewport.Scale * factor
	if scale < minScale {
		scale = minScale
	}
	if scale > maxScale {
		scale = maxScale
	}
	s.viewport.Scale = scale
	return nil
}

// ---------------------------------------------------------------------------
// Scene snapshot
// ---------------------------------------------------------------------------

// Scene returns a serialisable snapshot of the surface. Elements and
// edges are sorted by ID so identical surface state always serialises
// identically.
func (s *Surface) Scene() Scene {
	if s.disposed || len(s.elements) == 0 {
		return Scene{
			Viewport: s.viewport,
			Empty:    true,
			Message:  "no nodes match current filters",
		}
	}

	els := make([]*Element, 0, len(s.elements))
	for _, el := range s.elements {
		els = append(els, el)
	}
	sort.Slice(els, func(i, j int) bool { return els[i].ID < els[j].ID })

	edges := make([]*EdgeLine, 0, len(s.edges))
	for _, e := range s.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	return Scene{Elements: els, Edges: edges, Viewport: s.viewport}
}
