// Package view orchestrates the full visualization pipeline. A Manager
// owns one snapshot and one set of view parameters; every parameter change
// re-derives the visible subgraph (zoom filter, refinements, analysis,
// layout, encoding) and hands the resulting frame to the transition
// controller. All public methods are safe for concurrent use.
package view

import (
	"fmt"
	"sync"
	"time"

	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
	"github.com/drishti/drishti-viz/internal/render"
	"github.com/drishti/drishti-viz/internal/transition"
	"github.com/drishti/drishti-viz/internal/zoom"
)

// ---------------------------------------------------------------------------
// Params
// ---------------------------------------------------------------------------

// Params is the complete set of user-controllable view parameters.
type Params struct {
	Mode    layout.ViewMode `json:"view_mode"`
	Zoom    int             `json:"zoom_level"`
	Weights zoom.Weights    `json:"weights"`
	FocusID string          `json:"focus_node_id,omitempty"`
	Search  string          `json:"search_query,omitempty"`
	Folder  string          `json:"folder_filter,omitempty"`
	Type    graph.NodeType  `json:"type_filter,omitempty"`
}

// DefaultParams is the initial view: full hierarchy, equal weights.
func DefaultParams() Params {
	return Params{
		Mode:    layout.ModeHierarchy,
		Zoom:    100,
		Weights: zoom.DefaultWeights(),
	}
}

// Validate rejects parameters no pipeline stage can serve.
func (p Params) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("unknown view mode %q", p.Mode)
	}
	if p.Zoom < 0 || p.Zoom > 100 {
		return fmt.Errorf("zoom level %d out of range [0,100]", p.Zoom)
	}
	if p.Type != "" && !p.Type.Valid() {
		return fmt.Errorf("unknown node type %q", p.Type)
	}
	return nil
}

func (p Params) refinement() zoom.Refinement {
	return zoom.Refinement{Search: p.Search, Folder: p.Folder, Type: p.Type}
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is the renderable outcome of one pipeline run, served to clients.
type State struct {
	Params       Params               `json:"params"`
	Scene        render.Scene         `json:"scene"`
	Matrix       *layout.MatrixResult `json:"matrix,omitempty"`
	VisibleNodes int                  `json:"visible_nodes"`
	VisibleEdges int                  `json:"visible_edges"`
	TotalNodes   int                  `json:"total_nodes"`
	TotalEdges   int                  `json:"total_edges"`
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

// Manager drives the pipeline for a single snapshot. It serializes
// parameter changes under a mutex; the transition controller underneath
// handles supersession when changes arrive faster than animations finish.
type Manager struct {
	mu         sync.Mutex
	snapshot   *graph.Snapshot
	params     Params
	controller *transition.Controller

	matrix   *layout.MatrixResult
	analysis *analysis.Result
	visible  []*graph.Node
	edges    []*graph.Edge
	byID     map[string]*graph.Node
}

// NewManager creates a manager over the given snapshot and computes the
// initial view from default parameters.
func NewManager(snap *graph.Snapshot, sched transition.Scheduler, phase time.Duration) *Manager {
	m := &Manager{
		snapshot:   snap,
		params:     DefaultParams(),
		controller: transition.NewController(sched, phase),
	}
	m.mu.Lock()
	m.recomputeLocked(true)
	m.mu.Unlock()
	return m
}

// OnTransition registers an observer for completed transitions.
func (m *Manager) OnTransition(fn func(transition.Event)) {
	m.controller.OnEvent = fn
}

// Params returns a copy of the current view parameters.
func (m *Manager) Params() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// SetSnapshot swaps the underlying snapshot and rebuilds the view from
// scratch. Diffing across snapshots is meaningless, so this path never
// animates.
func (m *Manager) SetSnapshot(snap *graph.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snap
	m.params.FocusID = ""
	m.recomputeLocked(true)
}

// Update applies a full parameter set and re-runs the pipeline.
func (m *Manager) Update(p Params) (State, error) {
	if err := p.Validate(); err != nil {
		return State{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = p
	m.recomputeLocked(false)
	return m.stateLocked(), nil
}

// SetZoom changes only the zoom level.
func (m *Manager) SetZoom(percent int) (State, error) {
	m.mu.Lock()
	p := m.params
	m.mu.Unlock()
	p.Zoom = percent
	return m.Update(p)
}

// SetMode changes only the view mode.
func (m *Manager) SetMode(mode layout.ViewMode) (State, error) {
	m.mu.Lock()
	p := m.params
	m.mu.Unlock()
	p.Mode = mode
	return m.Update(p)
}

// SetWeights changes only the scoring weights.
func (m *Manager) SetWeights(w zoom.Weights) (State, error) {
	m.mu.Lock()
	p := m.params
	m.mu.Unlock()
	p.Weights = w
	return m.Update(p)
}

// Focus recentres the depth analysis on the given node, as when a user
// clicks a node. The node must currently be visible.
func (m *Manager) Focus(id string) (State, error) {
	m.mu.Lock()
	if _, ok := m.byID[id]; !ok {
		m.mu.Unlock()
		return State{}, fmt.Errorf("focus node %q is not visible", id)
	}
	p := m.params
	m.mu.Unlock()
	p.FocusID = id
	return m.Update(p)
}

// State returns the current renderable state without changing anything.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Node returns the annotated visible node with the given ID.
func (m *Manager) Node(id string) (*graph.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	return n, ok
}

// MatrixStats computes the adjacency-matrix view over the current visible
// set without changing the active view mode.
func (m *Manager) MatrixStats() *layout.MatrixResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.matrix != nil {
		return m.matrix
	}
	return layout.NewMatrix().Compute(m.visible, m.edges, m.analysis).Matrix
}

// Analysis returns the derived attributes of the current visible set.
func (m *Manager) Analysis() *analysis.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analysis
}

// ---------------------------------------------------------------------------
// Interaction passthrough
// ---------------------------------------------------------------------------

// Hover highlights a node and its direct neighbours.
func (m *Manager) Hover(id string) error { return m.controller.Hover(id) }

// Tooltip returns the metric tooltip for a visible node.
func (m *Manager) Tooltip(id string) (render.Tooltip, error) { return m.controller.Tooltip(id) }

// Pan shifts the viewport.
func (m *Manager) Pan(dx, dy float64) error { return m.controller.Pan(dx, dy) }

// Zoom scales the viewport. Distinct from the semantic zoom level.
func (m *Manager) Zoom(factor float64) error { return m.controller.Zoom(factor) }

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// recomputeLocked runs the full pipeline for the current snapshot and
// parameters and pushes the frame to the transition controller. Caller
// holds m.mu.
func (m *Manager) recomputeLocked(rebuild bool) {
	nodes := m.snapshot.CloneNodes()
	edges := m.snapshot.Edges

	// The connection term of the zoom score counts edges over the full
	// snapshot, before any trimming. Annotate later overwrites these with
	// counts over the surviving edge set.
	degrees := make(map[string]int, len(nodes))
	for _, e := range edges {
		degrees[e.SourceID]++
		degrees[e.TargetID]++
	}
	for _, n := range nodes {
		n.TotalEdges = degrees[n.ID]
	}

	nodes, edges = zoom.Filter(nodes, edges, m.params.Zoom, m.params.Weights)
	nodes, edges = m.params.refinement().Apply(nodes, edges)

	res := analysis.Analyze(nodes, edges, m.params.FocusID)
	res.Annotate(nodes)

	lay := layout.EngineFor(m.params.Mode).Compute(nodes, edges, res)

	styles := make(map[string]encoding.Style, len(nodes))
	for _, n := range nodes {
		styles[n.ID] = encoding.ForNode(m.params.Mode, n)
	}

	positions := lay.Positions
	if positions == nil {
		positions = make(map[string]layout.Position, len(nodes))
	}

	m.visible = nodes
	m.edges = edges
	m.analysis = res
	m.matrix = lay.Matrix
	m.byID = make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		m.byID[n.ID] = n
	}

	frame := &transition.Frame{
		Nodes:     nodes,
		Edges:     edges,
		Positions: positions,
		Styles:    styles,
	}
	if rebuild {
		m.controller.Rebuild(frame)
	} else {
		m.controller.Apply(frame)
	}
}

func (m *Manager) stateLocked() State {
	return State{
		Params:       m.params,
		Scene:        m.controller.Scene(),
		Matrix:       m.matrix,
		VisibleNodes: len(m.visible),
		VisibleEdges: len(m.edges),
		TotalNodes:   len(m.snapshot.Nodes),
		TotalEdges:   len(m.snapshot.Edges),
	}
}
