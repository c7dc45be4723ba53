// Package layout positions filtered graph nodes for rendering. Five
// interchangeable engines cover the view modes: a layered tree, a radial
// view centred on the focus node, concentric rings by degree, a seeded
// force simulation, and a tabular adjacency matrix.
package layout

import (
	"math"

	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// ---------------------------------------------------------------------------
// View modes
// ---------------------------------------------------------------------------

// ViewMode selects which layout engine and visual encoding drive the view.
type ViewMode string

const (
	ModeHierarchy  ViewMode = "hierarchy"
	ModeComplexity ViewMode = "complexity"
	ModeHubs       ViewMode = "hubs"
	ModeForce      ViewMode = "force"
	ModeMatrix     ViewMode = "matrix"
)

// Valid reports whether m is one of the five known view modes.
func (m ViewMode) Valid() bool {
	switch m {
	case ModeHierarchy, ModeComplexity, ModeHubs, ModeForce, ModeMatrix:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Output types
// ---------------------------------------------------------------------------

// Position is an (x, y) coordinate in layout space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is the outcome of one layout computation. Positions is populated
// by the four spatial engines; Matrix only by the adjacency-matrix engine.
type Result struct {
	Positions map[string]Position `json:"positions,omitempty"`
	Matrix    *MatrixResult       `json:"matrix,omitempty"`
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine computes node positions (or a matrix ordering) for the surviving
// node/edge set. Engines never mutate their inputs and must be
// deterministic for identical inputs; the force engine achieves this by
// seeding its random source.
type Engine interface {
	Name() string
	Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result
}

// EngineFor returns the layout engine serving the given view mode:
// the layered tree for hierarchy, radial-focus for complexity, concentric
// rings for hubs, the force simulation for force, and the adjacency
// matrix for matrix. Unknown modes fall back to the tree engine.
func EngineFor(mode ViewMode) Engine {
	switch mode {
	case ModeComplexity:
		return NewRadial()
	case ModeHubs:
		return NewConcentric()
	case ModeForce:
		return NewForce(defaultForceSeed)
	case ModeMatrix:
		return NewMatrix()
	default:
		return NewTree()
	}
}

// ---------------------------------------------------------------------------
// Placement helpers
// ---------------------------------------------------------------------------

// placeRow positions ids left-to-right on a horizontal line at y, centred
// on x=0. Already-placed ids are not overwritten.
func placeRow(positions map[string]Position, ids []string, y, spacing float64) {
	if len(ids) == 0 {
		return
	}
	startX := -float64(len(ids)-1) / 2.0 * spacing
	for i, id := range ids {
		if _, exists := positions[id]; exists {
			continue
		}
		positions[id] = Position{X: startX + float64(i)*spacing, Y: y}
	}
}

// placeRing positions ids evenly around a circle of the given radius
// centred on the origin. Already-placed ids are not overwritten.
func placeRing(positions map[string]Position, ids []string, radius float64) {
	if len(ids) == 0 {
		return
	}
	for i, id := range ids {
		if _, exists := positions[id]; exists {
			continue
		}
		angle := 2.0 * math.Pi * float64(i) / float64(len(ids))
		positions[id] = Position{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		}
	}
}
