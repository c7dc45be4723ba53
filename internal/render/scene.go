// Package render owns the drawing surface: positioned, styled elements
// plus the interaction state layered on them (hover highlighting, pan and
// zoom, tooltips). Exactly one owner — the transition controller — may
// mutate a surface at a time; the surface itself carries no locking.
package render

import (
	"fmt"

	"github.com/drishti/drishti-viz/internal/encoding"
	"github.com/drishti/drishti-viz/internal/graph"
)

// ---------------------------------------------------------------------------
// Scene types
// ---------------------------------------------------------------------------

// Element is one drawable node.
type Element struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Style encoding.Style `json:"style"`

	// Interaction state.
	Highlighted bool `json:"highlighted,omitempty"`
	Dimmed      bool `json:"dimmed,omitempty"`
}

// EdgeLine is one drawable edge between two elements.
type EdgeLine struct {
	ID          string `json:"id"`
	SourceID    string `json:"source"`
	TargetID    string `json:"target"`
	Type        string `json:"type"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// Viewport is the pan/zoom transform applied to the whole scene.
type Viewport struct {
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
	Scale float64 `json:"scale"`
}

// Scene is a serialisable snapshot of the surface, handed to clients for
// drawing. Empty is the explicit zero-nodes state — the only error
// surface an end user ever sees.
type Scene struct {
	Elements []*Element  `json:"elements"`
	Edges    []*EdgeLine `json:"edges"`
	Viewport Viewport    `json:"viewport"`
	Empty    bool        `json:"empty"`
	Message  string      `json:"message,omitempty"`
}

// ---------------------------------------------------------------------------
// Tooltip
// ---------------------------------------------------------------------------

// Tooltip is the hover detail payload for one node.
type Tooltip struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Location    string `json:"location,omitempty"`
	Complexity  int    `json:"complexity,omitempty"`
	LinesOfCode int    `json:"lines_of_code,omitempty"`
	InDegree    int    `json:"in_degree"`
	OutDegree   int    `json:"out_degree"`
	Depth       int    `json:"depth"`
	Descendants int    `json:"descendants"`
}

// TooltipFor builds the tooltip payload from an annotated node.
func TooltipFor(n *graph.Node) Tooltip {
	t := Tooltip{
		ID:          n.ID,
		Label:       n.Label,
		Type:        string(n.Type),
		Complexity:  n.CyclomaticComplexity,
		LinesOfCode: n.LinesOfCode,
		InDegree:    n.IncomingEdges,
		OutDegree:   n.OutgoingEdges,
		Depth:       n.Depth,
		Descendants: n.DescendantCount,
	}
	if n.FilePath != "" {
		t.Location = fmt.Sprintf("%s:%d-%d", n.FilePath, n.StartLine, n.EndLine)
	}
	return t
}
