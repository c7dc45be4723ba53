// Package encoding maps node attributes to visual style — fill colour and
// size — per view mode. Dispatch is an exhaustive switch over the ViewMode
// enum, so an unknown mode is a compile-visible default rather than a
// silent fall-through on a typo'd string.
package encoding

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/layout"
)

// Node size bounds in pixels. Every size input is clamped to its metric
// cap before scaling so outlier nodes cannot dominate the canvas.
const (
	minNodeSize = 8.0
	maxNodeSize = 40.0

	sizeCapLinesOfCode = 500.0
	sizeCapDegree      = 100.0
	sizeCapDescendants = 50.0
)

// Complexity colour bands, calm to alarming.
const (
	colorComplexityLow      = "#2ecc71" // ≤ 10
	colorComplexityModerate = "#f1c40f" // ≤ 20
	colorComplexityHigh     = "#e67e22" // ≤ 30
	colorComplexitySevere   = "#e74c3c" // > 30
)

// Hubs gradient anchors keyed by incoming/(incoming+outgoing).
const (
	colorDependsOnOthers = "#e67e22" // ratio → 0: mostly outgoing
	colorNeutralHub      = "#95a5a6" // balanced
	colorDependedUpon    = "#2980b9" // ratio → 1: mostly incoming
)

// Hierarchy shading.
const (
	colorHierarchyRoot  = "#1abc9c"
	colorHierarchyBase  = "#3498db"
	hierarchyDarkenStep = 0.13 // per level below 1
	hierarchyMinShade   = 0.35 // darkness floor
)

// clusterPalette colours folder clusters in the force and matrix views.
var clusterPalette = []string{
	"#3498db", "#e74c3c", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#34495e", "#d35400", "#16a085",
}

// ---------------------------------------------------------------------------
// Style
// ---------------------------------------------------------------------------

// Style is the visual treatment of one node: fill colour, diameter in
// pixels, and opacity. Opacity drops below 1 only for nodes the focus BFS
// never reached.
type Style struct {
	Fill    string  `json:"fill"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
}

// ---------------------------------------------------------------------------
// ForNode
// ---------------------------------------------------------------------------

// ForNode computes the style for a node under the given view mode. The
// node must already carry its derived attributes (degree, depth,
// descendant count) from the analysis pass.
func ForNode(mode layout.ViewMode, n *graph.Node) Style {
	var s Style
	switch mode {
	case layout.ModeComplexity:
		s = complexityStyle(n)
	case layout.ModeHubs:
		s = hubsStyle(n)
	case layout.ModeHierarchy:
		s = hierarchyStyle(n)
	case layout.ModeForce, layout.ModeMatrix:
		s = clusterStyle(n)
	default:
		s = hierarchyStyle(n)
	}
	s.Opacity = 1.0
	if n.Depth == analysis.DepthUnreached {
		s.Opacity = 0.25
	}
	return s
}

// complexityStyle bands fill by cyclomatic complexity and scales size with
// lines of code.
func complexityStyle(n *graph.Node) Style {
	var fill string
	switch cx := n.CyclomaticComplexity; {
	case cx <= 10:
		fill = colorComplexityLow
	case cx <= 20:
		fill = colorComplexityModerate
	case cx <= 30:
		fill = colorComplexityHigh
	default:
		fill = colorComplexitySevere
	}
	return Style{Fill: fill, Size: scaleSize(float64(n.LinesOfCode), sizeCapLinesOfCode)}
}

// hubsStyle interpolates along the three-zone gradient keyed by the share
// of incoming edges and scales size with total degree.
func hubsStyle(n *graph.Node) Style {
	ratio := 0.5
	if n.TotalEdges > 0 {
		ratio = float64(n.IncomingEdges) / float64(n.TotalEdges)
	}
	var fill string
	if ratio <= 0.5 {
		fill = lerpHex(colorDependsOnOthers, colorNeutralHub, ratio*2)
	} else {
		fill = lerpHex(colorNeutralHub, colorDependedUpon, (ratio-0.5)*2)
	}
	return Style{Fill: fill, Size: scaleSize(float64(n.TotalEdges), sizeCapDegree)}
}

// hierarchyStyle shades fill by depth — root, level 1, then progressively
// darker down to a floor — and scales size with descendant count.
func hierarchyStyle(n *graph.Node) Style {
	size := scaleSize(float64(n.DescendantCount), sizeCapDescendants)
	switch {
	case n.Depth == 0:
		return Style{Fill: colorHierarchyRoot, Size: size}
	case n.Depth == 1 || n.Depth == analysis.DepthUnreached:
		return Style{Fill: colorHierarchyBase, Size: size}
	default:
		shade := 1.0 - float64(n.Depth-1)*hierarchyDarkenStep
		if shade < hierarchyMinShade {
			shade = hierarchyMinShade
		}
		return Style{Fill: darkenHex(colorHierarchyBase, shade), Size: size}
	}
}

// clusterStyle colours by folder cluster; metric encodings step aside in
// the force and matrix views.
func clusterStyle(n *graph.Node) Style {
	return Style{
		Fill: ClusterColor(n.Folder()),
		Size: scaleSize(float64(n.TotalEdges), sizeCapDegree),
	}
}

// ClusterColor deterministically assigns a palette colour to a folder key.
func ClusterColor(folder string) string {
	h := fnv.New32a()
	h.Write([]byte(folder))
	return clusterPalette[int(h.Sum32())%len(clusterPalette)]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// scaleSize clamps v to [0, cap] and maps it linearly into the pixel range.
func scaleSize(v, cap float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > cap {
		v = cap
	}
	return minNodeSize + (maxNodeSize-minNodeSize)*(v/cap)
}

// lerpHex linearly interpolates between two "#rrggbb" colours; t ∈ [0,1].
func lerpHex(from, to string, t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	fr, fg, fb := splitHex(from)
	tr, tg, tb := splitHex(to)
	lerp := func(a, b int) int { return a + int(float64(b-a)*t) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(fr, tr), lerp(fg, tg), lerp(fb, tb))
}

// darkenHex multiplies each channel of a "#rrggbb" colour by factor.
func darkenHex(hex string, factor float64) string {
	r, g, b := splitHex(hex)
	scale := func(c int) int {
		v := int(float64(c) * factor)
		if v > 255 {
			v = 255
		}
		return v
	}
	return fmt.Sprintf("#%02x%02x%02x", scale(r), scale(g), scale(b))
}

// splitHex parses "#rrggbb" into channels. Malformed input yields black
// rather than an error; colours here are compile-time constants.
func splitHex(hex string) (int, int, int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	r, _ := strconv.ParseInt(hex[1:3], 16, 32)
	g, _ := strconv.ParseInt(hex[3:5], 16, 32)
	b, _ := strconv.ParseInt(hex[5:7], 16, 32)
	return int(r), int(g), int(b)
}
