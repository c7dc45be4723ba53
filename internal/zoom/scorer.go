// Package zoom implements semantic zoom: progressive disclosure of graph
// nodes ranked by a composite importance score rather than literal spatial
// zoom. The scorer ranks nodes, the filter keeps the top percentage.
package zoom

import (
	"sort"

	"github.com/drishti/drishti-viz/internal/graph"
)

// Normalisation caps. Metrics are divided by these and clamped to [0,1]
// before weighting, so a single outlier node cannot dominate the ranking.
const (
	maxComplexity  = 100.0
	maxLinesOfCode = 500.0
	maxConnections = 100.0
)

// ---------------------------------------------------------------------------
// Weights
// ---------------------------------------------------------------------------

// Weights controls the relative contribution of each metric to the
// composite score. Values are relative, not probabilities — they need not
// sum to 1. Negative values are treated as 0.
type Weights struct {
	Complexity  float64 `json:"complexity"`
	LinesOfCode float64 `json:"loc"`
	Connections float64 `json:"connections"`
}

// DefaultWeights weighs all three metrics equally.
func DefaultWeights() Weights {
	return Weights{Complexity: 1, LinesOfCode: 1, Connections: 1}
}

func (w Weights) sanitised() Weights {
	if w.Complexity < 0 {
		w.Complexity = 0
	}
	if w.LinesOfCode < 0 {
		w.LinesOfCode = 0
	}
	if w.Connections < 0 {
		w.Connections = 0
	}
	return w
}

// ---------------------------------------------------------------------------
// ScoredNode
// ---------------------------------------------------------------------------

// ScoredNode pairs a graph node with its composite score and its original
// position in the snapshot. The index is the tie-breaker that keeps
// equal-score ordering deterministic across runs.
type ScoredNode struct {
	Node  *graph.Node `json:"node"`
	Score float64     `json:"score"`
	Index int         `json:"index"`
}

// ---------------------------------------------------------------------------
// Score
// ---------------------------------------------------------------------------

// Score computes the composite importance score for a node.
//
// Entry-point (module) nodes always score 1.0: they are the structural
// anchors of the tree and must survive filtering regardless of metrics.
// For every other node the score is the weighted blend of normalised
// complexity, lines of code and total degree, scaled by the weight sum so
// the result stays within [0,1] for any non-negative weights. Missing
// metrics contribute 0. Pure and deterministic for identical inputs.
func Score(n *graph.Node, w Weights) float64 {
	if n.IsEntryPoint() {
		return 1.0
	}
	w = w.sanitised()
	sum := w.Complexity + w.LinesOfCode + w.Connections
	if sum == 0 {
		return 0
	}
	s := w.Complexity*norm(float64(n.CyclomaticComplexity), maxComplexity) +
		w.LinesOfCode*norm(float64(n.LinesOfCode), maxLinesOfCode) +
		w.Connections*norm(float64(n.TotalEdges), maxConnections)
	return clamp01(s / sum)
}

// ScoreAll scores every node and returns the result sorted by score
// descending, with ties broken by original input order (stable).
func ScoreAll(nodes []*graph.Node, w Weights) []ScoredNode {
	scored := make([]ScoredNode, len(nodes))
	for i, n := range nodes {
		scored[i] = ScoredNode{Node: n, Score: Score(n, w), Index: i}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func norm(v, max float64) float64 {
	if v <= 0 {
		return 0
	}
	return clamp01(v / max)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
