package layout

import (
	"github.com/drishti/drishti-viz/internal/analysis"
	"github.com/drishti/drishti-viz/internal/graph"
)

// MaxMatrixNodes caps the adjacency matrix at 100 nodes; cell rendering
// is O(N²) and anything larger is unreadable anyway.
const MaxMatrixNodes = 100

// ---------------------------------------------------------------------------
// Matrix result types
// ---------------------------------------------------------------------------

// MatrixCell marks a filled cell: an edge from row node to column node.
// Circular is set when the reverse cell is also filled, i.e. the two nodes
// form a mutual dependency.
type MatrixCell struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	EdgeID   string `json:"edge_id"`
	Circular bool   `json:"circular"`
}

// MatrixResult is the tabular output of the adjacency-matrix engine.
// Rows and columns share the single Order slice.
type MatrixResult struct {
	Order []string     `json:"order"` // node IDs, row and column order
	Cells []MatrixCell `json:"cells"`

	// CircularDeps counts node pairs with edges in both directions. Each
	// pair is counted once.
	CircularDeps int `json:"circular_deps"`

	// AvgCoupling is 2·edges/nodes over the rendered subset.
	AvgCoupling float64 `json:"avg_coupling"`

	// Truncated is set when the node set exceeded MaxMatrixNodes and was
	// cut to the first hundred.
	Truncated bool `json:"truncated"`
}

// ---------------------------------------------------------------------------
// Matrix engine
// ---------------------------------------------------------------------------

// Matrix renders nodes as rows and columns in identical order with a
// filled cell per edge. It is tabular, not spatial: Compute returns an
// ordering and cell set instead of positions.
type Matrix struct{}

// NewMatrix returns the adjacency-matrix engine.
func NewMatrix() *Matrix { return &Matrix{} }

// Name implements Engine.
func (m *Matrix) Name() string { return "matrix" }

// Compute implements Engine.
func (m *Matrix) Compute(nodes []*graph.Node, edges []*graph.Edge, res *analysis.Result) *Result {
	mr := &MatrixResult{}

	subset := nodes
	if len(subset) > MaxMatrixNodes {
		subset = subset[:MaxMatrixNodes]
		mr.Truncated = true
	}

	index := make(map[string]int, len(subset))
	mr.Order = make([]string, len(subset))
	for i, n := range subset {
		mr.Order[i] = n.ID
		index[n.ID] = i
	}

	// Collapse parallel edges: one cell per (row, col), keeping the first
	// edge's ID. filled tracks occupancy for the circular sweep.
	filled := make(map[[2]int]int) // (row, col) → index into mr.Cells
	edgeCount := 0
	for _, e := range edges {
		row, okR := index[e.SourceID]
		col, okC := index[e.TargetID]
		if !okR || !okC || row == col {
			continue
		}
		edgeCount++
		key := [2]int{row, col}
		if _, dup := filled[key]; dup {
			continue
		}
		filled[key] = len(mr.Cells)
		mr.Cells = append(mr.Cells, MatrixCell{Row: row, Col: col, EdgeID: e.ID})
	}

	// Flag mutual pairs. Counting (i,j) and (j,i) both would double every
	// pair, so only the i<j orientation increments the counter.
	for key, ci := range filled {
		if rj, ok := filled[[2]int{key[1], key[0]}]; ok {
			mr.Cells[ci].Circular = true
			mr.Cells[rj].Circular = true
			if key[0] < key[1] {
				mr.CircularDeps++
			}
		}
	}

	if len(subset) > 0 {
		mr.AvgCoupling = 2.0 * float64(edgeCount) / float64(len(subset))
	}

	return &Result{Matrix: mr}
}
