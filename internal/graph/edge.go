package graph

import (
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Edge types
// ---------------------------------------------------------------------------

// EdgeType represents the kind of relationship an edge models between two
// nodes in the code-dependency graph.
type EdgeType string

const (
	EdgeTypeImports  EdgeType = "imports"
	EdgeTypeCalls    EdgeType = "calls"
	EdgeTypeContains EdgeType = "contains"
	EdgeTypeInherits EdgeType = "inherits"
)

// Valid reports whether t is one of the four known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeImports, EdgeTypeCalls, EdgeTypeContains, EdgeTypeInherits:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Edge
// ---------------------------------------------------------------------------

// Edge is a directed relationship between two Nodes.
type Edge struct {
	ID       string   `json:"id"`
	SourceID string   `json:"source"`
	TargetID string   `json:"target"`
	Type     EdgeType `json:"type"`
}

// NewEdge creates an Edge of the given type between sourceID and targetID.
// A new UUID v4 is always generated for the ID.
func NewEdge(sourceID, targetID string, edgeType EdgeType) *Edge {
	return &Edge{
		ID:       uuid.New().String(),
		SourceID: sourceID,
		TargetID: targetID,
		Type:     edgeType,
	}
}
