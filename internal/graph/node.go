package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Node types
// ---------------------------------------------------------------------------

// NodeType represents the kind of code entity a graph node models.
type NodeType string

const (
	NodeTypeModule   NodeType = "module"
	NodeTypeClass    NodeType = "class"
	NodeTypeFunction NodeType = "function"
	NodeTypeMethod   NodeType = "method"
)

// Valid reports whether t is one of the four known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeModule, NodeTypeClass, NodeTypeFunction, NodeTypeMethod:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Node is a vertex in the code-dependency graph. It represents any
// identifiable entity in the analysed codebase — a source module, a class,
// or an individual function or method.
//
// The degree counters, Depth and DescendantCount fields are derived: they
// are recomputed from the active edge set on every view change and carry
// no meaning on a freshly loaded snapshot.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     NodeType `json:"type"`
	FilePath string   `json:"file_path,omitempty"`

	StartLine int `json:"start_line,omitempty"`
	EndLine   int `json:"end_line,omitempty"`

	// Source metrics. Absent (zero) for module and virtual nodes.
	CyclomaticComplexity int `json:"cyclomatic_complexity,omitempty"`
	LinesOfCode          int `json:"lines_of_code,omitempty"`

	// -- Derived attributes (recomputed per view change) --
	IncomingEdges   int `json:"incoming_edges"`
	OutgoingEdges   int `json:"outgoing_edges"`
	TotalEdges      int `json:"total_edges"`
	Depth           int `json:"depth"`
	DescendantCount int `json:"descendant_count"`
}

// NewNode creates a Node with the given type and label.
// If id is empty a new UUID v4 is generated.
func NewNode(id string, nodeType NodeType, label string) *Node {
	if id == "" {
		id = uuid.New().String()
	}
	return &Node{
		ID:    id,
		Type:  nodeType,
		Label: label,
	}
}

// ---------------------------------------------------------------------------
// Helper methods
// ---------------------------------------------------------------------------

// IsEntryPoint returns true when the node is a module node. Module nodes
// anchor the hierarchical tree and always survive semantic-zoom filtering.
func (n *Node) IsEntryPoint() bool {
	return n.Type == NodeTypeModule
}

// Folder returns the directory portion of the node's file path, used as
// the cluster key for the force-directed and matrix views. Nodes without
// a file path fall into the empty cluster.
func (n *Node) Folder() string {
	if n.FilePath == "" {
		return ""
	}
	dir := path.Dir(strings.ReplaceAll(n.FilePath, "\\", "/"))
	if dir == "." {
		return ""
	}
	return dir
}

// FullyQualifiedName returns a human-readable qualified name built from
// the node's file path (when available) and its label, e.g.
// "pkg/handler/handler.go::HandleRequest".
func (n *Node) FullyQualifiedName() string {
	if n.FilePath != "" {
		return fmt.Sprintf("%s::%s", n.FilePath, n.Label)
	}
	return n.Label
}
