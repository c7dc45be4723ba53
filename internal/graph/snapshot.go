package graph

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Snapshot is the complete node/edge set supplied for one repository.
// It is treated as immutable once received: every view is derived from it
// without mutating the snapshot itself. Components that need to write
// derived attributes (depth, degree, descendant counts) operate on copies
// obtained via CloneNodes.
type Snapshot struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// CloneNodes returns shallow value copies of every node in the snapshot.
// The copies are safe to annotate with derived attributes; the originals
// stay untouched.
func (s *Snapshot) CloneNodes() []*Node {
	out := make([]*Node, len(s.Nodes))
	for i, n := range s.Nodes {
		c := *n
		out[i] = &c
	}
	return out
}

// NodeByID builds an id → node lookup map over the snapshot's nodes.
func (s *Snapshot) NodeByID() map[string]*Node {
	m := make(map[string]*Node, len(s.Nodes))
	for _, n := range s.Nodes {
		m[n.ID] = n
	}
	return m
}

// EntryPoints returns every module node in the snapshot, in input order.
func (s *Snapshot) EntryPoints() []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		if n.IsEntryPoint() {
			out = append(out, n)
		}
	}
	return out
}
