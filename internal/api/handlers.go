package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/drishti/drishti-viz/internal/graph"
	"github.com/drishti/drishti-viz/internal/render"
	"github.com/drishti/drishti-viz/internal/store"
)

// ---------------------------------------------------------------------------
// Snapshot import — POST /api/repos
// ---------------------------------------------------------------------------

// importRequest is the snapshot upload payload.
type importRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Nodes       []*graph.Node `json:"nodes"`
	Edges       []*graph.Edge `json:"edges"`
}

// validate rejects payloads no pipeline stage can serve: unknown types,
// duplicate node IDs, edges referencing absent nodes.
func (req *importRequest) validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Nodes) == 0 {
		return fmt.Errorf("snapshot has no nodes")
	}

	seen := make(map[string]bool, len(req.Nodes))
	for i, n := range req.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d has no id", i)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if !n.Type.Valid() {
			return fmt.Errorf("node %q has unknown type %q", n.ID, n.Type)
		}
	}
	for i, e := range req.Edges {
		if !e.Type.Valid() {
			return fmt.Errorf("edge %d has unknown type %q", i, e.Type)
		}
		if !seen[e.SourceID] || !seen[e.TargetID] {
			return fmt.Errorf("edge %d references absent node", i)
		}
	}
	return nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_SNAPSHOT", err.Error())
		return
	}

	// Edges without IDs get generated ones; node IDs are caller-owned.
	for i, e := range req.Edges {
		if e.ID == "" {
			req.Edges[i] = graph.NewEdge(e.SourceID, e.TargetID, e.Type)
		}
	}

	ctx := r.Context()
	repo, err := s.store.CreateRepository(ctx, "", req.Name, req.Description)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	snap := &graph.Snapshot{Nodes: req.Nodes, Edges: req.Edges}
	if err := s.store.SaveSnapshot(ctx, repo.ID, snap); err != nil {
		writeStoreError(w, err)
		return
	}
	repo.NodeCount = len(snap.Nodes)
	repo.EdgeCount = len(snap.Edges)

	slog.Info("snapshot imported",
		"repo", repo.Name,
		"repo_id", repo.ID,
		"nodes", repo.NodeCount,
		"edges", repo.EdgeCount,
	)
	s.sse.Broadcast(SSEEvent{Event: EventSnapshotImported, Data: repo})
	writeJSON(w, http.StatusCreated, repo)
}

// ---------------------------------------------------------------------------
// Repository endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.store.ListRepositories(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if repos == nil {
		repos = []*store.Repository{}
	}
	writeJSON(w, http.StatusOK, repos)
}

func (s *Server) handleGetRepo(w http.ResponseWriter, r *http.Request) {
	repo, err := s.store.GetRepository(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteRepository(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.dropView(id)
	s.sse.Broadcast(SSEEvent{Event: EventRepoDeleted, Data: map[string]string{"repo_id": id}})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "repo_id": id})
}

func (s *Server) handleRepoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	nodes, err := s.store.SearchNodes(r.Context(), r.PathValue("id"), q, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if nodes == nil {
		nodes = []*graph.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": nodes})
}

// ---------------------------------------------------------------------------
// View endpoints
// ---------------------------------------------------------------------------

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mgr.State())
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// The request body patches the current parameters; fields left out
	// keep their current values.
	params := mgr.Params()
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body: "+err.Error())
		return
	}

	state, err := mgr.Update(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAMS", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var req struct {
		NodeID string `json:"node_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "node_id is required")
		return
	}

	state, err := mgr.Focus(req.NodeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NODE_NOT_VISIBLE", err.Error())
		return
	}
	s.sse.Broadcast(SSEEvent{Event: EventFocusChanged, Data: map[string]string{
		"repo_id": r.PathValue("id"),
		"node_id": req.NodeID,
	}})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mgr.MatrixStats())
}

// nodeDetail is the response for the node-detail endpoint: the annotated
// node plus its rendered tooltip.
type nodeDetail struct {
	Node    *graph.Node     `json:"node"`
	Tooltip *render.Tooltip `json:"tooltip,omitempty"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	mgr, err := s.viewFor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	nodeID := r.PathValue("nodeID")
	n, ok := mgr.Node(nodeID)
	if !ok {
		writeError(w, http.StatusNotFound, "NODE_NOT_VISIBLE",
			fmt.Sprintf("node %q is not in the current view", nodeID))
		return
	}

	detail := nodeDetail{Node: n}
	if tip, err := mgr.Tooltip(nodeID); err == nil {
		detail.Tooltip = &tip
	}
	writeJSON(w, http.StatusOK, detail)
}
