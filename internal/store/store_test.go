package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drishti/drishti-viz/internal/graph"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() *graph.Snapshot {
	return &graph.Snapshot{
		Nodes: []*graph.Node{
			{ID: "n1", Label: "app", Type: graph.NodeTypeModule, FilePath: "src/app.py"},
			{ID: "n2", Label: "handler", Type: graph.NodeTypeFunction, FilePath: "src/api.py",
				StartLine: 10, EndLine: 42, CyclomaticComplexity: 7, LinesOfCode: 33},
			{ID: "n3", Label: "Parser", Type: graph.NodeTypeClass, FilePath: "src/parse.py"},
		},
		Edges: []*graph.Edge{
			{ID: "e1", SourceID: "n1", TargetID: "n2", Type: graph.EdgeTypeImports},
			{ID: "e2", SourceID: "n2", TargetID: "n3", Type: graph.EdgeTypeCalls},
		},
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must not reapply migrations.
	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	var applied int
	err = s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	require.NoError(t, err)
	assert.Equal(t, len(Migrations), applied)
}

func TestRepositoryCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "my-service", "payments backend")
	require.NoError(t, err)
	assert.NotEmpty(t, repo.ID)

	got, err := s.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, "my-service", got.Name)
	assert.Equal(t, "payments backend", got.Description)
	assert.Zero(t, got.NodeCount)

	t.Run("explicit id", func(t *testing.T) {
		r, err := s.CreateRepository(ctx, "fixed-id", "another", "")
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", r.ID)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := s.CreateRepository(ctx, "", "my-service", "")
		assert.Error(t, err)
	})

	t.Run("list ordered by name", func(t *testing.T) {
		repos, err := s.ListRepositories(ctx)
		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "another", repos[0].Name)
		assert.Equal(t, "my-service", repos[1].Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteRepository(ctx, "fixed-id"))
		_, err := s.GetRepository(ctx, "fixed-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing rows", func(t *testing.T) {
		_, err := s.GetRepository(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteRepository(ctx, "nope"), ErrNotFound)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "svc", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, sampleSnapshot()))

	snap, err := s.LoadSnapshot(ctx, repo.ID)
	require.NoError(t, err)

	// Insertion order survives the round trip.
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "n1", snap.Nodes[0].ID)
	assert.Equal(t, "n3", snap.Nodes[2].ID)

	n2 := snap.Nodes[1]
	assert.Equal(t, "handler", n2.Label)
	assert.Equal(t, graph.NodeTypeFunction, n2.Type)
	assert.Equal(t, 10, n2.StartLine)
	assert.Equal(t, 42, n2.EndLine)
	assert.Equal(t, 7, n2.CyclomaticComplexity)
	assert.Equal(t, 33, n2.LinesOfCode)

	require.Len(t, snap.Edges, 2)
	assert.Equal(t, graph.EdgeTypeImports, snap.Edges[0].Type)

	got, err := s.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NodeCount)
	assert.Equal(t, 2, got.EdgeCount)
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "svc", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, sampleSnapshot()))

	replacement := &graph.Snapshot{
		Nodes: []*graph.Node{
			{ID: "x1", Label: "fresh", Type: graph.NodeTypeModule, FilePath: "pkg/fresh.py"},
		},
	}
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, replacement))

	snap, err := s.LoadSnapshot(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "x1", snap.Nodes[0].ID)
	assert.Empty(t, snap.Edges)
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "svc", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, sampleSnapshot()))
	require.NoError(t, s.DeleteRepository(ctx, repo.ID))

	var nodes, edges int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes))
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges))
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestSearchNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "svc", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, sampleSnapshot()))

	t.Run("case-insensitive substring", func(t *testing.T) {
		hits, err := s.SearchNodes(ctx, repo.ID, "PARS", 0)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Parser", hits[0].Label)
	})

	t.Run("limit", func(t *testing.T) {
		hits, err := s.SearchNodes(ctx, repo.ID, "a", 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("no match", func(t *testing.T) {
		hits, err := s.SearchNodes(ctx, repo.ID, "zzz", 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("scoped to repository", func(t *testing.T) {
		other, err := s.CreateRepository(ctx, "", "other", "")
		require.NoError(t, err)
		hits, err := s.SearchNodes(ctx, other.ID, "handler", 0)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.CreateRepository(ctx, "", "svc", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, repo.ID, sampleSnapshot()))

	stats, err := s.Stats(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 2, stats.TotalEdges)
	assert.Equal(t, []TypeCount{
		{Type: "class", Count: 1},
		{Type: "function", Count: 1},
		{Type: "module", Count: 1},
	}, stats.NodesByType)
	assert.Equal(t, []TypeCount{
		{Type: "calls", Count: 1},
		{Type: "imports", Count: 1},
	}, stats.EdgesByType)
}
