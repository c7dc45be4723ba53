// Package store persists dependency-graph snapshots in SQLite. A snapshot
// is the authoritative node/edge set for one repository; the view pipeline
// reads it, clones it, and never writes derived attributes back.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/drishti/drishti-viz/internal/graph"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

// Repository identifies one analysed codebase; each repository owns
// exactly one snapshot.
type Repository struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
}

// TypeCount is a per-type tally used inside SnapshotStats.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// SnapshotStats summarises one repository's stored snapshot.
type SnapshotStats struct {
	NodesByType []TypeCount `json:"nodes_by_type"`
	EdgesByType []TypeCount `json:"edges_by_type"`
	TotalNodes  int         `json:"total_nodes"`
	TotalEdges  int         `json:"total_edges"`
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Store is a thread-safe wrapper around a SQLite database that persists
// repository snapshots.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// ============================= LIFECYCLE ==================================

// New opens (or creates) the SQLite database at dbPath, applies the
// recommended PRAGMAs, runs any pending migrations and returns a ready
// *Store.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db %q: %w", dbPath, err)
	}

	// Only one writer at a time for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: set pragma %q: %w", p, err)
		}
	}

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ============================ MIGRATIONS ==================================

// migrate ensures the schema_migrations table exists, then applies every
// unapplied Migration from the package-level Migrations slice.
func (s *Store) migrate() error {
	const createMigTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := s.db.Exec(createMigTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range Migrations {
		var exists int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration v%d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// ======================= REPOSITORY OPERATIONS ============================

// CreateRepository registers a new repository. If id is empty a UUID v4
// is generated.
func (s *Store) CreateRepository(ctx context.Context, id, name, description string) (*Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	const q = `INSERT INTO repositories (id, name, description) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, id, name, description); err != nil {
		return nil, fmt.Errorf("store: create repository %q: %w", name, err)
	}
	return &Repository{ID: id, Name: name, Description: description, CreatedAt: time.Now()}, nil
}

// GetRepository retrieves a repository with its node/edge counts.
func (s *Store) GetRepository(ctx context.Context, id string) (*Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT r.id, r.name, r.description, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM nodes WHERE repo_id = r.id),
		(SELECT COUNT(*) FROM edges WHERE repo_id = r.id)
		FROM repositories r WHERE r.id = ?`

	r := &Repository{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt,
		&r.NodeCount, &r.EdgeCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get repository %q: %w", id, err)
	}
	return r, nil
}

// ListRepositories returns all repositories ordered by name.
func (s *Store) ListRepositories(ctx context.Context) ([]*Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT r.id, r.name, r.description, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM nodes WHERE repo_id = r.id),
		(SELECT COUNT(*) FROM edges WHERE repo_id = r.id)
		FROM repositories r ORDER BY r.name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list repositories: %w", err)
	}
	defer rows.Close()

	var result []*Repository
	for rows.Next() {
		r := &Repository{}
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt,
			&r.NodeCount, &r.EdgeCount,
		); err != nil {
			return nil, fmt.Errorf("store: scan repository row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeleteRepository removes a repository; its nodes and edges cascade.
func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM repositories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete repository %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ======================== SNAPSHOT OPERATIONS =============================

// SaveSnapshot replaces the repository's stored snapshot atomically: the
// previous node/edge set is deleted and the new one inserted in a single
// transaction.
func (s *Store) SaveSnapshot(ctx context.Context, repoID string, snap *graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx (save snapshot): %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE repo_id = ?", repoID); err != nil {
		return fmt.Errorf("store: clear nodes for %q: %w", repoID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE repo_id = ?", repoID); err != nil {
		return fmt.Errorf("store: clear edges for %q: %w", repoID, err)
	}

	if err := insertNodes(ctx, tx, repoID, snap.Nodes); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, repoID, snap.Edges); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE repositories SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", repoID,
	); err != nil {
		return fmt.Errorf("store: touch repository %q: %w", repoID, err)
	}
	return tx.Commit()
}

func insertNodes(ctx context.Context, tx *sql.Tx, repoID string, nodes []*graph.Node) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes
		(id, repo_id, label, type, file_path, start_line, end_line,
		 cyclomatic_complexity, lines_of_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert-node stmt: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx,
			n.ID, repoID, n.Label, string(n.Type), n.FilePath,
			n.StartLine, n.EndLine, n.CyclomaticComplexity, n.LinesOfCode,
		); err != nil {
			return fmt.Errorf("store: insert node %q: %w", n.ID, err)
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, repoID string, edges []*graph.Edge) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges
		(id, repo_id, source_id, target_id, type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert-edge stmt: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx,
			e.ID, repoID, e.SourceID, e.TargetID, string(e.Type),
		); err != nil {
			return fmt.Errorf("store: insert edge %q: %w", e.ID, err)
		}
	}
	return nil
}

// LoadSnapshot reads the full node/edge set for a repository.
func (s *Store) LoadSnapshot(ctx context.Context, repoID string) (*graph.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const nodesQ = `SELECT id, label, type, file_path, start_line, end_line,
		cyclomatic_complexity, lines_of_code
		FROM nodes WHERE repo_id = ? ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, nodesQ, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: load nodes for %q: %w", repoID, err)
	}
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}

	const edgesQ = `SELECT id, source_id, target_id, type
		FROM edges WHERE repo_id = ? ORDER BY rowid`
	erows, err := s.db.QueryContext(ctx, edgesQ, repoID)
	if err != nil {
		return nil, fmt.Errorf("store: load edges for %q: %w", repoID, err)
	}
	defer erows.Close()

	var edges []*graph.Edge
	for erows.Next() {
		e := &graph.Edge{}
		if err := erows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type); err != nil {
			return nil, fmt.Errorf("store: scan edge row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := erows.Err(); err != nil {
		return nil, err
	}
	return &graph.Snapshot{Nodes: nodes, Edges: edges}, nil
}

// scanNodes is a shared helper that scans rows into []*graph.Node.
func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	defer rows.Close()
	var result []*graph.Node
	for rows.Next() {
		n := &graph.Node{}
		if err := rows.Scan(
			&n.ID, &n.Label, &n.Type, &n.FilePath, &n.StartLine, &n.EndLine,
			&n.CyclomaticComplexity, &n.LinesOfCode,
		); err != nil {
			return nil, fmt.Errorf("store: scan node row: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// SearchNodes returns up to limit nodes whose label matches the query as a
// case-insensitive substring, ordered by label.
func (s *Store) SearchNodes(ctx context.Context, repoID, query string, limit int) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, label, type, file_path, start_line, end_line,
		cyclomatic_complexity, lines_of_code
		FROM nodes WHERE repo_id = ? AND label LIKE ? COLLATE NOCASE
		ORDER BY label LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, repoID, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("store: search nodes %q: %w", query, err)
	}
	return scanNodes(rows)
}

// Stats tallies the stored snapshot by node and edge type.
func (s *Store) Stats(ctx context.Context, repoID string) (*SnapshotStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &SnapshotStats{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM nodes WHERE repo_id = ? GROUP BY type ORDER BY type", repoID)
	if err != nil {
		return nil, fmt.Errorf("store: node stats for %q: %w", repoID, err)
	}
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan node stat: %w", err)
		}
		stats.NodesByType = append(stats.NodesByType, tc)
		stats.TotalNodes += tc.Count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM edges WHERE repo_id = ? GROUP BY type ORDER BY type", repoID)
	if err != nil {
		return nil, fmt.Errorf("store: edge stats for %q: %w", repoID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("store: scan edge stat: %w", err)
		}
		stats.EdgesByType = append(stats.EdgesByType, tc)
		stats.TotalEdges += tc.Count
	}
	return stats, rows.Err()
}
