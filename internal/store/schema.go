package store

// ---------------------------------------------------------------------------
// Schema version
// ---------------------------------------------------------------------------

// SchemaVersion is the current database schema version.
const SchemaVersion = 2

// schemaSQL is the full initial schema. It is applied as migration v1 and
// must stay runnable against an empty database.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS repositories (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
    id                    TEXT PRIMARY KEY,
    repo_id               TEXT NOT NULL,
    label                 TEXT NOT NULL,
    type                  TEXT NOT NULL,
    file_path             TEXT NOT NULL DEFAULT '',
    start_line            INTEGER NOT NULL DEFAULT 0,
    end_line              INTEGER NOT NULL DEFAULT 0,
    cyclomatic_complexity INTEGER NOT NULL DEFAULT 0,
    lines_of_code         INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (repo_id) REFERENCES repositories(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS edges (
    id        TEXT PRIMARY KEY,
    repo_id   TEXT NOT NULL,
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    type      TEXT NOT NULL,
    FOREIGN KEY (repo_id) REFERENCES repositories(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_nodes_repo   ON nodes(repo_id);
CREATE INDEX IF NOT EXISTS idx_nodes_type   ON nodes(repo_id, type);
CREATE INDEX IF NOT EXISTS idx_nodes_label  ON nodes(repo_id, label);
CREATE INDEX IF NOT EXISTS idx_edges_repo   ON edges(repo_id);
`

// ---------------------------------------------------------------------------
// Migration support
// ---------------------------------------------------------------------------

// Migration describes a single schema migration. Migrations are ordered by
// Version and are idempotent.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of all schema migrations. Apply them
// sequentially; skip any whose Version is already recorded in the
// schema_migrations table.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema — repositories, nodes, edges, schema_migrations",
		SQL:         schemaSQL,
	},
	{
		Version:     2,
		Description: "Add endpoint indexes for edge-set intersection queries",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(repo_id, source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(repo_id, target_id);
`,
	},
}
