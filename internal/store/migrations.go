package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schemaVersionTable is created before any migration runs, mirroring
// mind-palace's index.go schema_version table.
const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// migrations is an ordered, append-only list of schema migrations. Each
// migration is idempotent at its own version and must never be edited once
// released — only appended to, per spec.md §3's "migrations are append-only
// and idempotent per version".
var migrations = []func(*sql.Tx) error{
	migrateV0,
}

// CurrentSchemaVersion is the highest version this build knows how to
// produce or read. A database recording a higher version than this is
// ErrIncompatibleSchema.
var CurrentSchemaVersion = len(migrations) - 1

func migrateV0(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
            path              TEXT PRIMARY KEY,
            content_hash      TEXT NOT NULL,
            language          TEXT NOT NULL DEFAULT '',
            size              INTEGER NOT NULL DEFAULT 0,
            mod_time          TEXT NOT NULL DEFAULT '',
            last_indexed      TEXT NOT NULL DEFAULT '',
            node_count        INTEGER NOT NULL DEFAULT 0,
            extraction_errors TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS nodes (
            id           INTEGER PRIMARY KEY,
            kind         TEXT NOT NULL,
            name         TEXT NOT NULL,
            qualified    TEXT NOT NULL,
            file_path    TEXT NOT NULL,
            language     TEXT NOT NULL DEFAULT '',
            start_byte   INTEGER NOT NULL DEFAULT 0,
            end_byte     INTEGER NOT NULL DEFAULT 0,
            start_line   INTEGER NOT NULL DEFAULT 0,
            start_col    INTEGER NOT NULL DEFAULT 0,
            end_line     INTEGER NOT NULL DEFAULT 0,
            end_col      INTEGER NOT NULL DEFAULT 0,
            doc          TEXT NOT NULL DEFAULT '',
            signature    TEXT NOT NULL DEFAULT '',
            visibility   TEXT NOT NULL DEFAULT '',
            exported     INTEGER NOT NULL DEFAULT 0,
            async        INTEGER NOT NULL DEFAULT 0,
            static       INTEGER NOT NULL DEFAULT 0,
            abstract     INTEGER NOT NULL DEFAULT 0,
            decorators   TEXT NOT NULL DEFAULT '',
            generics     TEXT NOT NULL DEFAULT '',
            last_updated TEXT NOT NULL DEFAULT '',
            FOREIGN KEY(file_path) REFERENCES files(path) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_qualified ON nodes(qualified);`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
            name, qualified, doc, signature,
            content='nodes', content_rowid='id',
            tokenize="unicode61 tokenchars '_'"
        );`,
		// Keep the FTS index in lock-step with nodes, per spec.md §3.
		`CREATE TRIGGER IF NOT EXISTS nodes_ai AFTER INSERT ON nodes BEGIN
            INSERT INTO nodes_fts(rowid, name, qualified, doc, signature)
            VALUES (new.id, new.name, new.qualified, new.doc, new.signature);
        END;`,
		`CREATE TRIGGER IF NOT EXISTS nodes_ad AFTER DELETE ON nodes BEGIN
            INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified, doc, signature)
            VALUES ('delete', old.id, old.name, old.qualified, old.doc, old.signature);
        END;`,
		`CREATE TRIGGER IF NOT EXISTS nodes_au AFTER UPDATE ON nodes BEGIN
            INSERT INTO nodes_fts(nodes_fts, rowid, name, qualified, doc, signature)
            VALUES ('delete', old.id, old.name, old.qualified, old.doc, old.signature);
            INSERT INTO nodes_fts(rowid, name, qualified, doc, signature)
            VALUES (new.id, new.name, new.qualified, new.doc, new.signature);
        END;`,

		`CREATE TABLE IF NOT EXISTS edges (
            id         INTEGER PRIMARY KEY AUTOINCREMENT,
            source     INTEGER NOT NULL,
            target     INTEGER NOT NULL,
            kind       TEXT NOT NULL,
            line       INTEGER NOT NULL DEFAULT 0,
            column     INTEGER NOT NULL DEFAULT 0,
            has_site   INTEGER NOT NULL DEFAULT 0,
            metadata   TEXT NOT NULL DEFAULT '',
            provenance TEXT NOT NULL DEFAULT '',
            UNIQUE(source, target, kind, line, column),
            FOREIGN KEY(source) REFERENCES nodes(id) ON DELETE CASCADE,
            FOREIGN KEY(target) REFERENCES nodes(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source, kind);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target, kind);`,

		`CREATE TABLE IF NOT EXISTS unresolved_refs (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            source      INTEGER NOT NULL,
            name        TEXT NOT NULL,
            target_kind TEXT NOT NULL,
            line        INTEGER NOT NULL DEFAULT 0,
            column      INTEGER NOT NULL DEFAULT 0,
            file_path   TEXT NOT NULL,
            language    TEXT NOT NULL DEFAULT '',
            candidates  TEXT NOT NULL DEFAULT '',
            FOREIGN KEY(source) REFERENCES nodes(id) ON DELETE CASCADE
        );`,
		`CREATE INDEX IF NOT EXISTS idx_unresolved_source ON unresolved_refs(source);`,
		`CREATE INDEX IF NOT EXISTS idx_unresolved_file ON unresolved_refs(file_path);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema object: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaVersionTable); err != nil {
		return fmt.Errorf("%w: create schema_version: %v", ErrCorrupt, err)
	}

	var onDisk int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), -1) FROM schema_version")
	if err := row.Scan(&onDisk); err != nil {
		return fmt.Errorf("%w: read schema version: %v", ErrCorrupt, err)
	}

	if onDisk > CurrentSchemaVersion {
		return fmt.Errorf("%w: on-disk version %d, supported up to %d", ErrIncompatibleSchema, onDisk, CurrentSchemaVersion)
	}

	for v := onDisk + 1; v <= CurrentSchemaVersion; v++ {
		if err := applyMigration(ctx, db, v); err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, v, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := migrations[version](tx); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version, applied_at) VALUES (?, ?)", version, now); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the schema version currently recorded on disk.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), -1) FROM schema_version")
	err := row.Scan(&v)
	return v, err
}
