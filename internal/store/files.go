package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/southerncoder/codegraph/internal/graph"
)

// UpsertFile writes a file's FileRecord. Callers invoke this after deleting
// and re-inserting that file's nodes+edges in the same transaction, so a
// file's state is always rewritten as a single unit (spec.md §3).
func (s *Store) UpsertFile(ctx context.Context, tx *sql.Tx, f graph.FileRecord) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO files(path, content_hash, language, size, mod_time, last_indexed, node_count, extraction_errors)
        VALUES (?,?,?,?,?,?,?,?)
        ON CONFLICT(path) DO UPDATE SET
            content_hash=excluded.content_hash, language=excluded.language, size=excluded.size,
            mod_time=excluded.mod_time, last_indexed=excluded.last_indexed,
            node_count=excluded.node_count, extraction_errors=excluded.extraction_errors;
    `,
		graph.NormalizePath(f.Path), f.ContentHash, f.Language, f.Size,
		f.ModTime.UTC().Format(time.RFC3339), f.LastIndexed.UTC().Format(time.RFC3339),
		f.NodeCount, strings.Join(f.ExtractionErrors, "\x1f"),
	)
	return err
}

// GetFile fetches a single file record by path.
func (s *Store) GetFile(ctx context.Context, path string) (graph.FileRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, fileSelectColumns+` WHERE path = ?`, graph.NormalizePath(path))
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return graph.FileRecord{}, false, nil
	}
	if err != nil {
		return graph.FileRecord{}, false, err
	}
	return f, true, nil
}

// ListAllFiles returns every indexed file record.
func (s *Store) ListAllFiles(ctx context.Context) ([]graph.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, fileSelectColumns+` ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []graph.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes a file record; ON DELETE CASCADE on nodes.file_path
// takes care of its nodes, and node deletion cascades further to edges and
// unresolved references.
func (s *Store) DeleteFile(ctx context.Context, tx *sql.Tx, path string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, graph.NormalizePath(path))
	return err
}

// BeginTx exposes transaction creation to callers (the orchestrator) that
// need to span multiple Store operations atomically.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

const fileSelectColumns = `
    SELECT path, content_hash, language, size, mod_time, last_indexed, node_count, extraction_errors
    FROM files`

func scanFile(row rowScanner) (graph.FileRecord, error) {
	var f graph.FileRecord
	var modTime, lastIndexed, errs string
	if err := row.Scan(&f.Path, &f.ContentHash, &f.Language, &f.Size, &modTime, &lastIndexed, &f.NodeCount, &errs); err != nil {
		return graph.FileRecord{}, err
	}
	if t, err := time.Parse(time.RFC3339, modTime); err == nil {
		f.ModTime = t
	}
	if t, err := time.Parse(time.RFC3339, lastIndexed); err == nil {
		f.LastIndexed = t
	}
	f.ExtractionErrors = splitNonEmpty(errs, "\x1f")
	return f, nil
}
