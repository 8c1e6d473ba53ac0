package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/southerncoder/codegraph/internal/graph"
)

// InsertUnresolvedRefs records references the resolver could not bind to a
// node at extraction time, per spec.md §4.1/§4.5.
func (s *Store) InsertUnresolvedRefs(ctx context.Context, tx *sql.Tx, refs []graph.UnresolvedReference) error {
	if len(refs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO unresolved_refs(source, name, target_kind, line, column, file_path, language, candidates)
        VALUES (?,?,?,?,?,?,?,?)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range refs {
		if _, err := stmt.ExecContext(ctx,
			int64(r.Source), r.Name, string(r.TargetKind), r.Line, r.Column,
			graph.NormalizePath(r.FilePath), r.Language, strings.Join(r.Candidates, "\x1f"),
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUnresolvedRefsBySource removes every unresolved reference recorded
// against a source node, inside the caller's transaction.
func (s *Store) DeleteUnresolvedRefsBySource(ctx context.Context, tx *sql.Tx, source graph.NodeID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM unresolved_refs WHERE source = ?`, int64(source))
	return err
}

// DeleteUnresolvedRefsByFile clears unresolved references attributed to a
// file, mirroring the file-is-rewritten-as-a-unit rule nodes/edges follow.
func (s *Store) DeleteUnresolvedRefsByFile(ctx context.Context, tx *sql.Tx, path string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM unresolved_refs WHERE file_path = ?`, graph.NormalizePath(path))
	return err
}

// ListAllUnresolvedRefs returns every unresolved reference, for resolver
// passes that scan the whole backlog.
func (s *Store) ListAllUnresolvedRefs(ctx context.Context) ([]graph.UnresolvedReference, error) {
	rows, err := s.db.QueryContext(ctx, unresolvedSelectColumns+` ORDER BY file_path, line, column`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnresolvedRefs(rows)
}

// ListUnresolvedRefsByFile narrows the backlog to a single file, used when
// only that file's references need re-resolution after a sync.
func (s *Store) ListUnresolvedRefsByFile(ctx context.Context, path string) ([]graph.UnresolvedReference, error) {
	rows, err := s.db.QueryContext(ctx, unresolvedSelectColumns+` WHERE file_path = ? ORDER BY line, column`, graph.NormalizePath(path))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnresolvedRefs(rows)
}

const unresolvedSelectColumns = `
    SELECT id, source, name, target_kind, line, column, file_path, language, candidates
    FROM unresolved_refs`

func scanUnresolvedRefs(rows *sql.Rows) ([]graph.UnresolvedReference, error) {
	var out []graph.UnresolvedReference
	for rows.Next() {
		var r graph.UnresolvedReference
		var id, source int64
		var candidates string
		if err := rows.Scan(&id, &source, &r.Name, &r.TargetKind, &r.Line, &r.Column, &r.FilePath, &r.Language, &candidates); err != nil {
			return nil, err
		}
		r.ID = id
		r.Source = graph.NodeID(source)
		r.Candidates = splitNonEmpty(candidates, "\x1f")
		out = append(out, r)
	}
	return out, rows.Err()
}
