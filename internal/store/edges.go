package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/southerncoder/codegraph/internal/graph"
)

// InsertEdges inserts a batch of edges, deduplicating on
// (source, target, kind, line, column) per spec.md §4.1. Per-site
// multiplicity is otherwise preserved on purpose (spec.md §9 open question):
// two distinct call sites for the same (source,target,kind) both persist.
func (s *Store) InsertEdges(ctx context.Context, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertEdgesTx(ctx, tx, edges)
	})
}

// InsertEdgesTx is the same operation run against a caller-owned transaction,
// used by the orchestrator so extraction and edge insertion for a file share
// one commit.
func (s *Store) InsertEdgesTx(ctx context.Context, tx *sql.Tx, edges []graph.Edge) error {
	return s.insertEdgesTx(ctx, tx, edges)
}

func (s *Store) insertEdgesTx(ctx context.Context, tx *sql.Tx, edges []graph.Edge) error {
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO edges(source, target, kind, line, column, has_site, metadata, provenance)
        VALUES (?,?,?,?,?,?,?,?)
        ON CONFLICT(source, target, kind, line, column) DO UPDATE SET
            metadata=excluded.metadata, provenance=excluded.provenance, has_site=excluded.has_site;
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edges {
		meta := ""
		if len(e.Metadata) > 0 {
			b, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("marshal edge metadata: %w", err)
			}
			meta = string(b)
		}
		if _, err := stmt.ExecContext(ctx,
			int64(e.Source), int64(e.Target), string(e.Kind), e.Line, e.Column,
			boolInt(e.HasSite), meta, string(e.Provenance),
		); err != nil {
			return fmt.Errorf("insert edge %s->%s (%s): %w", fmtID(e.Source), fmtID(e.Target), e.Kind, err)
		}
	}
	return nil
}

func fmtID(id graph.NodeID) string { return fmt.Sprintf("%d", uint64(id)) }

// EdgeFilter narrows outgoing/incoming edge listing to a subset of kinds.
// A nil or empty filter means "all kinds".
type EdgeFilter struct {
	Kinds []graph.EdgeKind
}

// ListOutgoing returns edges whose source is id, optionally filtered by kind.
func (s *Store) ListOutgoing(ctx context.Context, id graph.NodeID, filter EdgeFilter) ([]graph.Edge, error) {
	return s.listEdges(ctx, "source", id, filter)
}

// ListIncoming returns edges whose target is id, optionally filtered by kind.
func (s *Store) ListIncoming(ctx context.Context, id graph.NodeID, filter EdgeFilter) ([]graph.Edge, error) {
	return s.listEdges(ctx, "target", id, filter)
}

func (s *Store) listEdges(ctx context.Context, column string, id graph.NodeID, filter EdgeFilter) ([]graph.Edge, error) {
	query := fmt.Sprintf(`SELECT id, source, target, kind, line, column, has_site, metadata, provenance
        FROM edges WHERE %s = ?`, column)
	args := []any{int64(id)}

	if len(filter.Kinds) > 0 {
		placeholders := ""
		for i, k := range filter.Kinds {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, string(k))
		}
		query += fmt.Sprintf(" AND kind IN (%s)", placeholders)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var eid, src, tgt int64
		var hasSite int
		var meta string
		if err := rows.Scan(&eid, &src, &tgt, &e.Kind, &e.Line, &e.Column, &hasSite, &meta, &e.Provenance); err != nil {
			return nil, err
		}
		e.ID = eid
		e.Source = graph.NodeID(src)
		e.Target = graph.NodeID(tgt)
		e.HasSite = hasSite != 0
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
