package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/southerncoder/codegraph/internal/graph"
)

// UpsertNodes inserts or replaces a batch of nodes in a single transaction,
// per spec.md §4.1's "insert/upsert batch" requirement.
func (s *Store) UpsertNodes(ctx context.Context, nodes []graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.upsertNodesTx(ctx, tx, nodes)
	})
}

// UpsertNodesTx is the same operation run against a caller-owned
// transaction, used by the orchestrator so a file's delete-then-reinsert
// of nodes, edges and the file record share one commit.
func (s *Store) UpsertNodesTx(ctx context.Context, tx *sql.Tx, nodes []graph.Node) error {
	return s.upsertNodesTx(ctx, tx, nodes)
}

func (s *Store) upsertNodesTx(ctx context.Context, tx *sql.Tx, nodes []graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
            INSERT INTO nodes(
                id, kind, name, qualified, file_path, language,
                start_byte, end_byte, start_line, start_col, end_line, end_col,
                doc, signature, visibility, exported, async, static, abstract,
                decorators, generics, last_updated
            ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
            ON CONFLICT(id) DO UPDATE SET
                kind=excluded.kind, name=excluded.name, qualified=excluded.qualified,
                file_path=excluded.file_path, language=excluded.language,
                start_byte=excluded.start_byte, end_byte=excluded.end_byte,
                start_line=excluded.start_line, start_col=excluded.start_col,
                end_line=excluded.end_line, end_col=excluded.end_col,
                doc=excluded.doc, signature=excluded.signature, visibility=excluded.visibility,
                exported=excluded.exported, async=excluded.async, static=excluded.static,
                abstract=excluded.abstract, decorators=excluded.decorators,
                generics=excluded.generics, last_updated=excluded.last_updated;
        `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx,
			int64(n.ID), string(n.Kind), n.Name, n.Qualified, graph.NormalizePath(n.FilePath), n.Language,
			n.Span.StartByte, n.Span.EndByte, n.Span.StartLine, n.Span.StartCol, n.Span.EndLine, n.Span.EndCol,
			n.Doc, n.Signature, n.Visibility, boolInt(n.Exported), boolInt(n.Async), boolInt(n.Static), boolInt(n.Abstract),
			strings.Join(n.Decorators, "\x1f"), strings.Join(n.Generics, "\x1f"), n.LastUpdated.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.Qualified, err)
		}
	}
	return nil
}

// GetNode fetches a single node by id.
func (s *Store) GetNode(ctx context.Context, id graph.NodeID) (graph.Node, bool, error) {
	row := s.db.QueryRowContext(ctx, nodeSelectColumns+` WHERE id = ?`, int64(id))
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return graph.Node{}, false, nil
	}
	if err != nil {
		return graph.Node{}, false, err
	}
	return n, true, nil
}

// ListNodesByFile returns every node currently attributed to path.
func (s *Store) ListNodesByFile(ctx context.Context, path string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, nodeSelectColumns+` WHERE file_path = ? ORDER BY start_line, start_col`, graph.NormalizePath(path))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ListAllNodes returns every node in the store, used by the resolver to warm
// its in-memory lookup indexes before a resolution pass.
func (s *Store) ListAllNodes(ctx context.Context) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, nodeSelectColumns+` ORDER BY file_path, start_line`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

// ListNodesByKind returns every node of the given kind.
func (s *Store) ListNodesByKind(ctx context.Context, kind graph.NodeKind) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, nodeSelectColumns+` WHERE kind = ? ORDER BY file_path, start_line`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNodes(rows)
}

// DeleteNodesByFile removes every node attributed to path, cascading to its
// edges and unresolved references via ON DELETE CASCADE, per spec.md §3:
// deleting a node cascades its edges and unresolved references, and a file's
// nodes are rewritten as a unit.
func (s *Store) DeleteNodesByFile(ctx context.Context, tx *sql.Tx, path string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE file_path = ?`, graph.NormalizePath(path))
	return err
}

const nodeSelectColumns = `
    SELECT id, kind, name, qualified, file_path, language,
           start_byte, end_byte, start_line, start_col, end_line, end_col,
           doc, signature, visibility, exported, async, static, abstract,
           decorators, generics, last_updated
    FROM nodes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (graph.Node, error) {
	var n graph.Node
	var id int64
	var kind, exported, async, static, abstract string
	var decorators, generics, lastUpdated string
	var expI, asyncI, staticI, abstractI int
	_ = kind
	_ = exported
	_ = async
	_ = static
	_ = abstract

	if err := row.Scan(
		&id, &n.Kind, &n.Name, &n.Qualified, &n.FilePath, &n.Language,
		&n.Span.StartByte, &n.Span.EndByte, &n.Span.StartLine, &n.Span.StartCol, &n.Span.EndLine, &n.Span.EndCol,
		&n.Doc, &n.Signature, &n.Visibility, &expI, &asyncI, &staticI, &abstractI,
		&decorators, &generics, &lastUpdated,
	); err != nil {
		return graph.Node{}, err
	}

	n.ID = graph.NodeID(id)
	n.Exported = expI != 0
	n.Async = asyncI != 0
	n.Static = staticI != 0
	n.Abstract = abstractI != 0
	n.Decorators = splitNonEmpty(decorators, "\x1f")
	n.Generics = splitNonEmpty(generics, "\x1f")
	if t, err := time.Parse(time.RFC3339, lastUpdated); err == nil {
		n.LastUpdated = t
	}
	return n, nil
}

func scanNodes(rows *sql.Rows) ([]graph.Node, error) {
	var out []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
