package store

import (
	"context"
	"os"

	"github.com/southerncoder/codegraph/internal/graph"
)

// Stats summarizes the graph's current size, per spec.md §4.7.
type Stats struct {
	FileCount          int
	NodeCount          int
	EdgeCount          int
	UnresolvedRefCount int
	NodesByKind        map[graph.NodeKind]int
	FilesByLanguage    map[string]int
	SchemaVersion      int
	DatabaseSizeBytes  int64
}

// GetStats aggregates counts across the store. It favors a handful of cheap
// GROUP BY queries over one large join, since the tables can be large and
// an accidental cross-join here would be expensive.
func (s *Store) GetStats(ctx context.Context, dbPath string) (Stats, error) {
	var st Stats
	st.NodesByKind = map[graph.NodeKind]int{}
	st.FilesByLanguage = map[string]int{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&st.FileCount); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&st.NodeCount); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&st.EdgeCount); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM unresolved_refs`).Scan(&st.UnresolvedRefCount); err != nil {
		return Stats{}, err
	}

	kindRows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return Stats{}, err
	}
	for kindRows.Next() {
		var k string
		var c int
		if err := kindRows.Scan(&k, &c); err != nil {
			kindRows.Close()
			return Stats{}, err
		}
		st.NodesByKind[graph.NodeKind(k)] = c
	}
	if err := kindRows.Close(); err != nil {
		return Stats{}, err
	}

	langRows, err := s.db.QueryContext(ctx, `SELECT language, COUNT(*) FROM files GROUP BY language`)
	if err != nil {
		return Stats{}, err
	}
	for langRows.Next() {
		var lang string
		var c int
		if err := langRows.Scan(&lang, &c); err != nil {
			langRows.Close()
			return Stats{}, err
		}
		st.FilesByLanguage[lang] = c
	}
	if err := langRows.Close(); err != nil {
		return Stats{}, err
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return Stats{}, err
	}
	st.SchemaVersion = version

	if fi, err := os.Stat(dbPath); err == nil {
		st.DatabaseSizeBytes = fi.Size()
	}

	return st, nil
}
