package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, v)
}

func TestUpsertAndGetNode(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := graph.DeriveNodeID("a/b.go", "a/b.go::Foo")
	n := graph.Node{
		ID:          id,
		Kind:        graph.KindFunction,
		Name:        "Foo",
		Qualified:   "a/b.go::Foo",
		FilePath:    "a/b.go",
		Language:    "go",
		Exported:    true,
		LastUpdated: time.Now(),
	}
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{n}))

	got, ok, err := s.GetNode(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Foo", got.Name)
	require.True(t, got.Exported)
}

func TestDeleteNodesByFileCascadesEdges(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	src := graph.DeriveNodeID("a.go", "a.go::Caller")
	dst := graph.DeriveNodeID("b.go", "b.go::Callee")
	nodes := []graph.Node{
		{ID: src, Kind: graph.KindFunction, Name: "Caller", Qualified: "a.go::Caller", FilePath: "a.go", LastUpdated: time.Now()},
		{ID: dst, Kind: graph.KindFunction, Name: "Callee", Qualified: "b.go::Callee", FilePath: "b.go", LastUpdated: time.Now()},
	}
	require.NoError(t, s.UpsertNodes(ctx, nodes))
	require.NoError(t, s.InsertEdges(ctx, []graph.Edge{
		{Source: src, Target: dst, Kind: graph.EdgeCalls, Line: 10, Column: 2},
	}))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteNodesByFile(ctx, tx, "a.go"))
	require.NoError(t, tx.Commit())

	edges, err := s.ListIncoming(ctx, dst, EdgeFilter{})
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestSearchFindsByName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := graph.DeriveNodeID("resolver.go", "resolver.go::ResolveImport")
	n := graph.Node{
		ID: id, Kind: graph.KindFunction, Name: "ResolveImport",
		Qualified: "resolver.go::ResolveImport", FilePath: "resolver.go",
		Doc: "resolves an import specifier to a node", LastUpdated: time.Now(),
	}
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{n}))

	results, err := s.Search(ctx, "resolve import", SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, id, results[0].Node.ID)
	require.Greater(t, results[0].Score, 0.0)
}

func TestUpsertFileAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpsertFile(ctx, tx, graph.FileRecord{
		Path: "x.go", ContentHash: "deadbeef", Language: "go",
		ModTime: time.Now(), LastIndexed: time.Now(),
	}))
	require.NoError(t, tx.Commit())

	f, ok, err := s.GetFile(ctx, "x.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "deadbeef", f.ContentHash)

	tx, err = s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteFile(ctx, tx, "x.go"))
	require.NoError(t, tx.Commit())

	_, ok, err = s.GetFile(ctx, "x.go")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := graph.DeriveNodeID("a.go", "a.go::Foo")
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{
		{ID: id, Kind: graph.KindFunction, Name: "Foo", Qualified: "a.go::Foo", FilePath: "a.go", LastUpdated: time.Now()},
	}))

	st, err := s.GetStats(ctx, filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	require.Equal(t, 1, st.NodeCount)
	require.Equal(t, 1, st.NodesByKind[graph.KindFunction])
}
