package traverse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), t.TempDir()+"/graph.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mkNode(path, name string, kind graph.NodeKind) graph.Node {
	id := graph.DeriveNodeID(path, graph.QualifiedName(path, nil, name))
	return graph.Node{
		ID: id, Kind: kind, Name: name, Qualified: graph.QualifiedName(path, nil, name),
		FilePath: path, LastUpdated: time.Now(),
	}
}

// chain builds: file -> fn1 -> fn2 -> fn3 via `calls` edges, plus `contains`
// from file to each function.
func buildCallChain(t *testing.T, s *store.Store) (file, fn1, fn2, fn3 graph.Node) {
	t.Helper()
	ctx := context.Background()

	file = mkNode("a.go", "a.go", graph.KindFile)
	fn1 = mkNode("a.go", "one", graph.KindFunction)
	fn2 = mkNode("a.go", "two", graph.KindFunction)
	fn3 = mkNode("a.go", "three", graph.KindFunction)

	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{file, fn1, fn2, fn3}))
	require.NoError(t, s.InsertEdges(ctx, []graph.Edge{
		{Source: file.ID, Target: fn1.ID, Kind: graph.EdgeContains},
		{Source: file.ID, Target: fn2.ID, Kind: graph.EdgeContains},
		{Source: file.ID, Target: fn3.ID, Kind: graph.EdgeContains},
		{Source: fn1.ID, Target: fn2.ID, Kind: graph.EdgeCalls, Line: 5},
		{Source: fn2.ID, Target: fn3.ID, Kind: graph.EdgeCalls, Line: 9},
	}))
	return
}

func TestBFSFollowsOutgoingCallsToDepth(t *testing.T) {
	s := openTestStore(t)
	_, fn1, fn2, fn3 := buildCallChain(t, s)
	tr := New(s)

	visits, err := tr.BFS(context.Background(), fn1.ID, Options{
		EdgeKinds: []graph.EdgeKind{graph.EdgeCalls},
		Direction: DirOutgoing,
	})
	require.NoError(t, err)
	require.Len(t, visits, 2)
	require.Equal(t, fn2.ID, visits[0].Node.ID)
	require.Equal(t, fn3.ID, visits[1].Node.ID)
}

func TestCallersWalksIncoming(t *testing.T) {
	s := openTestStore(t)
	_, fn1, fn2, _ := buildCallChain(t, s)
	tr := New(s)

	visits, err := tr.Callers(context.Background(), fn2.ID, 1)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Equal(t, fn1.ID, visits[0].Node.ID)
}

func TestCalleesDefaultDepthIsOne(t *testing.T) {
	s := openTestStore(t)
	_, fn1, fn2, _ := buildCallChain(t, s)
	tr := New(s)

	visits, err := tr.Callees(context.Background(), fn1.ID, 0)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	require.Equal(t, fn2.ID, visits[0].Node.ID)
}

func TestAncestorsIsSingleChainToRoot(t *testing.T) {
	s := openTestStore(t)
	file, fn1, _, _ := buildCallChain(t, s)
	tr := New(s)

	ancestors, err := tr.Ancestors(context.Background(), fn1.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 1)
	require.Equal(t, file.ID, ancestors[0].ID)
}

func TestChildrenReturnsDirectContainsSuccessors(t *testing.T) {
	s := openTestStore(t)
	file, fn1, fn2, fn3 := buildCallChain(t, s)
	tr := New(s)

	children, err := tr.Children(context.Background(), file.ID)
	require.NoError(t, err)
	ids := []graph.NodeID{children[0].ID, children[1].ID, children[2].ID}
	require.ElementsMatch(t, []graph.NodeID{fn1.ID, fn2.ID, fn3.ID}, ids)
}

func TestFindPathReturnsShortestPathWithEdges(t *testing.T) {
	s := openTestStore(t)
	_, fn1, fn2, fn3 := buildCallChain(t, s)
	tr := New(s)

	steps, ok, err := tr.FindPath(context.Background(), fn1.ID, fn3.ID, []graph.EdgeKind{graph.EdgeCalls})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, steps, 3)
	require.Nil(t, steps[0].Edge)
	require.Equal(t, fn1.ID, steps[0].Node.ID)
	require.Equal(t, fn2.ID, steps[1].Node.ID)
	require.Equal(t, fn3.ID, steps[2].Node.ID)
}

func TestFindPathReportsAbsenceWhenUnreachable(t *testing.T) {
	s := openTestStore(t)
	_, fn1, _, fn3 := buildCallChain(t, s)
	tr := New(s)

	_, ok, err := tr.FindPath(context.Background(), fn3.ID, fn1.ID, []graph.EdgeKind{graph.EdgeCalls})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindDeadCodeRequiresNoIncomingEdgeOfAnyKind(t *testing.T) {
	// spec.md §4.6 defines findDeadCode as "no incoming edges of any kind",
	// so a function with an incoming `contains` edge from its file is not
	// reported even if nothing calls it; only a node with zero incoming
	// edges whatsoever qualifies.
	ctx := context.Background()
	s := openTestStore(t)
	tr := New(s)

	orphan := mkNode("a.go", "orphan", graph.KindFunction)
	contained := mkNode("a.go", "contained", graph.KindFunction)
	file := mkNode("a.go", "a.go", graph.KindFile)
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{orphan, contained, file}))
	require.NoError(t, s.InsertEdges(ctx, []graph.Edge{
		{Source: file.ID, Target: contained.ID, Kind: graph.EdgeContains},
	}))

	dead, err := tr.FindDeadCode(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, n := range dead {
		names = append(names, n.Name)
	}
	require.Contains(t, names, orphan.Name)
	require.NotContains(t, names, contained.Name)
}

func TestFindCircularDependenciesDetectsMutualImports(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	tr := New(s)

	aFile := mkNode("a.go", "a.go", graph.KindFile)
	bFile := mkNode("b.go", "b.go", graph.KindFile)
	require.NoError(t, s.UpsertNodes(ctx, []graph.Node{aFile, bFile}))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpsertFile(ctx, tx, graph.FileRecord{Path: "a.go", ContentHash: "1"}))
	require.NoError(t, s.UpsertFile(ctx, tx, graph.FileRecord{Path: "b.go", ContentHash: "2"}))
	require.NoError(t, tx.Commit())

	require.NoError(t, s.InsertEdges(ctx, []graph.Edge{
		{Source: aFile.ID, Target: bFile.ID, Kind: graph.EdgeImports},
		{Source: bFile.ID, Target: aFile.ID, Kind: graph.EdgeImports},
	}))

	cycles, err := tr.FindCircularDependencies(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	require.ElementsMatch(t, []string{"a.go", "b.go"}, cycles[0])
}
