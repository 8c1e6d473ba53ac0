package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/parser"
	"github.com/southerncoder/codegraph/internal/resolver"
	"github.com/southerncoder/codegraph/internal/scanner"
	"github.com/southerncoder/codegraph/internal/store"
)

func newTestOrchestrator(t *testing.T, root string) (*Orchestrator, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sc := scanner.New(root, []string{"**/*.go"}, nil, 0)
	o := New(st, sc, parser.NewRegistry(), resolver.NewFrameworkRegistry(), filepath.Join(t.TempDir(), "graph.db.lock"), 1)
	return o, st
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

// TestSyncIndexesSingleFileWithFunction mirrors spec.md §8 scenario 1: a
// file containing one function produces a file node, a function
// node and a contains edge between them.
func TestSyncIndexesSingleFileWithFunction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc add(x, y int) int {\n\treturn x + y\n}\n")

	o, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	res, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesAdded)
	require.False(t, res.Cancelled)

	nodes, err := st.ListNodesByFile(ctx, "a.go")
	require.NoError(t, err)

	var fileNode, fnNode graph.Node
	var sawFile, sawFn bool
	for _, n := range nodes {
		if n.Kind == graph.KindFile {
			fileNode, sawFile = n, true
		}
		if n.Kind == graph.KindFunction && n.Name == "add" {
			fnNode, sawFn = n, true
		}
	}
	require.True(t, sawFile)
	require.True(t, sawFn)

	edges, err := st.ListOutgoing(ctx, fileNode.ID, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeContains}})
	require.NoError(t, err)

	var containsFn bool
	for _, e := range edges {
		if e.Target == fnNode.ID {
			containsFn = true
		}
	}
	require.True(t, containsFn)

	stats, err := st.GetStats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, stats.FileCount)
	require.Equal(t, 2, stats.NodeCount)
}

// TestSyncTwiceWithNoChangesReportsNothing covers spec.md §8's idempotence
// law: a second sync with no filesystem change reports zero added,
// modified and removed files.
func TestSyncTwiceWithNoChangesReportsNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc add() {}\n")

	o, _ := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)

	res, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesAdded)
	require.Equal(t, 0, res.FilesModified)
	require.Equal(t, 0, res.FilesRemoved)
}

// TestSyncDetectsModifiedFile covers spec.md §8 scenario 3: editing a file
// is reported as a modification, not an add.
func TestSyncDetectsModifiedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc add() {}\n")

	o, _ := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)

	writeFile(t, root, "a.go", "package main\n\nfunc add() {}\n\nfunc sub() {}\n")

	res, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.FilesAdded)
	require.Equal(t, 1, res.FilesModified)
}

// TestSyncDetectsRemovedFile covers a file deleted from disk being removed
// from the store on the next sync.
func TestSyncDetectsRemovedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc add() {}\n")

	o, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	_, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.go")))

	res, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.FilesRemoved)

	_, ok, err := st.GetFile(ctx, "a.go")
	require.NoError(t, err)
	require.False(t, ok)
}

// TestSyncResolvesCallAcrossFiles covers spec.md §8 scenario 2: a function
// defined in one file and called from another resolves to a `calls`
// edge after the resolver pass.
func TestSyncResolvesCallAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\n\nfunc helper() {}\n")
	writeFile(t, root, "b.go", "package main\n\nfunc caller() {\n\thelper()\n}\n")

	o, st := newTestOrchestrator(t, root)
	ctx := context.Background()

	res, err := o.Sync(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, res.FilesAdded)
	require.Greater(t, res.EdgesResolved, 0)

	nodes, err := st.ListNodesByFile(ctx, "a.go")
	require.NoError(t, err)
	var helperID graph.NodeID
	for _, n := range nodes {
		if n.Kind == graph.KindFunction && n.Name == "helper" {
			helperID = n.ID
		}
	}
	require.NotZero(t, helperID)

	incoming, err := st.ListIncoming(ctx, helperID, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeCalls}})
	require.NoError(t, err)
	require.NotEmpty(t, incoming)
}
