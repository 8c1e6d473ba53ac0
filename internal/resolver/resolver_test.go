package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/southerncoder/codegraph/internal/extractor"
	"github.com/southerncoder/codegraph/internal/graph"
)

func nodeID(path, qualified string) graph.NodeID {
	return graph.DeriveNodeID(path, qualified)
}

func TestIsBuiltinFiltersKnownIdentifiers(t *testing.T) {
	require.True(t, isBuiltin("javascript", "console"))
	require.True(t, isBuiltin("python", "len"))
	require.True(t, isBuiltin("go", "append"))
	require.False(t, isBuiltin("javascript", "myHelper"))
}

func TestResolveExactNameSingleCandidate(t *testing.T) {
	n := graph.Node{ID: nodeID("a.go", "a.go::helper"), Kind: graph.KindFunction, Name: "helper", FilePath: "a.go", Language: "go"}
	idx := BuildIndex([]graph.Node{n}, []string{"a.go"}, nil)

	ref := graph.UnresolvedReference{Source: nodeID("b.go", "b.go::main"), Name: "helper", TargetKind: graph.EdgeCalls, FilePath: "b.go", Language: "go"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, n.ID, result.Edges[0].Target)
	require.Equal(t, "0.90", result.Edges[0].Metadata["confidence"])
	require.Equal(t, StrategyExactName, result.Edges[0].Metadata["resolved_by"])
}

func TestResolveExactNameDisambiguatesBySameFile(t *testing.T) {
	near := graph.Node{ID: nodeID("a.go", "a.go::helper#1"), Kind: graph.KindFunction, Name: "helper", FilePath: "caller.go", Language: "go", Span: graph.Span{StartLine: 10}}
	far := graph.Node{ID: nodeID("b.go", "b.go::helper#2"), Kind: graph.KindFunction, Name: "helper", FilePath: "other.go", Language: "go"}
	idx := BuildIndex([]graph.Node{near, far}, []string{"caller.go", "other.go"}, nil)

	ref := graph.UnresolvedReference{Source: nodeID("caller.go", "caller.go::main"), Name: "helper", TargetKind: graph.EdgeCalls, FilePath: "caller.go", Language: "go", Line: 12}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, near.ID, result.Edges[0].Target)
	require.Equal(t, "0.70", result.Edges[0].Metadata["confidence"])
}

func TestResolveQualifiedNameUnique(t *testing.T) {
	n := graph.Node{ID: nodeID("svc.go", "svc.go::Server.Start"), Kind: graph.KindMethod, Name: "Start", Qualified: "svc.go::Server.Start", FilePath: "svc.go", Language: "go"}
	idx := BuildIndex([]graph.Node{n}, []string{"svc.go"}, nil)

	ref := graph.UnresolvedReference{Source: nodeID("main.go", "main.go::main"), Name: "svc.go::Server.Start", TargetKind: graph.EdgeCalls, FilePath: "main.go", Language: "go"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, n.ID, result.Edges[0].Target)
	require.Equal(t, StrategyQualifiedName, result.Edges[0].Metadata["resolved_by"])
}

func TestResolveImportStrategy(t *testing.T) {
	target := graph.Node{ID: nodeID("src/util.js", "src/util.js::helper"), Kind: graph.KindFunction, Name: "helper", FilePath: "src/util.js", Language: "javascript", Exported: true}
	idx := BuildIndex(
		[]graph.Node{target},
		[]string{"src/util.js", "src/main.js"},
		map[string][]extractor.ImportMapping{
			"src/main.js": {{LocalName: "helper", Specifier: "./util"}},
		},
	)

	ref := graph.UnresolvedReference{Source: nodeID("src/main.js", "src/main.js::main"), Name: "helper", TargetKind: graph.EdgeCalls, FilePath: "src/main.js", Language: "javascript"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, target.ID, result.Edges[0].Target)
	require.Equal(t, "0.90", result.Edges[0].Metadata["confidence"])
	require.Equal(t, StrategyImport, result.Edges[0].Metadata["resolved_by"])
}

func TestResolveUnknownReferenceStaysUnresolved(t *testing.T) {
	idx := BuildIndex(nil, nil, nil)
	ref := graph.UnresolvedReference{Source: nodeID("a.go", "a.go::main"), Name: "doesNotExist", TargetKind: graph.EdgeCalls, FilePath: "a.go", Language: "go"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Empty(t, result.Edges)
	require.Len(t, result.Unresolved, 1)
}

func TestSvelteKitRuneResolvesToSelfEdge(t *testing.T) {
	src := graph.Node{ID: nodeID("src/routes/+page.svelte", "src/routes/+page.svelte::script"), Kind: graph.KindModule, FilePath: "src/routes/+page.svelte", Language: "javascript"}
	idx := BuildIndex([]graph.Node{src}, []string{"src/routes/+page.svelte"}, nil)

	ref := graph.UnresolvedReference{Source: src.ID, Name: "$state", TargetKind: graph.EdgeCalls, FilePath: src.FilePath, Language: "javascript"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, src.ID, result.Edges[0].Target)
	require.Equal(t, "1.00", result.Edges[0].Metadata["confidence"])
	require.Equal(t, StrategyFramework, result.Edges[0].Metadata["resolved_by"])
}

func TestFuzzyMatchFindsCloseCallableName(t *testing.T) {
	n := graph.Node{ID: nodeID("a.go", "a.go::connect"), Kind: graph.KindFunction, Name: "connect", FilePath: "a.go", Language: "go"}
	idx := BuildIndex([]graph.Node{n}, []string{"a.go"}, nil)

	ref := graph.UnresolvedReference{Source: nodeID("b.go", "b.go::main"), Name: "connnect", TargetKind: graph.EdgeCalls, FilePath: "b.go", Language: "go"}
	r := New(nil)
	result := r.Resolve(context.Background(), []graph.UnresolvedReference{ref}, idx, nil)

	require.Len(t, result.Edges, 1)
	require.Equal(t, n.ID, result.Edges[0].Target)
	require.Equal(t, StrategyFuzzy, result.Edges[0].Metadata["resolved_by"])
}

func TestResolveRespectsCancellation(t *testing.T) {
	idx := BuildIndex(nil, nil, nil)
	refs := make([]graph.UnresolvedReference, 500)
	for i := range refs {
		refs[i] = graph.UnresolvedReference{Source: nodeID("a.go", "a.go::main"), Name: "nope", TargetKind: graph.EdgeCalls, FilePath: "a.go", Language: "go"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(nil)
	result := r.Resolve(ctx, refs, idx, nil)
	require.Less(t, result.Processed, len(refs))
	require.Len(t, result.Unresolved, len(refs))
}
