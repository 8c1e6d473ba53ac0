package extractor

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/parser"
)

// fileLocalID is the synthetic LocalID of a file's own node; every other
// node in the file names it as a contains-edge target's source.
const fileLocalID = ""

// Extract walks a parsed tree and produces the nodes, edges and unresolved
// references for one file. The returned graph.Node/Edge values have final
// NodeIDs; the file node (kind=file) is always nodes[0].
func Extract(tree *parser.Tree, path string, now time.Time) ([]graph.Node, []graph.Edge, []graph.UnresolvedReference, []string) {
	res := walk(tree, path)

	fileNode := NodeDraft{LocalID: fileLocalID, Kind: "file", Name: filepath.Base(path)}
	drafts := append([]NodeDraft{fileNode}, res.Nodes...)

	ids := make(map[string]graph.NodeID, len(drafts))
	nodes := make([]graph.Node, 0, len(drafts))
	for _, d := range drafts {
		qualified := graph.QualifiedName(path, d.Containers, d.Name)
		if d.LocalID == fileLocalID {
			qualified = path
		}
		id := graph.DeriveNodeID(path, qualified)
		ids[d.LocalID] = id
		nodes = append(nodes, graph.Node{
			ID:          id,
			Kind:        graph.NodeKind(d.Kind),
			Name:        d.Name,
			Qualified:   qualified,
			FilePath:    path,
			Language:    string(tree.Language),
			Span:        graph.Span(d.Span),
			Doc:         d.Doc,
			Signature:   d.Signature,
			Visibility:  d.Visibility,
			Exported:    d.Exported,
			Async:       d.Async,
			Static:      d.Static,
			Abstract:    d.Abstract,
			Decorators:  d.Decorators,
			Generics:    d.Generics,
			LastUpdated: now,
		})
	}

	// Every non-file node is contained by the file unless the walker
	// already produced a more specific contains edge (e.g. method in class).
	contained := make(map[string]bool, len(res.Edges))
	for _, e := range res.Edges {
		if e.Kind == "contains" {
			contained[e.TargetLocalID] = true
		}
	}
	for _, d := range res.Nodes {
		if !contained[d.LocalID] {
			res.Edges = append(res.Edges, EdgeDraft{SourceLocalID: fileLocalID, TargetLocalID: d.LocalID, Kind: "contains"})
		}
	}

	edges := make([]graph.Edge, 0, len(res.Edges))
	for _, e := range res.Edges {
		src, ok := ids[e.SourceLocalID]
		if !ok {
			continue
		}
		dst, ok := ids[e.TargetLocalID]
		if !ok {
			continue
		}
		edges = append(edges, graph.Edge{
			Source:     src,
			Target:     dst,
			Kind:       graph.EdgeKind(e.Kind),
			Line:       e.Line,
			Column:     e.Column,
			HasSite:    e.Line != 0,
			Provenance: graph.ProvenanceParser,
		})
	}

	refs := make([]graph.UnresolvedReference, 0, len(res.Unresolved))
	for _, r := range res.Unresolved {
		src, ok := ids[r.SourceLocalID]
		if !ok {
			continue
		}
		refs = append(refs, graph.UnresolvedReference{
			Source:     src,
			Name:       r.Name,
			TargetKind: graph.EdgeKind(r.TargetKind),
			Line:       r.Line,
			Column:     r.Column,
			FilePath:   path,
			Language:   string(tree.Language),
		})
	}

	return nodes, edges, refs, res.Errors
}

// walk dispatches to the language-specific extraction function, falling
// back to the generic structural adapter for languages without a bespoke
// implementation.
func walk(tree *parser.Tree, path string) (res Result) {
	defer func() {
		// A malformed file or an unanticipated grammar shape must not take
		// the whole indexing run down; extraction degrades to "no symbols
		// found" for this file, with the panic captured as a file error
		// instead of discarded.
		if r := recover(); r != nil {
			res = Result{Errors: []string{fmt.Sprintf("panic in extractor: %v", r)}}
		}
	}()

	switch tree.Language {
	case parser.Go:
		return extractGo(tree)
	case parser.JavaScript, parser.TypeScript, parser.TSX:
		return extractJSFamily(tree)
	case parser.Python:
		return extractPython(tree)
	default:
		return extractGeneric(tree)
	}
}

func localID(prefix string, n int) string {
	return fmt.Sprintf("%s#%d", prefix, n)
}
