package resolver

import (
	"strings"

	"github.com/southerncoder/codegraph/internal/extractor"
	"github.com/southerncoder/codegraph/internal/graph"
)

// Index is the resolver's cache-warmed view over the graph: one full scan
// of the store's nodes traded for O(1) lookups on the hot path, per
// spec.md §4.5 "Cache warming".
type Index struct {
	byID        map[graph.NodeID]graph.Node
	byExactName map[string][]graph.Node
	byQualified map[string][]graph.Node
	byLowerName map[string][]graph.Node
	byKind      map[graph.NodeKind][]graph.Node
	knownFiles  map[string]bool
	imports     map[string][]extractor.ImportMapping
}

// BuildIndex warms the lookup indexes from the full node set, the set of
// known file paths, and the per-file import mapping cache extractor.BuildImportMap
// produced for each file.
func BuildIndex(nodes []graph.Node, knownFiles []string, imports map[string][]extractor.ImportMapping) *Index {
	idx := &Index{
		byID:        make(map[graph.NodeID]graph.Node, len(nodes)),
		byExactName: make(map[string][]graph.Node),
		byQualified: make(map[string][]graph.Node),
		byLowerName: make(map[string][]graph.Node),
		byKind:      make(map[graph.NodeKind][]graph.Node),
		knownFiles:  make(map[string]bool, len(knownFiles)),
		imports:     imports,
	}
	if idx.imports == nil {
		idx.imports = make(map[string][]extractor.ImportMapping)
	}

	for _, n := range nodes {
		idx.byID[n.ID] = n
		idx.byExactName[n.Name] = append(idx.byExactName[n.Name], n)
		idx.byQualified[n.Qualified] = append(idx.byQualified[n.Qualified], n)
		idx.byLowerName[strings.ToLower(n.Name)] = append(idx.byLowerName[strings.ToLower(n.Name)], n)
		idx.byKind[n.Kind] = append(idx.byKind[n.Kind], n)
	}
	for _, p := range knownFiles {
		idx.knownFiles[graph.NormalizePath(p)] = true
	}

	return idx
}

func (idx *Index) importsForFile(path string) []extractor.ImportMapping {
	return idx.imports[graph.NormalizePath(path)]
}
