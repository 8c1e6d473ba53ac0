package resolver

import (
	"strings"

	"github.com/southerncoder/codegraph/internal/graph"
)

// resolveQualifiedName tries an exact qualified-name match first, then a
// partial-suffix match (the reference names a trailing segment of some
// node's qualified name, e.g. `pkg.Type.Method` referenced as
// `Type.Method`).
func resolveQualifiedName(ref graph.UnresolvedReference, idx *Index) (graph.Node, float64, bool) {
	if candidates := idx.byQualified[ref.Name]; len(candidates) == 1 {
		return candidates[0], ConfidenceQualifiedUnique, true
	} else if len(candidates) > 1 {
		return bestByDisambiguation(ref, candidates), ConfidenceQualifiedUnique, true
	}

	suffix := "." + ref.Name
	var matches []graph.Node
	for qualified, nodes := range idx.byQualified {
		if strings.HasSuffix(qualified, suffix) {
			matches = append(matches, nodes...)
		}
	}
	if len(matches) == 1 {
		return matches[0], ConfidenceQualifiedPartialSuffix, true
	}
	if len(matches) > 1 {
		return bestByDisambiguation(ref, matches), ConfidenceQualifiedPartialSuffix, true
	}

	return graph.Node{}, 0, false
}

// methodCallPattern recognizes `Class.method` or `Class::method` spelled
// out in ref.Name (some languages' call extraction keeps the receiver
// attached) and matches it against a method node whose qualified name ends
// in `Class.method`.
func methodCallPattern(ref graph.UnresolvedReference, idx *Index) (graph.Node, bool) {
	sep := "."
	idxSep := strings.LastIndex(ref.Name, "::")
	if idxSep != -1 {
		sep = "::"
	} else {
		idxSep = strings.LastIndex(ref.Name, ".")
	}
	if idxSep == -1 {
		return graph.Node{}, false
	}

	class := ref.Name[:idxSep]
	method := ref.Name[idxSep+len(sep):]
	qualifiedSuffix := class + "." + method

	var matches []graph.Node
	for qualified, nodes := range idx.byQualified {
		if strings.HasSuffix(qualified, qualifiedSuffix) {
			matches = append(matches, nodes...)
		}
	}
	if len(matches) == 0 {
		for _, n := range idx.byExactName[method] {
			if graph.CallableKinds[n.Kind] {
				matches = append(matches, n)
			}
		}
	}
	if len(matches) == 0 {
		return graph.Node{}, false
	}
	return bestByDisambiguation(ref, matches), true
}

// resolveExactName tries an exact simple-name match, disambiguating among
// multiple candidates per spec.md §4.5's scoring table.
func resolveExactName(ref graph.UnresolvedReference, idx *Index) (graph.Node, float64, bool) {
	candidates := idx.byExactName[ref.Name]
	switch len(candidates) {
	case 0:
		return graph.Node{}, 0, false
	case 1:
		return candidates[0], ConfidenceExactSingle, true
	default:
		return bestByDisambiguation(ref, candidates), ConfidenceExactDisambiguated, true
	}
}
