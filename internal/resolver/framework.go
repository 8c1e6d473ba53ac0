package resolver

import (
	"strings"

	"github.com/southerncoder/codegraph/internal/graph"
)

// Match is what a strategy returns when it successfully resolves a
// reference: the target node, the confidence to record, and whether the
// edge should point at the reference's own source node (a framework
// compile-time rune like `$state` resolves to a confidence-1.0 self-edge
// rather than to a distinct symbol).
type Match struct {
	Target     graph.NodeID
	Confidence float64
	SelfEdge   bool
}

// FrameworkResolver applies one framework's specific resolution semantics.
// Grounded on standardbeagle-lci's symbollinker per-language resolver
// registry shape (go_resolver.go / js_resolver.go / python_resolver.go /
// csharp_resolver.go / php_resolver.go), generalized here to framework
// conventions rather than languages.
type FrameworkResolver interface {
	Name() string
	// Detect inspects the set of known repo-relative file paths for a
	// marker this framework is in use (a config file, a conventional
	// directory, a manifest dependency file).
	Detect(knownFiles map[string]bool) bool
	// Resolve attempts framework-specific resolution of one unresolved
	// reference. ok is false when this resolver has nothing to say about
	// the reference.
	Resolve(ref graph.UnresolvedReference, idx *Index) (Match, bool)
}

// FrameworkRegistry holds the resolvers consulted in registration order;
// the first one whose Resolve call returns confidence >= 0.9 short-circuits
// the framework strategy step.
type FrameworkRegistry struct {
	resolvers []FrameworkResolver
}

// NewFrameworkRegistry builds a registry populated at construction time
// (per spec.md §9's design note: not mutable ambient state) with the
// built-in SvelteKit, Laravel and Express-style resolvers.
func NewFrameworkRegistry(resolvers ...FrameworkResolver) *FrameworkRegistry {
	if len(resolvers) == 0 {
		resolvers = []FrameworkResolver{
			&SvelteKitResolver{},
			&LaravelResolver{},
			&ExpressResolver{},
		}
	}
	return &FrameworkRegistry{resolvers: resolvers}
}

// Detected returns the subset of registered resolvers whose Detect matched
// the project's known files.
func (r *FrameworkRegistry) Detected(knownFiles map[string]bool) []FrameworkResolver {
	var out []FrameworkResolver
	for _, fr := range r.resolvers {
		if fr.Detect(knownFiles) {
			out = append(out, fr)
		}
	}
	return out
}

// SvelteKitResolver implements `$lib/X` aliasing, compile-time rune
// sentinel self-edges, and store auto-subscription (`$foo` -> variable
// `foo`).
type SvelteKitResolver struct{}

func (r *SvelteKitResolver) Name() string { return "sveltekit" }

func (r *SvelteKitResolver) Detect(knownFiles map[string]bool) bool {
	for f := range knownFiles {
		if strings.HasSuffix(f, "svelte.config.js") || strings.Contains(f, "/routes/") || strings.HasSuffix(f, ".svelte") {
			return true
		}
	}
	return false
}

var svelteRunes = stringSet("$state", "$props", "$effect", "$derived", "$bindable", "$inspect", "$host")

func (r *SvelteKitResolver) Resolve(ref graph.UnresolvedReference, idx *Index) (Match, bool) {
	name := ref.Name

	if svelteRunes[name] {
		if src, ok := idx.byID[ref.Source]; ok {
			return Match{Target: src.ID, Confidence: 1.0, SelfEdge: true}, true
		}
	}

	if strings.HasPrefix(name, "$lib/") {
		targetPath := "src/lib/" + strings.TrimPrefix(name, "$lib/")
		if n, ok := resolveToFileExport(idx, targetPath); ok {
			return Match{Target: n.ID, Confidence: 0.9}, true
		}
	}

	if strings.HasPrefix(name, "$") && !strings.HasPrefix(name, "$lib/") {
		variable := strings.TrimPrefix(name, "$")
		for _, n := range idx.byExactName[variable] {
			if n.FilePath == ref.FilePath && (n.Kind == graph.KindVariable || n.Kind == graph.KindConstant) {
				return Match{Target: n.ID, Confidence: 0.9}, true
			}
		}
	}

	return Match{}, false
}

// LaravelResolver resolves well-known facade names (`Route`, `Auth`, `DB`,
// `Cache`, `Session`, `Storage`, `Log`, `Mail`, `Queue`, `Event`) to the
// class node of the same simple name
// when one is present in the graph.
type LaravelResolver struct{}

func (r *LaravelResolver) Name() string { return "laravel" }

func (r *LaravelResolver) Detect(knownFiles map[string]bool) bool {
	return knownFiles["composer.json"] || knownFiles["artisan"]
}

var laravelFacades = stringSet("Route", "Auth", "DB", "Cache", "Session", "Storage", "Log", "Mail", "Queue", "Event")

func (r *LaravelResolver) Resolve(ref graph.UnresolvedReference, idx *Index) (Match, bool) {
	if !laravelFacades[ref.Name] {
		return Match{}, false
	}
	for _, n := range idx.byExactName[ref.Name] {
		if n.Kind == graph.KindClass {
			return Match{Target: n.ID, Confidence: 0.85}, true
		}
	}
	return Match{}, false
}

// ExpressResolver recognizes the conventional route-registration method
// names (`get`, `post`, `put`, `delete`, `patch`, `use`, `listen`) called on an
// Express app/router instance as already-handled framework wiring rather
// than unresolved application calls, so they don't fall through to a
// misleading fuzzy match.
type ExpressResolver struct{}

func (r *ExpressResolver) Name() string { return "express" }

func (r *ExpressResolver) Detect(knownFiles map[string]bool) bool {
	return knownFiles["package.json"]
}

var expressRouteMethods = stringSet("get", "post", "put", "delete", "patch", "use", "listen")

func (r *ExpressResolver) Resolve(ref graph.UnresolvedReference, idx *Index) (Match, bool) {
	if ref.TargetKind != graph.EdgeCalls || !expressRouteMethods[ref.Name] {
		return Match{}, false
	}
	if src, ok := idx.byID[ref.Source]; ok {
		return Match{Target: src.ID, Confidence: 0.8, SelfEdge: true}, true
	}
	return Match{}, false
}

// resolveToFileExport finds an exported node whose file path, with any
// extension stripped, equals targetPath.
func resolveToFileExport(idx *Index, targetPath string) (graph.Node, bool) {
	for path := range idx.knownFiles {
		if stripExt(path) != targetPath {
			continue
		}
		for _, n := range idx.byKind[graph.KindFunction] {
			if n.FilePath == path && n.Exported {
				return n, true
			}
		}
		for _, n := range idx.byKind[graph.KindClass] {
			if n.FilePath == path && n.Exported {
				return n, true
			}
		}
	}
	return graph.Node{}, false
}

func stripExt(path string) string {
	if idx := strings.LastIndex(path, "."); idx != -1 {
		return path[:idx]
	}
	return path
}
