// Package resolver turns per-file unresolved references into concrete
// graph edges, per spec.md §4.5: filter well-known built-ins, try a
// framework-specific strategy, then import-based resolution, then a name
// strategy (qualified-name, method-call pattern, exact-name, fuzzy),
// tie-breaking on confidence then strategy order.
package resolver

import (
	"context"
	"fmt"

	"github.com/southerncoder/codegraph/internal/graph"
)

// Result is the outcome of a full resolve pass.
type Result struct {
	Edges      []graph.Edge
	Unresolved []graph.UnresolvedReference
	Processed  int
	Total      int
}

// Progress is invoked at ~1% granularity as references are processed, per
// spec.md §4.5's progress model. Best-effort: it must not block the pass.
type Progress func(current, total int)

// Resolver runs the five-step pipeline against a pre-warmed Index.
type Resolver struct {
	frameworks *FrameworkRegistry
}

// New builds a Resolver. A nil registry falls back to the built-in
// SvelteKit/Laravel/Express-style resolvers.
func New(frameworks *FrameworkRegistry) *Resolver {
	if frameworks == nil {
		frameworks = NewFrameworkRegistry()
	}
	return &Resolver{frameworks: frameworks}
}

// Resolve runs the pipeline over every reference in refs against idx.
// Cancellation is checked between batches of references (every 200, mirroring
// the orchestrator's between-files cadence) and surfaces as an early,
// partial Result — refs not yet processed remain unresolved.
func (r *Resolver) Resolve(ctx context.Context, refs []graph.UnresolvedReference, idx *Index, onProgress Progress) Result {
	detected := r.frameworks.Detected(idx.knownFiles)

	res := Result{Total: len(refs)}
	lastReported := -1

	for i, ref := range refs {
		if i%200 == 0 && ctx.Err() != nil {
			res.Unresolved = append(res.Unresolved, refs[i:]...)
			break
		}

		edge, ok := r.resolveOne(ref, idx, detected)
		if ok {
			res.Edges = append(res.Edges, edge)
		} else {
			res.Unresolved = append(res.Unresolved, ref)
		}
		res.Processed++

		if onProgress != nil {
			pct := res.Processed * 100 / max(res.Total, 1)
			if pct != lastReported {
				lastReported = pct
				onProgress(res.Processed, res.Total)
			}
		}
	}

	return res
}

// resolveOne runs the five-step pipeline for a single reference.
func (r *Resolver) resolveOne(ref graph.UnresolvedReference, idx *Index, frameworks []FrameworkResolver) (graph.Edge, bool) {
	// Step 1: filter.
	if isBuiltin(ref.Language, ref.Name) {
		return graph.Edge{}, false
	}

	// Step 2: framework strategy. Consulted in registration order; a match
	// with confidence >= 0.9 short-circuits immediately.
	var bestFrameworkMatch *Match
	var bestFrameworkOK bool
	for _, fr := range frameworks {
		m, ok := fr.Resolve(ref, idx)
		if !ok {
			continue
		}
		if m.Confidence >= 0.9 {
			return makeEdge(ref, m.Target, m.Confidence, StrategyFramework, m.SelfEdge), true
		}
		if !bestFrameworkOK || m.Confidence > bestFrameworkMatch.Confidence {
			mCopy := m
			bestFrameworkMatch = &mCopy
			bestFrameworkOK = true
		}
	}

	type candidate struct {
		target     graph.NodeID
		confidence float64
		strategy   string
		selfEdge   bool
		order      int
	}
	var candidates []candidate

	if bestFrameworkOK {
		candidates = append(candidates, candidate{bestFrameworkMatch.Target, bestFrameworkMatch.Confidence, StrategyFramework, bestFrameworkMatch.SelfEdge, 0})
	}

	// Step 3: import strategy.
	if n, ok := resolveImport(ref, idx); ok {
		candidates = append(candidates, candidate{n.ID, ConfidenceImportBased, StrategyImport, false, 1})
	}

	// Step 4: name strategy — qualified-name, then method-call pattern,
	// then exact-name, then fuzzy (callable kinds only).
	if n, conf, ok := resolveQualifiedName(ref, idx); ok {
		candidates = append(candidates, candidate{n.ID, conf, StrategyQualifiedName, false, 2})
	}
	if n, ok := methodCallPattern(ref, idx); ok {
		candidates = append(candidates, candidate{n.ID, ConfidenceMethodCallPattern, StrategyMethodCall, false, 3})
	}
	if n, conf, ok := resolveExactName(ref, idx); ok {
		candidates = append(candidates, candidate{n.ID, conf, StrategyExactName, false, 4})
	}
	if ref.TargetKind == graph.EdgeCalls {
		if n, ok := fuzzyMatch(idx, ref.Name); ok {
			candidates = append(candidates, candidate{n.ID, ConfidenceFuzzy, StrategyFuzzy, false, 5})
		}
	}

	if len(candidates) == 0 {
		return graph.Edge{}, false
	}

	// Step 5: tie-break — highest confidence wins; among equal confidences,
	// earlier strategy order (registration/pipeline order) wins.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.confidence > best.confidence || (c.confidence == best.confidence && c.order < best.order) {
			best = c
		}
	}

	return makeEdge(ref, best.target, best.confidence, best.strategy, best.selfEdge), true
}

func makeEdge(ref graph.UnresolvedReference, target graph.NodeID, confidence float64, strategy string, selfEdge bool) graph.Edge {
	dst := target
	if selfEdge {
		dst = ref.Source
	}
	return graph.Edge{
		Source:     ref.Source,
		Target:     dst,
		Kind:       ref.TargetKind,
		Line:       ref.Line,
		Column:     ref.Column,
		HasSite:    ref.Line != 0,
		Provenance: graph.ProvenanceHeuristic,
		Metadata: map[string]string{
			"confidence":  formatConfidence(confidence),
			"resolved_by": strategy,
		},
	}
}

func formatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}
