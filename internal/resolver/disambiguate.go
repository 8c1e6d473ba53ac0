package resolver

import (
	"math"

	"github.com/southerncoder/codegraph/internal/graph"
)

// disambiguationScore ranks a multi-candidate exact-name match, per
// spec.md §4.5's disambiguation table: same file (+100), same language
// (+50), callable kind for a calls edge (+25), exported (+10), and a
// proximity bonus (up to +20, inversely proportional to line distance)
// when the candidate is in the same file as the reference.
func disambiguationScore(ref graph.UnresolvedReference, candidate graph.Node) float64 {
	score := 0.0

	if candidate.FilePath == ref.FilePath {
		score += 100
		if ref.Line > 0 && candidate.Span.StartLine > 0 {
			distance := math.Abs(float64(ref.Line - candidate.Span.StartLine))
			score += 20 / (1 + distance)
		}
	}
	if candidate.Language == ref.Language {
		score += 50
	}
	if ref.TargetKind == graph.EdgeCalls && graph.CallableKinds[candidate.Kind] {
		score += 25
	}
	if candidate.Exported {
		score += 10
	}

	return score
}

// bestByDisambiguation returns the highest-scoring candidate among several
// exact-name matches, breaking ties by the first candidate encountered.
func bestByDisambiguation(ref graph.UnresolvedReference, candidates []graph.Node) graph.Node {
	best := candidates[0]
	bestScore := disambiguationScore(ref, best)
	for _, c := range candidates[1:] {
		s := disambiguationScore(ref, c)
		if s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
