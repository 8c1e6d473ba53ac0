package resolver

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/southerncoder/codegraph/internal/graph"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for the tail
// strategy to accept a match. Grounded on standardbeagle-lci's
// FuzzyMatcher, whose default threshold is 0.80; restricted here, per
// spec.md §4.5, to callable kinds only.
const fuzzyThreshold = 0.80

// fuzzyMatch finds the best case-insensitive, callable-kind candidate for
// name among idx's nodes, using Jaro-Winkler similarity the same way
// standardbeagle-lci's semantic.FuzzyMatcher.jaroWinkler does.
func fuzzyMatch(idx *Index, name string) (graph.Node, bool) {
	target := strings.ToLower(name)
	var best graph.Node
	bestScore := 0.0
	found := false

	for lowerName, nodes := range idx.byLowerName {
		score, err := edlib.StringsSimilarity(target, lowerName, edlib.JaroWinkler)
		if err != nil || float64(score) < fuzzyThreshold {
			continue
		}
		for _, n := range nodes {
			if !graph.CallableKinds[n.Kind] {
				continue
			}
			if float64(score) > bestScore {
				best, bestScore, found = n, float64(score), true
			}
		}
	}

	return best, found
}
