package store

import (
	"context"
	"strings"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/surgebase/porter2"
)

// SearchResult pairs a node with its relevance score, normalized into
// [0, 1] per spec.md §4.6.
type SearchResult struct {
	Node  graph.Node
	Score float64
}

// SearchOptions narrows a Search call.
type SearchOptions struct {
	Kinds []graph.NodeKind
	Limit int
}

// Search runs the query against the FTS5 index over name/qualified/doc/
// signature, then enriches SQLite's bm25 rank with a Porter2-stemmed token
// overlap signal: two queries with the same stems but different surface
// forms ("connects" vs "connecting") still contribute to relevance. Rank
// position carries 0.85 of the score and stem overlap 0.15, so the overlap
// can reorder results whose rank scores are close but never lifts a result
// above the top FTS5 hit.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	ftsQuery := ftsMatchQuery(query)
	sqlQuery := nodeSelectColumnsPrefixed + `
        JOIN nodes_fts ON nodes_fts.rowid = nodes.id
        WHERE nodes_fts MATCH ?`
	args := []any{ftsQuery}

	if len(opts.Kinds) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(opts.Kinds)), ",")
		sqlQuery += ` AND nodes.kind IN (` + placeholders + `)`
		for _, k := range opts.Kinds {
			args = append(args, string(k))
		}
	}
	sqlQuery += ` ORDER BY bm25(nodes_fts) LIMIT ?`
	args = append(args, limit*4) // overfetch; re-ranked below, then truncated to limit.

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}

	stems := stemTokens(query)
	results := make([]SearchResult, 0, len(nodes))
	for i, n := range nodes {
		// bm25 is unbounded and lower-is-better; convert rank position into a
		// bounded base score, then blend in stem overlap.
		base := 1.0 / float64(i+1)
		overlap := stemOverlapScore(stems, n)
		score := 0.85*base + 0.15*overlap
		if score > 1 {
			score = 1
		}
		results = append(results, SearchResult{Node: n, Score: score})
	}

	sortResultsByScoreDesc(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

const nodeSelectColumnsPrefixed = `
    SELECT nodes.id, nodes.kind, nodes.name, nodes.qualified, nodes.file_path, nodes.language,
           nodes.start_byte, nodes.end_byte, nodes.start_line, nodes.start_col, nodes.end_line, nodes.end_col,
           nodes.doc, nodes.signature, nodes.visibility, nodes.exported, nodes.async, nodes.static, nodes.abstract,
           nodes.decorators, nodes.generics, nodes.last_updated
    FROM nodes`

// ftsMatchQuery turns free text into an FTS5 MATCH expression: each token
// becomes a prefix match so partial identifiers ("resolv" -> "resolver")
// still hit.
func ftsMatchQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " OR ")
}

func stemTokens(query string) map[string]bool {
	stems := map[string]bool{}
	for _, f := range strings.Fields(query) {
		stems[porter2.Stem(strings.ToLower(f))] = true
	}
	return stems
}

func stemOverlapScore(queryStems map[string]bool, n graph.Node) float64 {
	if len(queryStems) == 0 {
		return 0
	}
	haystack := strings.Fields(strings.ToLower(n.Name + " " + n.Qualified + " " + n.Doc + " " + n.Signature))
	matched := 0
	for _, w := range haystack {
		if queryStems[porter2.Stem(w)] {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	score := float64(matched) / float64(len(queryStems))
	if score > 1 {
		score = 1
	}
	return score
}

func sortResultsByScoreDesc(results []SearchResult) {
	// Small result sets; insertion sort keeps this dependency-free and stable.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
