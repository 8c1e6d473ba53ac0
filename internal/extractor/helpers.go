// Package extractor turns a parsed syntax tree into graph nodes, intra-file
// edges, and unresolved references. Grounded on standardbeagle-lci's
// internal/symbollinker extractors (go_extractor.go, js_extractor.go,
// python_extractor.go): a recursive-descent walk over tree-sitter nodes
// using small structural helpers, generalized to spec.md's node/edge model
// instead of the teacher's symbol table.
package extractor

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Result is everything one file's extraction produces.
type Result struct {
	Nodes     []NodeDraft
	Edges     []EdgeDraft
	Unresolved []RefDraft
	Errors    []string
}

// NodeDraft is a node awaiting a derived ID (qualified name is assigned by
// the caller once the draft's container path is known).
type NodeDraft struct {
	LocalID    string // scoped to this file; used to wire contains/calls edges before IDs exist
	Kind       string
	Name       string
	Containers []string
	Span       Span
	Doc        string
	Signature  string
	Visibility string
	Exported   bool
	Async      bool
	Static     bool
	Abstract   bool
	Decorators []string
	Generics   []string
}

// EdgeDraft references nodes by LocalID; file-level edges (e.g. contains)
// use "" to mean the file node itself.
type EdgeDraft struct {
	SourceLocalID string
	TargetLocalID string
	Kind          string
	Line          int
	Column        int
}

// RefDraft is a use the extractor could not bind within the file: a call,
// import, or type reference naming a symbol defined elsewhere (or not at
// all). The resolver owns turning these into edges or leaving them
// unresolved.
type RefDraft struct {
	SourceLocalID string
	Name          string
	TargetKind    string
	Line          int
	Column        int
}

// Span mirrors graph.Span without importing the graph package, since
// extractor operates purely on byte/line offsets until the caller assigns
// node IDs.
type Span struct {
	StartByte, EndByte           int
	StartLine, StartCol          int
	EndLine, EndCol              int
}

func nodeSpan(n *sitter.Node) Span {
	start := n.StartPosition()
	end := n.EndPosition()
	return Span{
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// findChildByType returns the first direct child whose Kind matches.
func findChildByType(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// findChildByField returns a named field child, tree-sitter's preferred
// lookup when the grammar defines field names.
func findChildByField(n *sitter.Node, field string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(field)
}

func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// precedingDocComment returns the text of a contiguous run of comment
// siblings immediately above node, the common shape for doc comments
// across the C-family and Python docstring-free languages alike.
func precedingDocComment(n *sitter.Node, content []byte, commentKind string) string {
	prev := n.PrevSibling()
	var lines []string
	for prev != nil && prev.Kind() == commentKind {
		lines = append([]string{nodeText(prev, content)}, lines...)
		prev = prev.PrevSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}
