package extractor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/southerncoder/codegraph/internal/parser"
)

// genericNodeKind classifies a tree-sitter node kind across grammars this
// package has no bespoke extractor for (C#, Java, PHP, Rust, C++, Zig).
// Grounded on standardbeagle-lci's CommunityParserAdapter: rather than a
// bespoke query per grammar, one structural classifier recognizes the
// handful of declaration shapes that recur across C-family and
// curly-brace languages by node-kind substring.
func genericNodeKind(kind string) (string, bool) {
	switch {
	case strings.HasSuffix(kind, "function_declaration"), strings.HasSuffix(kind, "function_definition"),
		strings.HasSuffix(kind, "function_item"):
		return "function", true
	case strings.HasSuffix(kind, "method_declaration"), strings.HasSuffix(kind, "method_definition"):
		return "method", true
	case strings.HasSuffix(kind, "class_declaration"), strings.HasSuffix(kind, "class_definition"):
		return "class", true
	case strings.HasSuffix(kind, "struct_item"), strings.HasSuffix(kind, "struct_specifier"),
		strings.HasSuffix(kind, "struct_declaration"):
		return "struct", true
	case strings.HasSuffix(kind, "interface_declaration"):
		return "interface", true
	case strings.HasSuffix(kind, "trait_item"):
		return "trait", true
	case strings.HasSuffix(kind, "enum_declaration"), strings.HasSuffix(kind, "enum_item"):
		return "enum", true
	case strings.HasSuffix(kind, "namespace_declaration"), strings.HasSuffix(kind, "mod_item"):
		return "namespace", true
	}
	return "", false
}

// extractGeneric walks any grammar using only generic node-kind matching.
// It finds a name via the grammar's "name" field or, failing that, a direct
// identifier, type_identifier or field_identifier child, and has no
// call-graph or import awareness beyond that
// — languages with a bespoke extractor (Go, JS/TS, Python) get that
// richer treatment instead.
func extractGeneric(tree *parser.Tree) Result {
	content := tree.Content
	var res Result
	counter := 0
	next := func(prefix string) string {
		counter++
		return localID(prefix, counter)
	}

	// walk threads scopeID (the LocalID edges wire against) and containers
	// (the enclosing type name chain QualifiedName uses) separately:
	// scopeID changes at every nameable node, containers only grows when
	// descending into a class/struct/interface/trait/enum/namespace body.
	var walk func(n *sitter.Node, scopeID string, containers []string)
	walk = func(n *sitter.Node, scopeID string, containers []string) {
		if n == nil {
			return
		}

		childContainers := containers
		if kind, ok := genericNodeKind(n.Kind()); ok {
			if name := genericNodeName(n, content); name != "" {
				id := next(kind)
				res.Nodes = append(res.Nodes, NodeDraft{
					LocalID: id, Kind: kind, Name: name, Containers: containers, Span: nodeSpan(n),
					Doc: precedingDocComment(n, content, "comment"),
				})
				if scopeID != fileLocalID {
					res.Edges = append(res.Edges, EdgeDraft{SourceLocalID: scopeID, TargetLocalID: id, Kind: "contains"})
				}
				scopeID = id
				if isGenericContainerKind(kind) {
					childContainers = append(append([]string{}, containers...), name)
				}
			}
		}

		for _, c := range children(n) {
			walk(c, scopeID, childContainers)
		}
	}

	walk(tree.Root(), fileLocalID, nil)
	return res
}

// isGenericContainerKind reports whether a generic node kind introduces a
// body whose members should be qualified by the type's name, mirroring the
// bespoke extractors' class/struct handling.
func isGenericContainerKind(kind string) bool {
	switch kind {
	case "class", "struct", "interface", "trait", "enum", "namespace":
		return true
	}
	return false
}

func genericNodeName(n *sitter.Node, content []byte) string {
	if named := findChildByField(n, "name"); named != nil {
		return nodeText(named, content)
	}
	for _, kind := range []string{"identifier", "type_identifier", "field_identifier"} {
		if id := findChildByType(n, kind); id != nil {
			return nodeText(id, content)
		}
	}
	return ""
}
