package extractor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/southerncoder/codegraph/internal/parser"
)

// extractJSFamily handles JavaScript, TypeScript and TSX with one walk,
// grounded on standardbeagle-lci's JSExtractor.extractSymbolsFromNode
// (one recursive switch shared across the three grammars, since they
// differ only in a handful of TypeScript-only node kinds).
func extractJSFamily(tree *parser.Tree) Result {
	content := tree.Content
	root := tree.Root()
	var res Result
	counter := 0
	next := func(prefix string) string {
		counter++
		return localID(prefix, counter)
	}

	walkJS(root, content, fileLocalID, nil, next, &res)
	return res
}

// walkJS recurses over the tree, threading scopeID (the LocalID edges wire
// against) and containers (the enclosing class/interface name chain
// QualifiedName uses) separately: scopeID changes at every nameable node,
// containers only grows when descending into a class body.
func walkJS(n *sitter.Node, content []byte, scopeID string, containers []string, next func(string) string, res *Result) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "import_statement":
		jsImport(n, content, res)
		return

	case "call_expression":
		if fn := findChildByField(n, "function"); fn != nil {
			if name := jsCallTargetName(fn, content); name != "" {
				pos := n.StartPosition()
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: scopeID, Name: name, TargetKind: "calls",
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}
		}

	case "function_declaration", "function_expression", "generator_function_declaration":
		if id := jsFunction(n, content, containers, next, res); id != "" {
			scopeID = id
		}

	case "class_declaration":
		classID, className := jsClass(n, content, containers, next, res)
		if body := findChildByType(n, "class_body"); body != nil {
			childContainers := containers
			if className != "" {
				childContainers = append(append([]string{}, containers...), className)
			}
			for _, c := range children(body) {
				walkJS(c, content, classID, childContainers, next, res)
			}
		}
		return

	case "method_definition":
		if id := jsMethod(n, content, containers, next, res); id != "" {
			scopeID = id
		}

	case "interface_declaration":
		jsInterface(n, content, containers, next, res)

	case "lexical_declaration", "variable_declaration":
		jsVariables(n, content, containers, next, res)
	}

	for _, c := range children(n) {
		walkJS(c, content, scopeID, containers, next, res)
	}
}

func jsImport(n *sitter.Node, content []byte, res *Result) {
	str := findChildByType(n, "string")
	if str == nil {
		return
	}
	path := strings.Trim(nodeText(str, content), `"'`)
	pos := n.StartPosition()
	res.Unresolved = append(res.Unresolved, RefDraft{
		SourceLocalID: fileLocalID, Name: path, TargetKind: "imports",
		Line: int(pos.Row) + 1, Column: int(pos.Column),
	})
}

func jsCallTargetName(n *sitter.Node, content []byte) string {
	switch n.Kind() {
	case "identifier":
		return nodeText(n, content)
	case "member_expression":
		if prop := findChildByField(n, "property"); prop != nil {
			return nodeText(prop, content)
		}
	}
	return ""
}

func jsFunction(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) string {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return ""
	}
	name := nodeText(nameNode, content)
	id := next("func")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "function", Name: name, Containers: containers, Span: nodeSpan(n),
		Async: jsHasKeyword(n, content, "async"), Exported: jsIsExported(n),
		Doc: precedingDocComment(n, content, "comment"),
	})
	return id
}

// jsClass returns the node's LocalID and simple name; callers extend
// containers with the name before recursing into the class body.
func jsClass(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) (string, string) {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return "", ""
	}
	name := nodeText(nameNode, content)
	id := next("class")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "class", Name: name, Containers: containers, Span: nodeSpan(n),
		Exported: jsIsExported(n), Doc: precedingDocComment(n, content, "comment"),
	})

	if heritage := findChildByType(n, "class_heritage"); heritage != nil {
		for _, c := range children(heritage) {
			if ident := extractIdentifierLeaf(c, content); ident != "" {
				pos := c.StartPosition()
				kind := "extends"
				if c.Kind() == "implements_clause" {
					kind = "implements"
				}
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: id, Name: ident, TargetKind: kind,
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}
		}
	}
	return id, name
}

func extractIdentifierLeaf(n *sitter.Node, content []byte) string {
	if n.Kind() == "identifier" || n.Kind() == "type_identifier" {
		return nodeText(n, content)
	}
	for _, c := range children(n) {
		if id := extractIdentifierLeaf(c, content); id != "" {
			return id
		}
	}
	return ""
}

func jsMethod(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) string {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return ""
	}
	name := nodeText(nameNode, content)
	id := next("method")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "method", Name: name, Containers: containers, Span: nodeSpan(n),
		Async:  jsHasKeyword(n, content, "async"),
		Static: jsHasKeyword(n, content, "static"),
		Doc:    precedingDocComment(n, content, "comment"),
	})
	return id
}

func jsInterface(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return
	}
	id := next("interface")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "interface", Name: nodeText(nameNode, content), Containers: containers, Span: nodeSpan(n),
		Exported: jsIsExported(n), Doc: precedingDocComment(n, content, "comment"),
	})
}

func jsVariables(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) {
	for _, declarator := range children(n) {
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		nameNode := findChildByField(declarator, "name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		id := next("var")
		res.Nodes = append(res.Nodes, NodeDraft{
			LocalID: id, Kind: "variable", Name: nodeText(nameNode, content), Containers: containers, Span: nodeSpan(declarator),
			Exported: jsIsExported(n),
		})
	}
}

func jsIsExported(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

func jsHasKeyword(n *sitter.Node, content []byte, keyword string) bool {
	for _, c := range children(n) {
		if nodeText(c, content) == keyword {
			return true
		}
	}
	return false
}
