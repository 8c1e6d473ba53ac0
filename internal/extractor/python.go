package extractor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/southerncoder/codegraph/internal/parser"
)

// extractPython walks a Python syntax tree. Grounded on
// standardbeagle-lci's python_extractor.go structure (import_statement /
// import_from_statement, function_definition, class_definition, with a
// docstring pulled from the first statement in a body rather than from
// preceding comments).
func extractPython(tree *parser.Tree) Result {
	content := tree.Content
	root := tree.Root()
	var res Result
	counter := 0
	next := func(prefix string) string {
		counter++
		return localID(prefix, counter)
	}

	walkPython(root, content, fileLocalID, nil, next, &res)
	return res
}

// walkPython recurses over the tree, threading scopeID (the LocalID edges
// wire against) and containers (the enclosing class name chain
// QualifiedName uses) separately: scopeID changes at every nameable node,
// containers only grows when descending into a class body.
func walkPython(n *sitter.Node, content []byte, scopeID string, containers []string, next func(string) string, res *Result) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "import_statement", "import_from_statement":
		pythonImport(n, content, res)
		return

	case "call":
		if fn := findChildByField(n, "function"); fn != nil {
			if name := pythonCallTargetName(fn, content); name != "" {
				pos := n.StartPosition()
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: scopeID, Name: name, TargetKind: "calls",
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}
		}

	case "function_definition":
		id := pythonFunction(n, content, containers, next, res)
		if id != "" {
			if body := findChildByField(n, "body"); body != nil {
				for _, c := range children(body) {
					walkPython(c, content, id, containers, next, res)
				}
			}
			return
		}

	case "class_definition":
		classID, className := pythonClass(n, content, containers, next, res)
		if body := findChildByField(n, "body"); body != nil {
			childContainers := containers
			if className != "" {
				childContainers = append(append([]string{}, containers...), className)
			}
			for _, c := range children(body) {
				walkPython(c, content, classID, childContainers, next, res)
			}
		}
		return
	}

	for _, c := range children(n) {
		walkPython(c, content, scopeID, containers, next, res)
	}
}

func pythonImport(n *sitter.Node, content []byte, res *Result) {
	pos := n.StartPosition()
	for _, c := range children(n) {
		name := ""
		switch c.Kind() {
		case "dotted_name":
			name = nodeText(c, content)
		case "aliased_import":
			if dotted := findChildByType(c, "dotted_name"); dotted != nil {
				name = nodeText(dotted, content)
			}
		}
		if name == "" {
			continue
		}
		res.Unresolved = append(res.Unresolved, RefDraft{
			SourceLocalID: fileLocalID, Name: name, TargetKind: "imports",
			Line: int(pos.Row) + 1, Column: int(pos.Column),
		})
	}
}

func pythonCallTargetName(n *sitter.Node, content []byte) string {
	switch n.Kind() {
	case "identifier":
		return nodeText(n, content)
	case "attribute":
		if attr := findChildByField(n, "attribute"); attr != nil {
			return nodeText(attr, content)
		}
	}
	return ""
}

func pythonFunction(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) string {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return ""
	}
	name := nodeText(nameNode, content)
	kind := "function"
	if parent := n.Parent(); parent != nil && parent.Kind() == "block" {
		if grand := parent.Parent(); grand != nil && grand.Kind() == "class_definition" {
			kind = "method"
		}
	}

	id := next("func")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: kind, Name: name, Containers: containers, Span: nodeSpan(n),
		Async:     pythonHasKeyword(n, content, "async"),
		Signature: pythonSignature(n, content),
		Doc:       pythonDocstring(n, content),
		Exported:  !strings.HasPrefix(name, "_"),
	})
	return id
}

// pythonClass returns the node's LocalID and simple name; callers extend
// containers with the name before recursing into the class body.
func pythonClass(n *sitter.Node, content []byte, containers []string, next func(string) string, res *Result) (string, string) {
	nameNode := findChildByField(n, "name")
	if nameNode == nil {
		return "", ""
	}
	name := nodeText(nameNode, content)
	id := next("class")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "class", Name: name, Containers: containers, Span: nodeSpan(n),
		Doc: pythonDocstring(n, content), Exported: !strings.HasPrefix(name, "_"),
	})

	if bases := findChildByField(n, "superclasses"); bases != nil {
		for _, c := range children(bases) {
			if c.Kind() == "identifier" {
				pos := c.StartPosition()
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: id, Name: nodeText(c, content), TargetKind: "extends",
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}
		}
	}
	return id, name
}

func pythonSignature(n *sitter.Node, content []byte) string {
	params := findChildByField(n, "parameters")
	nameNode := findChildByField(n, "name")
	if params == nil || nameNode == nil {
		return ""
	}
	if int(params.EndByte()) > len(content) {
		return ""
	}
	return strings.TrimSpace(string(content[nameNode.StartByte():params.EndByte()]))
}

func pythonDocstring(n *sitter.Node, content []byte) string {
	body := findChildByField(n, "body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	str := findChildByType(first, "string")
	if str == nil {
		return ""
	}
	return strings.Trim(nodeText(str, content), `"'`)
}

func pythonHasKeyword(n *sitter.Node, content []byte, keyword string) bool {
	for _, c := range children(n) {
		if nodeText(c, content) == keyword {
			return true
		}
	}
	return false
}
