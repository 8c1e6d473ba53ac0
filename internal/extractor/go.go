package extractor

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/southerncoder/codegraph/internal/parser"
)

// extractGo walks a Go syntax tree. Grounded on standardbeagle-lci's
// GoExtractor.extractSymbolsFromNode: a switch over node.Kind() at the
// top level of functions/methods/types, generalized to emit NodeDraft /
// EdgeDraft / RefDraft instead of a symbol table entry.
func extractGo(tree *parser.Tree) Result {
	content := tree.Content
	root := tree.Root()
	var res Result
	counter := 0
	next := func(prefix string) string {
		counter++
		return localID(prefix, counter)
	}

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_declaration":
			for _, spec := range collectImportSpecs(child) {
				path := importSpecPath(spec, content)
				if path == "" {
					continue
				}
				pos := spec.StartPosition()
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: fileLocalID, Name: path, TargetKind: "imports",
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}

		case "function_declaration":
			goFunction(child, content, next, &res)

		case "method_declaration":
			goMethod(child, content, next, &res)

		case "type_declaration":
			goTypeDecl(child, content, next, &res)

		case "var_declaration", "const_declaration":
			goVarOrConst(child, content, child.Kind() == "const_declaration", next, &res)
		}
	}

	return res
}

func collectImportSpecs(decl *sitter.Node) []*sitter.Node {
	if list := findChildByType(decl, "import_spec_list"); list != nil {
		var specs []*sitter.Node
		for _, c := range children(list) {
			if c.Kind() == "import_spec" {
				specs = append(specs, c)
			}
		}
		return specs
	}
	if spec := findChildByType(decl, "import_spec"); spec != nil {
		return []*sitter.Node{spec}
	}
	return nil
}

func importSpecPath(spec *sitter.Node, content []byte) string {
	str := findChildByType(spec, "interpreted_string_literal")
	if str == nil {
		return ""
	}
	text := nodeText(str, content)
	return strings.Trim(text, `"`)
}

func goFunction(n *sitter.Node, content []byte, next func(string) string, res *Result) {
	nameNode := findChildByType(n, "identifier")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	id := next("func")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "function", Name: name, Span: nodeSpan(n),
		Signature: goSignature(n, content), Exported: goExported(name),
		Doc: precedingDocComment(n, content, "comment"),
	})
	walkGoCalls(findChildByType(n, "block"), content, id, next, res)
}

func goMethod(n *sitter.Node, content []byte, next func(string) string, res *Result) {
	nameNode := findChildByType(n, "field_identifier")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	receiver := strings.TrimPrefix(goReceiverType(n, content), "*")
	var containers []string
	if receiver != "" {
		containers = []string{receiver}
	}
	id := next("method")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: id, Kind: "method", Name: name, Containers: containers, Span: nodeSpan(n),
		Signature: goSignature(n, content), Exported: goExported(name),
		Doc: precedingDocComment(n, content, "comment"),
	})
	walkGoCalls(findChildByType(n, "block"), content, id, next, res)
}

func goReceiverType(n *sitter.Node, content []byte) string {
	recv := findChildByType(n, "parameter_list")
	if recv == nil {
		return ""
	}
	for _, param := range children(recv) {
		if param.Kind() != "parameter_declaration" {
			continue
		}
		if t := findChildByType(param, "type_identifier"); t != nil {
			return nodeText(t, content)
		}
		if ptr := findChildByType(param, "pointer_type"); ptr != nil {
			if t := findChildByType(ptr, "type_identifier"); t != nil {
				return "*" + nodeText(t, content)
			}
		}
	}
	return ""
}

func goTypeDecl(n *sitter.Node, content []byte, next func(string) string, res *Result) {
	spec := findChildByType(n, "type_spec")
	if spec == nil {
		spec = findChildByType(n, "type_alias")
	}
	if spec == nil {
		return
	}
	nameNode := findChildByType(spec, "type_identifier")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, content)
	kind := "type_alias"
	var fieldNodes []*sitter.Node
	for _, c := range children(spec) {
		switch c.Kind() {
		case "struct_type":
			kind = "struct"
			fieldNodes = structFields(c)
		case "interface_type":
			kind = "interface"
		}
	}

	typeID := next("type")
	res.Nodes = append(res.Nodes, NodeDraft{
		LocalID: typeID, Kind: kind, Name: name, Span: nodeSpan(n),
		Exported: goExported(name), Doc: precedingDocComment(n, content, "comment"),
	})

	for _, f := range fieldNodes {
		fNameNode := findChildByType(f, "field_identifier")
		if fNameNode == nil {
			continue
		}
		fName := nodeText(fNameNode, content)
		fID := next("field")
		res.Nodes = append(res.Nodes, NodeDraft{
			LocalID: fID, Kind: "field", Name: fName, Containers: []string{name}, Span: nodeSpan(f),
			Exported: goExported(fName),
		})
		res.Edges = append(res.Edges, EdgeDraft{SourceLocalID: typeID, TargetLocalID: fID, Kind: "contains"})
	}
}

func structFields(structType *sitter.Node) []*sitter.Node {
	list := findChildByType(structType, "field_declaration_list")
	if list == nil {
		return nil
	}
	var out []*sitter.Node
	for _, c := range children(list) {
		if c.Kind() == "field_declaration" {
			out = append(out, c)
		}
	}
	return out
}

func goVarOrConst(n *sitter.Node, content []byte, isConst bool, next func(string) string, res *Result) {
	kind := "variable"
	if isConst {
		kind = "constant"
	}
	for _, spec := range goVarSpecs(n) {
		for _, c := range children(spec) {
			if c.Kind() != "identifier" {
				continue
			}
			name := nodeText(c, content)
			id := next("var")
			res.Nodes = append(res.Nodes, NodeDraft{
				LocalID: id, Kind: kind, Name: name, Span: nodeSpan(c), Exported: goExported(name),
			})
		}
	}
}

func goVarSpecs(n *sitter.Node) []*sitter.Node {
	specKind := "var_spec"
	if n.Kind() == "const_declaration" {
		specKind = "const_spec"
	}
	if list := findChildByType(n, specKind+"_list"); list != nil {
		var out []*sitter.Node
		for _, c := range children(list) {
			if c.Kind() == specKind {
				out = append(out, c)
			}
		}
		return out
	}
	var out []*sitter.Node
	for _, c := range children(n) {
		if c.Kind() == specKind {
			out = append(out, c)
		}
	}
	return out
}

func goSignature(n *sitter.Node, content []byte) string {
	params := findChildByType(n, "parameter_list")
	if params == nil {
		return ""
	}
	start := params.StartByte()
	end := n.EndByte()
	if body := findChildByType(n, "block"); body != nil {
		end = body.StartByte()
	}
	if int(end) > len(content) || start >= end {
		return ""
	}
	return strings.TrimSpace(string(content[start:end]))
}

func goExported(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'A' && r <= 'Z'
}

// walkGoCalls scans a function/method body for call_expressions, recording
// each as an unresolved reference the resolver's call strategies attempt to
// bind to a node.
func walkGoCalls(n *sitter.Node, content []byte, sourceID string, next func(string) string, res *Result) {
	if n == nil {
		return
	}
	if n.Kind() == "call_expression" {
		if fn := findChildByField(n, "function"); fn != nil {
			name := callTargetName(fn, content)
			if name != "" {
				pos := n.StartPosition()
				res.Unresolved = append(res.Unresolved, RefDraft{
					SourceLocalID: sourceID, Name: name, TargetKind: "calls",
					Line: int(pos.Row) + 1, Column: int(pos.Column),
				})
			}
		}
	}
	for _, c := range children(n) {
		walkGoCalls(c, content, sourceID, next, res)
	}
}

func callTargetName(n *sitter.Node, content []byte) string {
	switch n.Kind() {
	case "identifier":
		return nodeText(n, content)
	case "selector_expression":
		if field := findChildByField(n, "field"); field != nil {
			return nodeText(field, content)
		}
	}
	return ""
}
