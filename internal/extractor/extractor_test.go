package extractor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/parser"
)

func parseFixture(t *testing.T, lang parser.Language, content string) *parser.Tree {
	t.Helper()
	reg := parser.NewRegistry()
	tree, err := reg.Parse(context.Background(), lang, []byte(content))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func findNode(nodes []graph.Node, kind graph.NodeKind, name string) (graph.Node, bool) {
	for _, n := range nodes {
		if n.Kind == kind && n.Name == name {
			return n, true
		}
	}
	return graph.Node{}, false
}

func TestExtractGoFunctionsAndCalls(t *testing.T) {
	src := `package main

import "fmt"

func helper() {
	fmt.Println("hi")
}

func main() {
	helper()
}
`
	tree := parseFixture(t, parser.Go, src)
	nodes, edges, refs, errs := Extract(tree, "main.go", time.Unix(0, 0))
	require.Empty(t, errs)

	fileNode, ok := findNode(nodes, graph.KindFile, "main.go")
	require.True(t, ok)

	helperNode, ok := findNode(nodes, graph.KindFunction, "helper")
	require.True(t, ok)
	mainNode, ok := findNode(nodes, graph.KindFunction, "main")
	require.True(t, ok)

	var sawFileContainsHelper, sawFileContainsMain bool
	for _, e := range edges {
		if e.Kind == graph.EdgeContains && e.Source == fileNode.ID && e.Target == helperNode.ID {
			sawFileContainsHelper = true
		}
		if e.Kind == graph.EdgeContains && e.Source == fileNode.ID && e.Target == mainNode.ID {
			sawFileContainsMain = true
		}
	}
	require.True(t, sawFileContainsHelper)
	require.True(t, sawFileContainsMain)

	var sawImport, sawCall bool
	for _, r := range refs {
		if r.TargetKind == graph.EdgeImports && r.Name == "fmt" {
			sawImport = true
		}
		if r.TargetKind == graph.EdgeCalls && r.Name == "helper" && r.Source == mainNode.ID {
			sawCall = true
		}
	}
	require.True(t, sawImport)
	require.True(t, sawCall)
}

func TestExtractGoStructFields(t *testing.T) {
	src := `package main

type Point struct {
	X int
	Y int
}
`
	tree := parseFixture(t, parser.Go, src)
	nodes, edges, _, _ := Extract(tree, "point.go", time.Unix(0, 0))

	structNode, ok := findNode(nodes, graph.KindStruct, "Point")
	require.True(t, ok)

	xField, ok := findNode(nodes, graph.KindField, "X")
	require.True(t, ok)

	var sawContains bool
	for _, e := range edges {
		if e.Kind == graph.EdgeContains && e.Source == structNode.ID && e.Target == xField.ID {
			sawContains = true
		}
	}
	require.True(t, sawContains)
}

func TestExtractJSImportsAndClass(t *testing.T) {
	src := `import { helper } from "./util";

export class Widget extends Base {
	render() {
		helper();
	}
}
`
	tree := parseFixture(t, parser.JavaScript, src)
	nodes, edges, refs, _ := Extract(tree, "widget.js", time.Unix(0, 0))
	require.NotEmpty(t, nodes)
	require.NotEmpty(t, edges)

	classNode, ok := findNode(nodes, graph.KindClass, "Widget")
	require.True(t, ok)
	require.True(t, classNode.Exported)

	var sawExtends, sawImport bool
	for _, r := range refs {
		if r.TargetKind == graph.EdgeExtends && r.Name == "Base" {
			sawExtends = true
		}
		if r.TargetKind == graph.EdgeImports && r.Name == "./util" {
			sawImport = true
		}
	}
	require.True(t, sawExtends)
	require.True(t, sawImport)
}

func TestExtractPythonFunctionAndClass(t *testing.T) {
	src := `import os

class Greeter(Base):
	"""Says hello."""

	def greet(self):
		return os.getcwd()
`
	tree := parseFixture(t, parser.Python, src)
	nodes, edges, refs, _ := Extract(tree, "greeter.py", time.Unix(0, 0))
	require.NotEmpty(t, edges)

	classNode, ok := findNode(nodes, graph.KindClass, "Greeter")
	require.True(t, ok)
	require.Equal(t, "Says hello.", classNode.Doc)

	_, ok = findNode(nodes, graph.KindMethod, "greet")
	require.True(t, ok)

	var sawExtends, sawImport bool
	for _, r := range refs {
		if r.TargetKind == graph.EdgeExtends && r.Name == "Base" {
			sawExtends = true
		}
		if r.TargetKind == graph.EdgeImports && r.Name == "os" {
			sawImport = true
		}
	}
	require.True(t, sawExtends)
	require.True(t, sawImport)
}

func TestExtractGenericCSharpClass(t *testing.T) {
	src := `namespace App {
	public class Service {
		public void Run() {}
	}
}
`
	tree := parseFixture(t, parser.CSharp, src)
	nodes, _, _, _ := Extract(tree, "service.cs", time.Unix(0, 0))

	_, ok := findNode(nodes, graph.KindClass, "Service")
	require.True(t, ok)
}

func TestExtractMalformedFileDoesNotPanic(t *testing.T) {
	tree := parseFixture(t, parser.Go, "func {{{ broken")
	require.NotPanics(t, func() {
		Extract(tree, "broken.go", time.Unix(0, 0))
	})
}

func TestBuildImportMapGo(t *testing.T) {
	src := `package main

import (
	"fmt"
	myos "os"
)
`
	m := BuildImportMap(parser.Go, []byte(src))
	require.Len(t, m, 2)
	require.Equal(t, "fmt", m[0].Specifier)
	require.Equal(t, "fmt", m[0].LocalName)
	require.Equal(t, "os", m[1].Specifier)
	require.Equal(t, "myos", m[1].LocalName)
}

func TestBuildImportMapJS(t *testing.T) {
	src := `import React, { useState as useS } from "react";
import "./polyfill";
`
	m := BuildImportMap(parser.JavaScript, []byte(src))
	require.GreaterOrEqual(t, len(m), 3)

	var gotReact, gotUseS, gotSideEffect bool
	for _, mm := range m {
		if mm.LocalName == "React" && mm.Specifier == "react" {
			gotReact = true
		}
		if mm.LocalName == "useS" && mm.Specifier == "react" {
			gotUseS = true
		}
		if mm.Specifier == "./polyfill" {
			gotSideEffect = true
		}
	}
	require.True(t, gotReact)
	require.True(t, gotUseS)
	require.True(t, gotSideEffect)
}

func TestBuildImportMapPython(t *testing.T) {
	src := "from collections import OrderedDict as OD\nimport os.path\n"
	m := BuildImportMap(parser.Python, []byte(src))
	require.Len(t, m, 2)
	require.Equal(t, "OD", m[0].LocalName)
	require.Equal(t, "os", m[1].LocalName)
}
