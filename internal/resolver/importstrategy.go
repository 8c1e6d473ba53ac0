package resolver

import (
	"path/filepath"
	"strings"

	"github.com/southerncoder/codegraph/internal/graph"
)

// aliasPrefixes maps a bare-path import prefix to the repo-relative
// directory it conventionally resolves against, per spec.md §4.5's named
// prefixes: `@/`, `~/`, `@src/`, `src/`, `app/`.
var aliasPrefixes = []struct {
	prefix string
	dir    string
}{
	{"@/", "src/"},
	{"~/", "src/"},
	{"@src/", "src/"},
	{"src/", "src/"},
	{"app/", "app/"},
}

// extensionSearchOrder lists the file extensions tried, in order, when a
// specifier names a path with no extension, keyed by the referencing
// file's language.
var extensionSearchOrder = map[string][]string{
	"javascript": {".js", ".jsx", ".mjs", "/index.js"},
	"typescript": {".ts", ".tsx", ".js", "/index.ts"},
	"tsx":        {".tsx", ".ts", "/index.tsx"},
	"python":     {".py", "/__init__.py"},
	"go":         {".go"},
}

// resolveImport implements the import strategy (spec.md §4.5 step 3): find
// the import binding in ref's file that produced ref.Name, rewrite its
// specifier against alias prefixes and the language's extension search
// order into a candidate file path, and return the exported symbol node of
// that name in the target file.
func resolveImport(ref graph.UnresolvedReference, idx *Index) (graph.Node, bool) {
	bindings := idx.importsForFile(ref.FilePath)
	var specifier string
	found := false
	for _, b := range bindings {
		if b.LocalName == ref.Name {
			specifier = b.Specifier
			found = true
			break
		}
	}
	if !found {
		return graph.Node{}, false
	}

	for _, candidatePath := range candidateImportPaths(ref.FilePath, ref.Language, specifier) {
		if !idx.knownFiles[candidatePath] {
			continue
		}
		for _, n := range idx.byExactName[ref.Name] {
			if n.FilePath == candidatePath && n.Exported {
				return n, true
			}
		}
	}
	return graph.Node{}, false
}

// candidateImportPaths expands a raw import specifier into the ordered
// list of repo-relative file paths it might refer to.
func candidateImportPaths(fromFile, language, specifier string) []string {
	base := specifier

	for _, a := range aliasPrefixes {
		if strings.HasPrefix(specifier, a.prefix) {
			base = a.dir + strings.TrimPrefix(specifier, a.prefix)
			break
		}
	}

	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		base = graph.NormalizePath(filepath.Join(filepath.Dir(fromFile), specifier))
	}

	if filepath.Ext(base) != "" {
		return []string{base}
	}

	var out []string
	for _, suffix := range extensionSearchOrder[language] {
		out = append(out, base+suffix)
	}
	return out
}
