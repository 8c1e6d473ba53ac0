package extractor

import (
	"regexp"
	"strings"

	"github.com/southerncoder/codegraph/internal/parser"
)

// ImportMapping is one binding recorded by the regex-based importer: the
// local name code in this file uses (the bound identifier, alias, or
// wildcard member) and the raw module/path specifier it came from.
type ImportMapping struct {
	LocalName string
	Specifier string
	Line      int
}

// goImportLineRe matches both the single-line `import "path"` form and
// each line of a parenthesized import block (`alias "path"` or `"path"`).
var goImportLineRe = regexp.MustCompile(`(?m)^\s*(?:import\s+)?(?:(\w+|\.|_)\s+)?"([^"]+)"\s*$`)

var (
	jsNamedImportRe   = regexp.MustCompile(`import\s+([\w$]+)?\s*,?\s*(?:\{([^}]*)\})?\s*(?:\*\s+as\s+([\w$]+))?\s*from\s+['"]([^'"]+)['"]`)
	jsRequireRe       = regexp.MustCompile(`(?:const|let|var)\s+(?:\{([^}]*)\}|([\w$]+))\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsSideEffectOnlyRe = regexp.MustCompile(`import\s+['"]([^'"]+)['"]`)
)

var (
	pyFromImportRe = regexp.MustCompile(`from\s+([\w.]+)\s+import\s+([^\n]+)`)
	pyPlainImportRe = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)(?:\s+as\s+(\w+))?`)
)

// BuildImportMap extracts a file's import bindings with a lightweight
// regex pass, deliberately separate from and independent of the
// tree-sitter extraction path: the resolver's import strategy consults
// this cache to map a bare reference name back to the file it was
// imported from, without re-parsing the whole file through tree-sitter.
func BuildImportMap(lang parser.Language, source []byte) []ImportMapping {
	switch lang {
	case parser.Go:
		return goImportMap(source)
	case parser.JavaScript, parser.TypeScript, parser.TSX:
		return jsImportMap(source)
	case parser.Python:
		return pythonImportMap(source)
	default:
		return genericImportMap(source)
	}
}

func lineOf(source []byte, offset int) int {
	return strings.Count(string(source[:offset]), "\n") + 1
}

func goImportMap(source []byte) []ImportMapping {
	var out []ImportMapping
	for _, m := range goImportLineRe.FindAllSubmatchIndex(source, -1) {
		specifier := string(source[m[4]:m[5]])
		alias := ""
		if m[2] != -1 {
			alias = string(source[m[2]:m[3]])
		}
		local := alias
		if local == "" || local == "_" || local == "." {
			parts := strings.Split(specifier, "/")
			local = parts[len(parts)-1]
		}
		out = append(out, ImportMapping{LocalName: local, Specifier: specifier, Line: lineOf(source, m[0])})
	}
	return out
}

func jsImportMap(source []byte) []ImportMapping {
	var out []ImportMapping
	seen := make(map[int]bool)

	for _, m := range jsNamedImportRe.FindAllSubmatchIndex(source, -1) {
		seen[m[0]] = true
		specifier := string(source[m[8]:m[9]])
		line := lineOf(source, m[0])
		if m[2] != -1 {
			out = append(out, ImportMapping{LocalName: string(source[m[2]:m[3]]), Specifier: specifier, Line: line})
		}
		if m[4] != -1 {
			for _, member := range strings.Split(string(source[m[4]:m[5]]), ",") {
				name := jsBindingName(member)
				if name != "" {
					out = append(out, ImportMapping{LocalName: name, Specifier: specifier, Line: line})
				}
			}
		}
		if m[6] != -1 {
			out = append(out, ImportMapping{LocalName: string(source[m[6]:m[7]]), Specifier: specifier, Line: line})
		}
	}

	for _, m := range jsRequireRe.FindAllSubmatchIndex(source, -1) {
		seen[m[0]] = true
		specifier := string(source[m[6]:m[7]])
		line := lineOf(source, m[0])
		if m[2] != -1 {
			for _, member := range strings.Split(string(source[m[2]:m[3]]), ",") {
				name := jsBindingName(member)
				if name != "" {
					out = append(out, ImportMapping{LocalName: name, Specifier: specifier, Line: line})
				}
			}
		}
		if m[4] != -1 {
			out = append(out, ImportMapping{LocalName: string(source[m[4]:m[5]]), Specifier: specifier, Line: line})
		}
	}

	for _, m := range jsSideEffectOnlyRe.FindAllSubmatchIndex(source, -1) {
		if seen[m[0]] {
			continue
		}
		specifier := string(source[m[2]:m[3]])
		out = append(out, ImportMapping{LocalName: "", Specifier: specifier, Line: lineOf(source, m[0])})
	}
	return out
}

// jsBindingName strips an `as` rename from a destructured import member,
// returning the locally-bound name (`{ foo as bar }` -> "bar").
func jsBindingName(member string) string {
	member = strings.TrimSpace(member)
	if member == "" {
		return ""
	}
	if idx := strings.Index(member, " as "); idx != -1 {
		return strings.TrimSpace(member[idx+4:])
	}
	return member
}

func pythonImportMap(source []byte) []ImportMapping {
	var out []ImportMapping
	for _, m := range pyFromImportRe.FindAllSubmatchIndex(source, -1) {
		module := string(source[m[2]:m[3]])
		line := lineOf(source, m[0])
		names := string(source[m[4]:m[5]])
		names = strings.TrimSuffix(strings.TrimSpace(names), ")")
		names = strings.TrimPrefix(names, "(")
		for _, member := range strings.Split(names, ",") {
			member = strings.TrimSpace(member)
			if member == "" || member == "*" {
				continue
			}
			local := member
			if idx := strings.Index(member, " as "); idx != -1 {
				local = strings.TrimSpace(member[idx+4:])
				member = strings.TrimSpace(member[:idx])
			}
			out = append(out, ImportMapping{LocalName: local, Specifier: module + "." + member, Line: line})
		}
	}
	for _, m := range pyPlainImportRe.FindAllSubmatchIndex(source, -1) {
		module := string(source[m[2]:m[3]])
		local := module
		if m[4] != -1 {
			local = string(source[m[4]:m[5]])
		} else if idx := strings.Index(module, "."); idx != -1 {
			local = module[:idx]
		}
		out = append(out, ImportMapping{LocalName: local, Specifier: module, Line: lineOf(source, m[0])})
	}
	return out
}

var (
	javaImportRe  = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+)(\.\*)?\s*;`)
	csUsingRe     = regexp.MustCompile(`(?m)^\s*using\s+(?:static\s+)?([\w.]+)\s*;`)
	phpUseRe      = regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)(?:\s+as\s+(\w+))?\s*;`)
	rustUseRe     = regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)(?:\s+as\s+(\w+))?\s*;`)
	cIncludeRe    = regexp.MustCompile(`(?m)^\s*#include\s+[<"]([^>"]+)[>"]`)
)

// genericImportMap covers the languages without a bespoke regex set
// (C#, Java, PHP, Rust, C++, Zig) with one pass per familiar import
// keyword; any that doesn't match the file's actual syntax simply
// contributes nothing.
func genericImportMap(source []byte) []ImportMapping {
	var out []ImportMapping
	add := func(re *regexp.Regexp, specGroup, aliasGroup int) {
		for _, m := range re.FindAllSubmatchIndex(source, -1) {
			specifier := string(source[m[specGroup*2]:m[specGroup*2+1]])
			local := ""
			if aliasGroup >= 0 && m[aliasGroup*2] != -1 {
				local = string(source[m[aliasGroup*2]:m[aliasGroup*2+1]])
			} else {
				parts := strings.FieldsFunc(specifier, func(r rune) bool { return r == '.' || r == ':' || r == '\\' || r == '/' })
				if len(parts) > 0 {
					local = parts[len(parts)-1]
				}
			}
			out = append(out, ImportMapping{LocalName: local, Specifier: specifier, Line: lineOf(source, m[0])})
		}
	}
	add(javaImportRe, 1, -1)
	add(csUsingRe, 1, -1)
	add(phpUseRe, 1, 2)
	add(rustUseRe, 1, 2)
	add(cIncludeRe, 1, -1)
	return out
}
