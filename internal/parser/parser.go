// Package parser wraps go-tree-sitter: a Registry owns one *tree_sitter.Parser
// per language, built lazily on first use, and turns file content into a
// Tree the extractor package walks. Grounded on standardbeagle-lci's
// internal/parser setup functions (parser_language_setup.go), generalized
// into a single data-driven registry instead of one setupX method per
// language.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language names the grammars the registry knows how to load.
type Language string

const (
	Go         Language = "go"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Python     Language = "python"
	CSharp     Language = "csharp"
	Java       Language = "java"
	PHP        Language = "php"
	Rust       Language = "rust"
	Cpp        Language = "cpp"
	Zig        Language = "zig"
)

var extToLanguage = map[string]Language{
	".go":    Go,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".ts":    TypeScript,
	".tsx":   TSX,
	".py":    Python,
	".cs":    CSharp,
	".java":  Java,
	".php":   PHP,
	".phtml": PHP,
	".rs":    Rust,
	".cpp":   Cpp,
	".cc":    Cpp,
	".cxx":   Cpp,
	".c":     Cpp,
	".h":     Cpp,
	".hpp":   Cpp,
	".zig":   Zig,
}

// LanguageForPath returns the language registered for a file's extension.
func LanguageForPath(path string) (Language, bool) {
	lang, ok := extToLanguage[filepath.Ext(path)]
	return lang, ok
}

var languageFactories = map[Language]func() *tree_sitter.Language{
	Go:         func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
	JavaScript: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
	TypeScript: func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
	TSX:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()) },
	Python:     func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
	CSharp:     func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
	Java:       func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
	PHP:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
	Rust:       func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
	Cpp:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
	Zig:        func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_zig.Language()) },
}

// Registry owns one parser per language, built on first use and reused
// afterward. A Registry is safe for concurrent use; Parse calls run one at
// a time.
type Registry struct {
	mu      sync.Mutex
	parsers map[Language]*tree_sitter.Parser
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[Language]*tree_sitter.Parser)}
}

func (r *Registry) parserFor(lang Language) (*tree_sitter.Parser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.parsers[lang]; ok {
		return p, nil
	}

	factory, ok := languageFactories[lang]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported language %q", lang)
	}

	p := tree_sitter.NewParser()
	if err := p.SetLanguage(factory()); err != nil {
		return nil, fmt.Errorf("parser: set language %q: %w", lang, err)
	}
	r.parsers[lang] = p
	return p, nil
}

// Tree is a parsed file: the syntax tree plus the exact bytes it was parsed
// from (tree-sitter node ranges are offsets into this slice).
type Tree struct {
	Language Language
	Content  []byte
	raw      *tree_sitter.Tree
}

// Root returns the tree's root node.
func (t *Tree) Root() *tree_sitter.Node {
	return t.raw.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
	}
}

// Parse parses content as the given language. The tree-sitter C library
// mutates its input buffer while parsing, so content is defensively copied
// before being handed to the parser.
func (r *Registry) Parse(ctx context.Context, lang Language, content []byte) (tree *Tree, err error) {
	parser, err := r.parserFor(lang)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser: panic parsing %s content: %v", lang, rec)
		}
	}()

	buf := make([]byte, len(content))
	copy(buf, content)

	// A tree-sitter parser is not safe for concurrent use, and each
	// language's parser is shared by every caller of this Registry.
	raw := func() *tree_sitter.Tree {
		r.mu.Lock()
		defer r.mu.Unlock()
		return parser.Parse(buf, nil)
	}()
	if raw == nil {
		return nil, fmt.Errorf("parser: %s parse returned nil tree", lang)
	}
	return &Tree{Language: lang, Content: buf, raw: raw}, nil
}
