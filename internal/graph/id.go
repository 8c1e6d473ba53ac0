package graph

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// QualifiedName builds the `<path>::<container>.<name>` convention spec.md
// §4.3 specifies for node id derivation. containers is the chain of
// enclosing symbol names, outermost first; it may be empty for top-level
// symbols.
func QualifiedName(path string, containers []string, name string) string {
	var b strings.Builder
	b.WriteString(NormalizePath(path))
	b.WriteString("::")
	if len(containers) > 0 {
		b.WriteString(strings.Join(containers, "."))
		b.WriteByte('.')
	}
	b.WriteString(name)
	return b.String()
}

// DeriveNodeID is a pure function of (file path, qualified name): the same
// input always yields the same id, across processes and across re-extraction
// of an unchanged symbol. It does not need to be cryptographically strong,
// only fast and well distributed — xxhash is exactly that tradeoff.
func DeriveNodeID(filePath, qualifiedName string) NodeID {
	h := xxhash.New()
	_, _ = h.WriteString(NormalizePath(filePath))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(qualifiedName)
	return NodeID(h.Sum64())
}

// NormalizePath forces a repo-relative path to forward slashes, per spec.md's
// "forward-slash-normalized" requirement on Node.FilePath.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
