// Package graph defines the persistent data model shared by every subsystem:
// store, scanner, extractor, resolver and traverser all speak in terms of
// these types rather than owning their own copies.
package graph

import "time"

// NodeKind enumerates the symbol kinds a Node may carry.
type NodeKind string

const (
	KindFile       NodeKind = "file"
	KindModule     NodeKind = "module"
	KindClass      NodeKind = "class"
	KindStruct     NodeKind = "struct"
	KindInterface  NodeKind = "interface"
	KindTrait      NodeKind = "trait"
	KindProtocol   NodeKind = "protocol"
	KindFunction   NodeKind = "function"
	KindMethod     NodeKind = "method"
	KindProperty   NodeKind = "property"
	KindField      NodeKind = "field"
	KindVariable   NodeKind = "variable"
	KindConstant   NodeKind = "constant"
	KindEnum       NodeKind = "enum"
	KindEnumMember NodeKind = "enum_member"
	KindTypeAlias  NodeKind = "type_alias"
	KindNamespace  NodeKind = "namespace"
	KindParameter  NodeKind = "parameter"
	KindImport     NodeKind = "import"
	KindExport     NodeKind = "export"
	KindRoute      NodeKind = "route"
	KindComponent  NodeKind = "component"
)

// CallableKinds are the node kinds the fuzzy resolver strategy and the
// `calls` edge disambiguation scoring treat as "things that can be called".
var CallableKinds = map[NodeKind]bool{
	KindFunction: true,
	KindMethod:   true,
}

// EdgeKind enumerates the directed relationship kinds a persisted Edge may carry.
type EdgeKind string

const (
	EdgeContains     EdgeKind = "contains"
	EdgeCalls        EdgeKind = "calls"
	EdgeImports      EdgeKind = "imports"
	EdgeExports      EdgeKind = "exports"
	EdgeExtends      EdgeKind = "extends"
	EdgeImplements   EdgeKind = "implements"
	EdgeReferences   EdgeKind = "references"
	EdgeTypeOf       EdgeKind = "type_of"
	EdgeReturns      EdgeKind = "returns"
	EdgeInstantiates EdgeKind = "instantiates"
	EdgeOverrides    EdgeKind = "overrides"
	EdgeDecorates    EdgeKind = "decorates"
)

// Provenance records where an edge came from.
type Provenance string

const (
	ProvenanceParser      Provenance = "parser-derived"
	ProvenanceStaticIndex Provenance = "static-index"
	ProvenanceHeuristic   Provenance = "heuristic"
)

// Span is an inclusive-start, exclusive-end byte/line/column range.
// Lines are 1-indexed; columns are 0-indexed, matching spec.md §4.3.
type Span struct {
	StartByte int
	EndByte   int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// NodeID is a stable, fixed-width identifier: a pure function of
// (file path, qualified name). See DeriveNodeID.
type NodeID uint64

// Node is a persisted symbol record.
type Node struct {
	ID          NodeID
	Kind        NodeKind
	Name        string
	Qualified   string
	FilePath    string
	Language    string
	Span        Span
	Doc         string
	Signature   string
	Visibility  string
	Exported    bool
	Async       bool
	Static      bool
	Abstract    bool
	Decorators  []string
	Generics    []string
	LastUpdated time.Time
}

// Edge is a persisted directed relationship between two nodes.
type Edge struct {
	ID         int64
	Source     NodeID
	Target     NodeID
	Kind       EdgeKind
	Line       int
	Column     int
	HasSite    bool
	Metadata   map[string]string
	Provenance Provenance
}

// FileRecord tracks the indexed state of a single file.
type FileRecord struct {
	Path             string
	ContentHash      string
	Language         string
	Size             int64
	ModTime          time.Time
	LastIndexed      time.Time
	NodeCount        int
	ExtractionErrors []string
}

// UnresolvedReference is a symbol use whose target node is not yet known.
type UnresolvedReference struct {
	ID          int64
	Source      NodeID
	Name        string
	TargetKind  EdgeKind
	Line        int
	Column      int
	FilePath    string
	Language    string
	Candidates  []string
}

// ResolvedEdgeMeta is the metadata a resolver attaches to edges it materializes.
type ResolvedEdgeMeta struct {
	Confidence float64
	ResolvedBy string
}
