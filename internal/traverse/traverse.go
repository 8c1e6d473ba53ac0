// Package traverse implements BFS/DFS over the persisted graph plus the
// higher-level derived queries spec.md §4.6 names: callers, callees,
// callGraph, typeHierarchy, findUsages, impactRadius, findPath, ancestors,
// children, getContext, fileDependencies/fileDependents,
// findCircularDependencies and findDeadCode. Per spec.md §9's design note,
// the graph is never held as an in-memory linked object graph: every step
// is a store lookup by id, so cycles in the data (call graphs, degenerate
// inheritance) cannot become reference cycles in memory.
package traverse

import (
	"context"
	"sort"

	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/store"
)

// Direction controls which edges BFS/DFS follow at each node.
type Direction string

const (
	DirOutgoing Direction = "outgoing"
	DirIncoming Direction = "incoming"
	DirBoth     Direction = "both"
)

// Options configures a BFS or DFS walk, per spec.md §4.6.
type Options struct {
	MaxDepth     int // 0 means unbounded
	EdgeKinds    []graph.EdgeKind
	NodeKinds    []graph.NodeKind
	Direction    Direction
	Limit        int // 0 means unbounded node-count limit
	IncludeStart bool
}

// Visit is one node reached during a walk, paired with the edge that led to
// it (nil for the start node) and the depth it was reached at.
type Visit struct {
	Node  graph.Node
	Edge  *graph.Edge
	Depth int
}

// Traverser runs BFS/DFS and the derived queries against a Store. It holds
// no graph state of its own: every step re-reads from the store, so reads
// are reentrant and safe against a concurrent writer per spec.md §5.
type Traverser struct {
	Store *store.Store
}

// New returns a Traverser over st.
func New(st *store.Store) *Traverser {
	return &Traverser{Store: st}
}

func (t *Traverser) node(ctx context.Context, id graph.NodeID) (graph.Node, bool, error) {
	return t.Store.GetNode(ctx, id)
}

func (t *Traverser) neighbors(ctx context.Context, id graph.NodeID, dir Direction, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	filter := store.EdgeFilter{Kinds: kinds}
	switch dir {
	case DirIncoming:
		return t.Store.ListIncoming(ctx, id, filter)
	case DirBoth:
		out, err := t.Store.ListOutgoing(ctx, id, filter)
		if err != nil {
			return nil, err
		}
		in, err := t.Store.ListIncoming(ctx, id, filter)
		if err != nil {
			return nil, err
		}
		return append(out, in...), nil
	default:
		return t.Store.ListOutgoing(ctx, id, filter)
	}
}

// otherEnd returns the endpoint of e that is not current — the rule
// spec.md §4.6 gives for direction=both walks.
func otherEnd(e graph.Edge, current graph.NodeID) graph.NodeID {
	if e.Source == current {
		return e.Target
	}
	return e.Source
}

func nodeKindAllowed(kinds []graph.NodeKind, k graph.NodeKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// BFS walks breadth-first from start, honoring Options. The returned slice
// is in visitation order.
func (t *Traverser) BFS(ctx context.Context, start graph.NodeID, opts Options) ([]Visit, error) {
	return t.walk(ctx, start, opts, true)
}

// DFS walks depth-first from start, honoring Options.
func (t *Traverser) DFS(ctx context.Context, start graph.NodeID, opts Options) ([]Visit, error) {
	return t.walk(ctx, start, opts, false)
}

type frontierItem struct {
	id    graph.NodeID
	edge  *graph.Edge
	depth int
}

func (t *Traverser) walk(ctx context.Context, start graph.NodeID, opts Options, breadthFirst bool) ([]Visit, error) {
	if opts.Direction == "" {
		opts.Direction = DirOutgoing
	}

	startNode, ok, err := t.node(ctx, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	visited := map[graph.NodeID]bool{start: true}
	var out []Visit
	if opts.IncludeStart && nodeKindAllowed(opts.NodeKinds, startNode.Kind) {
		out = append(out, Visit{Node: startNode, Depth: 0})
	}

	frontier := []frontierItem{{id: start, depth: 0}}

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}

		var item frontierItem
		if breadthFirst {
			item, frontier = frontier[0], frontier[1:]
		} else {
			item, frontier = frontier[len(frontier)-1], frontier[:len(frontier)-1]
		}

		if opts.MaxDepth > 0 && item.depth >= opts.MaxDepth {
			continue
		}

		edges, err := t.neighbors(ctx, item.id, opts.Direction, opts.EdgeKinds)
		if err != nil {
			return out, err
		}

		var next []frontierItem
		for _, e := range edges {
			var nid graph.NodeID
			if opts.Direction == DirBoth {
				nid = otherEnd(e, item.id)
			} else if opts.Direction == DirIncoming {
				nid = e.Source
			} else {
				nid = e.Target
			}
			if visited[nid] {
				continue
			}
			visited[nid] = true

			n, ok, err := t.node(ctx, nid)
			if err != nil {
				return out, err
			}
			if !ok {
				continue
			}
			if !nodeKindAllowed(opts.NodeKinds, n.Kind) {
				continue
			}

			eCopy := e
			out = append(out, Visit{Node: n, Edge: &eCopy, Depth: item.depth + 1})
			next = append(next, frontierItem{id: nid, edge: &eCopy, depth: item.depth + 1})

			if opts.Limit > 0 && len(out) >= opts.Limit {
				break
			}
		}

		if breadthFirst {
			frontier = append(frontier, next...)
		} else {
			// preserve edge order for DFS by pushing in reverse
			for i := len(next) - 1; i >= 0; i-- {
				frontier = append(frontier, next[i])
			}
		}
	}

	return out, nil
}

// Callers recursively walks incoming `calls` edges up to maxDepth (1 if <=0).
func (t *Traverser) Callers(ctx context.Context, id graph.NodeID, maxDepth int) ([]Visit, error) {
	return t.BFS(ctx, id, Options{MaxDepth: depthOrDefault(maxDepth, 1), EdgeKinds: []graph.EdgeKind{graph.EdgeCalls}, Direction: DirIncoming})
}

// Callees recursively walks outgoing `calls` edges up to maxDepth (1 if <=0).
func (t *Traverser) Callees(ctx context.Context, id graph.NodeID, maxDepth int) ([]Visit, error) {
	return t.BFS(ctx, id, Options{MaxDepth: depthOrDefault(maxDepth, 1), EdgeKinds: []graph.EdgeKind{graph.EdgeCalls}, Direction: DirOutgoing})
}

// CallGraph is the union of Callers and Callees to depth (2 if <=0).
func (t *Traverser) CallGraph(ctx context.Context, id graph.NodeID, depth int) ([]Visit, error) {
	depth = depthOrDefault(depth, 2)
	callers, err := t.Callers(ctx, id, depth)
	if err != nil {
		return nil, err
	}
	callees, err := t.Callees(ctx, id, depth)
	if err != nil {
		return nil, err
	}
	return mergeVisits(callers, callees), nil
}

// TypeHierarchy recursively walks `extends`/`implements` edges in both
// directions from id.
func (t *Traverser) TypeHierarchy(ctx context.Context, id graph.NodeID) ([]Visit, error) {
	return t.BFS(ctx, id, Options{EdgeKinds: []graph.EdgeKind{graph.EdgeExtends, graph.EdgeImplements}, Direction: DirBoth})
}

// FindUsages returns all incoming edges of any kind, one Visit per edge
// paired with the edge's source node.
func (t *Traverser) FindUsages(ctx context.Context, id graph.NodeID) ([]Visit, error) {
	edges, err := t.Store.ListIncoming(ctx, id, store.EdgeFilter{})
	if err != nil {
		return nil, err
	}
	var out []Visit
	for i := range edges {
		n, ok, err := t.node(ctx, edges[i].Source)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Visit{Node: n, Edge: &edges[i], Depth: 1})
		}
	}
	return out, nil
}

// ImpactRadius recursively walks incoming edges of any kind to depth (3 if <=0).
func (t *Traverser) ImpactRadius(ctx context.Context, id graph.NodeID, depth int) ([]Visit, error) {
	return t.BFS(ctx, id, Options{MaxDepth: depthOrDefault(depth, 3), Direction: DirIncoming})
}

// PathStep pairs a node with the edge that reached it; the first step's
// Edge is nil.
type PathStep struct {
	Node graph.Node
	Edge *graph.Edge
}

// FindPath runs BFS shortest path from a to b, optionally restricted to
// edgeKinds. It returns ok=false when no path exists.
func (t *Traverser) FindPath(ctx context.Context, a, b graph.NodeID, edgeKinds []graph.EdgeKind) ([]PathStep, bool, error) {
	start, ok, err := t.node(ctx, a)
	if err != nil || !ok {
		return nil, false, err
	}
	if a == b {
		return []PathStep{{Node: start}}, true, nil
	}

	type parent struct {
		id   graph.NodeID
		edge graph.Edge
	}
	parents := map[graph.NodeID]parent{}
	visited := map[graph.NodeID]bool{a: true}
	queue := []graph.NodeID{a}

	found := false
	for len(queue) > 0 && !found {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		cur := queue[0]
		queue = queue[1:]

		edges, err := t.neighbors(ctx, cur, DirOutgoing, edgeKinds)
		if err != nil {
			return nil, false, err
		}
		for _, e := range edges {
			nid := e.Target
			if visited[nid] {
				continue
			}
			visited[nid] = true
			parents[nid] = parent{id: cur, edge: e}
			if nid == b {
				found = true
				break
			}
			queue = append(queue, nid)
		}
	}

	if !found {
		return nil, false, nil
	}

	var chain []graph.NodeID
	cur := b
	for cur != a {
		chain = append([]graph.NodeID{cur}, chain...)
		cur = parents[cur].id
	}
	chain = append([]graph.NodeID{a}, chain...)

	steps := make([]PathStep, 0, len(chain))
	for i, id := range chain {
		n, ok, err := t.node(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		step := PathStep{Node: n}
		if i > 0 {
			e := parents[id].edge
			step.Edge = &e
		}
		steps = append(steps, step)
	}
	return steps, true, nil
}

// Ancestors returns the chain of `contains` predecessors from id's
// immediate parent up to the root, at most one per step (spec.md §3's
// single-containment-parent invariant guarantees this is a simple chain,
// never a tree).
func (t *Traverser) Ancestors(ctx context.Context, id graph.NodeID) ([]graph.Node, error) {
	var out []graph.Node
	seen := map[graph.NodeID]bool{id: true}
	cur := id
	for {
		edges, err := t.Store.ListIncoming(ctx, cur, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeContains}})
		if err != nil {
			return nil, err
		}
		if len(edges) == 0 {
			return out, nil
		}
		parentID := edges[0].Source
		if seen[parentID] {
			// A cycle should be impossible per spec.md §8; guard anyway so a
			// corrupted store can't hang a caller.
			return out, nil
		}
		seen[parentID] = true
		parentNode, ok, err := t.node(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, parentNode)
		cur = parentID
	}
}

// Children returns id's direct `contains` successors.
func (t *Traverser) Children(ctx context.Context, id graph.NodeID) ([]graph.Node, error) {
	edges, err := t.Store.ListOutgoing(ctx, id, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeContains}})
	if err != nil {
		return nil, err
	}
	out := make([]graph.Node, 0, len(edges))
	for _, e := range edges {
		n, ok, err := t.node(ctx, e.Target)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// Context bundles the related-symbol views getContext assembles.
type Context struct {
	Node          graph.Node
	Ancestors     []graph.Node
	Children      []graph.Node
	IncomingRefs  []graph.Edge
	OutgoingRefs  []graph.Edge
	RelatedTypes  []graph.Node
	Imports       []graph.Node
}

// GetContext bundles ancestors, children, incoming/outgoing refs, related
// types (via type_of/returns) and imports (via imports) for id.
func (t *Traverser) GetContext(ctx context.Context, id graph.NodeID) (Context, error) {
	n, ok, err := t.node(ctx, id)
	if err != nil {
		return Context{}, err
	}
	if !ok {
		return Context{}, nil
	}

	var c Context
	c.Node = n

	if c.Ancestors, err = t.Ancestors(ctx, id); err != nil {
		return Context{}, err
	}
	if c.Children, err = t.Children(ctx, id); err != nil {
		return Context{}, err
	}
	if c.IncomingRefs, err = t.Store.ListIncoming(ctx, id, store.EdgeFilter{}); err != nil {
		return Context{}, err
	}
	if c.OutgoingRefs, err = t.Store.ListOutgoing(ctx, id, store.EdgeFilter{}); err != nil {
		return Context{}, err
	}

	related, err := t.Store.ListOutgoing(ctx, id, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeTypeOf, graph.EdgeReturns}})
	if err != nil {
		return Context{}, err
	}
	for _, e := range related {
		if rn, ok, err := t.node(ctx, e.Target); err == nil && ok {
			c.RelatedTypes = append(c.RelatedTypes, rn)
		}
	}

	imports, err := t.Store.ListOutgoing(ctx, id, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeImports}})
	if err != nil {
		return Context{}, err
	}
	for _, e := range imports {
		if in, ok, err := t.node(ctx, e.Target); err == nil && ok {
			c.Imports = append(c.Imports, in)
		}
	}

	return c, nil
}

// FileDependencies resolves the `imports` edge set for every node in path,
// projected to the set of distinct file paths it depends on.
func (t *Traverser) FileDependencies(ctx context.Context, path string) ([]string, error) {
	nodes, err := t.Store.ListNodesByFile(ctx, path)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, n := range nodes {
		edges, err := t.Store.ListOutgoing(ctx, n.ID, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeImports}})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			tgt, ok, err := t.node(ctx, e.Target)
			if err != nil {
				return nil, err
			}
			if ok && tgt.FilePath != path {
				seen[tgt.FilePath] = true
			}
		}
	}
	return sortedKeys(seen), nil
}

// FileDependents is the inverse of FileDependencies: files whose nodes
// import a node defined in path.
func (t *Traverser) FileDependents(ctx context.Context, path string) ([]string, error) {
	nodes, err := t.Store.ListNodesByFile(ctx, path)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, n := range nodes {
		edges, err := t.Store.ListIncoming(ctx, n.ID, store.EdgeFilter{Kinds: []graph.EdgeKind{graph.EdgeImports}})
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			src, ok, err := t.node(ctx, e.Source)
			if err != nil {
				return nil, err
			}
			if ok && src.FilePath != path {
				seen[src.FilePath] = true
			}
		}
	}
	return sortedKeys(seen), nil
}

// FindCircularDependencies returns the strongly connected components of
// size >1 in the file-level import graph (Tarjan's algorithm).
func (t *Traverser) FindCircularDependencies(ctx context.Context) ([][]string, error) {
	files, err := t.Store.ListAllFiles(ctx)
	if err != nil {
		return nil, err
	}

	adj := make(map[string]map[string]bool, len(files))
	for _, f := range files {
		deps, err := t.FileDependencies(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool, len(deps))
		for _, d := range deps {
			set[d] = true
		}
		adj[f.Path] = set
	}

	return tarjanSCC(adj), nil
}

// FindDeadCode returns nodes of the given kinds with no incoming edges of
// any kind. A nil/empty kinds defaults to function, method, class.
func (t *Traverser) FindDeadCode(ctx context.Context, kinds []graph.NodeKind) ([]graph.Node, error) {
	if len(kinds) == 0 {
		kinds = []graph.NodeKind{graph.KindFunction, graph.KindMethod, graph.KindClass}
	}
	var out []graph.Node
	for _, k := range kinds {
		nodes, err := t.Store.ListNodesByKind(ctx, k)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			in, err := t.Store.ListIncoming(ctx, n.ID, store.EdgeFilter{})
			if err != nil {
				return nil, err
			}
			if len(in) == 0 {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

func depthOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func mergeVisits(groups ...[]Visit) []Visit {
	seen := map[graph.NodeID]bool{}
	var out []Visit
	for _, g := range groups {
		for _, v := range g {
			if seen[v.Node.ID] {
				continue
			}
			seen[v.Node.ID] = true
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// tarjanSCC finds strongly connected components of size > 1 in adj.
func tarjanSCC(adj map[string]map[string]bool) [][]string {
	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var result [][]string

	nodes := sortedKeysFromAdj(adj)

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		neighbors := sortedKeys(adj[v])
		for _, w := range neighbors {
			if _, ok := indices[w]; !ok {
				if _, known := adj[w]; !known {
					continue // dependency outside the indexed file set
				}
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			if len(comp) > 1 {
				sort.Strings(comp)
				result = append(result, comp)
			}
		}
	}

	for _, v := range nodes {
		if _, ok := indices[v]; !ok {
			strongconnect(v)
		}
	}
	return result
}

func sortedKeysFromAdj(adj map[string]map[string]bool) []string {
	out := make([]string, 0, len(adj))
	for k := range adj {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
