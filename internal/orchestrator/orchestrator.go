// Package orchestrator drives the Scanner -> Extractor -> Store pipeline and
// the Resolver pass that follows it, per spec.md §4.4: indexAll, indexFiles
// and sync, each holding the two-tier write lock for the duration of the
// mutation and reporting progress through a caller-supplied sink. Grounded
// on standardbeagle-lci's indexing orchestration (internal/indexing
// BuildFileRecordsParallel plus its index-then-link two-phase shape),
// generalized from lci's symbol-table build into this package's
// scan/extract/store/resolve phases.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/southerncoder/codegraph/internal/debuglog"
	"github.com/southerncoder/codegraph/internal/extractor"
	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/lock"
	"github.com/southerncoder/codegraph/internal/parser"
	"github.com/southerncoder/codegraph/internal/resolver"
	"github.com/southerncoder/codegraph/internal/scanner"
	"github.com/southerncoder/codegraph/internal/store"
)

// Phase enumerates the orchestrator's pipeline stages, per spec.md §4.4's
// progress model.
type Phase string

const (
	PhaseScanning  Phase = "scanning"
	PhaseParsing   Phase = "parsing"
	PhaseStoring   Phase = "storing"
	PhaseResolving Phase = "resolving"
)

// Progress is a best-effort sink and must not block indefinitely, per
// spec.md §4.4/§5. Scanning, storing and resolving reports run on the
// goroutine that called IndexAll/IndexFiles/Sync; parsing reports run on
// the extraction worker goroutines, one call at a time under a mutex.
type Progress func(phase Phase, current, total int, currentFile string)

// Result summarizes one indexAll/indexFiles/sync invocation.
type Result struct {
	RunID           string // correlates this run's debuglog trace lines
	FilesAdded      int
	FilesModified   int
	FilesRemoved    int
	NodesIndexed    int
	EdgesResolved   int
	Errors          map[string]string // file path -> extraction error
	Warnings        []scanner.Warning
	Cancelled       bool
	ResolverResult  resolver.Result
}

// Orchestrator wires the Scanner, Extractor, Store and Resolver into the
// pipeline spec.md §4.4 describes. It owns the two-tier write lock: an
// in-process mutex plus a cross-process advisory file lock on the database
// path, acquired for the duration of any mutating call.
type Orchestrator struct {
	Store      *store.Store
	Scanner    *scanner.Scanner
	Parsers    *parser.Registry
	Resolvers  *resolver.FrameworkRegistry
	Lock       *lock.WriteLock
	LockWait   time.Duration
	MaxWorkers int64 // bounded file-parallel extraction; <=1 means fully serial

	mu        sync.Mutex // guards lastState, in addition to the cross-process file lock
	lastState map[string]scanner.LastState
}

// New builds an Orchestrator. maxWorkers<=0 defaults to 4; a value of 1
// runs the always-available fully serial configuration spec.md §5 requires.
func New(st *store.Store, sc *scanner.Scanner, parsers *parser.Registry, frameworks *resolver.FrameworkRegistry, lockPath string, maxWorkers int) *Orchestrator {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Orchestrator{
		Store:      st,
		Scanner:    sc,
		Parsers:    parsers,
		Resolvers:  frameworks,
		Lock:       lock.New(lockPath),
		LockWait:   10 * time.Second,
		MaxWorkers: int64(maxWorkers),
		lastState:  make(map[string]scanner.LastState),
	}
}

// fileBatch is the per-file extraction output, buffered before a transactional
// commit.
type fileBatch struct {
	path       string
	nodes      []graph.Node
	edges      []graph.Edge
	refs       []graph.UnresolvedReference
	language   string
	hash       string
	size       int64
	modTime    time.Time
	extractErr string
}

// IndexAll performs a full re-scan: file records absent on disk are
// deleted, and every remaining file is (re)extracted, per spec.md §4.4.
func (o *Orchestrator) IndexAll(ctx context.Context, onProgress Progress, cancel <-chan struct{}) (Result, error) {
	return o.run(ctx, onProgress, cancel, true, nil)
}

// IndexFiles re-extracts an explicit subset of paths (relative to the
// scanner root), regardless of whether their content changed.
func (o *Orchestrator) IndexFiles(ctx context.Context, paths []string, onProgress Progress, cancel <-chan struct{}) (Result, error) {
	return o.run(ctx, onProgress, cancel, false, paths)
}

// Sync performs a delta-only pass: only added/modified/removed files (per
// the Scanner's comparison against the last-indexed state) are touched.
func (o *Orchestrator) Sync(ctx context.Context, onProgress Progress, cancel <-chan struct{}) (Result, error) {
	return o.run(ctx, onProgress, cancel, false, nil)
}

func (o *Orchestrator) run(ctx context.Context, onProgress Progress, cancel <-chan struct{}, full bool, explicit []string) (Result, error) {
	release, err := o.Lock.Acquire(ctx, o.LockWait)
	if err != nil {
		return Result{}, err
	}
	defer release()

	runID := uuid.New().String()
	debuglog.Tracef("orchestrator", "run %s starting (full=%v explicit=%d)", runID, full, len(explicit))

	report := func(phase Phase, cur, total int, file string) {
		if onProgress != nil {
			onProgress(phase, cur, total, file)
		}
	}

	report(PhaseScanning, 0, 0, "")
	current, warnings, err := o.Scanner.Scan(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("scan: %w", err)
	}

	last, err := o.loadLastState(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load last state: %w", err)
	}

	var delta scanner.Delta
	var hashes map[string]string
	if full {
		delta, hashes, err = scanner.ComputeDelta(current, nil, scanner.HashFile)
	} else if len(explicit) > 0 {
		delta, hashes, err = explicitDelta(current, explicit)
	} else {
		delta, hashes, err = scanner.ComputeDelta(current, last, scanner.HashFile)
	}
	if err != nil {
		return Result{}, fmt.Errorf("compute delta: %w", err)
	}

	res := Result{RunID: runID, Errors: map[string]string{}, Warnings: warnings}

	toExtract := append(append([]scanner.FileInfo{}, delta.Added...), delta.Modified...)
	res.FilesAdded = len(delta.Added)
	res.FilesModified = len(delta.Modified)
	res.FilesRemoved = len(delta.Removed)

	if full {
		onDisk := make(map[string]bool, len(current))
		for _, f := range current {
			onDisk[f.Path] = true
		}
		existing, err := o.Store.ListAllFiles(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("list existing files: %w", err)
		}
		for _, f := range existing {
			if !onDisk[f.Path] {
				delta.Removed = append(delta.Removed, f.Path)
			}
		}
		res.FilesRemoved = len(delta.Removed)
	}

	for _, path := range delta.Removed {
		if isCancelled(ctx, cancel) {
			res.Cancelled = true
			return res, nil
		}
		if err := o.deleteFile(ctx, path); err != nil {
			res.Errors[path] = err.Error()
		}
	}

	report(PhaseParsing, 0, len(toExtract), "")
	batches := o.extractAll(ctx, toExtract, hashes, &res, report, cancel)

	if isCancelled(ctx, cancel) {
		res.Cancelled = true
		o.commitBatches(ctx, batches, &res)
		return res, nil
	}

	report(PhaseStoring, 0, len(batches), "")
	o.commitBatches(ctx, batches, &res)

	o.mu.Lock()
	for _, b := range batches {
		o.lastState[b.path] = scanner.LastState{ContentHash: b.hash, ModTime: b.modTime.UnixNano()}
	}
	for _, p := range delta.Removed {
		delete(o.lastState, p)
	}
	o.mu.Unlock()

	if isCancelled(ctx, cancel) {
		res.Cancelled = true
		return res, nil
	}

	report(PhaseResolving, 0, 0, "")
	resolveResult, err := o.resolve(ctx, func(cur, total int) {
		report(PhaseResolving, cur, total, "")
	})
	if err != nil {
		return res, fmt.Errorf("resolve: %w", err)
	}
	res.ResolverResult = resolveResult
	res.EdgesResolved = len(resolveResult.Edges)

	debuglog.Tracef("orchestrator", "run %s done: +%d ~%d -%d files, %d nodes, %d edges resolved",
		runID, res.FilesAdded, res.FilesModified, res.FilesRemoved, res.NodesIndexed, res.EdgesResolved)
	return res, nil
}

// extractAll parses every file in toExtract, optionally in parallel across
// MaxWorkers workers. A panic or error in one file's extraction is captured
// onto that file's batch and never aborts the run, per spec.md §4.4.
func (o *Orchestrator) extractAll(ctx context.Context, files []scanner.FileInfo, hashes map[string]string, res *Result, report Progress, cancel <-chan struct{}) []fileBatch {
	batches := make([]fileBatch, len(files))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(o.MaxWorkers)

	var mu sync.Mutex
	done := 0

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil // ctx cancelled; leave this file unextracted this pass
			}
			defer sem.Release(1)
			if isCancelled(ctx, cancel) {
				return nil // cancelled between files; leave this file unextracted this pass
			}

			batches[i] = o.extractOne(gctx, f, hashes[f.Path])

			mu.Lock()
			done++
			report(PhaseParsing, done, len(files), f.Path)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, b := range batches {
		if b.path == "" {
			continue
		}
		if b.extractErr != "" {
			res.Errors[b.path] = b.extractErr
		}
	}
	return batches
}

func (o *Orchestrator) extractOne(ctx context.Context, f scanner.FileInfo, hash string) fileBatch {
	b := fileBatch{path: f.Path, hash: hash, size: f.Size, modTime: f.ModTime}

	content, err := readFile(f.AbsPath)
	if err != nil {
		b.extractErr = fmt.Sprintf("read: %v", err)
		return b
	}

	lang, ok := parser.LanguageForPath(f.Path)
	if !ok {
		// No grammar for this extension: record a bare file node with no
		// symbols rather than treating it as an error.
		b.nodes = []graph.Node{bareFileNode(f.Path, content)}
		return b
	}
	b.language = string(lang)

	tree, err := o.Parsers.Parse(ctx, lang, content)
	if err != nil {
		b.extractErr = fmt.Sprintf("parse: %v", err)
		b.nodes = []graph.Node{bareFileNode(f.Path, content)}
		return b
	}
	defer tree.Close()

	nodes, edges, refs, errs := extractor.Extract(tree, f.Path, time.Now())
	b.nodes, b.edges, b.refs = nodes, edges, refs
	if len(errs) > 0 {
		b.extractErr = errs[0]
	}
	debuglog.Tracef("orchestrator", "extracted %s: %d nodes, %d edges, %d unresolved", f.Path, len(nodes), len(edges), len(refs))
	return b
}

// commitBatches persists each file's batch in its own transaction: delete
// the file's previous nodes/edges/refs, insert the new ones, upsert the
// file record. A batch failure is recorded and does not abort the run.
func (o *Orchestrator) commitBatches(ctx context.Context, batches []fileBatch, res *Result) {
	for _, b := range batches {
		if b.path == "" {
			continue
		}
		if err := o.commitOne(ctx, b); err != nil {
			res.Errors[b.path] = err.Error()
			continue
		}
		res.NodesIndexed += len(b.nodes)
	}
}

func (o *Orchestrator) commitOne(ctx context.Context, b fileBatch) error {
	tx, err := o.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := o.Store.DeleteNodesByFile(ctx, tx, b.path); err != nil {
		return err
	}
	if err := o.Store.UpsertNodesTx(ctx, tx, b.nodes); err != nil {
		return err
	}
	if err := o.Store.InsertEdgesTx(ctx, tx, b.edges); err != nil {
		return err
	}
	if err := o.Store.InsertUnresolvedRefs(ctx, tx, b.refs); err != nil {
		return err
	}

	var extractErrs []string
	if b.extractErr != "" {
		extractErrs = []string{b.extractErr}
	}
	record := graph.FileRecord{
		Path:             b.path,
		ContentHash:      b.hash,
		Language:         b.language,
		Size:             b.size,
		ModTime:          b.modTime,
		LastIndexed:      time.Now(),
		NodeCount:        len(b.nodes),
		ExtractionErrors: extractErrs,
	}
	if err := o.Store.UpsertFile(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (o *Orchestrator) deleteFile(ctx context.Context, path string) error {
	tx, err := o.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := o.Store.DeleteNodesByFile(ctx, tx, path); err != nil {
		return err
	}
	if err := o.Store.DeleteFile(ctx, tx, path); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// resolve pulls the current unresolved_refs set, resolves it against a
// freshly warmed index, and persists the resulting edges, per spec.md §4.5.
func (o *Orchestrator) resolve(ctx context.Context, onProgress resolver.Progress) (resolver.Result, error) {
	refs, err := o.Store.ListAllUnresolvedRefs(ctx)
	if err != nil {
		return resolver.Result{}, err
	}
	nodes, err := o.Store.ListAllNodes(ctx)
	if err != nil {
		return resolver.Result{}, err
	}
	files, err := o.Store.ListAllFiles(ctx)
	if err != nil {
		return resolver.Result{}, err
	}

	knownFiles := make([]string, 0, len(files))
	imports := make(map[string][]extractor.ImportMapping, len(files))
	for _, f := range files {
		knownFiles = append(knownFiles, f.Path)
	}
	// Import mappings are rebuilt on demand per file by re-reading its
	// content; BuildIndex tolerates a nil/partial map (the import strategy
	// simply finds no candidates for files it lacks an entry for).
	for _, f := range files {
		abs := filepath.Join(o.Scanner.Root, f.Path)
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		lang, ok := parser.LanguageForPath(f.Path)
		if !ok {
			continue
		}
		imports[f.Path] = extractor.BuildImportMap(lang, content)
	}

	idx := resolver.BuildIndex(nodes, knownFiles, imports)
	res := o.resolverFor().Resolve(ctx, refs, idx, onProgress)

	if len(res.Edges) > 0 {
		if err := o.Store.InsertEdges(ctx, res.Edges); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (o *Orchestrator) resolverFor() *resolver.Resolver {
	return resolver.New(o.Resolvers)
}

func (o *Orchestrator) loadLastState(ctx context.Context) (map[string]scanner.LastState, error) {
	o.mu.Lock()
	if len(o.lastState) > 0 {
		defer o.mu.Unlock()
		return o.lastState, nil
	}
	o.mu.Unlock()

	files, err := o.Store.ListAllFiles(ctx)
	if err != nil {
		return nil, err
	}
	st := make(map[string]scanner.LastState, len(files))
	for _, f := range files {
		st[f.Path] = scanner.LastState{ContentHash: f.ContentHash, ModTime: f.ModTime.UnixNano()}
	}
	o.mu.Lock()
	o.lastState = st
	o.mu.Unlock()
	return st, nil
}

func explicitDelta(current []scanner.FileInfo, paths []string) (scanner.Delta, map[string]string, error) {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[filepath.ToSlash(p)] = true
	}
	var delta scanner.Delta
	hashes := make(map[string]string)
	for _, f := range current {
		if !want[f.Path] {
			continue
		}
		h, err := scanner.HashFile(f.AbsPath)
		if err != nil {
			return scanner.Delta{}, nil, err
		}
		hashes[f.Path] = h
		delta.Modified = append(delta.Modified, f)
	}
	return delta, hashes, nil
}

func isCancelled(ctx context.Context, cancel <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

func readFile(absPath string) ([]byte, error) {
	return os.ReadFile(absPath)
}

func bareFileNode(path string, content []byte) graph.Node {
	id := graph.DeriveNodeID(path, path)
	return graph.Node{
		ID:          id,
		Kind:        graph.KindFile,
		Name:        filepath.Base(path),
		Qualified:   path,
		FilePath:    path,
		LastUpdated: time.Now(),
	}
}
