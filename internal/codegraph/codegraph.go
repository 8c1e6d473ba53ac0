// Package codegraph is the facade spec.md §6 describes as the
// consumer-facing surface: init, open, sync, index, search, traverse,
// stats, uninit. Each CodeGraph instance exclusively owns its store
// handle, write lock and traversal helper (spec.md §9 "Ownership"); the
// cmd/codegraph CLI binds urfave/cli flags onto these operations but the
// operations themselves have no knowledge of flag parsing.
package codegraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/southerncoder/codegraph/internal/config"
	"github.com/southerncoder/codegraph/internal/lock"
	"github.com/southerncoder/codegraph/internal/orchestrator"
	"github.com/southerncoder/codegraph/internal/parser"
	"github.com/southerncoder/codegraph/internal/resolver"
	"github.com/southerncoder/codegraph/internal/scanner"
	"github.com/southerncoder/codegraph/internal/store"
	"github.com/southerncoder/codegraph/internal/traverse"
)

// DirName is the hidden state directory every project-rooted operation
// resolves against.
const DirName = ".codegraph"

// DBName is the store's filename within DirName.
const DBName = "codegraph.db"

// ErrNotInitialized and ErrAlreadyInitialized are the two entry-surfaced
// taxonomy members from spec.md §7 (the rest are wrapped as *Error at the
// point they occur — lock contention in Sync/IndexAll/IndexFiles, store
// corruption and migration failure inside store.Open).
var (
	ErrNotInitialized     = newError(KindNotInitialized, "open", "", nil)
	ErrAlreadyInitialized = newError(KindAlreadyInitialized, "init", "", nil)
)

// CodeGraph owns one project's store handle, write lock and configuration.
// Multiple read-only instances against the same store are permitted; write
// operations (Sync, Index) coordinate through the store's advisory file
// lock regardless of how many CodeGraph instances exist across processes.
type CodeGraph struct {
	RootDir string
	Config  config.Config

	store   *store.Store
	orch    *orchestrator.Orchestrator
	travel  *traverse.Traverser
	parsers *parser.Registry
}

func dbPath(root string) string  { return filepath.Join(root, DirName, DBName) }
func lockPath(root string) string { return filepath.Join(root, DirName, DBName+".lock") }
func dirPath(root string) string  { return filepath.Join(root, DirName) }

// Init creates `.codegraph/` at root: the database (schema + FTS applied),
// a default config.json, and an auto-written .gitignore. Calling Init on an
// already-initialized root is ErrAlreadyInitialized.
func Init(ctx context.Context, root string) (*CodeGraph, error) {
	if _, err := os.Stat(dbPath(root)); err == nil {
		return nil, ErrAlreadyInitialized
	}

	st, err := store.Open(ctx, dbPath(root))
	if err != nil {
		return nil, wrapStoreErr("init", root, err)
	}

	cfg := config.Default()
	cfg.ExcludeGlobs = config.DeduplicatePatterns(append(cfg.ExcludeGlobs, config.DetectBuildOutputs(root)...))
	if err := config.Save(dirPath(root), cfg); err != nil {
		_ = st.Close()
		return nil, err
	}
	if err := config.WriteGitignore(dirPath(root)); err != nil {
		_ = st.Close()
		return nil, err
	}

	return build(root, cfg, st), nil
}

// Open attaches to an already-initialized root. A missing database is
// ErrNotInitialized; a database with a newer schema version than this
// build understands surfaces store.ErrIncompatibleSchema, and a corrupt
// database surfaces store.ErrCorrupt, per spec.md §6/§7.
func Open(ctx context.Context, root string) (*CodeGraph, error) {
	if err := requireInitialized(root); err != nil {
		return nil, err
	}

	cfg, err := config.Load(dirPath(root))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, dbPath(root))
	if err != nil {
		return nil, wrapStoreErr("open", root, err)
	}

	return build(root, cfg, st), nil
}

// wrapStoreErr classifies an error from store.Open into the taxonomy
// spec.md §7 names, per its explicit StoreCorrupt/MigrationFailed entries.
func wrapStoreErr(op, root string, err error) error {
	switch {
	case errors.Is(err, store.ErrMigrationFailed):
		return newError(KindMigrationFailed, op, root, err)
	case errors.Is(err, store.ErrCorrupt), errors.Is(err, store.ErrIncompatibleSchema):
		return newError(KindStoreCorrupt, op, root, err)
	default:
		return err
	}
}

func build(root string, cfg config.Config, st *store.Store) *CodeGraph {
	sc := scanner.New(root, cfg.IncludeGlobs, cfg.ExcludeGlobs, cfg.MaxFileSize)
	parsers := parser.NewRegistry()
	frameworks := resolver.NewFrameworkRegistry()
	orch := orchestrator.New(st, sc, parsers, frameworks, lockPath(root), 4)

	return &CodeGraph{
		RootDir: root,
		Config:  cfg,
		store:   st,
		orch:    orch,
		travel:  traverse.New(st),
		parsers: parsers,
	}
}

// Close releases the store handle. The write lock, if held, is released by
// whichever in-flight Sync/Index call acquired it; Close does not itself
// need to touch the lock.
func (cg *CodeGraph) Close() error {
	return cg.store.Close()
}

// Uninit removes `.codegraph/` entirely. Callers must Close first.
func Uninit(root string) error {
	if _, err := os.Stat(dirPath(root)); err != nil {
		return newError(KindNotInitialized, "uninit", dirPath(root), ErrNotInitialized)
	}
	return os.RemoveAll(dirPath(root))
}

// Sync performs a delta-only indexing pass: only files the scanner finds
// added, modified or removed relative to the last-indexed state are
// touched, per spec.md §4.4.
func (cg *CodeGraph) Sync(ctx context.Context, onProgress orchestrator.Progress, cancel <-chan struct{}) (orchestrator.Result, error) {
	res, err := cg.orch.Sync(ctx, onProgress, cancel)
	return res, wrapLockErr("sync", cg.RootDir, err)
}

// IndexAll performs a full re-scan and re-extraction of every file, per
// spec.md §4.4.
func (cg *CodeGraph) IndexAll(ctx context.Context, onProgress orchestrator.Progress, cancel <-chan struct{}) (orchestrator.Result, error) {
	res, err := cg.orch.IndexAll(ctx, onProgress, cancel)
	return res, wrapLockErr("index", cg.RootDir, err)
}

// IndexFiles re-extracts an explicit subset of repo-relative paths.
func (cg *CodeGraph) IndexFiles(ctx context.Context, paths []string, onProgress orchestrator.Progress, cancel <-chan struct{}) (orchestrator.Result, error) {
	res, err := cg.orch.IndexFiles(ctx, paths, onProgress, cancel)
	return res, wrapLockErr("index_files", cg.RootDir, err)
}

// wrapLockErr classifies a LockBusy failure per spec.md §7; any other
// error passes through unchanged.
func wrapLockErr(op, root string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, lock.ErrBusy) {
		return newError(KindLockBusy, op, root, err)
	}
	return err
}

// Search runs a full-text query over name/qualified-name/docstring/
// signature, per spec.md §4.1.
func (cg *CodeGraph) Search(ctx context.Context, query string, opts store.SearchOptions) ([]store.SearchResult, error) {
	return cg.store.Search(ctx, query, opts)
}

// Stats summarizes the graph's current size, per spec.md §4.1/§4.7.
func (cg *CodeGraph) Stats(ctx context.Context) (store.Stats, error) {
	return cg.store.GetStats(ctx, dbPath(cg.RootDir))
}

// Traverse exposes the BFS/DFS and derived-query surface of spec.md §4.6.
func (cg *CodeGraph) Traverse() *traverse.Traverser {
	return cg.travel
}

// Store exposes the underlying store for callers (search, direct CRUD)
// that need it without widening this facade's API.
func (cg *CodeGraph) Store() *store.Store {
	return cg.store
}

// IsInitialized reports whether root already carries a `.codegraph/`
// database, without opening it.
func IsInitialized(root string) bool {
	_, err := os.Stat(dbPath(root))
	return err == nil
}

// requireInitialized is a small entry-point guard the CLI layer uses ahead
// of any operation that needs an open store, per spec.md §7's
// "surfaced at entry" requirement for NotInitialized.
func requireInitialized(root string) error {
	if !IsInitialized(root) {
		return newError(KindNotInitialized, "open", dirPath(root), ErrNotInitialized)
	}
	return nil
}
