// Command codegraph is the thin CLI binding spec.md §6 describes as a
// collaborator outside the core: flag parsing here does nothing more than
// call into internal/codegraph's init/open/sync/index/search/traverse/
// stats/uninit operations. Grounded on standardbeagle-lci's cmd/lci/main.go
// urfave/cli/v2 app shape, trimmed to this tool's consumer-facing surface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/southerncoder/codegraph/internal/codegraph"
	"github.com/southerncoder/codegraph/internal/graph"
	"github.com/southerncoder/codegraph/internal/lock"
	"github.com/southerncoder/codegraph/internal/orchestrator"
	"github.com/southerncoder/codegraph/internal/store"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "codegraph",
		Usage:   "local-first semantic code knowledge graph",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project root", Value: "."},
			&cli.BoolFlag{Name: "json", Usage: "emit JSON output"},
		},
		Commands: []*cli.Command{
			initCmd,
			indexCmd,
			syncCmd,
			searchCmd,
			traverseCmd,
			statsCmd,
			uninitCmd,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "codegraph:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy in spec.md §7 to process exit codes: a
// LockBusy is transient and worth a distinct code from a fatal corruption
// or an unrecognized-project error.
func exitCode(err error) int {
	switch {
	case codegraph.IsLockBusy(err), errors.Is(err, lock.ErrBusy):
		return 75 // EX_TEMPFAIL
	case codegraph.IsStoreCorrupt(err), codegraph.IsMigrationFailed(err),
		errors.Is(err, store.ErrCorrupt), errors.Is(err, store.ErrIncompatibleSchema):
		return 70 // EX_SOFTWARE
	case errors.Is(err, codegraph.ErrNotInitialized), errors.Is(err, codegraph.ErrAlreadyInitialized):
		return 64 // EX_USAGE
	default:
		return 1
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "create .codegraph/ at the project root",
	Action: func(c *cli.Context) error {
		root := c.String("root")
		cg, err := codegraph.Init(c.Context, root)
		if err != nil {
			return err
		}
		defer cg.Close()
		fmt.Fprintf(c.App.Writer, "initialized .codegraph at %s\n", root)
		return nil
	},
}

var uninitCmd = &cli.Command{
	Name:  "uninit",
	Usage: "remove .codegraph/ from the project root",
	Action: func(c *cli.Context) error {
		return codegraph.Uninit(c.String("root"))
	},
}

var indexCmd = &cli.Command{
	Name:  "index",
	Usage: "full re-scan and re-extraction of every file",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "files", Usage: "re-extract only these paths instead of a full scan"},
	},
	Action: func(c *cli.Context) error {
		cg, err := codegraph.Open(c.Context, c.String("root"))
		if err != nil {
			return err
		}
		defer cg.Close()

		progress := progressReporter(c)
		var res orchestrator.Result
		if files := c.StringSlice("files"); len(files) > 0 {
			res, err = cg.IndexFiles(c.Context, files, progress, nil)
		} else {
			res, err = cg.IndexAll(c.Context, progress, nil)
		}
		if err != nil {
			return err
		}
		return printResult(c, res)
	},
}

var syncCmd = &cli.Command{
	Name:  "sync",
	Usage: "delta-only indexing pass over added/modified/removed files",
	Action: func(c *cli.Context) error {
		cg, err := codegraph.Open(c.Context, c.String("root"))
		if err != nil {
			return err
		}
		defer cg.Close()

		res, err := cg.Sync(c.Context, progressReporter(c), nil)
		if err != nil {
			return err
		}
		return printResult(c, res)
	},
}

var searchCmd = &cli.Command{
	Name:      "search",
	Usage:     "full-text search over name, qualified name, docstring and signature",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "kind", Usage: "restrict to these node kinds"},
		&cli.IntFlag{Name: "limit", Value: 50},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("search requires a query argument")
		}
		cg, err := codegraph.Open(c.Context, c.String("root"))
		if err != nil {
			return err
		}
		defer cg.Close()

		var kinds []graph.NodeKind
		for _, k := range c.StringSlice("kind") {
			kinds = append(kinds, graph.NodeKind(k))
		}

		results, err := cg.Search(c.Context, strings.Join(c.Args().Slice(), " "), store.SearchOptions{
			Kinds: kinds,
			Limit: c.Int("limit"),
		})
		if err != nil {
			return err
		}

		if c.Bool("json") {
			return json.NewEncoder(c.App.Writer).Encode(results)
		}
		for _, r := range results {
			fmt.Fprintf(c.App.Writer, "%6.2f  %-10s %s  (%s)\n", r.Score, r.Node.Kind, r.Node.Qualified, r.Node.FilePath)
		}
		return nil
	},
}

var statsCmd = &cli.Command{
	Name:  "stats",
	Usage: "summarize the graph's current size",
	Action: func(c *cli.Context) error {
		cg, err := codegraph.Open(c.Context, c.String("root"))
		if err != nil {
			return err
		}
		defer cg.Close()

		st, err := cg.Stats(c.Context)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return json.NewEncoder(c.App.Writer).Encode(st)
		}
		fmt.Fprintf(c.App.Writer, "files:     %d\n", st.FileCount)
		fmt.Fprintf(c.App.Writer, "nodes:     %d\n", st.NodeCount)
		fmt.Fprintf(c.App.Writer, "edges:     %d\n", st.EdgeCount)
		fmt.Fprintf(c.App.Writer, "unresolved:%d\n", st.UnresolvedRefCount)
		fmt.Fprintf(c.App.Writer, "schema v%d, %d bytes\n", st.SchemaVersion, st.DatabaseSizeBytes)
		return nil
	},
}

var traverseCmd = &cli.Command{
	Name:      "traverse",
	Usage:     "run a derived graph query against a node id",
	ArgsUsage: "<query> <node-id>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "depth", Value: 0},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return fmt.Errorf("traverse requires <query> <node-id>")
		}
		query := c.Args().Get(0)
		idArg := c.Args().Get(1)

		idU, err := strconv.ParseUint(idArg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid node id %q: %w", idArg, err)
		}
		id := graph.NodeID(idU)

		cg, err := codegraph.Open(c.Context, c.String("root"))
		if err != nil {
			return err
		}
		defer cg.Close()

		t := cg.Traverse()
		depth := c.Int("depth")

		var out any
		switch query {
		case "callers":
			out, err = t.Callers(c.Context, id, depth)
		case "callees":
			out, err = t.Callees(c.Context, id, depth)
		case "callgraph":
			out, err = t.CallGraph(c.Context, id, depth)
		case "hierarchy":
			out, err = t.TypeHierarchy(c.Context, id)
		case "usages":
			out, err = t.FindUsages(c.Context, id)
		case "impact":
			out, err = t.ImpactRadius(c.Context, id, depth)
		case "ancestors":
			out, err = t.Ancestors(c.Context, id)
		case "children":
			out, err = t.Children(c.Context, id)
		case "context":
			out, err = t.GetContext(c.Context, id)
		case "deadcode":
			out, err = t.FindDeadCode(c.Context, nil)
		case "cycles":
			out, err = t.FindCircularDependencies(c.Context)
		default:
			return fmt.Errorf("unknown traverse query %q", query)
		}
		if err != nil {
			return err
		}
		return json.NewEncoder(c.App.Writer).Encode(out)
	},
}

func progressReporter(c *cli.Context) orchestrator.Progress {
	if !c.Bool("json") {
		return func(phase orchestrator.Phase, cur, total int, file string) {
			if file != "" {
				fmt.Fprintf(c.App.ErrWriter, "\r%-10s %d/%d %s", phase, cur, total, file)
			}
		}
	}
	return nil
}

func printResult(c *cli.Context, res orchestrator.Result) error {
	if c.Bool("json") {
		return json.NewEncoder(c.App.Writer).Encode(res)
	}
	fmt.Fprintf(c.App.Writer, "run=%s added=%d modified=%d removed=%d nodes=%d edges_resolved=%d cancelled=%v\n",
		res.RunID, res.FilesAdded, res.FilesModified, res.FilesRemoved, res.NodesIndexed, res.EdgesResolved, res.Cancelled)
	for path, msg := range res.Errors {
		fmt.Fprintf(c.App.ErrWriter, "error: %s: %s\n", path, msg)
	}
	return nil
}
