// Package bundler drives one build: resolving the entry point, seeding
// the worker pool, and draining its completion channel into a Graph
// until the pending counter reaches zero. The Graph it produces is
// exclusively owned by this package's call stack for the life of the
// build; workers never touch it.
package bundler

import (
	"fmt"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/graph"
	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/log"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/resolver"
	"github.com/packline-dev/packline/internal/workerpool"
)

// Options configures one Build call.
type Options struct {
	FS                 iofs.FS
	Cwd                string
	PackageManager     manifest.PackageManager
	External           []string
	ESSyntaxEverywhere bool
	// Workers is the worker pool's fixed size; callers typically pass
	// runtime.NumCPU().
	Workers int
	Logger  *log.Logger
}

// Result is one completed build: the finished graph plus the absolute
// path the entry point actually resolved to (which the caller needs to
// hand the writer, since it may differ from the spec string passed in).
type Result struct {
	Graph     *graph.Graph
	EntryPath string
}

// Build resolves entry relative to opts.Cwd, then runs the worker pool
// to quiescence: every Include fans out one Resolve per dependency, and
// every Resolve of a not-yet-seen Normal(path) fans out one Include,
// until the pending counter returns to zero.
func Build(entry string, opts Options) (Result, error) {
	r := resolver.New(opts.FS, opts.PackageManager, opts.External)
	resolved, err := r.ResolveMain(opts.Cwd, entry)
	if err != nil {
		return Result{}, err
	}
	entryPath := resolved.Path

	pool := workerpool.New(opts.Workers, opts.FS, opts.PackageManager, opts.External, opts.ESSyntaxEverywhere, opts.Logger)
	defer pool.Stop()

	g := graph.New()
	g.MarkLoading(entryPath)
	pool.Submit(workerpool.Work{Kind: workerpool.Include, Path: entryPath})
	pending := 1

	for pending > 0 {
		res := <-pool.Results()
		pending--

		if res.Err != nil {
			return Result{}, res.Err
		}

		switch res.Kind {
		case workerpool.Resolve:
			m, ok := g.Get(res.Context)
			if !ok {
				return Result{}, bundlerrors.New(bundlerrors.Io, fmt.Sprintf("resolved dependency for unknown module %q", res.Context))
			}
			m.Deps[res.Specifier] = res.Resolved
			if res.Resolved.Kind == resolver.KindNormal && g.MarkLoading(res.Resolved.Path) {
				pool.Submit(workerpool.Work{Kind: workerpool.Include, Path: res.Resolved.Path})
				pending++
			}

		case workerpool.Include:
			g.Complete(res.Path, &graph.Module{
				Path:   res.Path,
				Source: res.Info.Source,
				Deps:   make(map[string]resolver.Resolved, len(res.Info.Deps)),
			})
			for dep := range res.Info.Deps {
				pool.Submit(workerpool.Work{Kind: workerpool.Resolve, Context: res.Path, Specifier: dep})
				pending++
			}
		}

		opts.Logger.WithField("pending", pending).Trace("drained one build result")
	}

	return Result{Graph: g, EntryPath: entryPath}, nil
}
