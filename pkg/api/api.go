// Package api is the programmatic entry point into the bundler, for
// callers that want a built script and source map without going
// through the command line.
package api

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/packline-dev/packline/internal/bundler"
	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/log"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/writer"
)

// Options mirrors the CLI flag set relevant to a single programmatic
// build: everything except output-destination concerns (stdout vs
// file), which are the caller's business once Bundle returns a Result.
type Options struct {
	FS             iofs.FS // nil defaults to iofs.Real{}
	Cwd            string
	ForBrowser     bool
	External       []string
	ESSyntaxEverywhere bool
	Workers        int

	MapMode MapMode
	// MapPath and OutputPath are only consulted to compute the relative
	// sourceMappingURL comment under MapFile; see writer.Options.
	MapPath    string
	OutputPath string

	Logger *log.Logger // nil builds a quiet default logger
}

// MapMode re-exports writer.MapMode so callers of this package never
// need to import internal/writer themselves.
type MapMode = writer.MapMode

const (
	MapSuppressed = writer.MapSuppressed
	MapInline     = writer.MapInline
	MapFile       = writer.MapFile
)

// Result is one finished bundle.
type Result struct {
	Script    string
	MapJSON   []byte
	EntryPath string
	// Files lists every module path the build depended on, for a caller
	// that wants to set up its own file watching.
	Files []string
}

// Bundle resolves entry, builds its full dependency graph, and writes
// the final script (and source map, per opts.MapMode).
func Bundle(entry string, opts Options) (Result, error) {
	fs := opts.FS
	if fs == nil {
		fs = iofs.Real{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New("packline", logrus.ErrorLevel, false, io.Discard)
	}

	pm := manifest.Npm
	if opts.ForBrowser {
		pm = manifest.Bower
	}

	built, err := bundler.Build(entry, bundler.Options{
		FS:                 fs,
		Cwd:                opts.Cwd,
		PackageManager:     pm,
		External:           opts.External,
		ESSyntaxEverywhere: opts.ESSyntaxEverywhere,
		Workers:            workers(opts.Workers),
		Logger:             logger,
	})
	if err != nil {
		return Result{}, err
	}

	modules := built.Graph.Modules()
	wres, err := writer.Write(writer.Options{
		EntryPath:  built.EntryPath,
		MapMode:    opts.MapMode,
		MapPath:    opts.MapPath,
		OutputPath: opts.OutputPath,
	}, modules)
	if err != nil {
		return Result{}, err
	}

	files := make([]string, 0, len(modules))
	for _, m := range modules {
		files = append(files, m.Path)
	}

	return Result{Script: wres.Script, MapJSON: wres.MapJSON, EntryPath: built.EntryPath, Files: files}, nil
}

// BundleAll runs Bundle once per entry, concurrently, and returns the
// first error — a convenience wrapper around several independent
// builds, distinct from the per-build worker pool that drives a single
// Bundle call. After the first error (or when ctx is canceled), entries
// whose build has not started yet are skipped; a Bundle already running
// is not interrupted.
func BundleAll(ctx context.Context, entries []string, opts Options) ([]Result, error) {
	results := make([]Result, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			res, err := Bundle(entry, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func workers(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}
