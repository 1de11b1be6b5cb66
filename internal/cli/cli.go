// Package cli implements the bundler's command-line behavior
// independently of how its flags were parsed, so cmd/packline can stay
// a thin cobra/viper binding layer and internal/cli can be exercised
// directly from tests.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/packline-dev/packline/internal/bundler"
	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/graph"
	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/log"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/watch"
	"github.com/packline-dev/packline/internal/writer"
)

// CoreModules is the fixed Node.js core module name list --external-core
// expands to, per the distilled spec's §6.
var CoreModules = []string{
	"assert", "buffer", "child_process", "cluster", "crypto", "dgram",
	"dns", "domain", "events", "fs", "http", "https", "net", "os",
	"path", "punycode", "querystring", "readline", "stream",
	"string_decoder", "tls", "tty", "url", "util", "vm", "zlib",
}

// Options mirrors the CLI flag set unchanged from the distilled spec's
// §6, plus Cwd/ExeName/Workers/LogJSON, which are ambient-stack
// additions with no effect on bundling semantics.
type Options struct {
	Input  string
	Output string // defaults to "-" (stdout)

	MapPath      string // set only when --map was given
	MapPathSet   bool
	MapInline    bool
	NoMap        bool
	Watch        bool
	QuietWatch   bool
	External     []string
	ExternalCore bool
	ForBrowser   bool
	ESSyntax     bool
	ESSyntaxEverywhere bool

	Cwd     string
	ExeName string
	Workers int
	LogJSON bool
}

// Run executes one invocation (a single build, or a build-then-watch
// loop) and returns the process exit code: 0 on success, 1 otherwise,
// matching §6 exactly. stdout receives the built script when Output is
// "-"; stderr receives every logged diagnostic. Per §6, diagnostics
// belong on stdout too ("<exe-name>: ..."), so cmd/packline passes the
// same writer for both; stderr stays a separate parameter here so tests
// can tell build output and diagnostics apart. Usage/help/version are
// cobra's concern in cmd/packline, not this package's; Run always
// performs a build.
func Run(ctx context.Context, opts Options, stdout, stderr io.Writer) int {
	logger := log.New(opts.ExeName, logrus.InfoLevel, opts.LogJSON, stderr)

	mapMode, mapPath, err := resolveMapMode(opts)
	if err != nil {
		logger.Error(err)
		return 1
	}

	bopts := bundlerOptions(opts, logger)

	build := func() (writer.Result, []string, error) {
		res, err := bundler.Build(opts.Input, bopts)
		if err != nil {
			return writer.Result{}, nil, err
		}
		wres, err := writer.Write(writer.Options{
			EntryPath:  res.EntryPath,
			MapMode:    mapMode,
			MapPath:    mapPath,
			OutputPath: opts.Output,
		}, res.Graph.Modules())
		if err != nil {
			return writer.Result{}, nil, err
		}
		return wres, filePaths(res.Graph), nil
	}

	if opts.Watch || opts.QuietWatch {
		quiet := opts.QuietWatch
		err := watch.Run(ctx, logger, quiet, func() (watch.Outcome, error) {
			wres, files, err := build()
			if err != nil {
				return watch.Outcome{}, err
			}
			if werr := emit(opts, mapMode, mapPath, wres, stdout); werr != nil {
				return watch.Outcome{Files: files}, werr
			}
			return watch.Outcome{Files: files}, nil
		})
		if err != nil {
			logger.Error(err)
			return 1
		}
		return 0
	}

	wres, _, err := build()
	if err != nil {
		logger.Error(err)
		return 1
	}
	if err := emit(opts, mapMode, mapPath, wres, stdout); err != nil {
		logger.Error(err)
		return 1
	}
	return 0
}

func bundlerOptions(opts Options, logger *log.Logger) bundler.Options {
	pm := manifest.Npm
	if opts.ForBrowser {
		pm = manifest.Bower
	}

	external := append([]string(nil), opts.External...)
	if opts.ExternalCore {
		external = append(external, CoreModules...)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return bundler.Options{
		FS:                 iofs.Real{},
		Cwd:                opts.Cwd,
		PackageManager:     pm,
		External:           external,
		ESSyntaxEverywhere: opts.ESSyntaxEverywhere,
		Workers:            workers,
		Logger:             logger,
	}
}

// resolveMapMode implements §6's "Source-map output defaults" and
// mutual-exclusivity rule.
func resolveMapMode(opts Options) (writer.MapMode, string, error) {
	set := 0
	if opts.MapPathSet {
		set++
	}
	if opts.MapInline {
		set++
	}
	if opts.NoMap {
		set++
	}
	if set > 1 {
		return 0, "", bundlerrors.New(bundlerrors.BadUsage, "--map, --map-inline, and --no-map are mutually exclusive")
	}

	switch {
	case opts.NoMap:
		return writer.MapSuppressed, "", nil
	case opts.MapInline:
		return writer.MapInline, "", nil
	case opts.MapPathSet:
		return writer.MapFile, opts.MapPath, nil
	case opts.Output == "" || opts.Output == "-":
		return writer.MapSuppressed, "", nil
	default:
		return writer.MapFile, opts.Output + ".map", nil
	}
}

// emit writes the build's script (and, under MapFile, its map) to disk
// or stdout per opts.Output.
func emit(opts Options, mapMode writer.MapMode, mapPath string, res writer.Result, stdout io.Writer) error {
	if opts.Output == "" || opts.Output == "-" {
		_, err := io.WriteString(stdout, res.Script)
		if err != nil {
			return bundlerrors.Wrap(bundlerrors.Io, "cannot write to stdout", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return bundlerrors.Wrap(bundlerrors.Io, fmt.Sprintf("cannot create output directory for %q", opts.Output), err)
	}
	if err := os.WriteFile(opts.Output, []byte(res.Script), 0o644); err != nil {
		return bundlerrors.Wrap(bundlerrors.Io, fmt.Sprintf("cannot write %q", opts.Output), err)
	}

	if mapMode == writer.MapFile {
		if err := os.WriteFile(mapPath, res.MapJSON, 0o644); err != nil {
			return bundlerrors.Wrap(bundlerrors.Io, fmt.Sprintf("cannot write %q", mapPath), err)
		}
	}
	return nil
}

// filePaths lists every module path in g, sorted, for the watch loop's
// next watch set.
func filePaths(g *graph.Graph) []string {
	modules := g.Modules()
	paths := make([]string, 0, len(modules))
	for _, m := range modules {
		paths = append(paths, m.Path)
	}
	sort.Strings(paths)
	return paths
}
