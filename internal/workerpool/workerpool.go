// Package workerpool runs a fixed-size pool of goroutines that resolve
// specifiers and include files on behalf of the bundler driver, posting
// every result over a single completion channel. Each worker owns its
// own Resolver (and so its own package cache); caches are never shared
// across workers, trading redundant manifest reads for lock freedom.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/iofs"
	"github.com/packline-dev/packline/internal/manifest"
	"github.com/packline-dev/packline/internal/resolver"
	"github.com/packline-dev/packline/internal/scanner"
)

// workQueueCapacity bounds the buffered channel standing in for the
// lock-free MPMC queue: Go channels have no unbounded-buffer option, so
// this is sized generously for any one build's worth of in-flight work
// (two items dispatched per module: one include, one resolve per dep).
const workQueueCapacity = 1 << 16

// Kind distinguishes the two shapes of Work a worker can be handed.
type Kind int

const (
	Include Kind = iota
	Resolve
)

// Work is one unit dispatched to a worker: either "read and scan the
// file at Path" (Include) or "resolve Specifier as it appears inside
// Context" (Resolve).
type Work struct {
	Kind Kind

	Path string // Include

	Context   string // Resolve
	Specifier string // Resolve
}

// Result is what a worker posts back on the completion channel after
// executing one Work item. Err, if set, is the only other field that
// matters; a driver that sees it should treat the build as failed.
type Result struct {
	Kind Kind
	Err  error

	Path string      // Include
	Info scanner.Info // Include

	Context   string            // Resolve
	Specifier string            // Resolve
	Resolved  resolver.Resolved // Resolve
}

// Pool is a fixed-size set of worker goroutines draining a shared work
// queue and posting to a single completion channel.
type Pool struct {
	work    chan Work
	results chan Result
	quit    atomic.Bool
	wg      sync.WaitGroup
}

// New starts size workers reading through fs for package manager pm,
// treating external as external modules and scanning plain .js files
// as ES modules when esSyntaxEverywhere is set. logger is decorated
// per worker so concurrent log lines stay attributable.
func New(size int, fs iofs.FS, pm manifest.PackageManager, external []string, esSyntaxEverywhere bool, logger *logrus.Logger) *Pool {
	p := &Pool{
		work:    make(chan Work, workQueueCapacity),
		results: make(chan Result),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run(i, fs, pm, external, esSyntaxEverywhere, logger)
	}
	return p
}

// Submit enqueues w for some worker to pick up.
func (p *Pool) Submit(w Work) {
	p.work <- w
}

// Results is the single completion channel every worker posts to.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop signals every worker to exit once the queue drains and blocks
// until they have. Results posted meanwhile are discarded, so a worker
// finishing an item after the driver stopped reading does not block.
func (p *Pool) Stop() {
	p.quit.Store(true)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-p.results:
		case <-done:
			return
		}
	}
}

// run is one worker's loop: pop a work item if one is queued; if none
// is available and quit hasn't been signaled, yield the CPU and retry;
// once quit is signaled and the queue is empty, exit.
func (p *Pool) run(id int, fs iofs.FS, pm manifest.PackageManager, external []string, esSyntaxEverywhere bool, logger *logrus.Logger) {
	defer p.wg.Done()
	r := resolver.New(fs, pm, external)
	entry := logger.WithField("worker", id)

	for {
		select {
		case w := <-p.work:
			p.results <- p.execute(w, r, fs, esSyntaxEverywhere, entry)
			continue
		default:
		}

		if p.quit.Load() {
			select {
			case w := <-p.work:
				p.results <- p.execute(w, r, fs, esSyntaxEverywhere, entry)
				continue
			default:
				return
			}
		}

		runtime.Gosched()
	}
}

// execute runs one Work item, recovering a panic into a WorkerPanic
// result instead of letting it cross the worker's goroutine boundary.
func (p *Pool) execute(w Work, r *resolver.Resolver, fs iofs.FS, esSyntaxEverywhere bool, logger *logrus.Entry) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{
				Kind: w.Kind,
				Err:  bundlerrors.New(bundlerrors.WorkerPanic, fmt.Sprintf("worker panic: %v", rec)),
				Path: w.Path,
			}
		}
	}()

	switch w.Kind {
	case Include:
		return p.executeInclude(w, fs, esSyntaxEverywhere, logger)
	default:
		return p.executeResolve(w, r, logger)
	}
}

func (p *Pool) executeInclude(w Work, fs iofs.FS, esSyntaxEverywhere bool, logger *logrus.Entry) Result {
	data, ok := fs.ReadFile(w.Path)
	if !ok {
		return Result{Kind: Include, Path: w.Path, Err: bundlerrors.New(bundlerrors.Io, "cannot read file").WithFile(w.Path)}
	}
	if !utf8.Valid(data) {
		return Result{Kind: Include, Path: w.Path, Err: bundlerrors.New(bundlerrors.InvalidUtf8, "file is not valid UTF-8").WithFile(w.Path)}
	}

	info, err := scanner.Include(w.Path, string(data), esSyntaxEverywhere)
	if err != nil {
		return Result{Kind: Include, Path: w.Path, Err: err}
	}
	logger.WithField("path", w.Path).Debug("included module")
	return Result{Kind: Include, Path: w.Path, Info: info}
}

func (p *Pool) executeResolve(w Work, r *resolver.Resolver, logger *logrus.Entry) Result {
	resolved, err := r.Resolve(w.Context, w.Specifier)
	if err != nil {
		return Result{Kind: Resolve, Context: w.Context, Specifier: w.Specifier, Err: err}
	}
	logger.WithField("specifier", w.Specifier).Debug("resolved dependency")
	return Result{Kind: Resolve, Context: w.Context, Specifier: w.Specifier, Resolved: resolved}
}
