// Package graph holds the module table a build is assembling: one entry
// per included file, each either still being scanned or fully resolved
// with its own dependency edges. A Graph has exactly one owner, the
// driver goroutine that dispatches work and drains results — so unlike
// most shared state in this tool, it is never protected by a mutex, and
// must never be touched from a worker goroutine directly.
package graph

import (
	"github.com/packline-dev/packline/internal/resolver"
	"github.com/packline-dev/packline/internal/scanner"
)

// Module is one included file: its rewritten source plus every
// specifier it referenced, resolved to wherever that specifier points.
type Module struct {
	Path   string
	Source scanner.Source
	Deps   map[string]resolver.Resolved
}

// state is either Loading (a worker has been dispatched but hasn't
// reported back) or holds the finished Module.
type state struct {
	loading bool
	module  *Module
}

// Graph is the module table a single build assembles. It is deliberately
// lock-free: only the driver that owns it ever calls these methods.
type Graph struct {
	modules map[string]*state
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{modules: make(map[string]*state)}
}

// MarkLoading registers path as in flight and reports true the first
// time it is seen for a given path; a caller that gets false already
// has (or has already scheduled) a scan for this path and must not
// dispatch another one.
func (g *Graph) MarkLoading(path string) bool {
	if _, ok := g.modules[path]; ok {
		return false
	}
	g.modules[path] = &state{loading: true}
	return true
}

// Complete records the finished scan for path.
func (g *Graph) Complete(path string, m *Module) {
	g.modules[path] = &state{module: m}
}

// Get returns the Module at path, if it is known and finished loading.
func (g *Graph) Get(path string) (*Module, bool) {
	st, ok := g.modules[path]
	if !ok || st.loading || st.module == nil {
		return nil, false
	}
	return st.module, true
}

// Pending reports how many modules are still being loaded.
func (g *Graph) Pending() int {
	n := 0
	for _, st := range g.modules {
		if st.loading {
			n++
		}
	}
	return n
}

// Modules returns every module that finished loading. Safe to call only
// once Pending() is zero; the bundler never hands a partial graph to
// the writer.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.modules))
	for _, st := range g.modules {
		if !st.loading && st.module != nil {
			out = append(out, st.module)
		}
	}
	return out
}
