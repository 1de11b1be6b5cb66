// Package writer consumes a finished module graph and emits the final
// bundle: a concatenated script runnable under the runtime shim, plus,
// line-accurately, a version-3 source map. It is the one place that
// imposes an order on the graph (sorted by path) so bundle output is
// deterministic for a given module set.
package writer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/packline-dev/packline/internal/graph"
	"github.com/packline-dev/packline/internal/pathutil"
	"github.com/packline-dev/packline/internal/resolver"
	"github.com/packline-dev/packline/internal/runtime"
	"github.com/packline-dev/packline/internal/sourcemap"
)

// MapMode selects how (or whether) a build emits its source map,
// matching §4.6's three output modes.
type MapMode int

const (
	// MapSuppressed emits no source map and no sourceMappingURL comment.
	MapSuppressed MapMode = iota
	// MapInline embeds the map as a base64 data-URI comment.
	MapInline
	// MapFile writes the map to MapPath and points a relative
	// sourceMappingURL comment at it.
	MapFile
)

// Options configures one call to Write.
type Options struct {
	// EntryPath is the absolute path of the entry module, used both to
	// compute every module's path relative to the entry's parent
	// directory and to emit the epilogue that requires it.
	EntryPath string

	MapMode MapMode
	// MapPath is the disk path the map will be written to, used only
	// when MapMode == MapFile.
	MapPath string
	// OutputPath is the disk path the script itself will be written
	// to ("-" for stdout), used only to relativize MapPath in the
	// sourceMappingURL comment under MapMode == MapFile.
	OutputPath string
}

// Result is one call to Write's output.
type Result struct {
	// Script is the complete bundle text, with a sourceMappingURL
	// comment already appended if Options.MapMode calls for one.
	Script string
	// MapJSON is the marshaled source map document, non-nil whenever
	// Options.MapMode != MapSuppressed, for the caller to write to
	// MapPath (MapFile) or that was already inlined into Script
	// (MapInline, kept here too so callers can inspect it uniformly).
	MapJSON []byte
}

// Write assembles modules (in no particular order: Write sorts them by
// path) into a single script plus, per opts.MapMode, a source map.
func Write(opts Options, modules []*graph.Module) (Result, error) {
	sorted := make([]*graph.Module, len(modules))
	copy(sorted, modules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	entryDir := filepath.Dir(opts.EntryPath)

	idByPath := make(map[string]string, len(sorted))
	jsPathByPath := make(map[string]string, len(sorted))
	for _, m := range sorted {
		jsPath := jsPathOf(m.Path, entryDir)
		jsPathByPath[m.Path] = jsPath
		idByPath[m.Path] = "file_" + escapeIdent(jsPath)
	}

	var script strings.Builder
	mb := sourcemap.NewBuilder()
	sources := make([]string, 0, len(sorted))
	sourcesContent := make([]string, 0, len(sorted))

	writeText(&script, mb, runtime.Head)

	firstModuleSeen := false
	prevLastBodyLine := 0
	for _, m := range sorted {
		jsPath := jsPathByPath[m.Path]
		id := idByPath[m.Path]
		sources = append(sources, jsPath)
		sourcesContent = append(sourcesContent, sourceContentOf(m))

		decl := fmt.Sprintf(
			"Shim.files[%s] = %s; %s.deps = %s; %s.filename = %s; function %s(module, exports, require, __filename, __dirname, __import_meta) {\n",
			quoteJS(jsPath), id, id, depsObject(m, idByPath), id, quoteJS(jsPath), id,
		)
		writeText(&script, mb, decl)
		writeText(&script, mb, m.Source.Prefix)

		bodyLines := splitLines(m.Source.Body)
		for i, line := range bodyLines {
			script.WriteString(line)
			script.WriteByte('\n')
			switch {
			case !firstModuleSeen && i == 0:
				mb.FirstLine()
			case i == 0:
				mb.ModuleStart(prevLastBodyLine)
			default:
				mb.Continue()
			}
		}
		firstModuleSeen = true
		if len(bodyLines) > 0 {
			prevLastBodyLine = len(bodyLines) - 1
		} else {
			prevLastBodyLine = 0
		}

		// Source.Suffix, when present, is always a single-line expression
		// ("}(...);") with no embedded newline: it shares the closing
		// brace's physical line rather than occupying one of its own, so
		// it is written raw here instead of through writeText, which
		// would record a mapping blank for a line that doesn't exist.
		script.WriteString(m.Source.Suffix)
		script.WriteString("}\n")
		mb.Blank()
	}

	entryJSPath := jsPathByPath[opts.EntryPath]
	fmt.Fprintf(&script, "requireModule(Shim.files[%s]);\n", quoteJS(entryJSPath))
	mb.Blank()
	writeText(&script, mb, runtime.Tail)

	sm := sourcemap.New(sources, sourcesContent, mb.Mappings())
	return finish(opts, script.String(), sm)
}

// writeText writes s verbatim to script and records one blank mapping
// line per physical line of s (used for every piece of bundler-authored
// text: the runtime prologue/tail, a module's declaration line, and its
// rewrite prefix/suffix, none of which correspond to a line in any
// original source file).
func writeText(script *strings.Builder, mb *sourcemap.Builder, s string) {
	if s == "" {
		return
	}
	script.WriteString(s)
	for range splitLines(s) {
		mb.Blank()
	}
}

// splitLines returns s's lines, dropping the trailing empty element
// strings.Split produces for a trailing newline (so a string ending in
// "\n" and one that doesn't is reconstructed identically either way: the
// caller always re-appends "\n" after every element this returns).
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func sourceContentOf(m *graph.Module) string {
	if m.Source.Original != nil {
		return *m.Source.Original
	}
	return m.Source.Body
}

// jsPathOf computes a module's path relative to entryDir the way
// §3 describes sources[i] in the source map, with backslashes
// translated to forward slashes so the emitted path is stable across
// platforms.
func jsPathOf(path, entryDir string) string {
	rel, ok := pathutil.RelativeFrom(toSlash(path), toSlash(entryDir))
	if !ok {
		rel = toSlash(path)
	}
	return rel
}

func toSlash(p string) string {
	if filepath.Separator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// escapeIdent turns jsPath into a valid JavaScript identifier fragment:
// every byte outside [A-Za-z0-9_] becomes "%" followed by two lowercase
// hex digits of its value.
func escapeIdent(jsPath string) string {
	var b strings.Builder
	for i := 0; i < len(jsPath); i++ {
		c := jsPath[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02x", c)
		}
	}
	return b.String()
}

// depsObject builds the per-module deps object literal: one entry per
// specifier resolved to Normal (the target module's id) or Ignore
// (Shim.ignored); External specifiers are omitted entirely, left for
// the runtime's own require() to throw on if ever actually called.
func depsObject(m *graph.Module, idByPath map[string]string) string {
	keys := make([]string, 0, len(m.Deps))
	for k := range m.Deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		r := m.Deps[k]
		switch r.Kind {
		case resolver.KindIgnore:
			parts = append(parts, fmt.Sprintf("%s: Shim.ignored", quoteJS(k)))
		case resolver.KindNormal:
			parts = append(parts, fmt.Sprintf("%s: %s", quoteJS(k), idByPath[r.Path]))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quoteJS(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// s always originates from a valid UTF-8 Go string; json.Marshal
		// on a string cannot fail.
		panic(err)
	}
	return string(b)
}

// finish appends the source-map comment (or not) per opts.MapMode and
// returns the caller-facing Result.
func finish(opts Options, script string, sm *sourcemap.Map) (Result, error) {
	if opts.MapMode == MapSuppressed {
		return Result{Script: script}, nil
	}

	data, err := sm.Marshal()
	if err != nil {
		return Result{}, err
	}

	switch opts.MapMode {
	case MapInline:
		encoded := base64.StdEncoding.EncodeToString(data)
		script += "//# sourceMappingURL=data:application/json;charset=utf-8;base64," + encoded + "\n"
		return Result{Script: script, MapJSON: data}, nil
	case MapFile:
		rel := relativeMapPath(opts.OutputPath, opts.MapPath)
		script += "//# sourceMappingURL=" + rel + "\n"
		return Result{Script: script, MapJSON: data}, nil
	default:
		return Result{Script: script}, nil
	}
}

// relativeMapPath computes mapPath relative to the directory outputPath
// lives in, the way a sourceMappingURL comment needs it; these are real
// disk paths at the CLI output boundary, not the lexical-only module
// specifiers pathutil handles, so the OS's own path/filepath is the
// right tool here.
func relativeMapPath(outputPath, mapPath string) string {
	dir := "."
	if outputPath != "" && outputPath != "-" {
		dir = filepath.Dir(outputPath)
	}
	rel, err := filepath.Rel(dir, mapPath)
	if err != nil {
		return mapPath
	}
	return toSlash(rel)
}
