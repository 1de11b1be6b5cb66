// Package scanner turns one file's raw source into the prefix/body/suffix
// triple the writer wraps in a module function, harvesting the set of
// specifiers it depends on along the way. It never builds an AST: it
// walks the jslex token stream once, reprinting everything it does not
// care about byte-for-byte (leading whitespace included) so the emitted
// body always has exactly as many lines as the source it came from.
package scanner

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/jslex"
)

// Source is the three-part body the writer assembles a module function
// out of: Prefix and Suffix are packline-authored text, Body is the
// (possibly rewritten) source. Original is set whenever Body went
// through the ES-module rewrite or the hashbang substitution (even if
// the text came out unchanged), so the source map can still carry the
// true original text.
type Source struct {
	Prefix   string
	Body     string
	Suffix   string
	Original *string
}

// Info is the result of scanning one file: its Source triple plus the
// set of module specifiers it requires or imports.
type Info struct {
	Source Source
	Deps   map[string]bool
}

// Include scans the contents of the file at path and produces its Info.
// esSyntaxEverywhere controls whether plain .js/.cjs files (anything
// that isn't .mjs or .json) are scanned as ES modules in addition to
// .mjs files, or are instead left untouched beyond a plain require()
// harvest.
func Include(path, source string, esSyntaxEverywhere bool) (Info, error) {
	var src Source
	deps := map[string]bool{}
	rewritten := false

	switch filepath.Ext(path) {
	case ".json":
		// A trailing newline keeps this on its own physical line rather
		// than merging with the body's first line the way a bare "="
		// would, matching every other Prefix in this package, which
		// always ends in "\n" and so always owns complete lines of its
		// own; `module.exports =\n{...}` still parses as one assignment.
		src.Prefix = "module.exports =\n"
	case ".mjs":
		r, err := rewrite(path, source, false)
		if err != nil {
			return Info{}, err
		}
		src.Prefix, src.Body, src.Suffix, deps = r.Prefix, r.Body, r.Suffix, r.Deps
		rewritten = true
	default:
		if esSyntaxEverywhere {
			r, err := rewrite(path, source, true)
			if err != nil {
				return Info{}, err
			}
			src.Prefix, src.Body, src.Suffix, deps = r.Prefix, r.Body, r.Suffix, r.Deps
			rewritten = true
		} else {
			d, err := harvestRequires(path, source)
			if err != nil {
				return Info{}, err
			}
			deps = d
		}
	}

	if src.Body == "" {
		src.Body = source
	}
	if strings.HasPrefix(src.Body, "#!") {
		src.Body = "//" + src.Body[2:]
		rewritten = true
	}

	if rewritten {
		original := source
		src.Original = &original
	}

	return Info{Source: src, Deps: deps}, nil
}

// harvestRequires scans source for require('literal') calls without
// recognizing import/export syntax at all, and without rewriting
// anything: the returned deps are the only thing this pass produces.
func harvestRequires(path, source string) (map[string]bool, error) {
	deps := map[string]bool{}
	lx := jslex.New(source)
	for {
		tok := lx.Next()
		if tok.Type == jslex.EOF {
			return deps, nil
		}
		if tok.Type != jslex.Id || tok.Value != "require" {
			continue
		}
		if err := scanRequireCall(lx, path, deps); err != nil {
			return nil, err
		}
	}
}

// scanRequireCall consumes the tokens of a candidate require(...) call
// immediately following the already-consumed "require" identifier. A
// shape that doesn't match is silently ignored, mirroring however many
// tokens of lookahead were spent checking it; a non-literal argument is
// likewise ignored. Lexer position is never rewound either way.
func scanRequireCall(lx *jslex.Lexer, path string, deps map[string]bool) error {
	t1 := lx.Next()
	if t1.Type != jslex.Lparen {
		return nil
	}
	t2 := lx.Next()
	if t2.Type != jslex.StrLitSgl && t2.Type != jslex.StrLitDbl {
		return nil
	}
	t3 := lx.Next()
	if t3.Type != jslex.Rparen {
		return nil
	}
	val, err := jslex.DecodeStringLiteral(t2.Value)
	if err != nil {
		return bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid string literal in require() call", err).WithFile(path)
	}
	deps[val] = true
	return nil
}

func expectedErr(path, what string) error {
	return bundlerrors.New(bundlerrors.Esm, "expected "+what).WithFile(path)
}

func quoteJS(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// s is always a valid UTF-8 Go string decoded from source text;
		// json.Marshal on a string cannot fail.
		panic(err)
	}
	return string(b)
}

// tokenStream is a one-token-lookahead wrapper around jslex.Lexer, the
// shape the export/import grammars below are written against: they
// routinely need to peek at the next token (to decide whether "async"
// starts a function or a bare expression, say) before deciding whether
// to consume it.
type tokenStream struct {
	lx   *jslex.Lexer
	next jslex.Token
}

func newTokenStream(source string) *tokenStream {
	lx := jslex.New(source)
	return &tokenStream{lx: lx, next: lx.Next()}
}

func (ts *tokenStream) Peek() jslex.Token {
	return ts.next
}

func (ts *tokenStream) Advance() jslex.Token {
	tok := ts.next
	ts.next = ts.lx.Next()
	return tok
}

type exportKind int

const (
	exportDefaultKind exportKind = iota
	exportNamedKind
	exportAllFromKind
	exportNamedFromKind
)

type exportSpec struct{ name, bind string }

type exportDecl struct {
	kind        exportKind
	defaultBind string
	specs       []exportSpec
	module      string
}

type bindKind int

const (
	bindNone bindKind = iota
	bindNamespace
	bindNamed
)

type importSpec struct{ name, bind string }

type importDecl struct {
	module        string
	hasDefault    bool
	defaultBind   string
	bindKind      bindKind
	namespaceBind string
	named         []importSpec
}

type rewriteResult struct {
	Prefix string
	Body   string
	Suffix string
	Deps   map[string]bool
}

// rewrite walks source as an ES module, eliding every import declaration
// and every export keyword or export clause in place (replacing it with
// nothing but its own leading whitespace, to preserve line numbers) and
// recording what it found. Exported var/let/const, function and class
// declarations themselves are kept in the body.
// allowRequire additionally recognizes bare require(...) calls, for the
// non-.mjs "ES syntax everywhere" case, which still needs to support
// mixing require with import/export in the same file.
func rewrite(path, source string, allowRequire bool) (rewriteResult, error) {
	ts := newTokenStream(source)
	var body strings.Builder
	var imports []importDecl
	var exports []exportDecl
	requires := map[string]bool{}

	for {
		tok := ts.Advance()
		switch {
		case tok.Type == jslex.EOF:
			body.WriteString(tok.WSBefore)
			r, err := assemble(path, body.String(), imports, exports)
			if err != nil {
				return rewriteResult{}, err
			}
			for dep := range requires {
				r.Deps[dep] = true
			}
			return r, nil
		case tok.Type == jslex.Export:
			body.WriteString(tok.WSBefore)
			exp, err := parseExport(ts, &body, path)
			if err != nil {
				return rewriteResult{}, err
			}
			exports = append(exports, exp)
		case tok.Type == jslex.Import:
			body.WriteString(tok.WSBefore)
			imp, isMeta, err := parseImport(ts, &body, path)
			if err != nil {
				return rewriteResult{}, err
			}
			if !isMeta {
				imports = append(imports, imp)
			}
		case allowRequire && tok.Type == jslex.Id && tok.Value == "require":
			body.WriteString(tok.WSBefore)
			body.WriteString(tok.Text)
			if err := scanRequireCallTS(ts, &body, path, requires); err != nil {
				return rewriteResult{}, err
			}
		default:
			body.WriteString(tok.WSBefore)
			body.WriteString(tok.Text)
		}
	}
}

// scanRequireCallTS is scanRequireCall's counterpart for the tokenStream
// used while rewriting, reprinting every token it consumes (matched or
// not) so the require(...) call text survives unchanged in the body, and
// recording a matched literal specifier in deps.
func scanRequireCallTS(ts *tokenStream, body *strings.Builder, path string, deps map[string]bool) error {
	t1 := ts.Advance()
	body.WriteString(t1.WSBefore)
	body.WriteString(t1.Text)
	if t1.Type != jslex.Lparen {
		return nil
	}
	t2 := ts.Advance()
	body.WriteString(t2.WSBefore)
	body.WriteString(t2.Text)
	if t2.Type != jslex.StrLitSgl && t2.Type != jslex.StrLitDbl {
		return nil
	}
	t3 := ts.Advance()
	body.WriteString(t3.WSBefore)
	body.WriteString(t3.Text)
	if t3.Type != jslex.Rparen {
		return nil
	}
	val, err := jslex.DecodeStringLiteral(t2.Value)
	if err != nil {
		return bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid string literal in require() call", err).WithFile(path)
	}
	deps[val] = true
	return nil
}

// assemble builds the synthesized prefix/suffix around the (already
// elided) body from the imports and exports collected while walking it.
func assemble(path, body string, imports []importDecl, exports []exportDecl) (rewriteResult, error) {
	deps := map[string]bool{}
	isModule := len(imports) > 0 || len(exports) > 0

	var names, calls []string
	bind := func(name string) {
		names = append(names, name)
		calls = append(calls, fmt.Sprintf("imports[%s]", quoteJS(name)))
	}

	var prefix strings.Builder
	if isModule {
		prefix.WriteString("Object.defineProperty(exports, '__esModule', {value: true});\n")
	}

	if len(imports) > 0 {
		prefix.WriteString("var imports = (function () {\n")
		for i, imp := range imports {
			fmt.Fprintf(&prefix, "  const __module%d = require._esModule(%s);\n", i, quoteJS(imp.module))
			deps[imp.module] = true
		}
		prefix.WriteString("  return Object.create(null, {\n")
		for i, imp := range imports {
			if imp.hasDefault {
				fmt.Fprintf(&prefix, "    %s: {get: function () { return __module%d.default; }, enumerable: true},\n", imp.defaultBind, i)
				bind(imp.defaultBind)
			}
			switch imp.bindKind {
			case bindNamespace:
				fmt.Fprintf(&prefix, "    %s: {value: __module%d, enumerable: true},\n", imp.namespaceBind, i)
				bind(imp.namespaceBind)
			case bindNamed:
				for _, spec := range imp.named {
					fmt.Fprintf(&prefix, "    %s: {get: function () { return __module%d.%s; }, enumerable: true},\n", spec.bind, i, spec.name)
					bind(spec.bind)
				}
			}
		}
		prefix.WriteString("  });\n")
		prefix.WriteString("}());\n")
	}

	if len(exports) > 0 {
		var fields strings.Builder
		var reexports strings.Builder
		for i, exp := range exports {
			switch exp.kind {
			case exportDefaultKind:
				fmt.Fprintf(&fields, "  default: {get: function () { return %s; }, enumerable: true},\n", exp.defaultBind)
			case exportNamedKind:
				for _, spec := range exp.specs {
					fmt.Fprintf(&fields, "  %s: {get: function () { return %s; }, enumerable: true},\n", spec.name, spec.bind)
				}
			case exportAllFromKind:
				fmt.Fprintf(&prefix, "Object.defineProperties(exports, Object.getOwnPropertyDescriptors(require._esModule(%s)));\n", quoteJS(exp.module))
				deps[exp.module] = true
			case exportNamedFromKind:
				fmt.Fprintf(&reexports, "const __reexport%d = require._esModule(%s);\n", i, quoteJS(exp.module))
				for _, spec := range exp.specs {
					fmt.Fprintf(&fields, "  %s: {get: function () { return __reexport%d.%s; }, enumerable: true},\n", spec.name, i, spec.bind)
				}
				deps[exp.module] = true
			}
		}
		if reexports.Len() > 0 {
			prefix.WriteString(reexports.String())
		}
		if fields.Len() > 0 {
			prefix.WriteString("Object.defineProperties(exports, {\n")
			prefix.WriteString(fields.String())
			prefix.WriteString("});\n")
		}
	}

	var suffix string
	if len(names) > 0 {
		fmt.Fprintf(&prefix, "~function (%s) {\n'use strict';\n", strings.Join(names, ", "))
		suffix = fmt.Sprintf("}(%s);", strings.Join(calls, ", "))
	} else if isModule {
		prefix.WriteString("'use strict';\n")
	}

	return rewriteResult{Prefix: prefix.String(), Body: body, Suffix: suffix, Deps: deps}, nil
}
