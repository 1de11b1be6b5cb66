package scanner

import (
	"strings"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/jslex"
)

// parseImport consumes everything after an already-elided "import"
// keyword. The second return value reports whether this was actually
// "import.meta" rather than a module import declaration; import.meta is
// rewritten in place to a synthesized "__import_meta" reference and
// never produces an importDecl.
func parseImport(ts *tokenStream, body *strings.Builder, path string) (importDecl, bool, error) {
	tok := ts.Advance()
	body.WriteString(tok.WSBefore)

	var decl importDecl

	switch {
	case tok.Type == jslex.StrLitSgl || tok.Type == jslex.StrLitDbl:
		mod, err := jslex.DecodeStringLiteral(tok.Value)
		if err != nil {
			return importDecl{}, false, bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid module specifier", err).WithFile(path)
		}
		decl.module = mod
		return decl, false, nil

	case tok.Type == jslex.Dot:
		metaTok := ts.Advance()
		body.WriteString(metaTok.WSBefore)
		if !metaTok.IsID("meta") {
			return importDecl{}, false, expectedErr(path, "keyword 'meta'")
		}
		body.WriteString("__import_meta")
		return importDecl{}, true, nil

	case tok.Type == jslex.Id:
		decl.hasDefault = true
		decl.defaultBind = tok.Value
		if ts.Peek().Type == jslex.Comma {
			c := ts.Advance()
			body.WriteString(c.WSBefore)
			if err := parseImportBinds(ts, body, path, &decl); err != nil {
				return importDecl{}, false, err
			}
		}

	default:
		if err := parseImportBinds(ts, body, path, &decl); err != nil {
			return importDecl{}, false, err
		}
	}

	fromTok := ts.Advance()
	body.WriteString(fromTok.WSBefore)
	if !fromTok.IsID("from") {
		return importDecl{}, false, expectedErr(path, "keyword 'from'")
	}
	strTok := ts.Advance()
	body.WriteString(strTok.WSBefore)
	if strTok.Type != jslex.StrLitSgl && strTok.Type != jslex.StrLitDbl {
		return importDecl{}, false, expectedErr(path, "module name (string literal)")
	}
	mod, err := jslex.DecodeStringLiteral(strTok.Value)
	if err != nil {
		return importDecl{}, false, bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid module specifier", err).WithFile(path)
	}
	decl.module = mod
	return decl, false, nil
}

// parseImportBinds parses either "* as name" or "{ a as b, c }"
// following the optional default binding and its comma.
func parseImportBinds(ts *tokenStream, body *strings.Builder, path string, decl *importDecl) error {
	tok := ts.Advance()
	body.WriteString(tok.WSBefore)

	switch tok.Type {
	case jslex.Star:
		asTok := ts.Advance()
		body.WriteString(asTok.WSBefore)
		if !asTok.IsID("as") {
			return expectedErr(path, "keyword 'as'")
		}
		nameTok := ts.Advance()
		body.WriteString(nameTok.WSBefore)
		if nameTok.Type != jslex.Id {
			return expectedErr(path, "namespace binding name")
		}
		decl.bindKind = bindNamespace
		decl.namespaceBind = nameTok.Value
		return nil

	case jslex.Lbrace:
		var specs []importSpec
	loop:
		for {
			t := ts.Advance()
			body.WriteString(t.WSBefore)
			if t.Type == jslex.Rbrace {
				break loop
			}
			if t.Type != jslex.Id && t.Type != jslex.Default {
				return expectedErr(path, "import specifier or '}'")
			}
			name := t.Value

			next := ts.Advance()
			body.WriteString(next.WSBefore)
			switch {
			case next.IsID("as"):
				bindTok := ts.Advance()
				body.WriteString(bindTok.WSBefore)
				if bindTok.Type != jslex.Id {
					return expectedErr(path, "binding name after keyword 'as'")
				}
				specs = append(specs, importSpec{name: name, bind: bindTok.Value})

				closer := ts.Advance()
				body.WriteString(closer.WSBefore)
				switch closer.Type {
				case jslex.Rbrace:
					break loop
				case jslex.Comma:
					continue loop
				default:
					return expectedErr(path, "',' or '}'")
				}
			case next.Type == jslex.Rbrace:
				specs = append(specs, importSpec{name: name, bind: name})
				break loop
			case next.Type == jslex.Comma:
				specs = append(specs, importSpec{name: name, bind: name})
			default:
				return expectedErr(path, "',' or '}' or keyword 'as'")
			}
		}
		decl.bindKind = bindNamed
		decl.named = specs
		return nil

	default:
		return expectedErr(path, "'*' or '{' or a module name")
	}
}
