package scanner

import (
	"strings"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/jslex"
)

// parseExport consumes everything after an already-elided "export"
// keyword (whose own whitespace the caller has already written) and
// returns the declaration it found. Every byte consumed here is either
// elided (whitespace only) or reprinted as part of a raw source slice,
// so the caller's body accumulator always ends up exactly one
// consistent rewritten statement ahead.
func parseExport(ts *tokenStream, body *strings.Builder, path string) (exportDecl, error) {
	tok := ts.Advance()
	body.WriteString(tok.WSBefore)

	switch {
	case tok.Type == jslex.Default:
		return parseExportDefault(ts, body, path)
	case tok.Type == jslex.Star:
		return parseExportAllFrom(ts, body, path)
	case tok.Type == jslex.Lbrace:
		return parseExportBraceList(ts, body, path)
	case tok.Type == jslex.Var || tok.Type == jslex.Const || tok.IsID("let"):
		return parseExportBindingList(ts, body, path, tok)
	case tok.Type == jslex.Function:
		return parseExportFunction(ts, body, path, tok)
	case tok.Type == jslex.Class:
		return parseExportClass(ts, body, path, tok)
	case tok.IsID("async"):
		return parseExportAsyncFunction(ts, body, path, tok)
	default:
		return exportDecl{}, expectedErr(path, "'default', '*', '{', or a declaration after 'export'")
	}
}

func parseExportDefault(ts *tokenStream, body *strings.Builder, path string) (exportDecl, error) {
	tok := ts.Advance()
	switch {
	case tok.Type == jslex.Class:
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		name, err := consumeName(ts, body, path, "class name")
		if err != nil {
			return exportDecl{}, err
		}
		return exportDecl{kind: exportDefaultKind, defaultBind: name}, nil

	case tok.Type == jslex.Function:
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		name, err := consumeFunctionName(ts, body, path)
		if err != nil {
			return exportDecl{}, err
		}
		return exportDecl{kind: exportDefaultKind, defaultBind: name}, nil

	case tok.IsID("async") && !ts.Peek().NLBefore && ts.Peek().Type == jslex.Function:
		fnTok := ts.Advance()
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		body.WriteString(fnTok.WSBefore)
		body.WriteString(fnTok.Text)
		name, err := consumeFunctionName(ts, body, path)
		if err != nil {
			return exportDecl{}, err
		}
		return exportDecl{kind: exportDefaultKind, defaultBind: name}, nil

	default:
		// Anything else is an arbitrary expression: "export default EXPR"
		// becomes "const __default = EXPR". Only the prefix is
		// synthesized here; tok itself (the expression's first token) is
		// reprinted as plain pass-through, and the rest of the
		// expression is left for the ordinary token loop to reprint.
		body.WriteString("const __default =")
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		return exportDecl{kind: exportDefaultKind, defaultBind: "__default"}, nil
	}
}

func consumeName(ts *tokenStream, body *strings.Builder, path, what string) (string, error) {
	tok := ts.Advance()
	body.WriteString(tok.WSBefore)
	body.WriteString(tok.Text)
	if tok.Type != jslex.Id {
		return "", expectedErr(path, what)
	}
	return tok.Value, nil
}

func consumeFunctionName(ts *tokenStream, body *strings.Builder, path string) (string, error) {
	tok := ts.Advance()
	if tok.Type == jslex.Star {
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		tok = ts.Advance()
	}
	body.WriteString(tok.WSBefore)
	body.WriteString(tok.Text)
	if tok.Type != jslex.Id {
		return "", expectedErr(path, "function name")
	}
	return tok.Value, nil
}

func parseExportFunction(ts *tokenStream, body *strings.Builder, path string, fnTok jslex.Token) (exportDecl, error) {
	body.WriteString(fnTok.Text)
	name, err := consumeFunctionName(ts, body, path)
	if err != nil {
		return exportDecl{}, err
	}
	return exportDecl{kind: exportNamedKind, specs: []exportSpec{{name: name, bind: name}}}, nil
}

func parseExportClass(ts *tokenStream, body *strings.Builder, path string, classTok jslex.Token) (exportDecl, error) {
	body.WriteString(classTok.Text)
	name, err := consumeName(ts, body, path, "class name")
	if err != nil {
		return exportDecl{}, err
	}
	return exportDecl{kind: exportNamedKind, specs: []exportSpec{{name: name, bind: name}}}, nil
}

func parseExportAsyncFunction(ts *tokenStream, body *strings.Builder, path string, asyncTok jslex.Token) (exportDecl, error) {
	fnTok := ts.Advance()
	if fnTok.Type != jslex.Function {
		return exportDecl{}, expectedErr(path, "'function' after 'async'")
	}
	if fnTok.NLBefore {
		return exportDecl{}, expectedErr(path, "no line terminator between 'async' and 'function'")
	}
	body.WriteString(asyncTok.WSBefore)
	body.WriteString(asyncTok.Text)
	body.WriteString(fnTok.WSBefore)
	body.WriteString(fnTok.Text)
	name, err := consumeFunctionName(ts, body, path)
	if err != nil {
		return exportDecl{}, err
	}
	return exportDecl{kind: exportNamedKind, specs: []exportSpec{{name: name, bind: name}}}, nil
}

// parseExportBindingList handles "export var|const|let a = 1, b, c = 2".
// The keyword and the declarator list are both kept verbatim (initializer
// expressions are skipped over, not interpreted); only the "export"
// keyword itself was ever elided, by the caller.
func parseExportBindingList(ts *tokenStream, body *strings.Builder, path string, keywordTok jslex.Token) (exportDecl, error) {
	body.WriteString(keywordTok.Text)
	var specs []exportSpec

loop:
	for {
		tok := ts.Advance()
		body.WriteString(tok.WSBefore)
		body.WriteString(tok.Text)
		if tok.Type != jslex.Id {
			return exportDecl{}, expectedErr(path, "binding name")
		}
		specs = append(specs, exportSpec{name: tok.Value, bind: tok.Value})

		next := ts.Peek()
		switch {
		case next.Type == jslex.Eq:
			eq := ts.Advance()
			body.WriteString(eq.WSBefore)
			body.WriteString(eq.Text)
			skipExprNoComma(ts, body)
			if ts.Peek().Type == jslex.Comma {
				c := ts.Advance()
				body.WriteString(c.WSBefore)
				body.WriteString(c.Text)
				continue loop
			}
			break loop
		case next.Type == jslex.Comma:
			c := ts.Advance()
			body.WriteString(c.WSBefore)
			body.WriteString(c.Text)
			continue loop
		default:
			break loop
		}
	}

	return exportDecl{kind: exportNamedKind, specs: specs}, nil
}

// skipExprNoComma reprints tokens through the end of a single
// assignment expression, stopping just before a top-level comma,
// semicolon, or unmatched closing delimiter, without interpreting the
// expression at all beyond tracking bracket depth.
func skipExprNoComma(ts *tokenStream, body *strings.Builder) {
	depth := 0
	for {
		tok := ts.Peek()
		switch {
		case tok.Type == jslex.EOF:
			return
		case tok.Type == jslex.Lparen, tok.Type == jslex.Lbrace, tok.Type == jslex.Lbracket:
			depth++
		case tok.Type == jslex.Rparen, tok.Type == jslex.Rbrace, tok.Type == jslex.Rbracket:
			if depth == 0 {
				return
			}
			depth--
		case depth == 0 && tok.Type == jslex.Comma:
			return
		case depth == 0 && tok.Type == jslex.Punct && tok.Text == ";":
			return
		}
		t := ts.Advance()
		body.WriteString(t.WSBefore)
		body.WriteString(t.Text)
	}
}

func parseExportAllFrom(ts *tokenStream, body *strings.Builder, path string) (exportDecl, error) {
	fromTok := ts.Advance()
	body.WriteString(fromTok.WSBefore)
	if !fromTok.IsID("from") {
		return exportDecl{}, expectedErr(path, "keyword 'from'")
	}
	strTok := ts.Advance()
	body.WriteString(strTok.WSBefore)
	if strTok.Type != jslex.StrLitSgl && strTok.Type != jslex.StrLitDbl {
		return exportDecl{}, expectedErr(path, "module name (string literal)")
	}
	mod, err := jslex.DecodeStringLiteral(strTok.Value)
	if err != nil {
		return exportDecl{}, bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid module specifier", err).WithFile(path)
	}
	return exportDecl{kind: exportAllFromKind, module: mod}, nil
}

func parseExportBraceList(ts *tokenStream, body *strings.Builder, path string) (exportDecl, error) {
	specs, err := parseExportSpecList(ts, body, path)
	if err != nil {
		return exportDecl{}, err
	}

	if ts.Peek().IsID("from") {
		fromTok := ts.Advance()
		body.WriteString(fromTok.WSBefore)
		strTok := ts.Advance()
		body.WriteString(strTok.WSBefore)
		if strTok.Type != jslex.StrLitSgl && strTok.Type != jslex.StrLitDbl {
			return exportDecl{}, expectedErr(path, "module name (string literal)")
		}
		mod, err := jslex.DecodeStringLiteral(strTok.Value)
		if err != nil {
			return exportDecl{}, bundlerrors.Wrap(bundlerrors.ParseStrLit, "invalid module specifier", err).WithFile(path)
		}
		return exportDecl{kind: exportNamedFromKind, specs: specs, module: mod}, nil
	}

	return exportDecl{kind: exportNamedKind, specs: specs}, nil
}

// parseExportSpecList parses the "{ a as b, c }" list following "export"
// or "export ... from". Every token inside is elided: only its leading
// whitespace survives in body.
func parseExportSpecList(ts *tokenStream, body *strings.Builder, path string) ([]exportSpec, error) {
	var specs []exportSpec

loop:
	for {
		tok := ts.Advance()
		body.WriteString(tok.WSBefore)
		if tok.Type == jslex.Rbrace {
			break loop
		}
		if tok.Type != jslex.Id && tok.Type != jslex.Default {
			return nil, expectedErr(path, "binding name or '}'")
		}
		bind := tok.Value

		next := ts.Advance()
		body.WriteString(next.WSBefore)
		switch {
		case next.IsID("as"):
			nameTok := ts.Advance()
			body.WriteString(nameTok.WSBefore)
			if nameTok.Type != jslex.Id && nameTok.Type != jslex.Default {
				return nil, expectedErr(path, "export name after keyword 'as'")
			}
			specs = append(specs, exportSpec{name: nameTok.Value, bind: bind})

			closer := ts.Advance()
			body.WriteString(closer.WSBefore)
			switch closer.Type {
			case jslex.Rbrace:
				break loop
			case jslex.Comma:
				continue loop
			default:
				return nil, expectedErr(path, "',' or '}'")
			}
		case next.Type == jslex.Rbrace:
			specs = append(specs, exportSpec{name: bind, bind: bind})
			break loop
		case next.Type == jslex.Comma:
			specs = append(specs, exportSpec{name: bind, bind: bind})
		default:
			return nil, expectedErr(path, "',' or '}' or keyword 'as'")
		}
	}

	return specs, nil
}
