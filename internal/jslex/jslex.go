// Package jslex is a minimal, purpose-built JavaScript token stream. It
// is not a general ECMAScript parser: it never builds an AST and has no
// opinion about anything beyond recognizing the shapes the dependency
// scanner needs (import/export declarations, require(...) calls) while
// passing every other token through byte-for-byte, leading whitespace
// and all, so callers can reprint source without altering line counts.
package jslex

import (
	"strings"
)

// Type enumerates the token kinds the scanner cares about by name;
// everything else collapses into Punct (or the opaque Number, Template
// and Regex kinds) and is reprinted as-is.
type Type int

const (
	EOF Type = iota
	Id
	StrLitSgl
	StrLitDbl
	Export
	Import
	Default
	Class
	Function
	Var
	Const
	Star
	Dot
	Eq
	Comma
	Lbrace
	Rbrace
	Lparen
	Rparen
	Lbracket
	Rbracket
	Punct  // any other operator/punctuation run
	Number // numeric literal, opaque
	Template
	Regex
)

// Token is one lexical token plus the exact whitespace/comment text
// that preceded it. Text is always the literal source text of the
// token; Value holds the decoded payload for identifiers (the name)
// and string literals (the raw, still-escaped interior).
type Token struct {
	Type     Type
	Text     string
	Value    string
	WSBefore string
	NLBefore bool
	Pos      int
}

// IsID reports whether t is an Id token with exactly the given name.
// Keyword tokens (Export, Import, Default, Class, Function, Var, Const)
// never match, whatever their text.
func (t Token) IsID(name string) bool {
	return t.Type == Id && t.Value == name
}

var keywords = map[string]Type{
	"export":   Export,
	"import":   Import,
	"default":  Default,
	"class":    Class,
	"function": Function,
	"var":      Var,
	"const":    Const,
}

// Lexer scans a single source string into a stream of Tokens.
type Lexer struct {
	src  string
	pos  int
	prev Type
	// prevWasValue tracks whether the previous significant token could
	// end an expression, which disambiguates a following '/' as divide
	// (true) vs. the start of a regex literal (false).
	prevWasValue bool
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Input returns the full source string being scanned, for callers that
// need to slice out a raw span (e.g. to reprint a declaration
// unmodified).
func (l *Lexer) Input() string {
	return l.src
}

// Pos returns the current byte offset into the source.
func (l *Lexer) Pos() int {
	return l.pos
}

// Next scans and returns the next token, advancing the lexer.
func (l *Lexer) Next() Token {
	wsStart := l.pos
	nl := false
	l.skipTrivia(&nl)
	ws := l.src[wsStart:l.pos]

	if l.pos >= len(l.src) {
		return Token{Type: EOF, WSBefore: ws, NLBefore: nl, Pos: l.pos}
	}

	start := l.pos
	c := l.src[l.pos]

	var tok Token
	switch {
	case isIDStart(c):
		tok = l.scanIdent()
	case c >= '0' && c <= '9':
		tok = l.scanNumber()
	case c == '\'':
		tok = l.scanString('\'', StrLitSgl)
	case c == '"':
		tok = l.scanString('"', StrLitDbl)
	case c == '`':
		tok = l.scanTemplate()
	case c == '/' && l.regexAllowed():
		tok = l.scanRegex()
	default:
		tok = l.scanPunct()
	}

	tok.WSBefore = ws
	tok.NLBefore = nl
	tok.Pos = start
	l.prev = tok.Type
	l.prevWasValue = tokenEndsExpression(tok)
	return tok
}

func tokenEndsExpression(t Token) bool {
	switch t.Type {
	case Id, StrLitSgl, StrLitDbl, Number, Template, Regex, Rparen, Rbrace, Rbracket:
		return true
	default:
		return false
	}
}

func (l *Lexer) regexAllowed() bool {
	return !l.prevWasValue
}

func (l *Lexer) skipTrivia(nl *bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			*nl = true
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
					l.pos += 2
					break
				}
				if l.src[l.pos] == '\n' {
					*nl = true
				}
				l.pos++
			}
		default:
			return
		}
	}
}

func isIDStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIDPart(c byte) bool {
	return isIDStart(c) || (c >= '0' && c <= '9')
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.src) && isIDPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	typ, isKeyword := keywords[text]
	if !isKeyword {
		typ = Id
	}
	return Token{Type: typ, Text: text, Value: text}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	for l.pos < len(l.src) && (isIDPart(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	text := l.src[start:l.pos]
	return Token{Type: Number, Text: text, Value: text}
}

func (l *Lexer) scanString(quote byte, typ Type) Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos += 2
			continue
		}
		if c == quote {
			l.pos++
			break
		}
		l.pos++
	}
	text := l.src[start:l.pos]
	value := text
	if len(value) >= 2 {
		value = value[1 : len(value)-1]
	}
	return Token{Type: typ, Text: text, Value: value}
}

// scanTemplate consumes a template literal, tracking ${...} nesting so
// a brace or backtick inside an interpolation does not terminate the
// literal early. The interior of a substitution is not tokenized
// further: packline's scanner never needs to see import/export inside
// a template substitution.
func (l *Lexer) scanTemplate() Token {
	start := l.pos
	l.pos++ // opening backtick
	depth := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
		case depth == 0 && c == '`':
			l.pos++
			text := l.src[start:l.pos]
			return Token{Type: Template, Text: text, Value: text}
		case depth == 0 && c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{':
			depth++
			l.pos += 2
		case depth > 0 && c == '{':
			depth++
			l.pos++
		case depth > 0 && c == '}':
			depth--
			l.pos++
		default:
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	return Token{Type: Template, Text: text, Value: text}
}

func (l *Lexer) scanRegex() Token {
	start := l.pos
	l.pos++ // opening slash
	inClass := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			l.pos += 2
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			l.pos++
			for l.pos < len(l.src) && isIDPart(l.src[l.pos]) {
				l.pos++
			}
			text := l.src[start:l.pos]
			return Token{Type: Regex, Text: text, Value: text}
		case c == '\n':
			// Unterminated regex on this line: stop before the newline
			// and return what was scanned so far as a Regex token.
			text := l.src[start:l.pos]
			return Token{Type: Regex, Text: text, Value: text}
		}
		l.pos++
	}
	text := l.src[start:l.pos]
	return Token{Type: Regex, Text: text, Value: text}
}

var multiCharOps = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--", "**",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
}

func (l *Lexer) scanPunct() Token {
	rest := l.src[l.pos:]
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return Token{Type: Punct, Text: op}
		}
	}

	c := l.src[l.pos]
	l.pos++
	text := string(c)
	switch c {
	case '{':
		return Token{Type: Lbrace, Text: text}
	case '}':
		return Token{Type: Rbrace, Text: text}
	case '(':
		return Token{Type: Lparen, Text: text}
	case ')':
		return Token{Type: Rparen, Text: text}
	case '[':
		return Token{Type: Lbracket, Text: text}
	case ']':
		return Token{Type: Rbracket, Text: text}
	case ',':
		return Token{Type: Comma, Text: text}
	case '.':
		return Token{Type: Dot, Text: text}
	case '*':
		return Token{Type: Star, Text: text}
	case '=':
		return Token{Type: Eq, Text: text}
	default:
		return Token{Type: Punct, Text: text}
	}
}
