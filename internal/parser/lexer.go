package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokChannel
	tokVariable
	tokNumber
	tokString
	tokPunct
)

var tokenKindNames = [...]string{"end of input", "name", "channel", "variable", "number", "string", "symbol"}

func (k tokenKind) String() string { return tokenKindNames[k] }

// Pos is a 1-based line and column in the input.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

type token struct {
	kind   tokenKind
	text   string
	pos    Pos
	offset int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%q", t.text)
}

// punctuation is ordered longest first.
var punctuation = []string{
	"**", "!=", "<=", ">=", "![", "]!",
	"{", "}", "(", ")", "[", "]", ",", ":", ".", "#",
	"+", "-", "*", "/", "=", "<", ">",
}

// lexer produces tokens on demand. Channel names overlap with division
// and field syntax, so the parser asks for them explicitly by rewinding
// to a token and calling channel.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekRune(ahead int) rune {
	off := l.off
	for i := 0; i < ahead; i++ {
		if off >= len(l.src) {
			return 0
		}
		_, n := utf8.DecodeRuneInString(l.src[off:])
		off += n
	}
	if off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[off:])
	return r
}

func (l *lexer) advance() rune {
	r, n := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += n
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) && unicode.IsSpace(l.peekRune(0)) {
		l.advance()
	}
}

func (l *lexer) pos() Pos { return Pos{Line: l.line, Col: l.col} }

// rewind moves back to the start of t.
func (l *lexer) rewind(t token) {
	l.off = t.offset
	l.line = t.pos.Line
	l.col = t.pos.Col
}

func (l *lexer) errorf(pos Pos, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Code: ErrSyntax, Message: fmt.Sprintf(format, args...)}
}

func isIdentStart(r rune) bool { return r == '_' || r < utf8.RuneSelf && unicode.IsLetter(r) }
func isIdentRest(r rune) bool  { return isIdentStart(r) || r >= '0' && r <= '9' }
func isDigit(r rune) bool      { return r >= '0' && r <= '9' }

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := token{pos: l.pos(), offset: l.off}
	if l.off >= len(l.src) {
		start.kind = tokEOF
		return start, nil
	}

	r := l.peekRune(0)
	switch {
	case isIdentStart(r):
		start.kind = tokIdent
		start.text = l.ident()
		return start, nil
	case r == '@':
		l.advance()
		if !isIdentStart(l.peekRune(0)) {
			return start, l.errorf(start.pos, "expected a variable name after '@'")
		}
		start.kind = tokVariable
		start.text = l.ident()
		return start, nil
	case isDigit(r) || r == '.' && isDigit(l.peekRune(1)):
		start.kind = tokNumber
		start.text = l.number()
		return start, nil
	case r == '"':
		text, err := l.quoted()
		if err != nil {
			return start, err
		}
		start.kind = tokString
		start.text = text
		return start, nil
	}

	rest := l.src[l.off:]
	for _, p := range punctuation {
		if !strings.HasPrefix(rest, p) {
			continue
		}
		// "a[0]!= b" is an index followed by "!=".
		if p == "]!" && strings.HasPrefix(rest, "]!=") {
			continue
		}
		for range p {
			l.advance()
		}
		start.kind = tokPunct
		start.text = p
		return start, nil
	}
	// Unknown characters become single-rune tokens so that the parser
	// reports them in context, or rewinds over them to read a channel.
	l.advance()
	start.kind = tokPunct
	start.text = string(r)
	return start, nil
}

func (l *lexer) ident() string {
	begin := l.off
	for l.off < len(l.src) && isIdentRest(l.peekRune(0)) {
		l.advance()
	}
	return l.src[begin:l.off]
}

// number reads digits with an optional fraction and exponent.
func (l *lexer) number() string {
	begin := l.off
	for isDigit(l.peekRune(0)) {
		l.advance()
	}
	if l.peekRune(0) == '.' && !isIdentStart(l.peekRune(1)) {
		l.advance()
		for isDigit(l.peekRune(0)) {
			l.advance()
		}
	}
	if e := l.peekRune(0); e == 'e' || e == 'E' {
		sign := l.peekRune(1)
		switch {
		case isDigit(sign):
			l.advance()
		case (sign == '+' || sign == '-') && isDigit(l.peekRune(2)):
			l.advance()
			l.advance()
		default:
			return l.src[begin:l.off]
		}
		for isDigit(l.peekRune(0)) {
			l.advance()
		}
	}
	return l.src[begin:l.off]
}

func (l *lexer) quoted() (string, error) {
	pos := l.pos()
	begin := l.off
	l.advance()
	for l.off < len(l.src) {
		switch l.advance() {
		case '\\':
			if l.off < len(l.src) {
				l.advance()
			}
		case '"':
			return l.src[begin:l.off], nil
		case '\n':
			return "", l.errorf(pos, "unterminated string")
		}
	}
	return "", l.errorf(pos, "unterminated string")
}

// channel reads a ROS graph name: an optional '/' or '~' followed by
// slash-separated identifiers.
func (l *lexer) channel() (token, error) {
	l.skipSpace()
	start := token{kind: tokChannel, pos: l.pos(), offset: l.off}
	begin := l.off
	if r := l.peekRune(0); r == '/' || r == '~' {
		l.advance()
	}
	for {
		if !isLetter(l.peekRune(0)) {
			return start, l.errorf(start.pos, "expected a channel name")
		}
		for isIdentRest(l.peekRune(0)) {
			l.advance()
		}
		if l.peekRune(0) != '/' || !isLetter(l.peekRune(1)) {
			break
		}
		l.advance()
	}
	start.text = l.src[begin:l.off]
	return start, nil
}

func isLetter(r rune) bool { return r < utf8.RuneSelf && unicode.IsLetter(r) }
