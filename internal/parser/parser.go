package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/hpl/internal/ast"
)

// reserved words cannot name fields, variables or aliases.
var reserved = map[string]bool{
	"True": true, "False": true,
	ast.TokenNot: true, ast.TokenAnd: true, ast.TokenOr: true,
	ast.TokenImplies: true, ast.TokenIff: true, ast.TokenIn: true,
	ast.TokenForall: true, ast.TokenExists: true, "to": true,
	"PI": true, "INF": true, "NAN": true,
}

var constants = map[string]float64{
	"PI":  math.Pi,
	"INF": math.Inf(1),
	"NAN": math.NaN(),
}

// ParseSpecification parses one or more properties.
func ParseSpecification(src string) (*ast.Specification, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var props []*ast.Property
	for p.tok.kind != tokEOF {
		prop, err := p.property()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	if len(props) == 0 {
		return nil, p.unexpected("a property")
	}
	return ast.NewSpecification(props), nil
}

// ParseProperty parses a single property, metadata included.
func ParseProperty(src string) (*ast.Property, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	prop, err := p.property()
	if err != nil {
		return nil, err
	}
	return prop, p.end()
}

// ParsePredicate parses a braced condition such as `{ x > 0 }`.
func ParsePredicate(src string) (*ast.Predicate, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	pred, err := p.predicate()
	if err != nil {
		return nil, err
	}
	return pred, p.end()
}

// ParseCondition parses a bare condition or value expression.
func ParseCondition(src string) (ast.Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	e, err := p.condition()
	if err != nil {
		return nil, err
	}
	return e, p.end()
}

type parser struct {
	lex *lexer
	tok token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	return p, p.advance()
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) is(text string) bool {
	return (p.tok.kind == tokPunct || p.tok.kind == tokIdent) && p.tok.text == text
}

func (p *parser) accept(text string) (bool, error) {
	if !p.is(text) {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) expect(text string) error {
	if !p.is(text) {
		return p.unexpected(strconv.Quote(text))
	}
	return p.advance()
}

func (p *parser) end() error {
	if p.tok.kind != tokEOF {
		return p.unexpected("end of input")
	}
	return nil
}

func (p *parser) unexpected(want string) error {
	return &SyntaxError{
		Pos:     p.tok.pos,
		Code:    ErrSyntax,
		Message: fmt.Sprintf("expected %s, found %s", want, p.tok),
	}
}

// name consumes an identifier that is not a reserved word.
func (p *parser) name(what string) (string, error) {
	if p.tok.kind != tokIdent || reserved[p.tok.text] {
		return "", p.unexpected(what)
	}
	text := p.tok.text
	return text, p.advance()
}

// at attaches pos to errors raised while building AST nodes.
func at(pos Pos, err error) error {
	var se *SyntaxError
	var pe *PositionError
	if errors.As(err, &se) || errors.As(err, &pe) {
		return err
	}
	return &PositionError{Pos: pos, Err: err}
}

// Properties

func (p *parser) property() (*ast.Property, error) {
	pos := p.tok.pos
	meta, err := p.metadata()
	if err != nil {
		return nil, err
	}
	scope, err := p.scope()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	pattern, err := p.pattern()
	if err != nil {
		return nil, err
	}
	prop, err := ast.NewProperty(scope, pattern, meta)
	if err != nil {
		return nil, at(pos, err)
	}
	return prop, nil
}

func (p *parser) metadata() (ast.Metadata, error) {
	var meta ast.Metadata
	seen := make(map[string]bool)
	for p.is("#") {
		if err := p.advance(); err != nil {
			return meta, err
		}
		key := p.tok
		if key.kind != tokIdent {
			return meta, p.unexpected("a metadata key")
		}
		if err := p.advance(); err != nil {
			return meta, err
		}
		if err := p.expect(":"); err != nil {
			return meta, err
		}

		var value string
		switch key.text {
		case "id":
			v, err := p.name("a property id")
			if err != nil {
				return meta, err
			}
			value = v
		case "title", "description":
			v, err := p.quoted()
			if err != nil {
				return meta, err
			}
			value = v
		default:
			return meta, &SyntaxError{Pos: key.pos, Code: ErrSyntax,
				Message: fmt.Sprintf("unknown metadata key %q", key.text)}
		}

		if seen[key.text] {
			msg := fmt.Sprintf("duplicate metadata %q", key.text)
			if meta.ID != "" {
				msg += fmt.Sprintf(" in property %q", meta.ID)
			}
			return meta, &SyntaxError{Pos: key.pos, Code: ErrDuplicateMetadata, Message: msg}
		}
		seen[key.text] = true

		switch key.text {
		case "id":
			meta.ID = value
		case "title":
			meta.Title = value
		case "description":
			meta.Description = value
		}
	}
	return meta, nil
}

func (p *parser) quoted() (string, error) {
	t := p.tok
	if t.kind != tokString {
		return "", p.unexpected("a string")
	}
	v, err := strconv.Unquote(t.text)
	if err != nil {
		return "", &SyntaxError{Pos: t.pos, Code: ErrSyntax, Message: fmt.Sprintf("invalid string %s", t.text)}
	}
	return v, p.advance()
}

func (p *parser) scope() (*ast.Scope, error) {
	pos := p.tok.pos
	switch {
	case p.is("globally"):
		return ast.Globally(), p.advance()
	case p.is("after"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		activator, err := p.event()
		if err != nil {
			return nil, err
		}
		ok, err := p.accept("until")
		if err != nil {
			return nil, err
		}
		if !ok {
			s, err := ast.NewScope(ast.After, activator, nil)
			return s, wrapAt(pos, err)
		}
		terminator, err := p.event()
		if err != nil {
			return nil, err
		}
		s, err := ast.NewScope(ast.AfterUntil, activator, terminator)
		return s, wrapAt(pos, err)
	case p.is("until"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		terminator, err := p.event()
		if err != nil {
			return nil, err
		}
		s, err := ast.NewScope(ast.Until, nil, terminator)
		return s, wrapAt(pos, err)
	}
	return nil, p.unexpected("a scope (globally, after, until)")
}

func wrapAt(pos Pos, err error) error {
	if err == nil {
		return nil
	}
	return at(pos, err)
}

var patternKeywords = map[string]ast.PatternKind{
	"causes":   ast.Response,
	"forbids":  ast.Prevention,
	"requires": ast.Requirement,
}

func (p *parser) pattern() (*ast.Pattern, error) {
	pos := p.tok.pos
	if p.is("some") || p.is("no") {
		kind := ast.Existence
		if p.is("no") {
			kind = ast.Absence
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		behaviour, err := p.event()
		if err != nil {
			return nil, err
		}
		max, err := p.within()
		if err != nil {
			return nil, err
		}
		pt, err := ast.NewPattern(kind, behaviour, nil, 0, max)
		return pt, wrapAt(pos, err)
	}

	first, err := p.event()
	if err != nil {
		return nil, err
	}
	kind, ok := patternKeywords[p.tok.text]
	if !ok || p.tok.kind != tokIdent {
		return nil, p.unexpected("causes, forbids or requires")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	second, err := p.event()
	if err != nil {
		return nil, err
	}
	max, err := p.within()
	if err != nil {
		return nil, err
	}

	// "b requires a" names the behaviour first; the others name the
	// trigger first.
	behaviour, trigger := second, first
	if kind == ast.Requirement {
		behaviour, trigger = first, second
	}
	pt, err := ast.NewPattern(kind, behaviour, trigger, 0, max)
	return pt, wrapAt(pos, err)
}

// within reads an optional `within N s|ms` bound, in seconds.
func (p *parser) within() (float64, error) {
	ok, err := p.accept("within")
	if err != nil || !ok {
		return math.Inf(1), err
	}
	t := p.tok
	if t.kind != tokNumber {
		return 0, p.unexpected("a time amount")
	}
	n, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: t.pos, Code: ErrSyntax, Message: fmt.Sprintf("invalid time amount %s", t.text)}
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	switch {
	case p.is("s"):
	case p.is("ms"):
		n /= 1000
	default:
		return 0, p.unexpected("a time unit (s, ms)")
	}
	return n, p.advance()
}

// Events

func (p *parser) event() (ast.Event, error) {
	if !p.is("(") {
		return p.simpleEvent()
	}
	pos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var events []ast.Event
	for {
		e, err := p.event()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
		ok, err := p.accept(ast.TokenOr)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	e, err := ast.JoinEvents(events...)
	return e, wrapAt(pos, err)
}

func (p *parser) simpleEvent() (*ast.SimpleEvent, error) {
	p.lex.rewind(p.tok)
	ch, err := p.lex.channel()
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	alias := ""
	ok, err := p.accept("as")
	if err != nil {
		return nil, err
	}
	if ok {
		if alias, err = p.name("an alias"); err != nil {
			return nil, err
		}
	}

	var pred *ast.Predicate
	if p.is("{") {
		pos := p.tok.pos
		if pred, err = p.predicate(); err != nil {
			return nil, err
		}
		if err := pred.CheckSomeSelfReferences(); err != nil {
			return nil, at(pos, err)
		}
	}
	return ast.NewSimpleEvent(ch.text, pred, alias), nil
}

func (p *parser) predicate() (*ast.Predicate, error) {
	pos := p.tok.pos
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	pred, err := ast.NewCondition(cond)
	if err != nil {
		return nil, at(pos, err)
	}
	return pred, nil
}

// Conditions

// binaryLevel parses a left-associative chain of the given operators.
func (p *parser) binaryLevel(next func() (ast.Expr, error), ops ...string) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		t := p.tok
		if !p.isAny(ops) {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		if left, err = p.binary(t, left, right); err != nil {
			return nil, err
		}
	}
}

func (p *parser) isAny(ops []string) bool {
	for _, op := range ops {
		if p.is(op) {
			return true
		}
	}
	return false
}

func (p *parser) binary(op token, a, b ast.Expr) (ast.Expr, error) {
	def, err := ast.LookupBinaryOperator(op.text)
	if err != nil {
		return nil, &SyntaxError{Pos: op.pos, Code: ErrSyntax, Message: err.Error()}
	}
	e, err := ast.NewBinary(def, a, b)
	if err != nil {
		return nil, at(op.pos, err)
	}
	return e, nil
}

func (p *parser) condition() (ast.Expr, error) {
	return p.binaryLevel(p.disjunction, ast.TokenImplies, ast.TokenIff)
}

func (p *parser) disjunction() (ast.Expr, error) {
	return p.binaryLevel(p.conjunction, ast.TokenOr)
}

func (p *parser) conjunction() (ast.Expr, error) {
	return p.binaryLevel(p.logic, ast.TokenAnd)
}

func (p *parser) logic() (ast.Expr, error) {
	t := p.tok
	switch {
	case p.is(ast.TokenNot):
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.logic()
		if err != nil {
			return nil, err
		}
		e, err := ast.Not(x)
		if err != nil {
			return nil, at(t.pos, err)
		}
		return e, nil
	case p.is(ast.TokenForall), p.is(ast.TokenExists):
		return p.quantifier()
	}
	return p.binaryLevel(p.expr, "=", "!=", "<", "<=", ">", ">=", ast.TokenIn)
}

func (p *parser) quantifier() (ast.Expr, error) {
	t := p.tok
	kind := ast.All
	if t.text == ast.TokenExists {
		kind = ast.Some
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	variable, err := p.name("a variable name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(ast.TokenIn); err != nil {
		return nil, err
	}
	domain, err := p.atomic()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	cond, err := p.logic()
	if err != nil {
		return nil, err
	}
	q, err := ast.NewQuantifier(kind, variable, domain, cond)
	if err != nil {
		return nil, at(t.pos, err)
	}
	return q, nil
}

// Values

func (p *parser) expr() (ast.Expr, error) {
	return p.binaryLevel(p.term, "+", "-")
}

func (p *parser) term() (ast.Expr, error) {
	return p.binaryLevel(p.factor, "*", "/")
}

func (p *parser) factor() (ast.Expr, error) {
	return p.binaryLevel(p.exponent, "**")
}

func (p *parser) exponent() (ast.Expr, error) {
	t := p.tok
	switch {
	case p.is("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.exponent()
		if err != nil {
			return nil, err
		}
		e, err := ast.Neg(x)
		if err != nil {
			return nil, at(t.pos, err)
		}
		return e, nil
	case p.is("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.condition()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	}
	return p.atomic()
}

func (p *parser) atomic() (ast.Expr, error) {
	t := p.tok
	switch t.kind {
	case tokNumber:
		lit, err := numberLiteral(t)
		if err != nil {
			return nil, err
		}
		return lit, p.advance()
	case tokString:
		v, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(t.text, v)
	case tokVariable:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.suffixes(ast.NewVarReference(t.text))
	case tokIdent:
		switch t.text {
		case "True", "False":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.NewLiteral(t.text, t.text == "True")
		case "PI", "INF", "NAN":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.NewLiteral(t.text, constants[t.text])
		}
		name, err := p.name("a value")
		if err != nil {
			return nil, err
		}
		if p.is("(") {
			return p.call(t, name)
		}
		return p.suffixes(ast.SelfField(name))
	case tokPunct:
		switch t.text {
		case "{":
			return p.set()
		case "[", "![":
			return p.rangeLiteral()
		}
	}
	return nil, p.unexpected("a value")
}

func numberLiteral(t token) (*ast.Literal, error) {
	if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
		return ast.NewLiteral(t.text, i)
	}
	f, err := strconv.ParseFloat(t.text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, &SyntaxError{Pos: t.pos, Code: ErrSyntax, Message: fmt.Sprintf("invalid number %s", t.text)}
	}
	return ast.NewLiteral(t.text, f)
}

func (p *parser) call(t token, name string) (ast.Expr, error) {
	fn, err := ast.LookupFunction(name)
	if err != nil {
		return nil, &SyntaxError{Pos: t.pos, Code: ErrSyntax, Message: err.Error()}
	}
	args, err := p.list("(", ")")
	if err != nil {
		return nil, err
	}
	e, err := ast.NewCall(fn, args)
	if err != nil {
		return nil, at(t.pos, err)
	}
	return e, nil
}

// list reads a comma-separated, possibly empty, list of values.
func (p *parser) list(open, close string) ([]ast.Expr, error) {
	if err := p.expect(open); err != nil {
		return nil, err
	}
	var values []ast.Expr
	if !p.is(close) {
		for {
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			ok, err := p.accept(",")
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
		}
	}
	return values, p.expect(close)
}

func (p *parser) set() (ast.Expr, error) {
	pos := p.tok.pos
	values, err := p.list("{", "}")
	if err != nil {
		return nil, err
	}
	s, err := ast.NewSet(values)
	if err != nil {
		return nil, at(pos, err)
	}
	return s, nil
}

func (p *parser) rangeLiteral() (ast.Expr, error) {
	pos := p.tok.pos
	excludeMin := p.tok.text == "!["
	if err := p.advance(); err != nil {
		return nil, err
	}
	lo, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect("to"); err != nil {
		return nil, err
	}
	hi, err := p.expr()
	if err != nil {
		return nil, err
	}
	var excludeMax bool
	switch {
	case p.is("]"):
	case p.is("]!"):
		excludeMax = true
	default:
		return nil, p.unexpected(`"]" or "]!"`)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	r, err := ast.NewRange(lo, hi, excludeMin, excludeMax)
	if err != nil {
		return nil, at(pos, err)
	}
	return r, nil
}

// suffixes applies any `.field` and `[index]` accessors to base.
func (p *parser) suffixes(base ast.Expr) (ast.Expr, error) {
	e := base
	for {
		t := p.tok
		switch {
		case p.is("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokIdent {
				return nil, p.unexpected("a field name")
			}
			field := p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			f, err := ast.NewFieldAccess(e, field)
			if err != nil {
				return nil, at(t.pos, err)
			}
			e = f
		case p.is("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			a, err := ast.NewArrayAccess(e, index)
			if err != nil {
				return nil, at(t.pos, err)
			}
			e = a
		default:
			return e, nil
		}
	}
}
