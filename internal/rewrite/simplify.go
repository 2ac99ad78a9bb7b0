package rewrite

import (
	"math"
	"slices"
	"strings"

	"github.com/roach88/hpl/internal/ast"
)

// maxSimplifyPasses bounds the fixpoint iteration of Simplify. Every
// rule either shrinks an expression or moves it to a normal form, so the
// iteration ends well before the bound.
const maxSimplifyPasses = 64

// Simplify rewrites e into an equivalent, usually smaller, expression.
// It never fails: rules that cannot rebuild a well-typed node are
// skipped. The result is a fixed point, so Simplify is idempotent.
func Simplify(e ast.Expr) ast.Expr {
	s := &simplifier{}
	cur := e
	seen := []ast.Expr{e}
	for i := 0; i < maxSimplifyPasses; i++ {
		next := s.expr(cur)
		if next == cur || ast.Equal(next, cur) {
			return cur
		}
		// A repeated state would cycle. Stop at the first member of the
		// cycle so that every call returns the same expression.
		if j := slices.IndexFunc(seen, func(x ast.Expr) bool { return ast.Equal(x, next) }); j >= 0 {
			return seen[j]
		}
		seen = append(seen, next)
		cur = next
	}
	return cur
}

// SimplifyPredicate simplifies the condition of p. A condition that
// reduces to a literal becomes a vacuous predicate.
func SimplifyPredicate(p *ast.Predicate) *ast.Predicate {
	if p.IsVacuous() {
		return p
	}
	e := Simplify(p.Condition)
	if e == p.Condition {
		return p
	}
	r, err := ast.PredicateFromExpression(e)
	if err != nil {
		return p
	}
	return r
}

// builder wraps the validating constructors and keeps the first error,
// so that a rule can chain constructions and check once at the end.
type builder struct {
	err error
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) binary(op *ast.BinaryOperatorDef, x, y ast.Expr) ast.Expr {
	if b.err != nil {
		return x
	}
	r, err := ast.NewBinary(op, x, y)
	if err != nil {
		b.fail(err)
		return x
	}
	return r
}

func (b *builder) unary(op *ast.UnaryOperatorDef, x ast.Expr) ast.Expr {
	if b.err != nil {
		return x
	}
	r, err := ast.NewUnary(op, x)
	if err != nil {
		b.fail(err)
		return x
	}
	return r
}

func (b *builder) not(x ast.Expr) ast.Expr        { return b.unary(ast.OpNot, x) }
func (b *builder) neg(x ast.Expr) ast.Expr        { return b.unary(ast.OpNeg, x) }
func (b *builder) and(x, y ast.Expr) ast.Expr     { return b.binary(ast.OpAnd, x, y) }
func (b *builder) or(x, y ast.Expr) ast.Expr      { return b.binary(ast.OpOr, x, y) }
func (b *builder) implies(x, y ast.Expr) ast.Expr { return b.binary(ast.OpImplies, x, y) }
func (b *builder) add(x, y ast.Expr) ast.Expr     { return b.binary(ast.OpAdd, x, y) }

func (b *builder) fold(op *ast.BinaryOperatorDef, xs []ast.Expr) ast.Expr {
	r := xs[0]
	for _, x := range xs[1:] {
		r = b.binary(op, r, x)
	}
	return r
}

// build runs f with a fresh builder and returns fallback if any
// construction failed.
func build(fallback ast.Expr, f func(b *builder) ast.Expr) ast.Expr {
	b := &builder{}
	r := f(b)
	if b.err != nil || r == nil {
		return fallback
	}
	return r
}

// rebuild is WithChildren that falls back to e on error.
func rebuild(e ast.Expr, children []ast.Expr) ast.Expr {
	r, err := ast.WithChildren(e, children)
	if err != nil {
		return e
	}
	return r
}

type simplifier struct{}

// expr performs one bottom-up simplification pass over e.
func (s *simplifier) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.UnaryOperator:
		return s.unary(n)
	case *ast.BinaryOperator:
		return s.binary(n)
	case *ast.FunctionCall:
		return s.call(n)
	case *ast.Set:
		return s.set(n)
	case *ast.Quantifier:
		return s.quantifier(n)
	}
	children := ast.Children(e)
	if len(children) == 0 {
		return e
	}
	out := make([]ast.Expr, len(children))
	for i, c := range children {
		out[i] = s.expr(c)
	}
	return rebuild(e, out)
}

func (s *simplifier) unary(n *ast.UnaryOperator) ast.Expr {
	x := s.expr(n.Operand)
	if n.Op.IsNot() {
		switch {
		case isTrue(x):
			return ast.False()
		case isFalse(x):
			return ast.True()
		}
		if inner, ok := asNot(x); ok {
			return inner.Operand
		}
	} else if n.Op.IsMinus() {
		if v, ok := numberOf(x); ok {
			if l := numberLiteral(negNum(v)); l != nil {
				return l
			}
		}
		if inner, ok := asMinus(x); ok {
			return inner.Operand
		}
	}
	return rebuild(n, []ast.Expr{x})
}

func (s *simplifier) call(n *ast.FunctionCall) ast.Expr {
	args := make([]ast.Expr, len(n.Arguments))
	for i, a := range n.Arguments {
		args[i] = s.expr(a)
	}
	r := rebuild(n, args)
	c, ok := r.(*ast.FunctionCall)
	if !ok {
		return r
	}
	if folded := s.foldCall(c); folded != nil {
		return folded
	}
	return c
}

func (s *simplifier) set(n *ast.Set) ast.Expr {
	values := make([]ast.Expr, len(n.Values))
	for i, v := range n.Values {
		values[i] = s.expr(v)
	}
	values = dedupe(values)
	if len(values) == len(n.Values) && sameExprs(values, n.Values) {
		return n
	}
	r, err := ast.NewSet(values)
	if err != nil {
		return n
	}
	c, err := ast.Cast(r, n.DataType())
	if err != nil {
		return n
	}
	return c
}

func (s *simplifier) quantifier(n *ast.Quantifier) ast.Expr {
	domain := s.expr(n.Domain)
	if set, ok := domain.(*ast.Set); ok && len(set.Values) == 0 {
		return ast.Bool(n.IsUniversal())
	}
	cond := s.expr(n.Condition)
	switch {
	case n.IsUniversal() && isTrue(cond):
		return cond
	case n.IsExistential() && isFalse(cond):
		return cond
	}
	if domain == n.Domain && cond == n.Condition {
		return n
	}
	r, err := ast.NewFreshQuantifier(n.Kind, n.Variable, domain, cond)
	if err != nil {
		return n
	}
	return r
}

func sameExprs(xs, ys []ast.Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if xs[i] != ys[i] {
			return false
		}
	}
	return true
}

// Binary operators

func (s *simplifier) binary(n *ast.BinaryOperator) ast.Expr {
	phi := s.preSimplify(n)
	op := phi.Op
	switch {
	case op.IsAnd():
		return s.conjunction(phi)
	case op.IsOr():
		return s.disjunction(phi)
	case op.IsImplies():
		return s.implication(phi)
	case op.IsIff():
		return s.equivalence(phi)
	case op.IsComparison():
		return s.comparison(phi)
	case op.IsInclusion():
		return inclusion(phi)
	case op.IsArithmetic():
		return s.arithmetic(phi)
	}
	return phi
}

// preSimplify simplifies both operands and normalises their order:
// literals go right and references to the enclosing message go left.
// Arithmetic chains of one associative operator are put in normal form
// by chain.
func (s *simplifier) preSimplify(n *ast.BinaryOperator) *ast.BinaryOperator {
	op := n.Op
	a, b := s.expr(n.A), s.expr(n.B)
	noop := a == n.A && b == n.B
	_, litA := a.(*ast.Literal)
	_, litB := b.(*ast.Literal)

	switch {
	case op.Associative && op.IsArithmetic():
		if r, ok := chain(op, a, b); ok {
			if ast.Equal(r, n) {
				return n
			}
			return r
		}
	case litB || isSelfOrField(a, true):
	case litA || isSelfOrField(b, true):
		if op.Commutative {
			a, b = b, a
			noop = false
		} else if inv, ok := op.Inverse(); ok {
			op, a, b = inv, b, a
			noop = false
		}
	}

	if noop {
		return n
	}
	r, err := ast.NewBinary(op, a, b)
	if err != nil {
		return n
	}
	return r
}

// chain rebuilds (a op b), for an associative and commutative op, as a
// left-deep chain over the flattened operands. Operands rooted at the
// enclosing message come first, the rest follow ordered by their text,
// and all numeric literals are folded into one literal on the right.
// The result depends only on the multiset of operands, so it is a fixed
// point. ok is false when a chain cannot be rebuilt or holds a single
// operand.
func chain(op *ast.BinaryOperatorDef, a, b ast.Expr) (*ast.BinaryOperator, bool) {
	same := func(d *ast.BinaryOperatorDef) bool { return d == op }
	var terms, lits []ast.Expr
	for _, x := range append(flatten(a, same), flatten(b, same)...) {
		if _, ok := numberOf(x); ok {
			lits = append(lits, x)
		} else {
			terms = append(terms, x)
		}
	}
	if len(terms) == 0 {
		return nil, false
	}

	slices.SortStableFunc(terms, func(x, y ast.Expr) int {
		sx, sy := isSelfOrField(x, true), isSelfOrField(y, true)
		switch {
		case sx && !sy:
			return -1
		case sy && !sx:
			return 1
		}
		return strings.Compare(x.String(), y.String())
	})
	operands := append(terms, foldLiterals(op, lits)...)
	if len(operands) < 2 {
		return nil, false
	}

	r, ok := build(nil, func(bld *builder) ast.Expr { return bld.fold(op, operands) }).(*ast.BinaryOperator)
	return r, ok
}

// foldLiterals combines numeric literals under op. The literals are
// kept as they are when the combined value has no literal form.
func foldLiterals(op *ast.BinaryOperatorDef, lits []ast.Expr) []ast.Expr {
	if len(lits) < 2 {
		return lits
	}
	acc, _ := numberOf(lits[0])
	for _, l := range lits[1:] {
		v, _ := numberOf(l)
		if op.IsPlus() {
			acc = addNum(acc, v)
		} else {
			acc = mulNum(acc, v)
		}
	}
	if l := numberLiteral(acc); l != nil {
		return []ast.Expr{l}
	}
	return lits
}

// pair builds (x op y) and simplifies it. It returns nil if the node
// cannot be built.
func (s *simplifier) pair(op *ast.BinaryOperatorDef, x, y ast.Expr) ast.Expr {
	r, err := ast.NewBinary(op, x, y)
	if err != nil {
		return nil
	}
	return s.binary(r)
}

func (s *simplifier) conjunction(phi *ast.BinaryOperator) ast.Expr {
	p, q := phi.A, phi.B
	switch {
	case isFalse(p):
		return p
	case isFalse(q):
		return q
	case isTrue(p):
		return q
	case isTrue(q):
		return p
	case ast.Equal(p, q):
		return p
	case obviouslyDifferent(p, q):
		return ast.False()
	}
	all := append(GetConjuncts(p), GetConjuncts(q)...)
	unique := dedupe(all)
	if len(unique) == len(all) {
		return phi
	}
	return build(phi, func(b *builder) ast.Expr { return b.fold(ast.OpAnd, unique) })
}

func (s *simplifier) disjunction(phi *ast.BinaryOperator) ast.Expr {
	p, q := phi.A, phi.B
	switch {
	case isTrue(p):
		return p
	case isTrue(q):
		return q
	case isFalse(p):
		return q
	case isFalse(q):
		return p
	case ast.Equal(p, q):
		return p
	case obviouslyDifferent(p, q):
		return ast.True()
	}
	all := append(GetDisjuncts(p), GetDisjuncts(q)...)
	unique := dedupe(all)
	if len(unique) == len(all) {
		return phi
	}
	return build(phi, func(b *builder) ast.Expr { return b.fold(ast.OpOr, unique) })
}

// p → q  ==  ¬p ∨ q
func (s *simplifier) implication(phi *ast.BinaryOperator) ast.Expr {
	p, q := phi.A, phi.B
	if ast.Equal(p, q) {
		return ast.True()
	}
	r := build(nil, func(b *builder) ast.Expr { return b.or(b.not(p), q) })
	if r == nil {
		return phi
	}
	return s.expr(r)
}

// p ↔ q  ==  (p → q) ∧ (q → p)
func (s *simplifier) equivalence(phi *ast.BinaryOperator) ast.Expr {
	p, q := phi.A, phi.B
	switch {
	case ast.Equal(p, q):
		return ast.True()
	case obviouslyDifferent(p, q):
		return ast.False()
	}
	r := build(nil, func(b *builder) ast.Expr {
		return b.and(b.implies(p, q), b.implies(q, p))
	})
	if r == nil {
		return phi
	}
	return s.expr(r)
}

func (s *simplifier) comparison(phi *ast.BinaryOperator) ast.Expr {
	op := phi.Op
	// (x - y) = 0  ==  x = y
	if op == ast.OpEq || op == ast.OpNeq {
		if d, ok := asBinary(phi.A, (*ast.BinaryOperatorDef).IsMinus); ok {
			if k, ok := numberOf(phi.B); ok && k.isZero() {
				if r := s.pair(op, d.A, d.B); r != nil {
					return r
				}
			}
		}
	}
	la, okA := asLiteral(phi.A)
	lb, okB := asLiteral(phi.B)
	if okA && okB {
		switch op {
		case ast.OpEq:
			return ast.Bool(literalsEqual(la, lb))
		case ast.OpNeq:
			return ast.Bool(!literalsEqual(la, lb))
		}
		x, okX := numberOf(la)
		y, okY := numberOf(lb)
		if !okX || !okY || math.IsNaN(x.f) || math.IsNaN(y.f) {
			return phi
		}
		c := compareNum(x, y)
		switch op {
		case ast.OpLt:
			return ast.Bool(c < 0)
		case ast.OpLte:
			return ast.Bool(c <= 0)
		case ast.OpGt:
			return ast.Bool(c > 0)
		case ast.OpGte:
			return ast.Bool(c >= 0)
		}
		return phi
	}
	if obviouslyDifferent(phi.A, phi.B) {
		switch op {
		case ast.OpEq:
			return ast.False()
		case ast.OpNeq:
			return ast.True()
		}
	}
	return phi
}

// inclusion folds a literal tested against a literal set or range.
func inclusion(phi *ast.BinaryOperator) ast.Expr {
	x, ok := asLiteral(phi.A)
	if !ok {
		return phi
	}
	switch d := phi.B.(type) {
	case *ast.Set:
		for _, v := range d.Values {
			l, ok := asLiteral(v)
			if !ok {
				return phi
			}
			if literalsEqual(x, l) {
				return ast.True()
			}
		}
		return ast.False()
	case *ast.Range:
		n, okN := numberOf(x)
		lo, okL := numberOf(d.Min)
		hi, okH := numberOf(d.Max)
		if !okN || !okL || !okH || math.IsNaN(n.f) {
			return phi
		}
		c1, c2 := compareNum(lo, n), compareNum(n, hi)
		in := (c1 < 0 || c1 == 0 && !d.ExcludeMin) && (c2 < 0 || c2 == 0 && !d.ExcludeMax)
		return ast.Bool(in)
	}
	return phi
}

// Arithmetic

func (s *simplifier) arithmetic(phi *ast.BinaryOperator) ast.Expr {
	switch {
	case phi.Op.IsPlus():
		return s.addition(phi)
	case phi.Op.IsMinus():
		return s.subtraction(phi)
	case phi.Op.IsTimes():
		return s.multiplication(phi)
	case phi.Op.IsDivision():
		return division(phi)
	case phi.Op.IsPower():
		return power(phi)
	}
	return phi
}

func (s *simplifier) addition(phi *ast.BinaryOperator) ast.Expr {
	a, b := phi.A, phi.B
	if y, ok := numberOf(b); ok {
		if y.isZero() {
			return a
		}
		if x, ok := numberOf(a); ok {
			if x.isZero() {
				return b
			}
			if l := numberLiteral(addNum(x, y)); l != nil {
				return l
			}
			return phi
		}
	}
	if negatives(a, b) {
		return ast.Int(0)
	}
	return phi
}

func (s *simplifier) subtraction(phi *ast.BinaryOperator) ast.Expr {
	a, b := phi.A, phi.B
	if y, ok := numberOf(b); ok {
		if y.isZero() {
			return a
		}
		if x, ok := numberOf(a); ok {
			if l := numberLiteral(subNum(x, y)); l != nil {
				return l
			}
			return phi
		}
	}
	if ast.Equal(a, b) {
		return ast.Int(0)
	}
	// a - (-b)  ==  a + b
	if m, ok := asMinus(b); ok {
		r := build(nil, func(bld *builder) ast.Expr { return bld.add(a, m.Operand) })
		if sum, ok := r.(*ast.BinaryOperator); ok {
			return s.addition(sum)
		}
	}
	return phi
}

func (s *simplifier) multiplication(phi *ast.BinaryOperator) ast.Expr {
	a, b := phi.A, phi.B
	if y, ok := numberOf(b); ok {
		switch {
		case y.isOne():
			return a
		case y.isZero():
			return b
		}
		if x, ok := numberOf(a); ok {
			switch {
			case x.isOne():
				return b
			case x.isZero():
				return a
			}
			if l := numberLiteral(mulNum(x, y)); l != nil {
				return l
			}
			return phi
		}
		if y.f == -1 {
			r := build(nil, func(bld *builder) ast.Expr { return bld.neg(a) })
			if m, ok := r.(*ast.UnaryOperator); ok {
				return s.unary(m)
			}
		}
	}
	// (a / b) * b  ==  a
	if d, ok := asBinary(a, (*ast.BinaryOperatorDef).IsDivision); ok && ast.Equal(d.B, b) {
		return d.A
	}
	if d, ok := asBinary(b, (*ast.BinaryOperatorDef).IsDivision); ok && ast.Equal(d.B, a) {
		return d.A
	}
	return phi
}

func division(phi *ast.BinaryOperator) ast.Expr {
	a, b := phi.A, phi.B
	if y, ok := numberOf(b); ok {
		switch {
		case y.isZero():
			return phi
		case y.isOne():
			return a
		}
		if x, ok := numberOf(a); ok {
			if x.isZero() {
				return a
			}
			if l := numberLiteral(divNum(x, y)); l != nil {
				return l
			}
			return phi
		}
	}
	if ast.Equal(a, b) {
		return ast.Int(1)
	}
	if negatives(a, b) {
		return ast.Int(-1)
	}
	return phi
}

func power(phi *ast.BinaryOperator) ast.Expr {
	a, b := phi.A, phi.B
	if y, ok := numberOf(b); ok {
		switch {
		case y.isOne():
			return a
		case y.isZero():
			return ast.Int(1)
		}
		if x, ok := numberOf(a); ok {
			if x.isOne() || x.isZero() {
				return a
			}
			if l := numberLiteral(powNum(x, y)); l != nil {
				return l
			}
		}
	}
	return phi
}

// obviouslyDifferent reports whether a and b can never hold the same
// value: p and ¬p, or a and a±k for a literal k other than zero.
func obviouslyDifferent(a, b ast.Expr) bool {
	if complementary(a, b) {
		return true
	}
	return shifted(a, b) || shifted(b, a)
}

func complementary(a, b ast.Expr) bool {
	if n, ok := asNot(a); ok && ast.Equal(n.Operand, b) {
		return true
	}
	if n, ok := asNot(b); ok && ast.Equal(n.Operand, a) {
		return true
	}
	return false
}

func shifted(a, b ast.Expr) bool {
	op, ok := a.(*ast.BinaryOperator)
	if !ok || !(op.Op.IsPlus() || op.Op.IsMinus()) || !ast.Equal(op.A, b) {
		return false
	}
	k, ok := numberOf(op.B)
	return ok && !k.isZero() && k.finite()
}

// negatives reports whether one operand is the arithmetic negation of
// the other.
func negatives(a, b ast.Expr) bool {
	if n, ok := asMinus(a); ok && ast.Equal(n.Operand, b) {
		return true
	}
	if n, ok := asMinus(b); ok && ast.Equal(n.Operand, a) {
		return true
	}
	return false
}
