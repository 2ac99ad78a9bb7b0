package rewrite

import (
	"github.com/roach88/hpl/internal/ast"
)

func isTrue(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	return ok && l.Value == true
}

func isFalse(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	return ok && l.Value == false
}

func asNot(e ast.Expr) (*ast.UnaryOperator, bool) {
	u, ok := e.(*ast.UnaryOperator)
	return u, ok && u.Op.IsNot()
}

func asMinus(e ast.Expr) (*ast.UnaryOperator, bool) {
	u, ok := e.(*ast.UnaryOperator)
	return u, ok && u.Op.IsMinus()
}

func asBinary(e ast.Expr, is func(*ast.BinaryOperatorDef) bool) (*ast.BinaryOperator, bool) {
	b, ok := e.(*ast.BinaryOperator)
	return b, ok && is(b.Op)
}

func asAnd(e ast.Expr) (*ast.BinaryOperator, bool) {
	return asBinary(e, (*ast.BinaryOperatorDef).IsAnd)
}

func asOr(e ast.Expr) (*ast.BinaryOperator, bool) {
	return asBinary(e, (*ast.BinaryOperatorDef).IsOr)
}

func asImplies(e ast.Expr) (*ast.BinaryOperator, bool) {
	return asBinary(e, (*ast.BinaryOperatorDef).IsImplies)
}

func asLiteral(e ast.Expr) (*ast.Literal, bool) {
	l, ok := e.(*ast.Literal)
	return l, ok
}

func isNumberLiteral(e ast.Expr) bool {
	l, ok := e.(*ast.Literal)
	return ok && l.IsNumber()
}

// isSelfOrField reports whether e is the enclosing message or an
// accessor rooted at it. The deep form also looks through unary
// operators and one-argument calls.
func isSelfOrField(e ast.Expr, deep bool) bool {
	if deep {
		switch n := e.(type) {
		case *ast.UnaryOperator:
			return isSelfOrField(n.Operand, true)
		case *ast.FunctionCall:
			if len(n.Arguments) == 1 {
				return isSelfOrField(n.Arguments[0], true)
			}
		}
	}
	if _, ok := e.(*ast.ThisMessage); ok {
		return true
	}
	if ast.IsAccessor(e) {
		_, ok := ast.BaseObject(e).(*ast.ThisMessage)
		return ok
	}
	return false
}

// emptyTest is `len(domain) = 0`.
func emptyTest(domain ast.Expr) (ast.Expr, error) {
	n, err := ast.NewCall(ast.FnLen, []ast.Expr{domain})
	if err != nil {
		return nil, err
	}
	return ast.NewBinary(ast.OpEq, n, ast.Int(0))
}

// guardedForall distributes a universal quantifier over one conjunct.
// A conjunct that does not use the variable holds vacuously over an
// empty domain.
func guardedForall(q *ast.Quantifier, conjunct ast.Expr) (ast.Expr, error) {
	if ast.ContainsReference(conjunct, q.Variable) {
		return ast.Forall(q.Variable, q.Domain, conjunct)
	}
	empty, err := emptyTest(q.Domain)
	if err != nil {
		return nil, err
	}
	return ast.Or(empty, conjunct)
}

// notOr rewrites ¬(a ∨ b) as ¬a ∧ ¬b.
func notOr(or *ast.BinaryOperator) (*ast.BinaryOperator, error) {
	na, err := ast.Not(or.A)
	if err != nil {
		return nil, err
	}
	nb, err := ast.Not(or.B)
	if err != nil {
		return nil, err
	}
	return ast.And(na, nb)
}

// notImplies rewrites ¬(a → b) as a ∧ ¬b.
func notImplies(imp *ast.BinaryOperator) (*ast.BinaryOperator, error) {
	nb, err := ast.Not(imp.B)
	if err != nil {
		return nil, err
	}
	return ast.And(imp.A, nb)
}

// notExists rewrites ¬∃x: p as ∀x: ¬p.
func notExists(q *ast.Quantifier) (*ast.Quantifier, error) {
	np, err := ast.Not(q.Condition)
	if err != nil {
		return nil, err
	}
	return ast.Forall(q.Variable, q.Domain, np)
}

// GetConjuncts flattens nested conjunctions, left to right.
func GetConjuncts(e ast.Expr) []ast.Expr {
	return flatten(e, (*ast.BinaryOperatorDef).IsAnd)
}

// GetDisjuncts flattens nested disjunctions, left to right.
func GetDisjuncts(e ast.Expr) []ast.Expr {
	return flatten(e, (*ast.BinaryOperatorDef).IsOr)
}

func flatten(e ast.Expr, is func(*ast.BinaryOperatorDef) bool) []ast.Expr {
	var out []ast.Expr
	stack := []ast.Expr{e}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b, ok := asBinary(top, is); ok {
			stack = append(stack, b.B, b.A)
			continue
		}
		out = append(out, top)
	}
	return out
}

// dedupe keeps the first of each group of structurally equal expressions.
func dedupe(exprs []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(exprs))
	for _, e := range exprs {
		dup := false
		for _, seen := range out {
			if ast.Equal(e, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}
