package rewrite

import (
	"errors"
	"fmt"

	"github.com/roach88/hpl/internal/ast"
)

// ErrUnsatisfiable is returned when a conjunction contains False.
var ErrUnsatisfiable = errors.New("unsatisfiable conjunction")

// SplitAnd breaks e into conjuncts, left to right. Negations and
// universal quantifiers are pushed inward first so that conjunctions
// nested under them are exposed. True conjuncts are dropped.
func SplitAnd(e ast.Expr) ([]ast.Expr, error) {
	var out []ast.Expr
	stack := []ast.Expr{e}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isTrue(top) {
			continue
		}
		if isFalse(top) {
			return nil, fmt.Errorf("%w: %s", ErrUnsatisfiable, e)
		}
		r, err := presplit(top)
		if err != nil {
			return nil, err
		}
		if r != top {
			stack = append(stack, r)
			continue
		}
		if and, ok := asAnd(r); ok {
			stack = append(stack, and.B, and.A)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SplitPredicate is SplitAnd over a predicate condition.
func SplitPredicate(p *ast.Predicate) ([]ast.Expr, error) {
	if p.IsTrue() {
		return nil, nil
	}
	if p.IsFalse() {
		return nil, fmt.Errorf("%w: %s", ErrUnsatisfiable, p)
	}
	return SplitAnd(p.Condition)
}

// presplit turns e into either a conjunction or something indivisible.
func presplit(e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.UnaryOperator:
		if n.Op.IsNot() {
			return presplitNegation(n)
		}
	case *ast.Quantifier:
		return presplitQuantifier(n)
	}
	return e, nil
}

func presplitNegation(neg *ast.UnaryOperator) (ast.Expr, error) {
	switch inner := neg.Operand.(type) {
	case *ast.UnaryOperator:
		if inner.Op.IsNot() {
			return presplit(inner.Operand)
		}
	case *ast.BinaryOperator:
		if inner.Op.IsOr() {
			return notOr(inner)
		}
		if inner.Op.IsImplies() {
			return notImplies(inner)
		}
	case *ast.Quantifier:
		if inner.IsExistential() {
			q, err := notExists(inner)
			if err != nil {
				return nil, err
			}
			return presplitQuantifier(q)
		}
	}
	return neg, nil
}

func presplitQuantifier(q *ast.Quantifier) (ast.Expr, error) {
	if !q.IsUniversal() {
		return q, nil
	}
	cond, err := presplit(q.Condition)
	if err != nil {
		return nil, err
	}
	and, ok := asAnd(cond)
	if !ok {
		return q, nil
	}
	qa, err := guardedForall(q, and.A)
	if err != nil {
		return nil, err
	}
	qb, err := guardedForall(q, and.B)
	if err != nil {
		return nil, err
	}
	return ast.And(qa, qb)
}
