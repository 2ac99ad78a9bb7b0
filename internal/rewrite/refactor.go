package rewrite

import (
	"github.com/roach88/hpl/internal/ast"
)

// RefactorReference splits e into (independent, dependent) halves such
// that e is equivalent to independent ∧ dependent, independent never
// mentions @alias, and dependent does unless it is True.
//
// The split is best effort: when no sound split is known the whole
// expression becomes the dependent half.
func RefactorReference(e ast.Expr, alias string) (ast.Expr, ast.Expr, error) {
	if !ast.ContainsReference(e, alias) {
		return e, ast.True(), nil
	}
	if !e.DataType().CanBeBool() {
		return ast.True(), e, nil
	}
	switch n := e.(type) {
	case *ast.Quantifier:
		return refactorQuantifier(n, alias)
	case *ast.UnaryOperator:
		if n.Op.IsNot() {
			return refactorNegation(n, alias)
		}
	case *ast.BinaryOperator:
		return refactorOperator(n, alias)
	}
	// values, accessors and calls are indivisible
	return ast.True(), e, nil
}

// RefactorPredicate is RefactorReference over a predicate. Literal
// halves become vacuous predicates.
func RefactorPredicate(p *ast.Predicate, alias string) (*ast.Predicate, *ast.Predicate, error) {
	if p.IsVacuous() {
		return p, ast.VacuousTruth(), nil
	}
	a, b, err := RefactorReference(p.Condition, alias)
	if err != nil {
		return nil, nil, err
	}
	pa, err := ast.PredicateFromExpression(a)
	if err != nil {
		return nil, nil, err
	}
	pb, err := ast.PredicateFromExpression(b)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

func refactorQuantifier(q *ast.Quantifier, alias string) (ast.Expr, ast.Expr, error) {
	if ast.ContainsReference(q.Domain, alias) || !q.IsUniversal() {
		return ast.True(), q, nil
	}
	// ∀x: (p ∧ q)  ==  (∀x: p) ∧ (∀x: q)
	cond := q.Condition
	if neg, ok := asNot(cond); ok {
		if or, ok := asOr(neg.Operand); ok {
			c, err := notOr(or)
			if err != nil {
				return nil, nil, err
			}
			cond = c
		}
	}
	and, ok := asAnd(cond)
	if !ok {
		return ast.True(), q, nil
	}
	refA := ast.ContainsReference(and.A, alias)
	refB := ast.ContainsReference(and.B, alias)
	if refA == refB {
		return ast.True(), q, nil
	}
	qa, err := guardedForall(q, and.A)
	if err != nil {
		return nil, nil, err
	}
	qb, err := guardedForall(q, and.B)
	if err != nil {
		return nil, nil, err
	}
	if refA {
		return qb, qa, nil
	}
	return qa, qb, nil
}

func refactorNegation(neg *ast.UnaryOperator, alias string) (ast.Expr, ast.Expr, error) {
	switch inner := neg.Operand.(type) {
	case *ast.Quantifier:
		if inner.IsExistential() {
			q, err := notExists(inner)
			if err != nil {
				return nil, nil, err
			}
			return refactorQuantifier(q, alias)
		}
	case *ast.UnaryOperator:
		if inner.Op.IsNot() {
			return RefactorReference(inner.Operand, alias)
		}
	case *ast.BinaryOperator:
		switch {
		case inner.Op.IsImplies():
			and, err := notImplies(inner)
			if err != nil {
				return nil, nil, err
			}
			return refactorOperator(and, alias)
		case inner.Op.IsOr():
			and, err := notOr(inner)
			if err != nil {
				return nil, nil, err
			}
			return refactorOperator(and, alias)
		}
	}
	return ast.True(), neg, nil
}

func refactorOperator(op *ast.BinaryOperator, alias string) (ast.Expr, ast.Expr, error) {
	if op.Op.IsAnd() {
		refA := ast.ContainsReference(op.A, alias)
		refB := ast.ContainsReference(op.B, alias)
		if refA && !refB {
			return op.B, op.A, nil
		}
		if refB && !refA {
			return op.A, op.B, nil
		}
	}
	return ast.True(), op, nil
}
