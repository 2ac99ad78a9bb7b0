package rewrite

import (
	"github.com/roach88/hpl/internal/ast"
)

// ReplaceSelfWithVariable rewrites every reference to the enclosing
// message as a reference to @alias.
func ReplaceSelfWithVariable(e ast.Expr, alias string) (ast.Expr, error) {
	v := ast.NewVarReference(alias)
	return ast.Replace(e, func(n ast.Expr) bool {
		_, ok := n.(*ast.ThisMessage)
		return ok
	}, v)
}

// ReplaceVariableWithSelf rewrites every free reference to @alias as a
// reference to the enclosing message. Quantifiers that rebind alias are
// left untouched.
func ReplaceVariableWithSelf(e ast.Expr, alias string) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.VarReference:
		if n.Name == alias {
			return ast.NewThisMessage(), nil
		}
		return e, nil
	case *ast.Quantifier:
		if n.Variable == alias {
			return e, nil
		}
	}
	return ast.Reshape(e, func(c ast.Expr) (ast.Expr, error) {
		return ReplaceVariableWithSelf(c, alias)
	})
}

// ReplacePredicateSelfWithVariable applies ReplaceSelfWithVariable to
// the condition of p.
func ReplacePredicateSelfWithVariable(p *ast.Predicate, alias string) (*ast.Predicate, error) {
	return mapPredicate(p, func(e ast.Expr) (ast.Expr, error) {
		return ReplaceSelfWithVariable(e, alias)
	})
}

// ReplacePredicateVariableWithSelf applies ReplaceVariableWithSelf to
// the condition of p.
func ReplacePredicateVariableWithSelf(p *ast.Predicate, alias string) (*ast.Predicate, error) {
	return mapPredicate(p, func(e ast.Expr) (ast.Expr, error) {
		return ReplaceVariableWithSelf(e, alias)
	})
}

func mapPredicate(p *ast.Predicate, f func(ast.Expr) (ast.Expr, error)) (*ast.Predicate, error) {
	if p.IsVacuous() {
		return p, nil
	}
	e, err := f(p.Condition)
	if err != nil {
		return nil, err
	}
	if e == p.Condition {
		return p, nil
	}
	return ast.NewCondition(e)
}
