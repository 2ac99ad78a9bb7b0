package ast

import (
	"fmt"
	"sort"

	"github.com/roach88/hpl/internal/types"
)

// Children returns the direct sub-expressions of e in source order.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Literal, *ThisMessage, *VarReference:
		return nil
	case *Set:
		return n.Values
	case *Range:
		return []Expr{n.Min, n.Max}
	case *Quantifier:
		return []Expr{n.Domain, n.Condition}
	case *UnaryOperator:
		return []Expr{n.Operand}
	case *BinaryOperator:
		return []Expr{n.A, n.B}
	case *FunctionCall:
		return n.Arguments
	case *FieldAccess:
		return []Expr{n.Message}
	case *ArrayAccess:
		return []Expr{n.Array, n.Index}
	}
	panic(fmt.Sprintf("unexpected expression %T", e))
}

// WithChildren rebuilds e over new children through the validating
// constructors, then re-applies the type e had been narrowed to.
// e itself is returned when every child is unchanged.
func WithChildren(e Expr, children []Expr) (Expr, error) {
	old := Children(e)
	if len(old) != len(children) {
		return nil, fmt.Errorf("%T expects %d children, got %d", e, len(old), len(children))
	}
	same := true
	for i := range old {
		if old[i] != children[i] {
			same = false
			break
		}
	}
	if same {
		return e, nil
	}

	var (
		r   Expr
		err error
	)
	switch n := e.(type) {
	case *Set:
		r, err = NewSet(children)
	case *Range:
		r, err = NewRange(children[0], children[1], n.ExcludeMin, n.ExcludeMax)
	case *Quantifier:
		r, err = NewFreshQuantifier(n.Kind, n.Variable, children[0], children[1])
	case *UnaryOperator:
		r, err = NewUnary(n.Op, children[0])
	case *BinaryOperator:
		r, err = NewBinary(n.Op, children[0], children[1])
	case *FunctionCall:
		r, err = NewCall(n.Function, children)
	case *FieldAccess:
		r, err = NewFieldAccess(children[0], n.Field)
	case *ArrayAccess:
		r, err = NewArrayAccess(children[0], children[1])
	default:
		return e, nil
	}
	if err != nil {
		return nil, err
	}
	return Cast(r, e.DataType())
}

// Reshape applies f to each direct child of e and rebuilds it.
func Reshape(e Expr, f func(Expr) (Expr, error)) (Expr, error) {
	children := Children(e)
	if len(children) == 0 {
		return e, nil
	}
	out := make([]Expr, len(children))
	for i, c := range children {
		r, err := f(c)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return WithChildren(e, out)
}

// Replace substitutes other for every sub-expression matching test,
// bottom-up. Replacements are not revisited.
func Replace(e Expr, test func(Expr) bool, other Expr) (Expr, error) {
	if test(e) {
		return other, nil
	}
	return Reshape(e, func(c Expr) (Expr, error) {
		return Replace(c, test, other)
	})
}

// Walk visits e and its descendants in pre-order. Returning false from
// fn skips the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// AnyNode reports whether some node in e satisfies test.
func AnyNode(e Expr, test func(Expr) bool) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if found {
			return false
		}
		if test(n) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ContainsReference reports whether e mentions @alias.
func ContainsReference(e Expr, alias string) bool {
	return AnyNode(e, func(n Expr) bool {
		v, ok := n.(*VarReference)
		return ok && v.Name == alias
	})
}

// ContainsSelfReference reports whether e mentions the enclosing message.
func ContainsSelfReference(e Expr) bool {
	return AnyNode(e, func(n Expr) bool {
		_, ok := n.(*ThisMessage)
		return ok
	})
}

// ContainsDefinition reports whether some quantifier in e binds alias.
func ContainsDefinition(e Expr, alias string) bool {
	return AnyNode(e, func(n Expr) bool {
		q, ok := n.(*Quantifier)
		return ok && q.Variable == alias
	})
}

// FreeVariables returns the sorted names referenced by e that no
// enclosing quantifier in e binds.
func FreeVariables(e Expr) []string {
	set := map[string]struct{}{}
	collectFree(e, map[string]int{}, set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectFree(e Expr, bound map[string]int, out map[string]struct{}) {
	switch n := e.(type) {
	case *VarReference:
		if bound[n.Name] == 0 {
			out[n.Name] = struct{}{}
		}
		return
	case *Quantifier:
		collectFree(n.Domain, bound, out)
		bound[n.Variable]++
		collectFree(n.Condition, bound, out)
		bound[n.Variable]--
		return
	}
	for _, c := range Children(e) {
		collectFree(c, bound, out)
	}
}

// IsFullyTyped reports whether every node has exactly one concrete type.
func IsFullyTyped(e Expr) bool {
	return !AnyNode(e, func(n Expr) bool {
		switch n.DataType() {
		case types.Bool, types.Number, types.String, types.Array,
			types.Range, types.Set, types.Message:
			return false
		}
		return true
	})
}

// Equal compares two expressions structurally, ignoring narrowed types.
// Numeric literals compare by value, so 1 and 1.0 are equal.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		if !ok {
			return false
		}
		if fx, ok := x.Float64(); ok {
			fy, ok := y.Float64()
			return ok && fx == fy
		}
		return x.Value == y.Value
	case *ThisMessage:
		_, ok := b.(*ThisMessage)
		return ok
	case *VarReference:
		y, ok := b.(*VarReference)
		return ok && x.Name == y.Name
	case *Set:
		y, ok := b.(*Set)
		return ok && equalAll(x.Values, y.Values)
	case *Range:
		y, ok := b.(*Range)
		return ok && x.ExcludeMin == y.ExcludeMin && x.ExcludeMax == y.ExcludeMax &&
			Equal(x.Min, y.Min) && Equal(x.Max, y.Max)
	case *Quantifier:
		y, ok := b.(*Quantifier)
		return ok && x.Kind == y.Kind && x.Variable == y.Variable &&
			Equal(x.Domain, y.Domain) && Equal(x.Condition, y.Condition)
	case *UnaryOperator:
		y, ok := b.(*UnaryOperator)
		return ok && x.Op.Token == y.Op.Token && Equal(x.Operand, y.Operand)
	case *BinaryOperator:
		y, ok := b.(*BinaryOperator)
		return ok && x.Op.Token == y.Op.Token && Equal(x.A, y.A) && Equal(x.B, y.B)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		return ok && x.Function.Name == y.Function.Name && equalAll(x.Arguments, y.Arguments)
	case *FieldAccess:
		y, ok := b.(*FieldAccess)
		return ok && x.Field == y.Field && Equal(x.Message, y.Message)
	case *ArrayAccess:
		y, ok := b.(*ArrayAccess)
		return ok && Equal(x.Array, y.Array) && Equal(x.Index, y.Index)
	}
	return false
}

func equalAll(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}
