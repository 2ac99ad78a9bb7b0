package ast

import (
	"fmt"

	"github.com/roach88/hpl/internal/types"
)

// Predicate is the condition attached to an event. A vacuous predicate
// has no condition and is either always true or always false.
type Predicate struct {
	Condition Expr // nil when vacuous
	truth     bool
}

// VacuousTruth is a predicate every message satisfies.
func VacuousTruth() *Predicate { return &Predicate{truth: true} }

// Contradiction is a predicate no message satisfies.
func Contradiction() *Predicate { return &Predicate{truth: false} }

// NewCondition builds a non-vacuous predicate over e. Every reference to
// the same field or variable must agree on a common type.
func NewCondition(e Expr) (*Predicate, error) {
	if !e.DataType().CanBeBool() {
		return nil, typeErrorf(ErrTypeCast, "not a boolean expression: {%s}", e)
	}
	c, err := Cast(e, types.Bool)
	if err != nil {
		return nil, err
	}
	if err := checkReferenceTypes(c); err != nil {
		return nil, err
	}
	return &Predicate{Condition: c}, nil
}

// PredicateFromExpression maps the literals True and False to vacuous
// predicates and anything else to a condition.
func PredicateFromExpression(e Expr) (*Predicate, error) {
	if !e.DataType().CanBeBool() {
		return nil, typeErrorf(ErrTypeCast, "not a boolean expression: {%s}", e)
	}
	if lit, ok := e.(*Literal); ok {
		if b, ok := lit.Value.(bool); ok {
			if b {
				return VacuousTruth(), nil
			}
			return Contradiction(), nil
		}
	}
	return NewCondition(e)
}

// referenceTable groups accessors and variables by their rendered text,
// keeping pre-order within each group.
type referenceTable struct {
	keys   []string
	groups map[string][]Expr
}

func buildReferenceTable(e Expr) referenceTable {
	t := referenceTable{groups: map[string][]Expr{}}
	Walk(e, func(n Expr) bool {
		_, isVar := n.(*VarReference)
		if isVar || IsAccessor(n) {
			key := n.String()
			if _, seen := t.groups[key]; !seen {
				t.keys = append(t.keys, key)
			}
			t.groups[key] = append(t.groups[key], n)
		}
		return true
	})
	return t
}

func checkReferenceTypes(e Expr) error {
	table := buildReferenceTable(e)
	for _, key := range table.keys {
		group := table.groups[key]
		// Fold both ways so a generic first reference cannot hide a
		// conflict between two later, more specific ones.
		final := types.Any
		for _, ref := range group {
			t, err := ref.DataType().Cast(final)
			if err != nil {
				return typeErrorInExpr(err, ref)
			}
			final = t
		}
		for i := len(group) - 1; i >= 0; i-- {
			t, err := group[i].DataType().Cast(final)
			if err != nil {
				return typeErrorInExpr(err, group[i])
			}
			final = t
		}
	}
	return nil
}

// IsVacuous reports whether the predicate has no condition.
func (p *Predicate) IsVacuous() bool { return p.Condition == nil }

// IsTrue reports whether p is VacuousTruth.
func (p *Predicate) IsTrue() bool { return p.IsVacuous() && p.truth }

// IsFalse reports whether p is Contradiction.
func (p *Predicate) IsFalse() bool { return p.IsVacuous() && !p.truth }

// Expression returns the condition, or a boolean literal when vacuous.
func (p *Predicate) Expression() Expr {
	if p.IsVacuous() {
		return Bool(p.truth)
	}
	return p.Condition
}

// CheckSomeSelfReferences requires at least one plain field of the
// enclosing message, such as `x` or `a.b`, but not `[0]` alone.
func (p *Predicate) CheckSomeSelfReferences() error {
	if p.IsVacuous() {
		return nil
	}
	table := buildReferenceTable(p.Condition)
	for _, key := range table.keys {
		if f, ok := table.groups[key][0].(*FieldAccess); ok {
			if _, ok := f.Message.(*ThisMessage); ok {
				return nil
			}
		}
	}
	return sanityErrorf(ErrNoSelfReference, "there are no references to fields of this message in %s", p)
}

// Negate returns the complement of p.
func (p *Predicate) Negate() (*Predicate, error) {
	if p.IsVacuous() {
		return &Predicate{truth: !p.truth}, nil
	}
	if u, ok := p.Condition.(*UnaryOperator); ok && u.Op.IsNot() {
		return NewCondition(u.Operand)
	}
	n, err := Not(p.Condition)
	if err != nil {
		return nil, err
	}
	return NewCondition(n)
}

// Join returns the conjunction of p and q.
func (p *Predicate) Join(q *Predicate) (*Predicate, error) {
	switch {
	case p.IsFalse() || q.IsFalse():
		return Contradiction(), nil
	case p.IsTrue():
		return q, nil
	case q.IsTrue():
		return p, nil
	}
	c, err := And(p.Condition, q.Condition)
	if err != nil {
		return nil, err
	}
	return NewCondition(c)
}

// ContainsReference reports whether p mentions @alias.
func (p *Predicate) ContainsReference(alias string) bool {
	return !p.IsVacuous() && ContainsReference(p.Condition, alias)
}

// ContainsSelfReference reports whether p mentions its own message.
func (p *Predicate) ContainsSelfReference() bool {
	return !p.IsVacuous() && ContainsSelfReference(p.Condition)
}

// IsFullyTyped reports whether every node of the condition is concrete.
func (p *Predicate) IsFullyTyped() bool {
	return p.IsVacuous() || IsFullyTyped(p.Condition)
}

// Equal compares predicates structurally.
func (p *Predicate) Equal(q *Predicate) bool {
	if p == q {
		return true
	}
	if p == nil || q == nil {
		return false
	}
	if p.IsVacuous() || q.IsVacuous() {
		return p.IsVacuous() && q.IsVacuous() && p.truth == q.truth
	}
	return Equal(p.Condition, q.Condition)
}

func (p *Predicate) String() string {
	if p.IsVacuous() {
		if p.truth {
			return "{ True }"
		}
		return "{ False }"
	}
	return fmt.Sprintf("{ %s }", p.Condition)
}
