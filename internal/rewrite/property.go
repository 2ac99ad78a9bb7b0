package rewrite

import (
	"fmt"

	"github.com/roach88/hpl/internal/ast"
)

// SimplifyProperty simplifies the predicate of every simple event in p.
// Unchanged parts are shared, and p itself is returned when nothing
// simplifies.
func SimplifyProperty(p *ast.Property) (*ast.Property, error) {
	return mapPredicates(p, SimplifyPredicate)
}

// SimplifySpecification applies SimplifyProperty to every property.
func SimplifySpecification(s *ast.Specification) (*ast.Specification, error) {
	out := make([]*ast.Property, len(s.Properties))
	changed := false
	for i, p := range s.Properties {
		r, err := SimplifyProperty(p)
		if err != nil {
			return nil, err
		}
		changed = changed || r != p
		out[i] = r
	}
	if !changed {
		return s, nil
	}
	return ast.NewSpecification(out), nil
}

func mapPredicates(p *ast.Property, f func(*ast.Predicate) *ast.Predicate) (*ast.Property, error) {
	scope := p.Scope
	if scope.Activator != nil {
		ev, err := mapEvent(scope.Activator, f)
		if err != nil {
			return nil, err
		}
		if ev != scope.Activator {
			scope = scope.WithActivator(ev)
		}
	}
	if scope.Terminator != nil {
		ev, err := mapEvent(scope.Terminator, f)
		if err != nil {
			return nil, err
		}
		if ev != scope.Terminator {
			scope = scope.WithTerminator(ev)
		}
	}

	pattern := p.Pattern
	ev, err := mapEvent(pattern.Behaviour, f)
	if err != nil {
		return nil, err
	}
	if ev != pattern.Behaviour {
		pattern = pattern.WithBehaviour(ev)
	}
	if pattern.Trigger != nil {
		ev, err := mapEvent(pattern.Trigger, f)
		if err != nil {
			return nil, err
		}
		if ev != pattern.Trigger {
			pattern = pattern.WithTrigger(ev)
		}
	}

	r, err := p.WithParts(scope, pattern)
	if err != nil {
		return nil, fmt.Errorf("rewriting %s: %w", p, err)
	}
	return r, nil
}

func mapEvent(e ast.Event, f func(*ast.Predicate) *ast.Predicate) (ast.Event, error) {
	switch ev := e.(type) {
	case *ast.SimpleEvent:
		return ev.WithPredicate(f(ev.Predicate)), nil
	case *ast.EventDisjunction:
		l, err := mapEvent(ev.Left, f)
		if err != nil {
			return nil, err
		}
		r, err := mapEvent(ev.Right, f)
		if err != nil {
			return nil, err
		}
		if l == ev.Left && r == ev.Right {
			return ev, nil
		}
		return ast.NewEventDisjunction(l, r)
	}
	return nil, fmt.Errorf("unknown event %T", e)
}
