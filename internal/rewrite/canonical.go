package rewrite

import (
	"fmt"

	"github.com/roach88/hpl/internal/ast"
)

// CanonicalForm expands event disjunctions into separate properties so
// that no disjunction remains where it can be split soundly:
//   - the activator of After and AfterUntil scopes;
//   - the behaviour of safety patterns;
//   - the trigger of Response patterns.
//
// Existence behaviours and terminators are never split. The result is
// the cross product scopes × patterns, in order. Parts that were not
// split are shared between the results. When nothing splits, the result
// holds p itself.
func CanonicalForm(p *ast.Property) ([]*ast.Property, error) {
	scopes := canonicalScopes(p.Scope)
	patterns := canonicalPatterns(p.Pattern)
	if len(scopes) == 1 && len(patterns) == 1 {
		return []*ast.Property{p}, nil
	}
	out := make([]*ast.Property, 0, len(scopes)*len(patterns))
	for _, s := range scopes {
		for _, pt := range patterns {
			r, err := ast.NewProperty(s, pt, p.Metadata)
			if err != nil {
				return nil, fmt.Errorf("canonical form of %s: %w", p, err)
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func canonicalScopes(s *ast.Scope) []*ast.Scope {
	if s.Kind != ast.After && s.Kind != ast.AfterUntil {
		return []*ast.Scope{s}
	}
	events := s.Activator.SimpleEvents()
	if len(events) == 1 {
		return []*ast.Scope{s}
	}
	out := make([]*ast.Scope, len(events))
	for i, ev := range events {
		out[i] = s.WithActivator(ev)
	}
	return out
}

func canonicalPatterns(p *ast.Pattern) []*ast.Pattern {
	switch {
	case p.IsSafety():
		events := p.Behaviour.SimpleEvents()
		if len(events) == 1 {
			return []*ast.Pattern{p}
		}
		out := make([]*ast.Pattern, len(events))
		for i, ev := range events {
			out[i] = p.WithBehaviour(ev)
		}
		return out
	case p.Kind == ast.Response:
		events := p.Trigger.SimpleEvents()
		if len(events) == 1 {
			return []*ast.Pattern{p}
		}
		out := make([]*ast.Pattern, len(events))
		for i, ev := range events {
			out[i] = p.WithTrigger(ev)
		}
		return out
	}
	return []*ast.Pattern{p}
}

// CanonicalSpecification applies CanonicalForm to every property and
// concatenates the results in order.
func CanonicalSpecification(s *ast.Specification) (*ast.Specification, error) {
	var out []*ast.Property
	changed := false
	for _, p := range s.Properties {
		ps, err := CanonicalForm(p)
		if err != nil {
			return nil, err
		}
		if len(ps) != 1 || ps[0] != p {
			changed = true
		}
		out = append(out, ps...)
	}
	if !changed {
		return s, nil
	}
	return ast.NewSpecification(out), nil
}
