package ast

import (
	"maps"

	"github.com/roach88/hpl/internal/types"
)

// TypeCheckReferences resolves every accessor chain in e against message
// schemas and narrows each accessor to the category of its field.
//
// Self fields resolve against this. A field of @alias resolves against
// variables[alias]; an alias with no entry is a SanityError.
func TypeCheckReferences(e Expr, this *types.MessageType, variables map[string]*types.MessageType) (Expr, error) {
	c := &typeChecker{this: this, variables: variables}
	return c.check(e)
}

type typeChecker struct {
	this      *types.MessageType
	variables map[string]*types.MessageType
}

func (c *typeChecker) check(e Expr) (Expr, error) {
	if IsAccessor(e) {
		r, tok, err := c.resolve(e)
		if err != nil {
			return nil, err
		}
		return Cast(r, tok.Category())
	}
	return Reshape(e, c.check)
}

// resolve rebuilds an accessor chain bottom-up and returns the type
// token of its last step. Every step but the last is narrowed to its
// token; the caller narrows the last one.
func (c *typeChecker) resolve(e Expr) (Expr, types.TypeToken, error) {
	switch n := e.(type) {
	case *ThisMessage:
		if c.this == nil {
			return nil, nil, sanityErrorf(ErrUndefinedTypeToken, "no type token for this message")
		}
		return n, c.this, nil
	case *VarReference:
		t, ok := c.variables[n.Name]
		if !ok || t == nil {
			return nil, nil, sanityErrorf(ErrUndefinedTypeToken, "no type token for '%s'", n)
		}
		return n, t, nil
	case *FieldAccess:
		msg, tok, err := c.resolve(n.Message)
		if err != nil {
			return nil, nil, err
		}
		mt, ok := tok.(*types.MessageType)
		if !ok {
			return nil, nil, typeErrorf(ErrMissingField, "'%s' has no field '%s': %s", tok.TokenName(), n.Field, n)
		}
		next, ok := mt.TypeOf(n.Field)
		if !ok {
			return nil, nil, typeErrorf(ErrMissingField, "'%s' has no field '%s': %s", mt.Name, n.Field, n)
		}
		if msg, err = Cast(msg, mt.Category()); err != nil {
			return nil, nil, err
		}
		r, err := WithChildren(n, []Expr{msg})
		if err != nil {
			return nil, nil, err
		}
		return r, next, nil
	case *ArrayAccess:
		arr, tok, err := c.resolve(n.Array)
		if err != nil {
			return nil, nil, err
		}
		at, ok := tok.(*types.ArrayType)
		if !ok {
			return nil, nil, typeErrorf(ErrNotAnArray, "'%s' is not an array: %s", tok.TokenName(), n)
		}
		if arr, err = Cast(arr, at.Category()); err != nil {
			return nil, nil, err
		}
		idx, err := c.check(n.Index)
		if err != nil {
			return nil, nil, err
		}
		if lit, ok := idx.(*Literal); ok {
			if i, ok := lit.Int64(); ok && !at.ContainsIndex(i) {
				return nil, nil, typeErrorf(ErrIndexOutOfRange, "'%s' index %d out of range: %s", at.Name, i, n)
			}
		}
		r, err := WithChildren(n, []Expr{arr, idx})
		if err != nil {
			return nil, nil, err
		}
		return r, at.Subtype, nil
	}
	return nil, nil, typeErrorf(ErrTypeCast, "cannot access fields of {%s}", e)
}

// TypeCheckPredicate applies TypeCheckReferences to the condition of p.
func TypeCheckPredicate(p *Predicate, this *types.MessageType, variables map[string]*types.MessageType) (*Predicate, error) {
	if p.IsVacuous() {
		return p, nil
	}
	e, err := TypeCheckReferences(p.Condition, this, variables)
	if err != nil {
		return nil, err
	}
	if e == p.Condition {
		return p, nil
	}
	return NewCondition(e)
}

// TypeCheckEvent checks every simple event against the message type of
// its channel. An event's own alias resolves to its own message.
func TypeCheckEvent(e Event, channels, aliases map[string]*types.MessageType) (Event, error) {
	switch ev := e.(type) {
	case *SimpleEvent:
		mt, ok := channels[ev.Channel]
		if !ok || mt == nil {
			return nil, typeErrorf(ErrUnknownChannel, "unknown type for channel '%s'", ev.Channel)
		}
		vars := aliases
		if ev.Alias != "" {
			vars = maps.Clone(aliases)
			if vars == nil {
				vars = map[string]*types.MessageType{}
			}
			vars[ev.Alias] = mt
		}
		p, err := TypeCheckPredicate(ev.Predicate, mt, vars)
		if err != nil {
			return nil, err
		}
		return ev.WithPredicate(p), nil
	case *EventDisjunction:
		l, err := TypeCheckEvent(ev.Left, channels, aliases)
		if err != nil {
			return nil, err
		}
		r, err := TypeCheckEvent(ev.Right, channels, aliases)
		if err != nil {
			return nil, err
		}
		if l == ev.Left && r == ev.Right {
			return ev, nil
		}
		return NewEventDisjunction(l, r)
	}
	return e, nil
}

// TypeCheckProperty checks every event of p. Aliases resolve to the
// message type of the channel they are bound on.
func TypeCheckProperty(p *Property, channels map[string]*types.MessageType) (*Property, error) {
	aliases := map[string]*types.MessageType{}
	for _, ev := range p.Events() {
		for _, se := range ev.SimpleEvents() {
			if se.Alias == "" {
				continue
			}
			mt, ok := channels[se.Channel]
			if !ok {
				return nil, typeErrorf(ErrUnknownChannel, "unknown type for channel '%s'", se.Channel)
			}
			aliases[se.Alias] = mt
		}
	}

	checkOptional := func(e Event) (Event, error) {
		if e == nil {
			return nil, nil
		}
		return TypeCheckEvent(e, channels, aliases)
	}

	scope := p.Scope
	act, err := checkOptional(scope.Activator)
	if err != nil {
		return nil, err
	}
	term, err := checkOptional(scope.Terminator)
	if err != nil {
		return nil, err
	}
	if act != scope.Activator || term != scope.Terminator {
		scope = &Scope{Kind: scope.Kind, Activator: act, Terminator: term}
	}

	pattern := p.Pattern
	b, err := checkOptional(pattern.Behaviour)
	if err != nil {
		return nil, err
	}
	a, err := checkOptional(pattern.Trigger)
	if err != nil {
		return nil, err
	}
	if b != pattern.Behaviour || a != pattern.Trigger {
		pattern = pattern.WithBehaviour(b).WithTrigger(a)
	}
	return p.WithParts(scope, pattern)
}

// TypeCheckSpecification checks every property of s.
func TypeCheckSpecification(s *Specification, channels map[string]*types.MessageType) (*Specification, error) {
	out := make([]*Property, len(s.Properties))
	for i, p := range s.Properties {
		r, err := TypeCheckProperty(p, channels)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return &Specification{Properties: out}, nil
}
