package ir

import (
	"fmt"
	"math"

	"github.com/roach88/hpl/internal/ast"
)

// FromExpr serializes an expression tree. Every node carries "kind" and
// its inferred "type".
func FromExpr(e ast.Expr) IRObject {
	obj := IRObject{"type": IRString(e.DataType().String())}
	switch n := e.(type) {
	case *ast.Literal:
		obj["kind"] = IRString("literal")
		obj["value"] = literalValue(n)
	case *ast.ThisMessage:
		obj["kind"] = IRString("this")
	case *ast.VarReference:
		obj["kind"] = IRString("variable")
		obj["name"] = IRString(n.Name)
	case *ast.Set:
		obj["kind"] = IRString("set")
		obj["values"] = exprs(n.Values)
	case *ast.Range:
		obj["kind"] = IRString("range")
		obj["min"] = FromExpr(n.Min)
		obj["max"] = FromExpr(n.Max)
		obj["exclude_min"] = IRBool(n.ExcludeMin)
		obj["exclude_max"] = IRBool(n.ExcludeMax)
	case *ast.Quantifier:
		obj["kind"] = IRString("quantifier")
		obj["quantifier"] = IRString(n.Kind.String())
		obj["variable"] = IRString(n.Variable)
		obj["domain"] = FromExpr(n.Domain)
		obj["condition"] = FromExpr(n.Condition)
	case *ast.UnaryOperator:
		obj["kind"] = IRString("unary")
		obj["operator"] = IRString(n.Op.Token)
		obj["operand"] = FromExpr(n.Operand)
	case *ast.BinaryOperator:
		obj["kind"] = IRString("binary")
		obj["operator"] = IRString(n.Op.Token)
		obj["a"] = FromExpr(n.A)
		obj["b"] = FromExpr(n.B)
	case *ast.FunctionCall:
		obj["kind"] = IRString("call")
		obj["function"] = IRString(n.Function.Name)
		obj["arguments"] = exprs(n.Arguments)
	case *ast.FieldAccess:
		obj["kind"] = IRString("field")
		obj["message"] = FromExpr(n.Message)
		obj["field"] = IRString(n.Field)
	case *ast.ArrayAccess:
		obj["kind"] = IRString("index")
		obj["array"] = FromExpr(n.Array)
		obj["index"] = FromExpr(n.Index)
	default:
		panic(fmt.Sprintf("ir: unexpected expression %T", e))
	}
	return obj
}

func exprs(es []ast.Expr) IRArray {
	arr := make(IRArray, len(es))
	for i, e := range es {
		arr[i] = FromExpr(e)
	}
	return arr
}

func literalValue(l *ast.Literal) IRValue {
	switch v := l.Value.(type) {
	case bool:
		return IRBool(v)
	case int64:
		return IRInt(v)
	case float64:
		return IRString(ast.FormatFloat(v))
	case string:
		return IRString(v)
	}
	return IRString(l.Token)
}

// FromPredicate maps vacuous predicates to a bare bool.
func FromPredicate(p *ast.Predicate) IRValue {
	if p.IsVacuous() {
		return IRBool(p.IsTrue())
	}
	return FromExpr(p.Condition)
}

// FromEvent serializes a simple event or a disjunction.
func FromEvent(e ast.Event) IRObject {
	switch ev := e.(type) {
	case *ast.SimpleEvent:
		obj := IRObject{
			"kind":      IRString("event"),
			"channel":   IRString(ev.Channel),
			"predicate": FromPredicate(ev.Predicate),
		}
		if ev.Alias != "" {
			obj["alias"] = IRString(ev.Alias)
		}
		return obj
	case *ast.EventDisjunction:
		return IRObject{
			"kind":  IRString("or"),
			"left":  FromEvent(ev.Left),
			"right": FromEvent(ev.Right),
		}
	}
	panic(fmt.Sprintf("ir: unexpected event %T", e))
}

func fromScope(s *ast.Scope) IRObject {
	obj := IRObject{"kind": IRString(s.Kind.String())}
	if s.Activator != nil {
		obj["activator"] = FromEvent(s.Activator)
	}
	if s.Terminator != nil {
		obj["terminator"] = FromEvent(s.Terminator)
	}
	return obj
}

// Time bounds are strings; a zero minimum and an infinite maximum are
// omitted.
func fromPattern(p *ast.Pattern) IRObject {
	obj := IRObject{
		"kind":      IRString(p.Kind.String()),
		"behaviour": FromEvent(p.Behaviour),
	}
	if p.Trigger != nil {
		obj["trigger"] = FromEvent(p.Trigger)
	}
	if p.MinTime != 0 {
		obj["min_time"] = IRString(ast.FormatFloat(p.MinTime))
	}
	if !math.IsInf(p.MaxTime, 1) {
		obj["max_time"] = IRString(ast.FormatFloat(p.MaxTime))
	}
	return obj
}

func fromMetadata(m ast.Metadata) IRObject {
	obj := IRObject{}
	if m.ID != "" {
		obj["id"] = IRString(m.ID)
	}
	if m.Title != "" {
		obj["title"] = IRString(m.Title)
	}
	if m.Description != "" {
		obj["description"] = IRString(m.Description)
	}
	return obj
}

// propertyBody is the part of a property that determines its identity.
func propertyBody(p *ast.Property) IRObject {
	return IRObject{
		"scope":   fromScope(p.Scope),
		"pattern": fromPattern(p.Pattern),
	}
}

// FromProperty serializes a property. Metadata is included when present.
func FromProperty(p *ast.Property) IRObject {
	obj := propertyBody(p)
	if meta := fromMetadata(p.Metadata); len(meta) > 0 {
		obj["metadata"] = meta
	}
	return obj
}

// FromSpecification serializes every property in order.
func FromSpecification(s *ast.Specification) IRObject {
	props := make(IRArray, len(s.Properties))
	for i, p := range s.Properties {
		props[i] = FromProperty(p)
	}
	return IRObject{
		"format_version": IRString(FormatVersion),
		"properties":     props,
	}
}
