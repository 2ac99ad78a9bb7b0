package types

import (
	"fmt"
	"strings"
)

// DataType is a set of possible value categories for an expression.
// An expression of unknown type has every flag set (Any); types narrow
// by intersection as the tree is built.
type DataType uint8

const (
	Bool DataType = 1 << iota
	Number
	String
	Array
	Range
	Set
	Message
)

// Named unions.
const (
	None      DataType = 0
	Primitive          = Bool | Number | String
	Item               = Primitive | Message
	Compound           = Array | Range | Set
	Any                = Bool | Number | String | Array | Range | Set | Message
)

// named lists the members in display order. Unions come first so that
// String() reports "Primitive" instead of "Bool or Number or String".
var named = []struct {
	name string
	t    DataType
}{
	{"Any", Any},
	{"Item", Item},
	{"Primitive", Primitive},
	{"Compound", Compound},
	{"Bool", Bool},
	{"Number", Number},
	{"String", String},
	{"Array", Array},
	{"Range", Range},
	{"Set", Set},
	{"Message", Message},
}

// CastError reports an empty intersection between two types.
type CastError struct {
	From DataType
	To   DataType
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast '%s' to '%s'", e.From, e.To)
}

// Union combines all given types.
func Union(ts ...DataType) DataType {
	r := None
	for _, t := range ts {
		r |= t
	}
	return r
}

// CanBe reports whether t and other share at least one category.
func (t DataType) CanBe(other DataType) bool {
	return t&other != 0
}

// Cast narrows t to its intersection with target.
// Returns a *CastError if the intersection is empty.
func (t DataType) Cast(target DataType) (DataType, error) {
	r := t & target
	if r == None {
		return None, &CastError{From: t, To: target}
	}
	return r, nil
}

func (t DataType) CanBeBool() bool    { return t.CanBe(Bool) }
func (t DataType) CanBeNumber() bool  { return t.CanBe(Number) }
func (t DataType) CanBeString() bool  { return t.CanBe(String) }
func (t DataType) CanBeArray() bool   { return t.CanBe(Array) }
func (t DataType) CanBeRange() bool   { return t.CanBe(Range) }
func (t DataType) CanBeSet() bool     { return t.CanBe(Set) }
func (t DataType) CanBeMessage() bool { return t.CanBe(Message) }

// Contains reports whether every category of other is also in t.
func (t DataType) Contains(other DataType) bool {
	return t&other == other
}

// String returns the name of a named type, or the members joined by "or".
func (t DataType) String() string {
	if t == None {
		return "None"
	}
	for _, n := range named {
		if n.t == t {
			return n.name
		}
	}
	var parts []string
	for _, n := range named[4:] {
		if t&n.t != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " or ")
}
