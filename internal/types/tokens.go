package types

import (
	"fmt"
	"math"
	"sort"
)

// TypeToken is a named external type, e.g. a message field type from a schema.
type TypeToken interface {
	TokenName() string
	Category() DataType
}

// BaseType is a plain named type.
type BaseType struct {
	Name string
	Type DataType
}

func (t *BaseType) TokenName() string  { return t.Name }
func (t *BaseType) Category() DataType { return t.Type }
func (t *BaseType) String() string     { return t.Name }

// EnumeratedType restricts a primitive type to a fixed set of values.
type EnumeratedType struct {
	Name   string
	Type   DataType
	Values []any
}

// NewEnumeratedType validates that every value matches the category.
func NewEnumeratedType(name string, t DataType, values ...any) (*EnumeratedType, error) {
	for _, v := range values {
		ok := false
		switch v.(type) {
		case bool:
			ok = t == Bool
		case int, int64, float64:
			ok = t == Number
		case string:
			ok = t == String
		}
		if !ok {
			return nil, fmt.Errorf("%v is not of type %s", v, t)
		}
	}
	return &EnumeratedType{Name: name, Type: t, Values: values}, nil
}

func (t *EnumeratedType) TokenName() string  { return t.Name }
func (t *EnumeratedType) Category() DataType { return t.Type }
func (t *EnumeratedType) String() string     { return t.Name }

// RangedType is a numeric type with inclusive bounds.
type RangedType struct {
	Name string
	Min  float64
	Max  float64
}

// NewRangedType rejects max < min.
func NewRangedType(name string, min, max float64) (*RangedType, error) {
	if max < min {
		return nil, fmt.Errorf("max_value=%v < min_value=%v", max, min)
	}
	return &RangedType{Name: name, Min: min, Max: max}, nil
}

func (t *RangedType) TokenName() string  { return t.Name }
func (t *RangedType) Category() DataType { return Number }
func (t *RangedType) String() string     { return t.Name }

// Contains reports whether v lies within the bounds.
func (t *RangedType) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// Constant is a named constant declared by a message type.
type Constant struct {
	Type  TypeToken
	Value any
}

// MessageType is a structured message with named fields and constants.
type MessageType struct {
	Name      string
	Fields    map[string]TypeToken
	Constants map[string]Constant
}

// NewMessageType creates an empty message type.
func NewMessageType(name string) *MessageType {
	return &MessageType{
		Name:      name,
		Fields:    make(map[string]TypeToken),
		Constants: make(map[string]Constant),
	}
}

func (t *MessageType) TokenName() string  { return t.Name }
func (t *MessageType) Category() DataType { return Message }
func (t *MessageType) String() string     { return t.Name }

// ContainsName reports whether name is a field or a constant.
func (t *MessageType) ContainsName(name string) bool {
	if _, ok := t.Fields[name]; ok {
		return true
	}
	_, ok := t.Constants[name]
	return ok
}

// TypeOf returns the type of a field or constant, fields first.
func (t *MessageType) TypeOf(name string) (TypeToken, bool) {
	if f, ok := t.Fields[name]; ok {
		return f, true
	}
	if c, ok := t.Constants[name]; ok {
		return c.Type, true
	}
	return nil, false
}

// LeafFields flattens nested message fields into dotted paths.
func (t *MessageType) LeafFields() map[string]TypeToken {
	leaves := make(map[string]TypeToken)
	for name, token := range t.Fields {
		if sub, ok := token.(*MessageType); ok {
			for subname, subtoken := range sub.LeafFields() {
				leaves[name+"."+subname] = subtoken
			}
			continue
		}
		leaves[name] = token
	}
	return leaves
}

// FieldNames returns the field names in sorted order.
func (t *MessageType) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArrayType is a sequence of Subtype. Length -1 means unbounded.
type ArrayType struct {
	Name    string
	Subtype TypeToken
	Length  int
}

// NewArrayType rejects lengths below -1.
func NewArrayType(subtype TypeToken, length int) (*ArrayType, error) {
	if length < -1 {
		return nil, fmt.Errorf("invalid array length %d", length)
	}
	name := fmt.Sprintf("%s[]", subtype.TokenName())
	if length >= 0 {
		name = fmt.Sprintf("%s[%d]", subtype.TokenName(), length)
	}
	return &ArrayType{Name: name, Subtype: subtype, Length: length}, nil
}

func (t *ArrayType) TokenName() string  { return t.Name }
func (t *ArrayType) Category() DataType { return Array }
func (t *ArrayType) String() string     { return t.Name }

// IsFixedLength reports whether the array has a declared length.
func (t *ArrayType) IsFixedLength() bool { return t.Length >= 0 }

// ContainsIndex reports whether i is a valid index.
func (t *ArrayType) ContainsIndex(i int64) bool {
	return t.Length < 0 || (i >= 0 && int64(t.Length) > i)
}

// Predefined tokens.
var (
	Booleans = &EnumeratedType{Name: "bool", Type: Bool, Values: []any{false, true}}
	Strings  = &BaseType{Name: "string", Type: String}
	UInt8    = &RangedType{Name: "uint8", Min: 0, Max: 255}
	UInt16   = &RangedType{Name: "uint16", Min: 0, Max: 65535}
	UInt32   = &RangedType{Name: "uint32", Min: 0, Max: 4294967295}
	UInt64   = &RangedType{Name: "uint64", Min: 0, Max: 18446744073709551615}
	Int8     = &RangedType{Name: "int8", Min: -128, Max: 127}
	Int16    = &RangedType{Name: "int16", Min: -32768, Max: 32767}
	Int32    = &RangedType{Name: "int32", Min: -2147483648, Max: 2147483647}
	Int64    = &RangedType{Name: "int64", Min: math.MinInt64, Max: math.MaxInt64}
	Float32  = &RangedType{Name: "float32", Min: -math.MaxFloat32, Max: math.MaxFloat32}
	Float64  = &RangedType{Name: "float64", Min: -math.MaxFloat64, Max: math.MaxFloat64}
)

// Builtin looks up a predefined token by name.
func Builtin(name string) (TypeToken, bool) {
	switch name {
	case "bool":
		return Booleans, true
	case "string":
		return Strings, true
	case "uint8", "byte", "char":
		return UInt8, true
	case "uint16":
		return UInt16, true
	case "uint32":
		return UInt32, true
	case "uint64":
		return UInt64, true
	case "int8":
		return Int8, true
	case "int16":
		return Int16, true
	case "int32":
		return Int32, true
	case "int64":
		return Int64, true
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	}
	return nil, false
}
