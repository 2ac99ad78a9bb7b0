package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/hpl/internal/types"
)

// Expr is an HPL expression node.
//
// This is a sealed interface - only types in this package implement it.
// Every traversal in the module is an exhaustive type switch over:
//   - Literal, ThisMessage, VarReference: atomic values
//   - Set, Range: compound values
//   - Quantifier
//   - UnaryOperator, BinaryOperator, FunctionCall
//   - FieldAccess, ArrayAccess: accessors
//
// Nodes are immutable. Updates build new nodes and keep the original when
// nothing changed, so identity comparison detects no-ops.
type Expr interface {
	// DataType is the current (narrowed) type of the node.
	DataType() types.DataType
	String() string
	exprNode()
}

// Literal is a constant bool, int64, float64 or string.
type Literal struct {
	Token string
	Value any
	typ   types.DataType
}

// ThisMessage refers to the message of the enclosing event.
type ThisMessage struct {
	typ types.DataType
}

// VarReference refers to an aliased event or a quantified variable.
type VarReference struct {
	Name string
	typ  types.DataType
}

// Set is an enumeration literal such as {1, 2, 3}.
type Set struct {
	Values []Expr
	typ    types.DataType
}

// Range is a numeric interval literal such as [0 to 10]!.
type Range struct {
	Min        Expr
	Max        Expr
	ExcludeMin bool
	ExcludeMax bool
	typ        types.DataType
}

// QuantifierKind is either universal or existential.
type QuantifierKind int

const (
	All QuantifierKind = iota
	Some
)

func (k QuantifierKind) String() string {
	if k == All {
		return TokenForall
	}
	return TokenExists
}

// Quantifier binds Variable over the elements of Domain.
type Quantifier struct {
	Kind      QuantifierKind
	Variable  string
	Domain    Expr
	Condition Expr
}

// UnaryOperator applies a prefix operator.
type UnaryOperator struct {
	Op      *UnaryOperatorDef
	Operand Expr
}

// BinaryOperator applies an infix operator.
type BinaryOperator struct {
	Op  *BinaryOperatorDef
	A   Expr
	B   Expr
}

// FunctionCall applies a built-in function.
type FunctionCall struct {
	Function  *FunctionDef
	Arguments []Expr
}

// FieldAccess reads a named field of a message.
type FieldAccess struct {
	Message Expr
	Field   string
	typ     types.DataType
}

// ArrayAccess reads an element of an array.
type ArrayAccess struct {
	Array Expr
	Index Expr
	typ   types.DataType
}

func (*Literal) exprNode()        {}
func (*ThisMessage) exprNode()    {}
func (*VarReference) exprNode()   {}
func (*Set) exprNode()            {}
func (*Range) exprNode()          {}
func (*Quantifier) exprNode()     {}
func (*UnaryOperator) exprNode()  {}
func (*BinaryOperator) exprNode() {}
func (*FunctionCall) exprNode()   {}
func (*FieldAccess) exprNode()    {}
func (*ArrayAccess) exprNode()    {}

func orDefault(t, def types.DataType) types.DataType {
	if t == types.None {
		return def
	}
	return t
}

func (e *Literal) DataType() types.DataType        { return orDefault(e.typ, literalType(e.Value)) }
func (e *ThisMessage) DataType() types.DataType    { return orDefault(e.typ, types.Message) }
func (e *VarReference) DataType() types.DataType   { return orDefault(e.typ, types.Item) }
func (e *Set) DataType() types.DataType            { return orDefault(e.typ, types.Set) }
func (e *Range) DataType() types.DataType          { return orDefault(e.typ, types.Range) }
func (e *Quantifier) DataType() types.DataType     { return types.Bool }
func (e *UnaryOperator) DataType() types.DataType  { return e.Op.Result }
func (e *BinaryOperator) DataType() types.DataType { return e.Op.Result }
func (e *FunctionCall) DataType() types.DataType   { return e.Function.Result() }
func (e *FieldAccess) DataType() types.DataType    { return orDefault(e.typ, accessorType) }
func (e *ArrayAccess) DataType() types.DataType    { return orDefault(e.typ, accessorType) }

const accessorType = types.Item | types.Array

// DefaultType returns the widest type a node of this kind may carry.
func DefaultType(e Expr) types.DataType {
	switch e := e.(type) {
	case *Literal:
		return types.Primitive
	case *ThisMessage:
		return types.Message
	case *VarReference:
		return types.Item
	case *Set:
		return types.Set
	case *Range:
		return types.Range
	case *Quantifier:
		return types.Bool
	case *UnaryOperator:
		return e.Op.Result
	case *BinaryOperator:
		return e.Op.Result
	case *FunctionCall:
		return e.Function.Result()
	case *FieldAccess, *ArrayAccess:
		return accessorType
	}
	panic(fmt.Sprintf("unexpected expression %T", e))
}

// Literals

func literalType(v any) types.DataType {
	switch v.(type) {
	case bool:
		return types.Bool
	case string:
		return types.String
	default:
		return types.Number
	}
}

// NewLiteral creates a literal. Value must be bool, int, int64, float64 or string.
func NewLiteral(token string, value any) (*Literal, error) {
	switch v := value.(type) {
	case int:
		value = int64(v)
	case bool, int64, float64, string:
	default:
		return nil, fmt.Errorf("invalid literal value %v (%T)", value, value)
	}
	return &Literal{Token: token, Value: value, typ: literalType(value)}, nil
}

// Bool returns a boolean literal.
func Bool(b bool) *Literal {
	if b {
		return &Literal{Token: "True", Value: true, typ: types.Bool}
	}
	return &Literal{Token: "False", Value: false, typ: types.Bool}
}

// True returns the literal True.
func True() *Literal { return Bool(true) }

// False returns the literal False.
func False() *Literal { return Bool(false) }

// Int returns an integer literal.
func Int(n int64) *Literal {
	return &Literal{Token: strconv.FormatInt(n, 10), Value: n, typ: types.Number}
}

// Float returns a floating-point literal.
func Float(f float64) *Literal {
	return &Literal{Token: FormatFloat(f), Value: f, typ: types.Number}
}

// Str returns a string literal.
func Str(s string) *Literal {
	return &Literal{Token: strconv.Quote(s), Value: s, typ: types.String}
}

// FormatFloat renders a float the way the parser reads it back.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// IsBool reports whether the literal holds a bool.
func (e *Literal) IsBool() bool {
	_, ok := e.Value.(bool)
	return ok
}

// IsNumber reports whether the literal holds an int64 or float64.
func (e *Literal) IsNumber() bool {
	switch e.Value.(type) {
	case int64, float64:
		return true
	}
	return false
}

// IsString reports whether the literal holds a string.
func (e *Literal) IsString() bool {
	_, ok := e.Value.(string)
	return ok
}

// Float64 returns the numeric value. ok is false for non-numbers.
func (e *Literal) Float64() (float64, bool) {
	switch v := e.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Int64 returns the value if it is an integer literal.
func (e *Literal) Int64() (int64, bool) {
	v, ok := e.Value.(int64)
	return v, ok
}

// Other atomic values

// NewThisMessage returns a self reference.
func NewThisMessage() *ThisMessage {
	return &ThisMessage{typ: types.Message}
}

// NewVarReference returns a reference to name (without the leading '@').
func NewVarReference(name string) *VarReference {
	return &VarReference{Name: strings.TrimPrefix(name, "@"), typ: types.Item}
}

// Compound values

// NewSet creates a set literal. Every value is narrowed to Primitive.
func NewSet(values []Expr) (*Set, error) {
	out := make([]Expr, len(values))
	for i, v := range values {
		c, err := Cast(v, types.Primitive)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return &Set{Values: out, typ: types.Set}, nil
}

// Subtypes is the union of the element types.
func (e *Set) Subtypes() types.DataType {
	r := types.None
	for _, v := range e.Values {
		r |= v.DataType()
	}
	return r
}

// NewRange creates a range literal. Bounds are narrowed to Number.
func NewRange(min, max Expr, excludeMin, excludeMax bool) (*Range, error) {
	lb, err := Cast(min, types.Number)
	if err != nil {
		return nil, err
	}
	ub, err := Cast(max, types.Number)
	if err != nil {
		return nil, err
	}
	return &Range{Min: lb, Max: ub, ExcludeMin: excludeMin, ExcludeMax: excludeMax, typ: types.Range}, nil
}

// Subtypes is always Number.
func (e *Range) Subtypes() types.DataType { return types.Number }

// Quantifiers

// NewQuantifier builds a quantifier from user input. Nested quantifiers
// may not redeclare the variable.
func NewQuantifier(kind QuantifierKind, variable string, domain, condition Expr) (*Quantifier, error) {
	return newQuantifier(kind, variable, domain, condition, false)
}

// NewFreshQuantifier builds a quantifier for rewritten trees, where a
// nested quantifier over the same name shadows the outer one.
func NewFreshQuantifier(kind QuantifierKind, variable string, domain, condition Expr) (*Quantifier, error) {
	return newQuantifier(kind, variable, domain, condition, true)
}

// Forall is NewFreshQuantifier(All, ...).
func Forall(variable string, domain, condition Expr) (*Quantifier, error) {
	return NewFreshQuantifier(All, variable, domain, condition)
}

// Exists is NewFreshQuantifier(Some, ...).
func Exists(variable string, domain, condition Expr) (*Quantifier, error) {
	return NewFreshQuantifier(Some, variable, domain, condition)
}

func newQuantifier(kind QuantifierKind, variable string, domain, condition Expr, shadow bool) (*Quantifier, error) {
	raw := &Quantifier{Kind: kind, Variable: variable, Domain: domain, Condition: condition}

	d, err := Cast(domain, types.Compound)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}
	if ContainsReference(d, variable) {
		return nil, sanityErrorf(ErrVariableInDomain,
			"cannot reference quantified variable '%s' in the domain of «%s»", variable, raw)
	}

	c, err := Cast(condition, types.Bool)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}

	elem := types.Primitive
	switch dom := d.(type) {
	case *Set:
		if st := dom.Subtypes(); st != types.None {
			elem = st
		}
	case *Range:
		elem = dom.Subtypes()
	}

	c, used, err := bindVariable(c, variable, elem, shadow)
	if err != nil {
		if se, ok := err.(*SanityError); ok && se.Code == ErrRedeclaredVariable {
			return nil, sanityErrorf(ErrRedeclaredVariable,
				"multiple definitions of variable '%s' in «%s»", variable, raw)
		}
		return nil, typeErrorInExpr(err, raw)
	}
	if used == 0 {
		return nil, sanityErrorf(ErrUnusedVariable,
			"quantified variable '%s' is never used in «%s»", variable, raw)
	}
	return &Quantifier{Kind: kind, Variable: variable, Domain: d, Condition: c}, nil
}

// bindVariable narrows every free occurrence of name in e to t and
// counts them. Nested quantifiers over name either shadow it or fail.
func bindVariable(e Expr, name string, t types.DataType, shadow bool) (Expr, int, error) {
	switch n := e.(type) {
	case *VarReference:
		if n.Name != name {
			return e, 0, nil
		}
		c, err := Cast(n, t)
		if err != nil {
			return nil, 0, err
		}
		return c, 1, nil
	case *Quantifier:
		if n.Variable == name {
			if !shadow {
				return nil, 0, &SanityError{Code: ErrRedeclaredVariable}
			}
			return e, 0, nil
		}
	}
	children := Children(e)
	if len(children) == 0 {
		return e, 0, nil
	}
	total := 0
	out := make([]Expr, len(children))
	for i, child := range children {
		c, used, err := bindVariable(child, name, t, shadow)
		if err != nil {
			return nil, 0, err
		}
		out[i] = c
		total += used
	}
	if total == 0 {
		return e, 0, nil
	}
	r, err := WithChildren(e, out)
	if err != nil {
		return nil, 0, err
	}
	return r, total, nil
}

// IsUniversal reports whether this is a forall quantifier.
func (e *Quantifier) IsUniversal() bool { return e.Kind == All }

// IsExistential reports whether this is an exists quantifier.
func (e *Quantifier) IsExistential() bool { return e.Kind == Some }

// Operators

// NewUnary applies op, narrowing the operand to the parameter type.
func NewUnary(op *UnaryOperatorDef, operand Expr) (*UnaryOperator, error) {
	a, err := Cast(operand, op.Parameter)
	if err != nil {
		return nil, typeErrorInExpr(err, &UnaryOperator{Op: op, Operand: operand})
	}
	return &UnaryOperator{Op: op, Operand: a}, nil
}

// Not is logical negation.
func Not(e Expr) (*UnaryOperator, error) { return NewUnary(OpNot, e) }

// Neg is arithmetic negation.
func Neg(e Expr) (*UnaryOperator, error) { return NewUnary(OpNeg, e) }

// NewBinary applies op, narrowing both operands to the parameter types.
func NewBinary(op *BinaryOperatorDef, a, b Expr) (*BinaryOperator, error) {
	raw := &BinaryOperator{Op: op, A: a, B: b}
	x, err := Cast(a, op.Parameter1)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}
	y, err := Cast(b, op.Parameter2)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}
	return &BinaryOperator{Op: op, A: x, B: y}, nil
}

// And builds a conjunction.
func And(a, b Expr) (*BinaryOperator, error) { return NewBinary(OpAnd, a, b) }

// Or builds a disjunction.
func Or(a, b Expr) (*BinaryOperator, error) { return NewBinary(OpOr, a, b) }

// Implies builds an implication.
func Implies(a, b Expr) (*BinaryOperator, error) { return NewBinary(OpImplies, a, b) }

// Iff builds an equivalence.
func Iff(a, b Expr) (*BinaryOperator, error) { return NewBinary(OpIff, a, b) }

// NewCall applies a function. Some overload must accept the argument
// types; when exactly one does, arguments are narrowed to it.
func NewCall(f *FunctionDef, args []Expr) (*FunctionCall, error) {
	raw := &FunctionCall{Function: f, Arguments: args}
	ts := make([]types.DataType, len(args))
	for i, a := range args {
		ts[i] = a.DataType()
	}
	sigs := f.match(ts)
	if len(sigs) == 0 {
		got := make([]string, len(ts))
		for i, t := range ts {
			got[i] = t.String()
		}
		return nil, typeErrorf(ErrFunctionArguments, "function '%s' expects %s but got (%s)",
			f.Name, f.parameterString(), strings.Join(got, ", "))
	}
	out := args
	if len(sigs) == 1 {
		out = make([]Expr, len(args))
		for i, a := range args {
			c, err := Cast(a, sigs[0].parameterAt(i))
			if err != nil {
				return nil, typeErrorInExpr(err, raw)
			}
			out[i] = c
		}
	}
	return &FunctionCall{Function: f, Arguments: out}, nil
}

// Accessors

// NewFieldAccess reads field from msg, narrowing msg to Message.
func NewFieldAccess(msg Expr, field string) (*FieldAccess, error) {
	m, err := Cast(msg, types.Message)
	if err != nil {
		return nil, typeErrorInExpr(err, &FieldAccess{Message: msg, Field: field})
	}
	return &FieldAccess{Message: m, Field: field, typ: accessorType}, nil
}

// SelfField is a shorthand for a field of the enclosing event's message.
func SelfField(field string) *FieldAccess {
	return &FieldAccess{Message: NewThisMessage(), Field: field, typ: accessorType}
}

// NewArrayAccess indexes array, narrowing it to Array and index to Number.
func NewArrayAccess(array, index Expr) (*ArrayAccess, error) {
	raw := &ArrayAccess{Array: array, Index: index}
	a, err := Cast(array, types.Array)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}
	i, err := Cast(index, types.Number)
	if err != nil {
		return nil, typeErrorInExpr(err, raw)
	}
	return &ArrayAccess{Array: a, Index: i, typ: accessorType}, nil
}

// IsAccessor reports whether e is a field or array access.
func IsAccessor(e Expr) bool {
	switch e.(type) {
	case *FieldAccess, *ArrayAccess:
		return true
	}
	return false
}

// IsValue reports whether e is a literal, reference, set or range.
func IsValue(e Expr) bool {
	switch e.(type) {
	case *Literal, *ThisMessage, *VarReference, *Set, *Range:
		return true
	}
	return false
}

// BaseObject follows an accessor chain down to its root value.
func BaseObject(e Expr) Expr {
	for {
		switch n := e.(type) {
		case *FieldAccess:
			e = n.Message
		case *ArrayAccess:
			e = n.Array
		default:
			return e
		}
	}
}

// Casting

// Cast narrows the type of e. The node is returned unchanged when the
// type already fits.
func Cast(e Expr, t types.DataType) (Expr, error) {
	cur := e.DataType()
	r, err := cur.Cast(t)
	if err != nil {
		return nil, typeErrorInExpr(err, e)
	}
	if r == cur {
		return e, nil
	}
	switch n := e.(type) {
	case *Literal:
		c := *n
		c.typ = r
		return &c, nil
	case *ThisMessage:
		c := *n
		c.typ = r
		return &c, nil
	case *VarReference:
		c := *n
		c.typ = r
		return &c, nil
	case *Set:
		c := *n
		c.typ = r
		return &c, nil
	case *Range:
		c := *n
		c.typ = r
		return &c, nil
	case *FieldAccess:
		c := *n
		c.typ = r
		return &c, nil
	case *ArrayAccess:
		c := *n
		c.typ = r
		return &c, nil
	}
	// Operators, calls and quantifiers have a fixed result type; a
	// non-empty narrower cast only happens for multi-overload calls.
	return e, nil
}

// Rendering

func (e *Literal) String() string     { return e.Token }
func (e *ThisMessage) String() string { return "" }
func (e *VarReference) String() string {
	return "@" + e.Name
}

func (e *Set) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (e *Range) String() string {
	lp, rp := "[", "]"
	if e.ExcludeMin {
		lp = "!["
	}
	if e.ExcludeMax {
		rp = "]!"
	}
	return fmt.Sprintf("%s%s to %s%s", lp, e.Min, e.Max, rp)
}

func (e *Quantifier) String() string {
	return fmt.Sprintf("(%s %s in %s: %s)", e.Kind, e.Variable, e.Domain, e.Condition)
}

func (e *UnaryOperator) String() string {
	op := e.Op.Token
	if op != "" {
		last := op[len(op)-1]
		if (last >= 'a' && last <= 'z') || (last >= 'A' && last <= 'Z') {
			op += " "
		}
	}
	return fmt.Sprintf("(%s%s)", op, e.Operand)
}

func (e *BinaryOperator) String() string {
	if e.Op.Infix {
		return fmt.Sprintf("(%s %s %s)", e.A, e.Op.Token, e.B)
	}
	return fmt.Sprintf("%s(%s, %s)", e.Op.Token, e.A, e.B)
}

func (e *FunctionCall) String() string {
	parts := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Function.Name, strings.Join(parts, ", "))
}

func (e *FieldAccess) String() string {
	msg := e.Message.String()
	if msg == "" {
		return e.Field
	}
	return msg + "." + e.Field
}

func (e *ArrayAccess) String() string {
	return fmt.Sprintf("%s[%s]", e.Array, e.Index)
}
