package ast

import (
	"fmt"
	"strings"

	"github.com/roach88/hpl/internal/types"
)

// Operator and quantifier tokens shared with the parser.
const (
	TokenNot     = "not"
	TokenAnd     = "and"
	TokenOr      = "or"
	TokenImplies = "implies"
	TokenIff     = "iff"
	TokenIn      = "in"
	TokenForall  = "forall"
	TokenExists  = "exists"
)

// UnaryOperatorDef describes a prefix operator.
type UnaryOperatorDef struct {
	Token     string
	Parameter types.DataType
	Result    types.DataType
}

func (d *UnaryOperatorDef) String() string { return d.Token }

// IsMinus reports whether this is arithmetic negation.
func (d *UnaryOperatorDef) IsMinus() bool { return d.Token == "-" }

// IsNot reports whether this is logical negation.
func (d *UnaryOperatorDef) IsNot() bool { return d.Token == TokenNot }

// BinaryOperatorDef describes an infix operator and its algebraic properties.
type BinaryOperatorDef struct {
	Token       string
	Parameter1  types.DataType
	Parameter2  types.DataType
	Result      types.DataType
	Infix       bool
	Commutative bool
	Associative bool
}

func (d *BinaryOperatorDef) String() string { return d.Token }

func (d *BinaryOperatorDef) IsPlus() bool     { return d.Token == "+" }
func (d *BinaryOperatorDef) IsMinus() bool    { return d.Token == "-" }
func (d *BinaryOperatorDef) IsTimes() bool    { return d.Token == "*" }
func (d *BinaryOperatorDef) IsDivision() bool { return d.Token == "/" }
func (d *BinaryOperatorDef) IsPower() bool    { return d.Token == "**" }
func (d *BinaryOperatorDef) IsAnd() bool      { return d.Token == TokenAnd }
func (d *BinaryOperatorDef) IsOr() bool       { return d.Token == TokenOr }
func (d *BinaryOperatorDef) IsImplies() bool  { return d.Token == TokenImplies }
func (d *BinaryOperatorDef) IsIff() bool      { return d.Token == TokenIff }
func (d *BinaryOperatorDef) IsInclusion() bool {
	return d.Token == TokenIn
}

// IsArithmetic reports whether the operator maps numbers to a number.
func (d *BinaryOperatorDef) IsArithmetic() bool {
	switch d.Token {
	case "+", "-", "*", "/", "**":
		return true
	}
	return false
}

// IsComparison reports whether the operator is a relational comparison.
func (d *BinaryOperatorDef) IsComparison() bool {
	switch d.Token {
	case "=", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// Built-in unary operators.
var (
	OpNeg = &UnaryOperatorDef{Token: "-", Parameter: types.Number, Result: types.Number}
	OpNot = &UnaryOperatorDef{Token: TokenNot, Parameter: types.Bool, Result: types.Bool}
)

func arith(token string, commutative bool) *BinaryOperatorDef {
	return &BinaryOperatorDef{
		Token: token, Parameter1: types.Number, Parameter2: types.Number, Result: types.Number,
		Infix: true, Commutative: commutative, Associative: commutative,
	}
}

func logic(token string, commutative, associative bool) *BinaryOperatorDef {
	return &BinaryOperatorDef{
		Token: token, Parameter1: types.Bool, Parameter2: types.Bool, Result: types.Bool,
		Infix: true, Commutative: commutative, Associative: associative,
	}
}

func relation(token string, param types.DataType, commutative bool) *BinaryOperatorDef {
	return &BinaryOperatorDef{
		Token: token, Parameter1: param, Parameter2: param, Result: types.Bool,
		Infix: true, Commutative: commutative,
	}
}

// Built-in binary operators.
var (
	OpAdd     = arith("+", true)
	OpSub     = arith("-", false)
	OpMul     = arith("*", true)
	OpDiv     = arith("/", false)
	OpPow     = arith("**", false)
	OpImplies = logic(TokenImplies, false, false)
	OpIff     = logic(TokenIff, true, false)
	OpOr      = logic(TokenOr, true, true)
	OpAnd     = logic(TokenAnd, true, true)
	OpEq      = relation("=", types.Primitive, true)
	OpNeq     = relation("!=", types.Primitive, true)
	OpLt      = relation("<", types.Number, false)
	OpLte     = relation("<=", types.Number, false)
	OpGt      = relation(">", types.Number, false)
	OpGte     = relation(">=", types.Number, false)
	OpIn      = &BinaryOperatorDef{
		Token: TokenIn, Parameter1: types.Primitive, Parameter2: types.Compound, Result: types.Bool,
		Infix: true,
	}
)

var binaryOperators = []*BinaryOperatorDef{
	OpAdd, OpSub, OpMul, OpDiv, OpPow,
	OpImplies, OpIff, OpOr, OpAnd,
	OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn,
}

// inverses maps an operator to the one obtained by swapping its operands.
var inverses = map[*BinaryOperatorDef]*BinaryOperatorDef{
	OpAdd: OpAdd,
	OpMul: OpMul,
	OpAnd: OpAnd,
	OpOr:  OpOr,
	OpIff: OpIff,
	OpEq:  OpEq,
	OpNeq: OpNeq,
	OpLt:  OpGt,
	OpGt:  OpLt,
	OpLte: OpGte,
	OpGte: OpLte,
}

// Inverse returns the operator d' such that (a d b) == (b d' a).
func (d *BinaryOperatorDef) Inverse() (*BinaryOperatorDef, bool) {
	inv, ok := inverses[d]
	return inv, ok
}

// LookupUnaryOperator finds a built-in unary operator by token.
func LookupUnaryOperator(token string) (*UnaryOperatorDef, error) {
	switch token {
	case OpNeg.Token:
		return OpNeg, nil
	case OpNot.Token:
		return OpNot, nil
	}
	return nil, fmt.Errorf("%q is not a valid unary operator", token)
}

// LookupBinaryOperator finds a built-in binary operator by token.
func LookupBinaryOperator(token string) (*BinaryOperatorDef, error) {
	for _, op := range binaryOperators {
		if op.Token == token {
			return op, nil
		}
	}
	return nil, fmt.Errorf("%q is not a valid binary operator", token)
}

// Signature is one overload of a function.
type Signature struct {
	Parameters []types.DataType
	Result     types.DataType
	Variadic   types.DataType // None when not variadic
}

// IsVariadic reports whether extra trailing arguments are accepted.
func (s Signature) IsVariadic() bool { return s.Variadic != types.None }

// Accepts reports whether argument types fit this overload.
func (s Signature) Accepts(args []types.DataType) bool {
	if len(s.Parameters) > len(args) {
		return false
	}
	if len(s.Parameters) < len(args) && !s.IsVariadic() {
		return false
	}
	for i, p := range s.Parameters {
		if !args[i].CanBe(p) {
			return false
		}
	}
	for _, a := range args[len(s.Parameters):] {
		if !a.CanBe(s.Variadic) {
			return false
		}
	}
	return true
}

// parameterAt returns the expected type of the i-th argument.
func (s Signature) parameterAt(i int) types.DataType {
	if i < len(s.Parameters) {
		return s.Parameters[i]
	}
	return s.Variadic
}

func (s Signature) String() string {
	parts := make([]string, 0, len(s.Parameters)+1)
	for _, p := range s.Parameters {
		parts = append(parts, p.String())
	}
	if s.IsVariadic() {
		parts = append(parts, "*"+s.Variadic.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FunctionDef is a named function with one or more overloads.
type FunctionDef struct {
	Name      string
	Overloads []Signature
}

func (f *FunctionDef) String() string { return f.Name }

// Result is the union of all overload result types.
func (f *FunctionDef) Result() types.DataType {
	r := types.None
	for _, sig := range f.Overloads {
		r |= sig.Result
	}
	return r
}

// match returns the overloads that accept the given argument types.
func (f *FunctionDef) match(args []types.DataType) []Signature {
	var out []Signature
	for _, sig := range f.Overloads {
		if sig.Accepts(args) {
			out = append(out, sig)
		}
	}
	return out
}

func (f *FunctionDef) parameterString() string {
	parts := make([]string, len(f.Overloads))
	for i, sig := range f.Overloads {
		parts[i] = sig.String()
	}
	return strings.Join(parts, " or ")
}

func fn(name string, sig ...types.DataType) *FunctionDef {
	return &FunctionDef{
		Name:      name,
		Overloads: []Signature{{Parameters: sig[:len(sig)-1], Result: sig[len(sig)-1]}},
	}
}

func aggregate(name string) *FunctionDef {
	return &FunctionDef{Name: name, Overloads: []Signature{
		{Parameters: []types.DataType{types.Compound}, Result: types.Number},
		{Parameters: []types.DataType{types.Number, types.Number}, Result: types.Number, Variadic: types.Number},
	}}
}

func orientation(name string) *FunctionDef {
	n := types.Number
	return &FunctionDef{Name: name, Overloads: []Signature{
		{Parameters: []types.DataType{types.Message}, Result: n},
		{Parameters: []types.DataType{n, n, n, n}, Result: n},
	}}
}

// Built-in functions.
var (
	FnAbs   = fn("abs", types.Number, types.Number)
	FnBool  = fn("bool", types.Primitive, types.Bool)
	FnInt   = fn("int", types.Primitive, types.Number)
	FnFloat = fn("float", types.Primitive, types.Number)
	FnStr   = fn("str", types.Primitive, types.String)
	FnLen   = fn("len", types.Compound, types.Number)
	FnSum   = fn("sum", types.Compound, types.Number)
	FnProd  = fn("prod", types.Compound, types.Number)
	FnSqrt  = fn("sqrt", types.Number, types.Number)
	FnCeil  = fn("ceil", types.Number, types.Number)
	FnFloor = fn("floor", types.Number, types.Number)
	FnLog   = fn("log", types.Number, types.Number, types.Number)
	FnSin   = fn("sin", types.Number, types.Number)
	FnCos   = fn("cos", types.Number, types.Number)
	FnTan   = fn("tan", types.Number, types.Number)
	FnAsin  = fn("asin", types.Number, types.Number)
	FnAcos  = fn("acos", types.Number, types.Number)
	FnAtan  = fn("atan", types.Number, types.Number)
	FnAtan2 = fn("atan2", types.Number, types.Number, types.Number)
	FnDeg   = fn("deg", types.Number, types.Number)
	FnRad   = fn("rad", types.Number, types.Number)
	FnMax   = aggregate("max")
	FnMin   = aggregate("min")
	FnGcd   = aggregate("gcd")
	FnRoll  = orientation("roll")
	FnPitch = orientation("pitch")
	FnYaw   = orientation("yaw")
)

var builtinFunctions = []*FunctionDef{
	FnAbs, FnBool, FnInt, FnFloat, FnStr, FnLen, FnSum, FnProd,
	FnSqrt, FnCeil, FnFloor, FnLog, FnSin, FnCos, FnTan,
	FnAsin, FnAcos, FnAtan, FnAtan2, FnDeg, FnRad,
	FnMax, FnMin, FnGcd, FnRoll, FnPitch, FnYaw,
}

// LookupFunction finds a built-in function by name.
func LookupFunction(name string) (*FunctionDef, error) {
	for _, f := range builtinFunctions {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%q is not a valid function", name)
}
