package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/types"
)

// must unwraps constructor results when building fixtures.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func sanityCode(t *testing.T, err error) string {
	t.Helper()
	var se *SanityError
	require.True(t, errors.As(err, &se), "expected SanityError, got %v", err)
	return se.Code
}

func typeCode(t *testing.T, err error) string {
	t.Helper()
	var te *TypeError
	require.True(t, errors.As(err, &te), "expected TypeError, got %v", err)
	return te.Code
}

func intSet(values ...int64) *Set {
	exprs := make([]Expr, len(values))
	for i, v := range values {
		exprs[i] = Int(v)
	}
	return must(NewSet(exprs))
}

func TestExprString(t *testing.T) {
	a := SelfField("a")
	m := NewVarReference("m")

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"self field", a, "a"},
		{"alias field", must(NewFieldAccess(m, "x")), "@m.x"},
		{"nested field", must(NewFieldAccess(a, "b")), "a.b"},
		{"array", must(NewArrayAccess(SelfField("arr"), Int(0))), "arr[0]"},
		{"binary", must(NewBinary(OpAdd, a, Int(1))), "(a + 1)"},
		{"not", must(Not(SelfField("b"))), "(not b)"},
		{"minus", must(Neg(a)), "(-a)"},
		{"call", must(NewCall(FnAbs, []Expr{a})), "abs(a)"},
		{"range", must(NewRange(Int(0), Int(10), false, true)), "[0 to 10]!"},
		{"open range", must(NewRange(Int(0), Int(10), true, false)), "![0 to 10]"},
		{"set", intSet(1, 2), "{1, 2}"},
		{"float", Float(0.5), "0.5"},
		{"whole float", Float(2), "2.0"},
		{"string", Str("hi"), `"hi"`},
		{"bool", True(), "True"},
		{
			"quantifier",
			must(NewQuantifier(All, "x", intSet(1, 2), must(NewBinary(OpGt, NewVarReference("x"), Int(0))))),
			"(forall x in {1, 2}: (@x > 0))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestOperatorsNarrowOperands(t *testing.T) {
	sum := must(NewBinary(OpAdd, SelfField("a"), Int(1)))
	assert.Equal(t, types.Number, sum.A.DataType(), "arithmetic operands are numbers")
	assert.Equal(t, types.Number, sum.DataType())

	eq := must(NewBinary(OpEq, SelfField("a"), Str("x")))
	assert.Equal(t, types.Primitive, eq.A.DataType(), "equality narrows to primitives only")

	_, err := NewBinary(OpAdd, Str("a"), Int(1))
	require.Error(t, err)
	assert.Equal(t, ErrTypeCast, typeCode(t, err))
}

func TestFunctionCallOverloads(t *testing.T) {
	call := must(NewCall(FnMax, []Expr{SelfField("a"), Int(2), Int(3)}))
	assert.Equal(t, types.Number, call.Arguments[0].DataType(), "single variadic overload narrows")

	_, err := NewCall(FnAbs, []Expr{Str("x")})
	require.Error(t, err)
	assert.Equal(t, ErrFunctionArguments, typeCode(t, err))

	_, err = NewCall(FnAtan2, []Expr{Int(1)})
	require.Error(t, err, "too few arguments")
}

func TestQuantifierNarrowsVariable(t *testing.T) {
	cond := must(NewBinary(OpEq, NewVarReference("x"), Str("a")))
	strs := must(NewSet([]Expr{Str("a"), Str("b")}))

	q, err := NewQuantifier(All, "x", strs, cond)
	require.NoError(t, err)
	body := q.Condition.(*BinaryOperator)
	assert.Equal(t, types.String, body.A.DataType(), "variable takes the set element type")

	rng := must(NewRange(Int(0), Int(5), false, false))
	cond = must(NewBinary(OpEq, NewVarReference("x"), SelfField("v")))
	q, err = NewQuantifier(Some, "x", rng, cond)
	require.NoError(t, err)
	body = q.Condition.(*BinaryOperator)
	assert.Equal(t, types.Number, body.A.DataType(), "range variables are numbers")
}

func TestQuantifierInvariants(t *testing.T) {
	x := NewVarReference("x")
	gt := must(NewBinary(OpGt, x, Int(0)))

	t.Run("unused variable", func(t *testing.T) {
		_, err := NewQuantifier(All, "x", intSet(1), True())
		require.Error(t, err)
		assert.Equal(t, ErrUnusedVariable, sanityCode(t, err))
	})

	t.Run("variable in domain", func(t *testing.T) {
		domain := must(NewFieldAccess(x, "items"))
		_, err := NewQuantifier(All, "x", domain, gt)
		require.Error(t, err)
		assert.Equal(t, ErrVariableInDomain, sanityCode(t, err))
	})

	t.Run("redeclared variable", func(t *testing.T) {
		inner := must(NewQuantifier(All, "x", intSet(1), gt))
		body := must(And(gt, inner))
		_, err := NewQuantifier(Some, "x", intSet(2), body)
		require.Error(t, err)
		assert.Equal(t, ErrRedeclaredVariable, sanityCode(t, err))

		q, err := NewFreshQuantifier(Some, "x", intSet(2), body)
		require.NoError(t, err, "engine-built quantifiers may shadow")
		assert.True(t, q.IsExistential())
	})

	t.Run("non-boolean condition", func(t *testing.T) {
		_, err := NewQuantifier(All, "x", intSet(1), must(NewBinary(OpAdd, x, Int(1))))
		require.Error(t, err)
		assert.True(t, IsTypeError(err))
	})
}

func TestEqualIgnoresTypes(t *testing.T) {
	a := SelfField("a")
	narrowed := must(Cast(a, types.Number))

	assert.True(t, Equal(a, narrowed))
	assert.True(t, Equal(Int(1), Float(1.0)), "numbers compare by value")
	assert.False(t, Equal(Int(1), True()))
	assert.False(t, Equal(
		must(NewBinary(OpSub, a, Int(1))),
		must(NewBinary(OpSub, Int(1), a)),
	))
}

func TestRebuildKeepsIdentityAndNarrowing(t *testing.T) {
	sum := must(NewBinary(OpAdd, SelfField("a"), Int(1)))
	same, err := WithChildren(sum, Children(sum))
	require.NoError(t, err)
	assert.Same(t, sum, same)

	field := must(Cast(must(NewFieldAccess(NewVarReference("m"), "x")), types.Number))
	replaced, err := Replace(field, func(e Expr) bool {
		v, ok := e.(*VarReference)
		return ok && v.Name == "m"
	}, NewThisMessage())
	require.NoError(t, err)
	assert.Equal(t, "x", replaced.String())
	assert.Equal(t, types.Number, replaced.DataType(), "rebuilt nodes keep their narrowed type")
}

func TestReferenceQueries(t *testing.T) {
	m := must(NewFieldAccess(NewVarReference("m"), "items"))
	cond := must(NewBinary(OpEq, NewVarReference("x"), must(NewFieldAccess(NewVarReference("n"), "v"))))
	q := must(NewQuantifier(All, "x", m, cond))

	assert.Equal(t, []string{"m", "n"}, FreeVariables(q))
	assert.True(t, ContainsReference(q, "x"))
	assert.True(t, ContainsDefinition(q, "x"))
	assert.False(t, ContainsSelfReference(q))
	assert.True(t, ContainsSelfReference(SelfField("a")))
	assert.Same(t, m.Message, BaseObject(m))
}
