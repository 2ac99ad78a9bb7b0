package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/ast"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func field(name string) ast.Expr { return ast.SelfField(name) }

func bin(op *ast.BinaryOperatorDef, a, b ast.Expr) ast.Expr {
	return must(ast.NewBinary(op, a, b))
}

func not(e ast.Expr) ast.Expr { return must(ast.Not(e)) }

func call(f *ast.FunctionDef, args ...ast.Expr) ast.Expr {
	return must(ast.NewCall(f, args))
}

func set(values ...ast.Expr) *ast.Set { return must(ast.NewSet(values)) }

func TestSimplify(t *testing.T) {
	a, b, x := field("a"), field("b"), field("x")

	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"double negation", not(not(a)), "a"},
		{"not true", not(ast.True()), "False"},
		{"and true", bin(ast.OpAnd, a, ast.True()), "a"},
		{"and false", bin(ast.OpAnd, ast.False(), a), "False"},
		{"excluded middle", bin(ast.OpOr, a, not(a)), "True"},
		{"contradiction", bin(ast.OpAnd, not(a), a), "False"},
		{"repeated conjunct", bin(ast.OpAnd, bin(ast.OpAnd, a, b), a), "(a and b)"},
		{"implies self", bin(ast.OpImplies, a, a), "True"},
		{"implies", bin(ast.OpImplies, a, b), "((not a) or b)"},
		{"iff self", bin(ast.OpIff, a, a), "True"},
		{"iff negation", bin(ast.OpIff, a, not(a)), "False"},
		{"literal to the right", bin(ast.OpLt, ast.Int(1), x), "(x > 1)"},
		{"self to the left", bin(ast.OpEq, must(ast.NewFieldAccess(ast.NewVarReference("m"), "x")), x), "(x = @m.x)"},
		{"add zero", bin(ast.OpAdd, x, ast.Int(0)), "x"},
		{"literal sum", bin(ast.OpAdd, ast.Int(2), ast.Int(3)), "5"},
		{"literal product", bin(ast.OpMul, ast.Int(2), ast.Float(3.5)), "7.0"},
		{"literal quotient", bin(ast.OpDiv, ast.Int(10), ast.Int(4)), "2.5"},
		{"literal power", bin(ast.OpPow, ast.Int(2), ast.Int(10)), "1024"},
		{"power zero", bin(ast.OpPow, x, ast.Int(0)), "1"},
		{"self difference", bin(ast.OpSub, x, x), "0"},
		{"minus negative", bin(ast.OpSub, x, must(ast.Neg(field("y")))), "(x + y)"},
		{"times minus one", bin(ast.OpMul, x, ast.Int(-1)), "(-x)"},
		{"division by zero", bin(ast.OpDiv, x, ast.Int(0)), "(x / 0)"},
		{"regroup literals", bin(ast.OpAdd, bin(ast.OpAdd, x, ast.Int(1)), ast.Int(2)), "(x + 3)"},
		{"literal first", bin(ast.OpAdd, ast.Int(1), x), "(x + 1)"},
		{"scattered literals", bin(ast.OpEq,
			bin(ast.OpAdd, bin(ast.OpAdd, bin(ast.OpAdd, bin(ast.OpAdd, ast.Int(1), a), ast.Int(2)), b), ast.Int(3)),
			field("c")), "(c = ((a + b) + 6))"},
		{"scattered factors", bin(ast.OpMul, bin(ast.OpMul, ast.Int(2), x), bin(ast.OpMul, ast.Int(3), field("y"))), "((x * y) * 6)"},
		{"factors cancel to zero", bin(ast.OpMul, bin(ast.OpMul, ast.Int(0), x), field("y")), "0"},
		{"difference is zero", bin(ast.OpEq, bin(ast.OpSub, a, b), ast.Int(0)), "(a = b)"},
		{"difference is not zero", bin(ast.OpNeq, bin(ast.OpSub, a, b), ast.Int(0)), "(a != b)"},
		{"difference contradicts inequality", bin(ast.OpAnd,
			bin(ast.OpEq, bin(ast.OpSub, a, b), ast.Int(0)),
			not(bin(ast.OpEq, a, b))), "False"},
		{"shifted value", bin(ast.OpEq, bin(ast.OpAdd, x, ast.Int(1)), x), "False"},
		{"shifted inequality", bin(ast.OpNeq, x, bin(ast.OpSub, x, ast.Int(2))), "True"},
		{"scaled value kept", bin(ast.OpEq, x, bin(ast.OpMul, x, ast.Int(2))), "(x = (x * 2))"},
		{"literal comparison", bin(ast.OpGte, ast.Int(3), ast.Float(3.0)), "True"},
		{"string equality", bin(ast.OpEq, ast.Str("a"), ast.Str("b")), "False"},
		{"negative literal", must(ast.Neg(ast.Int(3))), "-3"},
		{"abs", call(ast.FnAbs, must(ast.Neg(ast.Int(3)))), "3"},
		{"sqrt of negative", call(ast.FnSqrt, ast.Int(-1)), "sqrt(-1)"},
		{"len of set", call(ast.FnLen, set(ast.Int(1), ast.Int(2), ast.Int(3))), "3"},
		{"len of range", call(ast.FnLen, must(ast.NewRange(ast.Int(0), ast.Int(10), false, true))), "10"},
		{"partial sum", call(ast.FnSum, set(ast.Int(1), ast.Int(2), x)), "(x + 3)"},
		{"range product", call(ast.FnProd, must(ast.NewRange(ast.Int(1), ast.Int(5), false, false))), "120"},
		{"max", call(ast.FnMax, ast.Int(1), ast.Int(5), ast.Int(3)), "5"},
		{"partial min", call(ast.FnMin, x, ast.Int(4), ast.Int(2)), "min(x, 2)"},
		{"gcd", call(ast.FnGcd, ast.Int(12), ast.Int(18)), "6"},
		{"log10", call(ast.FnLog, ast.Int(1000), ast.Int(10)), "3.0"},
		{"floor", call(ast.FnFloor, ast.Float(2.7)), "2"},
		{"str", call(ast.FnStr, ast.Int(42)), `"42"`},
		{"inclusion", bin(ast.OpIn, ast.Int(3), set(ast.Int(1), ast.Int(2))), "False"},
		{"range inclusion", bin(ast.OpIn, ast.Int(3), must(ast.NewRange(ast.Int(0), ast.Int(3), false, false))), "True"},
		{"set dedupe", set(ast.Int(1), ast.Int(2), ast.Int(1)), "{1, 2}"},
		{"empty forall", must(ast.Forall("i", set(), bin(ast.OpGt, ast.NewVarReference("i"), ast.Int(0)))), "True"},
		{"trivial forall", must(ast.Forall("i", set(ast.Int(1)), bin(ast.OpOr, bin(ast.OpGt, ast.NewVarReference("i"), ast.Int(0)), ast.True()))), "True"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.expr)
			assert.Equal(t, tt.want, got.String())

			again := Simplify(got)
			assert.True(t, ast.Equal(got, again), "not idempotent: %s then %s", got, again)
		})
	}
}

func TestSimplifyKeepsIdentity(t *testing.T) {
	e := bin(ast.OpGt, field("x"), ast.Int(1))
	assert.Same(t, e, Simplify(e))

	q := must(ast.Exists("i", set(ast.Int(1), ast.Int(2)), bin(ast.OpEq, field("x"), ast.NewVarReference("i"))))
	assert.Same(t, q, Simplify(q))
}

func TestSimplifyPredicate(t *testing.T) {
	a := field("a")

	p := must(ast.NewCondition(bin(ast.OpOr, a, not(a))))
	got := SimplifyPredicate(p)
	assert.True(t, got.IsTrue())

	p = must(ast.NewCondition(bin(ast.OpAnd, a, ast.True())))
	got = SimplifyPredicate(p)
	require.False(t, got.IsVacuous())
	assert.Equal(t, "{ a }", got.String())

	v := ast.VacuousTruth()
	assert.Same(t, v, SimplifyPredicate(v))
}
