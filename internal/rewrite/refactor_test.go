package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/ast"
)

func mx(name string) ast.Expr {
	return must(ast.NewFieldAccess(ast.NewVarReference("m"), name))
}

func TestRefactorReference(t *testing.T) {
	x := field("x")
	i := ast.NewVarReference("i")
	domain := set(ast.Int(1), ast.Int(2))

	tests := []struct {
		name  string
		expr  ast.Expr
		indep string
		dep   string
	}{
		{"no reference", bin(ast.OpGt, x, ast.Int(0)), "(x > 0)", "True"},
		{"plain reference", bin(ast.OpGt, x, mx("x")), "True", "(x > @m.x)"},
		{
			"conjunction",
			bin(ast.OpAnd, bin(ast.OpGt, x, ast.Int(0)), bin(ast.OpLt, mx("x"), ast.Int(3))),
			"(x > 0)", "(@m.x < 3)",
		},
		{
			"conjunction reversed",
			bin(ast.OpAnd, bin(ast.OpLt, mx("x"), ast.Int(3)), bin(ast.OpGt, x, ast.Int(0))),
			"(x > 0)", "(@m.x < 3)",
		},
		{
			"both sides reference",
			bin(ast.OpAnd, bin(ast.OpLt, mx("x"), ast.Int(3)), bin(ast.OpGt, mx("y"), ast.Int(0))),
			"True", "((@m.x < 3) and (@m.y > 0))",
		},
		{
			"negated disjunction",
			not(bin(ast.OpOr, bin(ast.OpGt, x, ast.Int(0)), bin(ast.OpGt, mx("x"), ast.Int(0)))),
			"(not (x > 0))", "(not (@m.x > 0))",
		},
		{
			"negated implication",
			not(bin(ast.OpImplies, bin(ast.OpGt, x, ast.Int(0)), bin(ast.OpGt, mx("x"), ast.Int(0)))),
			"(x > 0)", "(not (@m.x > 0))",
		},
		{
			"universal",
			must(ast.Forall("i", domain, bin(ast.OpAnd, bin(ast.OpGt, i, ast.Int(0)), bin(ast.OpGt, mx("x"), i)))),
			"(forall i in {1, 2}: (@i > 0))", "(forall i in {1, 2}: (@m.x > @i))",
		},
		{
			"existential is indivisible",
			must(ast.Exists("i", domain, bin(ast.OpAnd, bin(ast.OpGt, i, ast.Int(0)), bin(ast.OpGt, mx("x"), i)))),
			"True", "(exists i in {1, 2}: ((@i > 0) and (@m.x > @i)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indep, dep, err := RefactorReference(tt.expr, "m")
			require.NoError(t, err)
			assert.Equal(t, tt.indep, indep.String())
			assert.Equal(t, tt.dep, dep.String())
			assert.False(t, ast.ContainsReference(indep, "m"))
		})
	}
}

func TestRefactorPredicate(t *testing.T) {
	p := must(ast.NewCondition(bin(ast.OpAnd, bin(ast.OpGt, field("x"), ast.Int(0)), bin(ast.OpLt, mx("x"), ast.Int(3)))))
	indep, dep, err := RefactorPredicate(p, "m")
	require.NoError(t, err)
	assert.Equal(t, "{ (x > 0) }", indep.String())
	assert.Equal(t, "{ (@m.x < 3) }", dep.String())

	p = must(ast.NewCondition(bin(ast.OpGt, field("x"), ast.Int(0))))
	indep, dep, err = RefactorPredicate(p, "m")
	require.NoError(t, err)
	assert.Same(t, p.Condition, indep.Condition)
	assert.True(t, dep.IsTrue())

	v := ast.VacuousTruth()
	indep, dep, err = RefactorPredicate(v, "m")
	require.NoError(t, err)
	assert.Same(t, v, indep)
	assert.True(t, dep.IsTrue())
}
