package rewrite

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/ast"
)

func guarded(channel string, cond ast.Expr) *ast.SimpleEvent {
	return ast.NewSimpleEvent(channel, must(ast.NewCondition(cond)), "")
}

func TestSimplifyProperty(t *testing.T) {
	a := field("a")
	scope := must(ast.NewScope(ast.AfterUntil,
		guarded("/start", bin(ast.OpAnd, a, ast.True())),
		guarded("/stop", bin(ast.OpOr, a, not(a)))))
	pattern := must(ast.NewPattern(ast.Response,
		either(event("/b"), guarded("/c", not(not(a)))),
		guarded("/d", bin(ast.OpGt, field("x"), ast.Int(0))),
		0, math.Inf(1)))
	p := must(ast.NewProperty(scope, pattern, ast.Metadata{ID: "resp"}))

	got, err := SimplifyProperty(p)
	require.NoError(t, err)
	assert.Equal(t,
		"after /start { a } until /stop { True }: /d { (x > 0) } causes (/b { True } or /c { a })",
		got.String())
	assert.Equal(t, "resp", got.Metadata.ID)
	assert.Same(t, p.Pattern.Trigger, got.Pattern.Trigger)
}

func TestSimplifyPropertyUnchanged(t *testing.T) {
	pattern := must(ast.NewPattern(ast.Absence, guarded("/a", bin(ast.OpGt, field("x"), ast.Int(1))), nil, 0, math.Inf(1)))
	p := must(ast.NewProperty(ast.Globally(), pattern, ast.Metadata{}))

	got, err := SimplifyProperty(p)
	require.NoError(t, err)
	assert.Same(t, p, got)

	s := ast.NewSpecification([]*ast.Property{p})
	gs, err := SimplifySpecification(s)
	require.NoError(t, err)
	assert.Same(t, s, gs)
}

func TestSimplifySpecification(t *testing.T) {
	a := field("a")
	p1 := must(ast.NewProperty(ast.Globally(),
		must(ast.NewPattern(ast.Existence, guarded("/a", bin(ast.OpAnd, a, a)), nil, 0, math.Inf(1))),
		ast.Metadata{}))
	p2 := must(ast.NewProperty(ast.Globally(),
		must(ast.NewPattern(ast.Absence, event("/b"), nil, 0, math.Inf(1))),
		ast.Metadata{}))

	got, err := SimplifySpecification(ast.NewSpecification([]*ast.Property{p1, p2}))
	require.NoError(t, err)
	require.Len(t, got.Properties, 2)
	assert.Equal(t, "globally: some /a { a }", got.Properties[0].String())
	assert.Same(t, p2, got.Properties[1])
}
