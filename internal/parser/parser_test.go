package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/ast"
)

func TestParseProperty(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"existence", "globally: some /a", "globally: some /a { True }"},
		{"absence with predicate", "globally: no /a {x > 0}", "globally: no /a { (x > 0) }"},
		{"after scope", "after /p: some /b within 2s", "after /p { True }: some /b { True } within 2.0s"},
		{"after until", "after /p until /q: no /b", "after /p { True } until /q { True }: no /b { True }"},
		{"until scope", "until ~stop: some /b", "until ~stop { True }: some /b { True }"},
		{"response", "globally: /a as M causes /b {x = @M.x} within 100ms",
			"globally: /a as M { True } causes /b { (x = @M.x) } within 0.1s"},
		{"requirement", "globally: /b as M requires /a {x = @M.x}",
			"globally: /b as M { True } requires /a { (x = @M.x) }"},
		{"prevention", "globally: /a forbids /b", "globally: /a { True } forbids /b { True }"},
		{"nested channel", "globally: some /robot/odom {pose.x >= 1.5}", "globally: some /robot/odom { (pose.x >= 1.5) }"},
		{"disjunction", "globally: some (/a or /b {x})", "globally: some (/a { True } or /b { x })"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProperty(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestParsePropertyRoundTrip(t *testing.T) {
	inputs := []string{
		"globally: some /a { ((x + 1) * 2) = 4 }",
		"after /p as P: /a as M causes /b { (x = @M.x) and (y < @P.y) } within 0.5s",
		"globally: no /a { forall i in [0 to 3]!: arr[@i] > 0 }",
	}
	for _, input := range inputs {
		first, err := ParseProperty(input)
		require.NoError(t, err, input)
		second, err := ParseProperty(first.String())
		require.NoError(t, err, first.String())
		assert.True(t, first.Equal(second), "%s != %s", first, second)
	}
}

func TestParseTimeBounds(t *testing.T) {
	p, err := ParseProperty("globally: some /a within 250ms")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p.Pattern.MaxTime, 1e-12)

	p, err = ParseProperty("globally: some /a")
	require.NoError(t, err)
	assert.True(t, math.IsInf(p.Pattern.MaxTime, 1))
}

func TestParseMetadata(t *testing.T) {
	src := `# id: safe_stop
# title: "Safe stop"
# description: "The robot stops \"quickly\"."
globally: /bumper causes /stop within 1s`

	p, err := ParseProperty(src)
	require.NoError(t, err)
	assert.Equal(t, ast.Metadata{
		ID:          "safe_stop",
		Title:       "Safe stop",
		Description: `The robot stops "quickly".`,
	}, p.Metadata)
}

func TestParseSpecification(t *testing.T) {
	src := `
# id: one
globally: some /a

# id: two
after /b: no /c {x in {1, 2, 3}}
`
	spec, err := ParseSpecification(src)
	require.NoError(t, err)
	require.Len(t, spec.Properties, 2)
	assert.Equal(t, "one", spec.Properties[0].Metadata.ID)
	assert.Equal(t, "two", spec.Properties[1].Metadata.ID)
	assert.Equal(t, "after /b { True }: no /c { (x in {1, 2, 3}) }", spec.Properties[1].String())

	_, err = ParseSpecification("  \n")
	require.Error(t, err)
	assert.True(t, IsSyntaxError(err))
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a or b and c", "(a or (b and c))"},
		{"a implies b implies c", "((a implies b) implies c)"},
		{"not a = 1", "(not (a = 1))"},
		{"-x ** 2", "((-x) ** 2)"},
		{"1 + 2 * 3 - 4", "((1 + (2 * 3)) - 4)"},
		{"x / y", "(x / y)"},
		{"a[0] != 1", "(a[0] != 1)"},
		{"abs(x - @m.x) < 0.5", "(abs((x - @m.x)) < 0.5)"},
		{"max(1, x, 3) >= PI", "(max(1, x, 3) >= PI)"},
		{"exists i in {1, 2}: @i = x", "(exists i in {1, 2}: (@i = x))"},
		{"x in ![0 to 1]", "(x in ![0 to 1])"},
		{`name = "bob"`, `(name = "bob")`},
		{"ok = True", "(ok = True)"},
		{"3.5e2 > 1", "(3.5e2 > 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseCondition(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParseStringValue(t *testing.T) {
	e, err := ParseCondition(`"a\tb"`)
	require.NoError(t, err)
	lit, ok := e.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "a\tb", lit.Value)
	assert.Equal(t, `"a\tb"`, lit.Token)
}

func TestParsePredicate(t *testing.T) {
	p, err := ParsePredicate("{ x > 0 and y }")
	require.NoError(t, err)
	assert.Equal(t, "{ ((x > 0) and y) }", p.String())

	// Standalone predicates may refer only to variables.
	p, err = ParsePredicate("{ @m.x > 0 }")
	require.NoError(t, err)
	assert.False(t, p.ContainsSelfReference())
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		line  int
		col   int
	}{
		{"missing colon", "globally some /a", ErrSyntax, 1, 10},
		{"unknown pattern", "globally: /a likes /b", ErrSyntax, 1, 14},
		{"bad unit", "globally: some /a within 3h", ErrSyntax, 1, 27},
		{"unterminated string", "globally: some /a {x = \"abc}", ErrSyntax, 1, 24},
		{"unclosed predicate", "globally: some /a {x > 0", ErrSyntax, 1, 25},
		{"reserved alias", "globally: some /a as and", ErrSyntax, 1, 22},
		{"unknown function", "globally: some /a {foo(x)}", ErrSyntax, 1, 20},
		{"trailing input", "globally: some /a }", ErrSyntax, 1, 19},
		{"duplicate metadata", "# id: a\n# id: b\nglobally: some /a", ErrDuplicateMetadata, 2, 3},
		{"second line", "globally:\n  some /a {x >}", ErrSyntax, 2, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProperty(tt.input)
			require.Error(t, err)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, Pos{Line: tt.line, Col: tt.col}, se.Pos)
		})
	}
}

func TestConstructorErrorsCarryPosition(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"no self reference", "globally: /a as M causes /b {@M.x > 0}", ast.IsSanityError},
		{"undefined alias", "globally: some /b {x = @Q.x}", ast.IsSanityError},
		{"type mismatch", `globally: some /a {x + "s" > 0}`, ast.IsTypeError},
		{"redeclared variable", "globally: some /a {forall i in {1}: exists i in {2}: x = @i}", ast.IsSanityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProperty(tt.input)
			require.Error(t, err)
			var pe *PositionError
			require.ErrorAs(t, err, &pe)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, 1, pe.Pos.Line)
		})
	}
}

func TestChannelLexing(t *testing.T) {
	l := newLexer("  ~private/topic_2 {")
	tok, err := l.channel()
	require.NoError(t, err)
	assert.Equal(t, "~private/topic_2", tok.text)
	assert.Equal(t, Pos{Line: 1, Col: 3}, tok.pos)

	_, err = newLexer("/1a").channel()
	require.Error(t, err)
}
