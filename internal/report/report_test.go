package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/ir"
	"github.com/roach88/hpl/internal/parser"
)

const source = `# id: safe_stop
# title: "Safe stop"
# description: "The robot stops after a bump."
globally: (/bumper or /emergency) causes /stop within 1s

after /ready: no /fault
`

func parse(t *testing.T) *ast.Specification {
	t.Helper()
	s, err := parser.ParseSpecification(source)
	require.NoError(t, err)
	return s
}

func TestMarkdown(t *testing.T) {
	s := parse(t)
	md, err := Markdown(s)
	require.NoError(t, err)
	text := string(md)

	specID, err := ir.SpecificationID(s)
	require.NoError(t, err)
	assert.Contains(t, text, "Specification `"+specID[:shortID]+"`, 2 properties.")

	assert.Contains(t, text, "## safe_stop: Safe stop\n\nThe robot stops after a bump.\n")
	assert.Contains(t, text, "## Property 2\n")
	assert.Contains(t, text, "- Class: liveness\n- Scope: globally\n- Pattern: response\n")
	assert.Contains(t, text, "- ID: `"+ir.MustPropertyID(s.Properties[0])[:shortID]+"`")
	assert.Contains(t, text, "Canonical forms:\n\n```\n"+
		"globally: /bumper { True } causes /stop { True } within 1.0s\n"+
		"globally: /emergency { True } causes /stop { True } within 1.0s\n```\n")

	// Only the first property splits.
	assert.Equal(t, 1, strings.Count(text, "Canonical forms:"))
}

func TestHeading(t *testing.T) {
	tests := []struct {
		meta ast.Metadata
		want string
	}{
		{ast.Metadata{ID: "p", Title: "T"}, "p: T"},
		{ast.Metadata{Title: "T"}, "T"},
		{ast.Metadata{ID: "p"}, "p"},
		{ast.Metadata{}, "Property 4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, heading(3, tt.meta))
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML(parse(t))
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "<h1>HPL specification</h1>")
	assert.Contains(t, text, "<h2>safe_stop: Safe stop</h2>")
	assert.Contains(t, text, "<pre><code>globally: (/bumper { True } or /emergency { True }) causes /stop { True } within 1.0s\n</code></pre>")
	assert.Contains(t, text, "<li>Class: safety</li>")
}

func TestWritePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePage(&buf, parse(t), "Robot <rules>", []string{"/static/hpl.css"}))
	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "<!DOCTYPE html>"))
	assert.Contains(t, text, "<title>Robot &lt;rules&gt;</title>")
	assert.Contains(t, text, `<link href="/static/hpl.css" rel="stylesheet">`)
	assert.Contains(t, text, "<h2>Property 2</h2>")
}
