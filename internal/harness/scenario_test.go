package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "split.yaml", `
name: split
description: "disjunctive trigger"
kind: property
input: "globally: (/a or /b) causes /c"
operations:
  - op: canonical
    expect:
      - "globally: /a { True } causes /c { True }"
      - "globally: /b { True } causes /c { True }"
  - op: sanity
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "split", scenario.Name)
	assert.Equal(t, KindProperty, scenario.Kind)
	require.Len(t, scenario.Operations, 2)
	assert.Equal(t, OpCanonical, scenario.Operations[0].Op)
	assert.Len(t, scenario.Operations[0].Expect, 2)
	assert.Empty(t, scenario.Operations[1].Expect)
}

func TestLoadScenario_ResolvesSchemas(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "typed.yaml", `
name: typed
description: "schemas next to the scenario"
kind: property
schemas: robot
input: "globally: some /scan"
operations:
  - op: typecheck
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "robot"), scenario.Schemas)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled operations"
kind: property
input: "globally: some /a"
operation:
  - op: sanity
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	base := "name: n\ndescription: d\n"
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "description: d\nkind: property\ninput: x\noperations: [{op: sanity}]", "name is required"},
		{"missing description", "name: n\nkind: property\ninput: x\noperations: [{op: sanity}]", "description is required"},
		{"missing kind", base + "input: x\noperations: [{op: sanity}]", "kind is required"},
		{"unknown kind", base + "kind: event\ninput: x\noperations: [{op: sanity}]", `unknown kind "event"`},
		{"missing input", base + "kind: property\noperations: [{op: sanity}]", "input is required"},
		{"no operations", base + "kind: property\ninput: x", "operations list is required"},
		{"unknown op", base + "kind: property\ninput: x\noperations: [{op: explode}]", `unknown op "explode"`},
		{"expect and error", base + "kind: property\ninput: x\noperations: [{op: split, expect: [a], error: E101}]", "exclusive"},
		{"refactor without alias", base + "kind: predicate\ninput: x\noperations: [{op: refactor}]", "alias is required"},
		{"refactor on property", base + "kind: property\ninput: x\noperations: [{op: refactor, alias: m}]", "needs a predicate"},
		{"canonical on predicate", base + "kind: predicate\ninput: x\noperations: [{op: canonical}]", "property or specification"},
		{"typecheck without schemas", base + "kind: property\ninput: x\noperations: [{op: typecheck}]", "needs schemas"},
		{"parse error with operations", base + "kind: property\ninput: x\nparse_error: E101\noperations: [{op: sanity}]", "cannot have operations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	for i := 1; i < len(scenarios); i++ {
		assert.NotEqual(t, scenarios[i-1].Name, scenarios[i].Name)
	}

	_, err = LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
