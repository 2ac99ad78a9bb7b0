package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenario copies one harness scenario into dir/scenarios.
func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(harnessScenarios, name+".yaml"))
	require.NoError(t, err)
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, name+".yaml"), data, 0644))
	return scenarios
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := executeTest(t, "text", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ response_trigger_split")
	assert.Contains(t, out, "✓ robot_typecheck")
	assert.Contains(t, out, "Test Summary: 14 passed, 0 failed, 14 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := executeTest(t, "json", harnessScenarios, "--filter", "predicate_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Total)
	assert.Equal(t, 4, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
	}
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeTest(t, "text", harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	scenarios := copyScenario(t, dir, "predicate_split")

	out, err := executeTest(t, "text", scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ predicate_split (golden updated)")

	golden := filepath.Join(dir, "golden", "predicate_split.golden")
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "predicate_split.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	out, err = executeTest(t, "text", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ predicate_split\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	scenarios := copyScenario(t, dir, "predicate_split")
	goldenDir := filepath.Join(dir, "expected")
	require.NoError(t, os.MkdirAll(goldenDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "predicate_split.golden"), []byte(`{}`), 0644))

	out, err := executeTest(t, "text", scenarios, "--golden", goldenDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ predicate_split")
	assert.Contains(t, out, "do not match golden file")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandExpectationFailure(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "wrong.yaml"), []byte(`name: wrong
kind: predicate
input: "{ a and b }"
operations:
  - op: split
    expect: ["a"]
`), 0644))

	out, err := executeTest(t, "json", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "operations[0] split: mismatch")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nbogus: 1\n"), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
