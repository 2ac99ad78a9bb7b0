package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			require.NoError(t, AssertGolden(t, scenario.Name, result))
		})
	}
}

func TestRunWithGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/response_trigger_split.yaml")
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestSnapshot(t *testing.T) {
	result := NewResult()
	result.Steps = append(result.Steps,
		Step{Op: OpRefactor, Alias: "m", Output: []string{"{ True }", "{ (x > @m.x) }"}},
		Step{Op: OpSplit, Output: []string{}, Error: codeUnsatisfiable},
	)

	data, err := Snapshot("snap", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"pass":true,"scenario":"snap","steps":[{"alias":"m","op":"refactor","output":["{ True }","{ (x > @m.x) }"]},{"error":"unsatisfiable","op":"split","output":[]}]}`,
		string(data))
}
