package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hpl/internal/ir"
)

// Snapshot converts a result into the canonical JSON stored in golden
// files.
func Snapshot(name string, result *Result) ([]byte, error) {
	steps := make(ir.IRArray, len(result.Steps))
	for i, s := range result.Steps {
		output := make(ir.IRArray, len(s.Output))
		for j, line := range s.Output {
			output[j] = ir.IRString(line)
		}
		step := ir.IRObject{
			"op":     ir.IRString(s.Op),
			"output": output,
		}
		if s.Alias != "" {
			step["alias"] = ir.IRString(s.Alias)
		}
		if s.Error != "" {
			step["error"] = ir.IRString(s.Error)
		}
		steps[i] = step
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"pass":     ir.IRBool(result.Pass),
		"steps":    steps,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
