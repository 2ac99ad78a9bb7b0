package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance check over one piece of HPL text. The input
// is parsed according to Kind and each operation runs against the
// parsed value, in order.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kind selects the parser entry point.
	Kind string `yaml:"kind"`

	// Input is the HPL source.
	Input string `yaml:"input"`

	// ParseError, when set, is the code the input must fail to parse
	// with. Scenarios that expect a parse error have no operations.
	ParseError string `yaml:"parse_error,omitempty"`

	// Schemas is an optional directory of CUE message schemas, relative
	// to the scenario file. It is required by the typecheck operation.
	Schemas string `yaml:"schemas,omitempty"`

	Operations []Operation `yaml:"operations,omitempty"`
}

// Operation is one step of a scenario. Exactly one of Expect and Error
// is checked: when Error is set the step must fail with that code.
type Operation struct {
	Op     string   `yaml:"op"`
	Alias  string   `yaml:"alias,omitempty"`
	Expect []string `yaml:"expect,omitempty"`
	Error  string   `yaml:"error,omitempty"`
}

// Input kinds.
const (
	KindProperty      = "property"
	KindSpecification = "specification"
	KindPredicate     = "predicate"
)

// Operation names.
const (
	OpCanonical = "canonical"
	OpSimplify  = "simplify"
	OpSplit     = "split"
	OpRefactor  = "refactor"
	OpSanity    = "sanity"
	OpTypeCheck = "typecheck"
)

var knownOps = map[string]bool{
	OpCanonical: true,
	OpSimplify:  true,
	OpSplit:     true,
	OpRefactor:  true,
	OpSanity:    true,
	OpTypeCheck: true,
}

// LoadScenario reads a scenario file. Unknown fields are rejected so
// that typos do not silently skip checks. A relative schemas path is
// resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if scenario.Schemas != "" && !filepath.IsAbs(scenario.Schemas) {
		scenario.Schemas = filepath.Join(filepath.Dir(path), scenario.Schemas)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Kind {
	case KindProperty, KindSpecification, KindPredicate:
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	if s.Input == "" {
		return fmt.Errorf("input is required")
	}

	if s.ParseError != "" {
		if len(s.Operations) > 0 {
			return fmt.Errorf("parse_error scenarios cannot have operations")
		}
		return nil
	}
	if len(s.Operations) == 0 {
		return fmt.Errorf("operations list is required and must be non-empty")
	}
	for i, op := range s.Operations {
		if err := validateOperation(i, s, &op); err != nil {
			return err
		}
	}
	return nil
}

func validateOperation(index int, s *Scenario, op *Operation) error {
	if !knownOps[op.Op] {
		return fmt.Errorf("operations[%d]: unknown op %q", index, op.Op)
	}
	if op.Error != "" && len(op.Expect) > 0 {
		return fmt.Errorf("operations[%d]: expect and error are exclusive", index)
	}
	switch op.Op {
	case OpRefactor:
		if op.Alias == "" {
			return fmt.Errorf("operations[%d]: alias is required for refactor", index)
		}
		if s.Kind != KindPredicate {
			return fmt.Errorf("operations[%d]: refactor needs a predicate input", index)
		}
	case OpCanonical:
		if s.Kind == KindPredicate {
			return fmt.Errorf("operations[%d]: canonical needs a property or specification input", index)
		}
	case OpTypeCheck:
		if s.Schemas == "" {
			return fmt.Errorf("operations[%d]: typecheck needs schemas", index)
		}
		if s.Kind == KindPredicate {
			return fmt.Errorf("operations[%d]: typecheck needs a property or specification input", index)
		}
	}
	return nil
}
