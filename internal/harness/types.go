package harness

import (
	"fmt"
	"strings"
)

// Step is the observed outcome of one operation.
type Step struct {
	Op     string   `json:"op"`
	Alias  string   `json:"alias,omitempty"`
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"` // E-code of the failure, if any
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expectation.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed operation, in order.
	Steps []Step `json:"steps"`

	// Errors contains mismatch descriptions. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []Step{},
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// MismatchError describes a step whose outcome differs from what the
// scenario expects.
type MismatchError struct {
	Index    int
	Op       string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "operations[%d] %s: mismatch\n", e.Index, e.Op)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

func quoteAll(lines []string) string {
	if len(lines) == 0 {
		return "[]"
	}
	q := make([]string, len(lines))
	for i, l := range lines {
		q[i] = fmt.Sprintf("%q", l)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
