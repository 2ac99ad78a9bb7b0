package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schemas string // CUE schema directory, optional
}

// ValidationError is one property that failed schema checking.
type ValidationError struct {
	Property int    `json:"property"` // 1-based
	Name     string `json:"name,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Properties int               `json:"properties"`
	Typed      bool              `json:"typed"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check an HPL file for errors",
		Long: `Parse an HPL file and run the sanity checks on every property.

With --schemas, every predicate is also type checked against the message
types bound to its channel by the CUE schemas in that directory. Schema
errors are collected for all properties.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schemas, "schemas", "", "directory of CUE message schemas")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger().WithField("command", "validate")

	spec, err := loadSpec(f, log, path)
	if err != nil {
		return err
	}
	result := ValidationResult{Valid: true, Properties: len(spec.Properties)}

	if opts.Schemas != "" {
		sch, err := loadSchemas(f, log, opts.Schemas)
		if err != nil {
			return err
		}
		result.Typed = true
		result.Errors = typeCheckAll(spec, sch)
		result.Valid = len(result.Errors) == 0
	}

	if !result.Valid {
		return outputValidationErrors(f, result)
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	msg := fmt.Sprintf("✓ %d propert%s valid", result.Properties, pluralY(result.Properties))
	if result.Typed {
		msg += " against " + opts.Schemas
	}
	return f.Success(msg)
}

// typeCheckAll checks each property on its own so that every failure is
// reported.
func typeCheckAll(spec *ast.Specification, sch *schema.Schemas) []ValidationError {
	var errs []ValidationError
	for i, p := range spec.Properties {
		if _, err := ast.TypeCheckProperty(p, sch.Channels); err != nil {
			errs = append(errs, ValidationError{
				Property: i + 1,
				Name:     p.Metadata.ID,
				Code:     ErrorCode(err),
				Message:  err.Error(),
			})
		}
	}
	return errs
}

func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	if f.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range result.Errors {
		if e.Name != "" {
			fmt.Fprintf(f.Writer, "property %d (%s)\n", e.Property, e.Name)
		} else {
			fmt.Fprintf(f.Writer, "property %d\n", e.Property)
		}
		fmt.Fprintf(f.Writer, "  %s\n\n", e.Message)
	}
	return failed
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
