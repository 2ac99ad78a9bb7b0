package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/ir"
	"github.com/roach88/hpl/internal/rewrite"
	"github.com/roach88/hpl/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	DB     string // catalog path
	Output string // canonical JSON output path, optional

	// runIDs overrides run ID generation in tests.
	runIDs store.RunIDGenerator
}

// CompiledProperty summarises one stored property.
type CompiledProperty struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Forms int    `json:"forms"`
}

// CompilationResult describes a catalog run.
type CompilationResult struct {
	RunID           string             `json:"run_id"`
	Seq             int64              `json:"seq"`
	Database        string             `json:"database"`
	SpecificationID string             `json:"specification_id"`
	Properties      []CompiledProperty `json:"properties"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Store a specification in the property catalog",
		Long: `Parse an HPL file and record it as a new run in the SQLite property
catalog, together with the canonical forms of every property.

Properties are keyed by content ID, so recompiling an unchanged property
reuses its canonical forms.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "hpl.db", "catalog database path")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical JSON encoding to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger().WithField("command", "compile")

	spec, err := loadSpec(f, log, path)
	if err != nil {
		return err
	}
	specID, err := ir.SpecificationID(spec)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	storeOpts := []store.Option{store.WithLogger(log)}
	if opts.runIDs != nil {
		storeOpts = append(storeOpts, store.WithRunIDs(opts.runIDs))
	}
	st, err := store.Open(opts.DB, storeOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.BeginRun(ctx, path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}

	result := CompilationResult{
		RunID:           run.ID,
		Seq:             run.Seq,
		Database:        opts.DB,
		SpecificationID: specID,
		Properties:      make([]CompiledProperty, 0, len(spec.Properties)),
	}
	for i, p := range spec.Properties {
		rec, err := st.PutProperty(ctx, run.ID, i, p)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStoreFailed, err)
		}
		forms, err := rewrite.CanonicalForm(p)
		if err != nil {
			return f.Invalid(fmt.Errorf("property %d: %w", i+1, err))
		}
		if err := st.PutCanonicalForms(ctx, rec.ID, forms); err != nil {
			return f.Fail(ExitCommandError, ErrCodeStoreFailed, err)
		}
		result.Properties = append(result.Properties, CompiledProperty{
			Index: i, ID: rec.ID, Name: rec.Name, Forms: len(forms),
		})
	}
	log.WithFields(logrus.Fields{"run": run.ID, "properties": len(result.Properties)}).Info("compiled")

	if opts.Output != "" {
		if err := writeCanonical(spec, opts.Output); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}
	return outputCompileSuccess(f, result, opts.Output)
}

// writeCanonical writes the canonical JSON encoding of spec.
func writeCanonical(spec *ast.Specification, filename string) error {
	data, err := ir.MarshalCanonical(ir.FromSpecification(spec))
	if err != nil {
		return fmt.Errorf("encoding specification: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func outputCompileSuccess(f *OutputFormatter, result CompilationResult, outputFile string) error {
	if f.Format == "json" {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ Compiled %d propert%s into run %d (%s)\n\n",
		len(result.Properties), pluralY(len(result.Properties)), result.Seq, result.RunID)
	for _, p := range result.Properties {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("property %d", p.Index+1)
		}
		fmt.Fprintf(f.Writer, "  %s: %s, %d canonical form(s)\n", name, p.ID[:12], p.Forms)
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Catalog: %s\n", result.Database)
	if outputFile != "" {
		fmt.Fprintf(f.Writer, "Wrote canonical JSON to %s\n", outputFile)
	}
	return nil
}
