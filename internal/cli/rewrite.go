package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/rewrite"
)

// RewriteResult is the outcome of a rewrite for one property.
type RewriteResult struct {
	Index  int      `json:"index"`
	Name   string   `json:"name,omitempty"`
	Input  string   `json:"input"`
	Output []string `json:"output"`
}

// label names a result in text output.
func (r RewriteResult) label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("property %d", r.Index+1)
}

// rewriter maps one property to its output lines.
type rewriter func(p *ast.Property) ([]string, error)

// newRewriteCommand builds a command that applies fn to every property
// of a file. Text output is the output lines, grouped under the
// property label when grouped is set.
func newRewriteCommand(rootOpts *RootOptions, use, short, long string, grouped bool, fn rewriter) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <file>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			log := rootOpts.logger().WithField("command", use)
			spec, err := loadSpec(f, log, args[0])
			if err != nil {
				return err
			}

			results := make([]RewriteResult, len(spec.Properties))
			for i, p := range spec.Properties {
				out, err := fn(p)
				if err != nil {
					err = fmt.Errorf("property %d: %w", i+1, err)
					if errors.Is(err, rewrite.ErrUnsatisfiable) {
						return f.Fail(ExitFailure, ErrCodeSplitFailed, err)
					}
					return f.Invalid(err)
				}
				results[i] = RewriteResult{Index: i, Name: p.Metadata.ID, Input: p.String(), Output: out}
				log.WithFields(logrus.Fields{"property": i + 1, "lines": len(out)}).Debug("rewritten")
			}

			if f.Format == "json" {
				return f.Success(results)
			}
			return f.Success(renderResults(results, grouped))
		},
	}
}

func renderResults(results []RewriteResult, grouped bool) string {
	var b strings.Builder
	for _, r := range results {
		if grouped {
			fmt.Fprintf(&b, "%s:\n", r.label())
		}
		for _, line := range r.Output {
			if grouped {
				b.WriteString("  ")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewCanonicalCommand creates the canonical command.
func NewCanonicalCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(rootOpts, "canonical", "Expand properties into canonical form",
		`Expand event disjunctions into separate properties wherever the split
is sound: activators of after scopes, behaviours of safety patterns and
triggers of response patterns.`,
		false, func(p *ast.Property) ([]string, error) {
			forms, err := rewrite.CanonicalForm(p)
			if err != nil {
				return nil, err
			}
			return propertyLines(forms), nil
		})
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(rootOpts, "simplify", "Simplify every event predicate",
		`Simplify the predicate of every event with the algebraic rewriting
rules. The result is equivalent to the input.`,
		false, func(p *ast.Property) ([]string, error) {
			s, err := rewrite.SimplifyProperty(p)
			if err != nil {
				return nil, err
			}
			return []string{s.String()}, nil
		})
}

// NewSplitCommand creates the split command.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(rootOpts, "split", "Split event predicates into conjuncts",
		`Split the predicate of every event into its conjuncts. Negations and
universal quantifiers are pushed inward first. A predicate that holds
False cannot be split and fails with E010.`,
		true, splitProperty)
}

func splitProperty(p *ast.Property) ([]string, error) {
	var out []string
	for _, ev := range p.Events() {
		for _, se := range ev.SimpleEvents() {
			conj, err := rewrite.SplitPredicate(se.Predicate)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", se.Channel, err)
			}
			for _, c := range conj {
				out = append(out, fmt.Sprintf("%s: %s", se.Channel, c))
			}
		}
	}
	return out, nil
}

func propertyLines(ps []*ast.Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
