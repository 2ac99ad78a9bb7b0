package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/ir"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an HPL file and print it back",
		Long: `Parse an HPL file and print every property in normal form.

With --format json the output is the structural encoding used for
content identity, including format_version.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			spec, err := loadSpec(f, rootOpts.logger(), args[0])
			if err != nil {
				return err
			}
			if f.Format == "json" {
				return f.Success(ir.FromSpecification(spec))
			}
			return f.Success(spec.String())
		},
	}
}
