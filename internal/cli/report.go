package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	HTML   bool
	Output string
	Title  string
	CSS    []string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Render a specification as Markdown or HTML",
		Long: `Render every property of an HPL file with its class, scope, pattern,
content ID and canonical forms.

The report is Markdown unless --html is given, in which case a
standalone page is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.HTML, "html", false, "write an HTML page")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Title, "title", "HPL specification", "HTML page title")
	cmd.Flags().StringSliceVar(&opts.CSS, "css", nil, "stylesheets linked from the HTML page")

	return cmd
}

func runReport(opts *ReportOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger().WithField("command", "report")

	spec, err := loadSpec(f, log, path)
	if err != nil {
		return err
	}

	var out []byte
	if opts.HTML {
		var buf bytes.Buffer
		err = report.WritePage(&buf, spec, opts.Title, opts.CSS)
		out = buf.Bytes()
	} else {
		out, err = report.Markdown(spec)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(opts.Output, out, 0644); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err)
	}
	log.WithField("file", opts.Output).Info("report written")
	if f.Format == "json" {
		return f.Success(map[string]string{"output": opts.Output})
	}
	return nil
}
