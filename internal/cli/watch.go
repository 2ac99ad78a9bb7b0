package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hpl/internal/schema"
	"github.com/roach88/hpl/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration
	Schemas  string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Re-validate HPL files when they change",
		Long: `Watch HPL files, or directories of .hpl files, and validate every file
that changes. With --schemas the files are also type checked.

Runs until interrupted.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "quiet period before re-validating")
	cmd.Flags().StringVar(&opts.Schemas, "schemas", "", "directory of CUE message schemas")

	return cmd
}

func runWatch(opts *WatchOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	log := opts.logger().WithField("command", "watch")

	var sch *schema.Schemas
	if opts.Schemas != "" {
		var err error
		if sch, err = loadSchemas(f, log, opts.Schemas); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Watching %d path(s), press Ctrl-C to stop\n", len(paths))
	err := watch.Watch(cmd.Context(), paths, func(changed []string) {
		for _, path := range changed {
			checkFile(w, path, sch)
		}
	}, watch.WithDebounce(opts.Debounce), watch.WithLogger(log))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	return nil
}

// checkFile validates one file and prints a single status line, followed
// by the errors when it fails.
func checkFile(w io.Writer, path string, sch *schema.Schemas) {
	spec, err := LoadSpecification(path)
	if err != nil {
		fmt.Fprintf(w, "✗ %s\n  [%s] %v\n", path, ErrorCode(err), err)
		return
	}
	if sch != nil {
		if errs := typeCheckAll(spec, sch); len(errs) > 0 {
			fmt.Fprintf(w, "✗ %s\n", path)
			for _, e := range errs {
				fmt.Fprintf(w, "  property %d: %s\n", e.Property, e.Message)
			}
			return
		}
	}
	fmt.Fprintf(w, "✓ %s: %d propert%s valid\n", path, len(spec.Properties), pluralY(len(spec.Properties)))
}
