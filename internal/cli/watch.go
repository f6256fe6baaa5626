package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vesper-lang/vesper/internal/watch"
)

// NewWatchCommand creates the watch command: re-run analysis whenever
// a unit file changes on disk.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <unit.yaml> [more...]",
		Short: "Re-analyze units when their files change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			run := func(path string) {
				fmt.Fprintf(out, "--- %s\n", path)
				if err := runAnalyze(rootOpts, opts, path, out, errOut); err != nil {
					fmt.Fprintf(errOut, "%v\n", err)
				}
			}

			// Analyze everything once up front; watch mode should not
			// stay silent until the first edit.
			for _, path := range args {
				run(path)
			}

			w, err := watch.New(args, debounce, run)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "destructible-context policy file (YAML)")
	cmd.Flags().StringVar(&opts.LangVersion, "lang-version", "", "override the unit's language version")
	cmd.Flags().BoolVar(&opts.DumpSchedules, "dump-schedules", true, "print destructor schedules and deep-copy plans")
	cmd.Flags().StringVar(&opts.ReportDB, "report", "", "record each run in a report database at this path")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "event debounce window")

	return cmd
}
