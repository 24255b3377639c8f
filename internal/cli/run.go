package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dm/indexsweep/internal/batch"
	"github.com/dm/indexsweep/internal/report"
)

// ErrSweepFailed is returned by run --fail-on-error when a rule or deletion failed.
var ErrSweepFailed = errors.New("sweep finished with failures")

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		failOnError bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sweep and delete expired indices",
		Long: `Run evaluates every retention rule once, concurrently, and deletes the
indices dated on or before each rule's deadline.

Rule failures are logged and do not change the exit status unless
--fail-on-error is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f report.Format
			if output != "" {
				var err error
				if f, err = report.ParseFormat(output); err != nil {
					return err
				}
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.sweep(cmd.Context(), batch.ModeApply)
			if err != nil {
				return err
			}
			if output != "" {
				if err := report.Write(cmd.OutOrStdout(), f, rep); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			if failOnError && rep.Summary.HasFailures() {
				return fmt.Errorf("%w: %d of %d rules failed, %d deletions failed",
					ErrSweepFailed, rep.Summary.Failed, rep.Summary.Rules, rep.Summary.DeleteFailures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any rule or deletion failed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also print a report: table, json or yaml")
	return cmd
}
