package cli

import (
	"github.com/spf13/cobra"

	"github.com/dm/indexsweep/internal/batch"
	"github.com/dm/indexsweep/internal/report"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which indices a sweep would delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(output)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.sweep(cmd.Context(), batch.ModePlan)
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), f, rep)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
