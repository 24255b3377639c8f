// Package cli wires configuration, the client pool and the retention engine
// into the indexsweep commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

// Execute runs the root command with the provided context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "indexsweep",
		Short: "Delete Elasticsearch indices past their retention period",
		Long: `indexsweep deletes Elasticsearch indices whose names carry a date older
than the retention configured for their pattern.

Connection settings come from the environment (ES_DB_URL, ES_ID, ES_PW,
ES_POOL_CNT) and the rules from the file named by INDEX_LIST_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: text, json (overrides LOG_FORMAT)")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
