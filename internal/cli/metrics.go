package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/wire"
)

// MetricsCmd returns the metrics command
func MetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the metrics registry in the Prometheus text format",
		Long: `Print the metrics collected by this process. Combine with --metrics on
any other command to dump the counters it produced when it finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return WriteMetrics(cmd, args)
		},
	}
}

// WriteMetrics prints the registry when metrics are enabled in the config.
// It is used as the root PersistentPostRunE when --metrics is set.
func WriteMetrics(cmd *cobra.Command, _ []string) error {
	m := wire.Metrics()
	if m == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "metrics are disabled; set metrics.enabled in .aspen/config.json")
		return nil
	}
	return m.WriteText(cmd.OutOrStdout())
}
