package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/cli"
	"github.com/example/aspen/internal/version"
)

func main() {
	var dumpMetrics bool

	rootCmd := &cobra.Command{
		Use:     "aspen",
		Short:   "aspen - clinical neuroscience recording archive",
		Version: version.String(),
		Long: `aspen keeps track of subjects, sessions, runs and recordings of clinical
neuroscience studies, imports channel and electrode tables from recording
files and exports BIDS sidecar files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !dumpMetrics || cmd.Name() == "metrics" {
				return nil
			}
			return cli.WriteMetrics(cmd, args)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "Print collected metrics when the command finishes")

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	// Entity commands
	rootCmd.AddCommand(cli.SubjectCmd())
	rootCmd.AddCommand(cli.SessionCmd())
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.RecordingCmd())
	rootCmd.AddCommand(cli.ProtocolCmd())
	rootCmd.AddCommand(cli.AttrCmd())
	rootCmd.AddCommand(cli.FileCmd())

	// Data movement
	rootCmd.AddCommand(cli.ClassifyCmd())
	rootCmd.AddCommand(cli.ImportCmd())
	rootCmd.AddCommand(cli.ExportCmd())
	rootCmd.AddCommand(cli.MetricsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
