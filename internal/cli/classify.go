package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/core/filetype"
)

// ClassifyCmd returns the classify command
func ClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [path...]",
		Short: "Print the data-type tag of files",
		Long: `Print the data-type tag the archive would record for each path.
Nothing is read from disk; the tag comes from the file name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				tag, err := filetype.Classify(path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", color.New(color.FgRed).Sprint("unknown"), path)
					continue
				}
				signal := ""
				if filetype.IsSignal(tag) {
					signal = "  (signal)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s%s\n", tag, path, signal)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files not recognized", failed, len(args))
			}
			return nil
		},
	}
}
