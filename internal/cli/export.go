package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/wire"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	var overwrite bool
	var filter archive.RunFilter

	cmd := &cobra.Command{
		Use:   "export [run-id...]",
		Short: "Write BIDS sidecar files of runs to the export sink",
		Long: `Write the channels, electrodes, coordsystem and events files of runs to
the configured export sink (a directory, S3 bucket or memory).

Runs are given by ID or selected with search flags:
  aspen export 12 13
  aspen export --code RESP0001 --modality ieeg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "run")
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if filter != (archive.RunFilter{}) {
				runs, err := wire.Archive().FindRuns(ctx, filter)
				if err != nil {
					return fmt.Errorf("failed to search runs: %w", err)
				}
				for _, r := range runs {
					ids = append(ids, r.ID())
				}
			}
			return wire.ExportAdapterWithOutput(cmd.OutOrStdout()).Runs(ctx, ids, overwrite)
		},
	}

	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "Replace files that already exist")
	cmd.Flags().StringVar(&filter.SubjectCode, "code", "", "Export runs of the subject with this code")
	cmd.Flags().StringVar(&filter.SessionName, "session", "", "Export runs of sessions of this type")
	cmd.Flags().StringVar(&filter.TaskName, "task", "", "Export runs of this task")
	cmd.Flags().StringVar(&filter.Modality, "modality", "", "Export runs with a recording of this modality")

	return cmd
}
