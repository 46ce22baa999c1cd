package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/wire"
)

var recordingCmd = &cobra.Command{
	Use:   "recording",
	Short: "Manage recordings",
	Long:  "Create recordings and attach channel or electrode groups to them",
}

var recordingAddCmd = &cobra.Command{
	Use:   "add [run-id] [modality]",
	Short: "Create a recording",
	Long: `Create a recording. Without a modality, the modality is guessed from the
run's task and session type.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "run")
		if err != nil {
			return err
		}
		onset, _ := cmd.Flags().GetFloat64("onset")

		modality := ""
		if len(args) == 2 {
			modality = args[1]
		} else {
			modality, err = wire.IngestAdapterWithOutput(cmd.OutOrStdout()).Modality(commandContext(cmd), id)
			if err != nil {
				return err
			}
			if modality == "" {
				return fmt.Errorf("cannot guess the modality of run %d; pass it explicitly", id)
			}
		}

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := a.Run(ctx, id)
			if err != nil {
				return err
			}
			rec, err := r.AddRecording(ctx, modality, onset)
			if err != nil {
				return fmt.Errorf("failed to create recording: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created recording %d: %s\n", rec.ID(), modality)
			return nil
		})
	},
}

var recordingListCmd = &cobra.Command{
	Use:   "list [run-id]",
	Short: "List the recordings of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "run")
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		r, err := wire.Archive().Run(ctx, id)
		if err != nil {
			return err
		}
		recs, err := r.ListRecordings(ctx)
		if err != nil {
			return fmt.Errorf("failed to list recordings: %w", err)
		}
		return wire.Presenter(cmd.OutOrStdout()).Recordings(ctx, recs)
	},
}

var recordingAttachCmd = &cobra.Command{
	Use:   "attach [recording-id]",
	Short: "Attach a channel and/or electrode group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "recording")
		if err != nil {
			return err
		}
		channelsID, _ := cmd.Flags().GetInt64("channels")
		electrodesID, _ := cmd.Flags().GetInt64("electrodes")
		if channelsID == 0 && electrodesID == 0 {
			return fmt.Errorf("nothing to attach: pass --channels and/or --electrodes")
		}

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			rec, err := a.Recording(ctx, id)
			if err != nil {
				return err
			}
			if channelsID != 0 {
				c, err := a.Channels(ctx, channelsID)
				if err != nil {
					return err
				}
				if err := rec.AttachChannels(ctx, c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Attached channels %d to recording %d\n", channelsID, id)
			}
			if electrodesID != 0 {
				e, err := a.Electrodes(ctx, electrodesID)
				if err != nil {
					return err
				}
				if err := rec.AttachElectrodes(ctx, e); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Attached electrodes %d to recording %d\n", electrodesID, id)
			}
			return nil
		})
	},
}

var recordingDetachCmd = &cobra.Command{
	Use:   "detach [recording-id]",
	Short: "Detach the channel and/or electrode group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "recording")
		if err != nil {
			return err
		}
		channels, _ := cmd.Flags().GetBool("channels")
		electrodes, _ := cmd.Flags().GetBool("electrodes")
		if !channels && !electrodes {
			return fmt.Errorf("nothing to detach: pass --channels and/or --electrodes")
		}

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			rec, err := a.Recording(ctx, id)
			if err != nil {
				return err
			}
			if channels {
				if err := rec.DetachChannels(ctx); err != nil {
					return err
				}
			}
			if electrodes {
				if err := rec.DetachElectrodes(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Detached from recording %d\n", id)
			return nil
		})
	},
}

// RecordingCmd returns the recording command
func RecordingCmd() *cobra.Command {
	recordingAddCmd.Flags().Float64("onset", 0, "Onset in seconds from the run start")
	recordingAttachCmd.Flags().Int64("channels", 0, "Channel group ID")
	recordingAttachCmd.Flags().Int64("electrodes", 0, "Electrode group ID")
	recordingDetachCmd.Flags().Bool("channels", false, "Detach the channel group")
	recordingDetachCmd.Flags().Bool("electrodes", false, "Detach the electrode group")

	recordingCmd.AddCommand(recordingAddCmd)
	recordingCmd.AddCommand(recordingListCmd)
	recordingCmd.AddCommand(recordingAttachCmd)
	recordingCmd.AddCommand(recordingDetachCmd)
	return recordingCmd
}
