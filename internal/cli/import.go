package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/ports/primary"
	"github.com/example/aspen/internal/wire"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Fill channel, electrode and event tables from recording files",
}

var importChannelsCmd = &cobra.Command{
	Use:   "channels [recording-id] [path]",
	Short: "Create a channel group from a recording file header",
	Long: `Create a channel group from the header of a recording file and attach it
to the recording. Without a path, the recording's single signal file is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "recording")
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 2 {
			path = args[1]
		}
		group, _ := cmd.Flags().GetString("name")
		return wire.IngestAdapterWithOutput(cmd.OutOrStdout()).Channels(commandContext(cmd), id, path, group)
	},
}

var importEventsCmd = &cobra.Command{
	Use:   "events [run-id]",
	Short: "Replace the events of a run with those of its signal file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "run")
		if err != nil {
			return err
		}
		return wire.IngestAdapterWithOutput(cmd.OutOrStdout()).Events(commandContext(cmd), id)
	},
}

var importElectrodesCmd = &cobra.Command{
	Use:   "electrodes [recording-id] [path]",
	Short: "Create an electrode group from a localisation file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "recording")
		if err != nil {
			return err
		}
		req := primary.ImportElectrodesRequest{RecordingID: id, Path: args[1]}
		req.GroupName, _ = cmd.Flags().GetString("name")
		req.CoordinateSystem, _ = cmd.Flags().GetString("system")
		req.CoordinateUnits, _ = cmd.Flags().GetString("units")
		return wire.IngestAdapterWithOutput(cmd.OutOrStdout()).Electrodes(commandContext(cmd), req)
	},
}

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	importChannelsCmd.Flags().StringP("name", "n", "", "Channel group name (default: file name)")
	importElectrodesCmd.Flags().StringP("name", "n", "", "Electrode group name (default: file name)")
	importElectrodesCmd.Flags().String("system", archive.DefaultCoordinateSystem, "Coordinate system")
	importElectrodesCmd.Flags().String("units", archive.DefaultCoordinateUnits, "Coordinate units")

	importCmd.AddCommand(importChannelsCmd)
	importCmd.AddCommand(importEventsCmd)
	importCmd.AddCommand(importElectrodesCmd)
	return importCmd
}
