package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/core/filetype"
	"github.com/example/aspen/internal/wire"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Link files to subjects, sessions, runs, recordings and protocols",
}

var fileAddCmd = &cobra.Command{
	Use:   "add [kind] [id] [path]",
	Short: "Link a file; the format is classified from the name unless given",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1], args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			if format, err = filetype.Classify(args[2]); err != nil {
				return err
			}
		}

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := lookup(ctx, a, kind, id)
			if err != nil {
				return err
			}
			f, err := r.AddFile(ctx, format, args[2])
			if err != nil {
				return fmt.Errorf("failed to add file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Linked file %d (%s) to %s\n", f.ID(), format, r)
			return nil
		})
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list [kind] [id]",
	Short: "List the files linked to an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1], args[0])
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		r, err := lookup(ctx, wire.Archive(), kind, id)
		if err != nil {
			return err
		}
		files, err := r.ListFiles(ctx)
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		return wire.Presenter(cmd.OutOrStdout()).Files(ctx, files)
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm [kind] [id] [file-id]",
	Short: "Unlink a file from an entity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1], args[0])
		if err != nil {
			return err
		}
		fileID, err := parseID(args[2], "file")
		if err != nil {
			return err
		}
		sweep, _ := cmd.Flags().GetBool("sweep")

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := lookup(ctx, a, kind, id)
			if err != nil {
				return err
			}
			f, err := a.File(ctx, fileID)
			if err != nil {
				return err
			}
			if err := r.DeleteFile(ctx, f); err != nil {
				return fmt.Errorf("failed to unlink file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Unlinked file %d from %s\n", fileID, r)

			if sweep {
				n, err := a.SweepOrphanFiles(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d unlinked files\n", n)
			}
			return nil
		})
	},
}

// FileCmd returns the file command
func FileCmd() *cobra.Command {
	fileAddCmd.Flags().String("format", "", "File format tag (default: classified from the name)")
	fileRmCmd.Flags().Bool("sweep", false, "Also remove files no entity links to")

	fileCmd.AddCommand(fileAddCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileRmCmd)
	return fileCmd
}
