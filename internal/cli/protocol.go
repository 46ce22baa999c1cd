package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/wire"
)

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Manage protocols",
	Long:  "Record the METC protocols a subject signed and link runs to them",
}

var protocolAddCmd = &cobra.Command{
	Use:   "add [subject-id] [metc]",
	Short: "Add a protocol to a subject",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "subject")
		if err != nil {
			return err
		}
		signedFlag, _ := cmd.Flags().GetString("signed")
		var signed time.Time
		if signedFlag != "" {
			v, err := coerce.Parse(catalog.Date, signedFlag)
			if err != nil {
				return err
			}
			signed, _ = v.(time.Time)
		}

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			s, err := a.Subject(ctx, id)
			if err != nil {
				return err
			}
			p, err := s.AddProtocol(ctx, args[1], signed)
			if err != nil {
				return fmt.Errorf("failed to add protocol: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added protocol %d: %s\n", p.ID(), args[1])
			return nil
		})
	},
}

var protocolListCmd = &cobra.Command{
	Use:   "list [subject-id]",
	Short: "List the protocols of a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "subject")
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		s, err := wire.Archive().Subject(ctx, id)
		if err != nil {
			return err
		}
		protocols, err := s.ListProtocols(ctx)
		if err != nil {
			return fmt.Errorf("failed to list protocols: %w", err)
		}
		return wire.Presenter(cmd.OutOrStdout()).Protocols(ctx, protocols)
	},
}

// linkProtocol attaches or detaches a run and a protocol.
func linkProtocol(cmd *cobra.Command, args []string, attach bool) error {
	runID, err := parseID(args[0], "run")
	if err != nil {
		return err
	}
	protocolID, err := parseID(args[1], "protocol")
	if err != nil {
		return err
	}

	return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
		r, err := a.Run(ctx, runID)
		if err != nil {
			return err
		}
		p, err := a.Protocol(ctx, protocolID)
		if err != nil {
			return err
		}
		if attach {
			if err := r.AttachProtocol(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Linked run %d to protocol %d\n", runID, protocolID)
			return nil
		}
		if err := r.DetachProtocol(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Unlinked run %d from protocol %d\n", runID, protocolID)
		return nil
	})
}

var protocolAttachCmd = &cobra.Command{
	Use:   "attach [run-id] [protocol-id]",
	Short: "Link a run to a protocol",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return linkProtocol(cmd, args, true)
	},
}

var protocolDetachCmd = &cobra.Command{
	Use:   "detach [run-id] [protocol-id]",
	Short: "Unlink a run from a protocol",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return linkProtocol(cmd, args, false)
	},
}

// ProtocolCmd returns the protocol command
func ProtocolCmd() *cobra.Command {
	protocolAddCmd.Flags().String("signed", "", "Date of signature (YYYY-MM-DD)")

	protocolCmd.AddCommand(protocolAddCmd)
	protocolCmd.AddCommand(protocolListCmd)
	protocolCmd.AddCommand(protocolAttachCmd)
	protocolCmd.AddCommand(protocolDetachCmd)
	return protocolCmd
}
