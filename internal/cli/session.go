package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/wire"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long:  "Create and list the sessions of a subject",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add [subject-id] [type]",
	Short: "Create a session (IEMU, OR, MRI, BCI, CT)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "subject")
		if err != nil {
			return err
		}
		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			s, err := a.Subject(ctx, id)
			if err != nil {
				return err
			}
			sess, err := s.AddSession(ctx, args[1])
			if err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created session %d: %s\n", sess.ID(), args[1])
			return nil
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list [subject-id]",
	Short: "List the sessions of a subject, oldest first",
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
		sessions, err := s.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		return wire.Presenter(cmd.OutOrStdout()).Sessions(ctx, sessions, nil)
	},
}

// SessionCmd returns the session command
func SessionCmd() *cobra.Command {
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionListCmd)
	return sessionCmd
}
