package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/wire"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Manage runs",
	Long:  "Create runs, list them and inspect their events and experimenters",
}

var runAddCmd = &cobra.Command{
	Use:   "add [session-id] [task]",
	Short: "Create a run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "session")
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetString("start")

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			s, err := a.Session(ctx, id)
			if err != nil {
				return err
			}
			r, err := s.AddRun(ctx, args[1])
			if err != nil {
				return fmt.Errorf("failed to create run: %w", err)
			}
			if start != "" {
				v, err := coerce.Parse(catalog.DateTime, start)
				if err != nil {
					return err
				}
				if err := r.Set(ctx, "start_time", v); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created run %d: %s\n", r.ID(), args[1])
			return nil
		})
	},
}

var runListCmd = &cobra.Command{
	Use:   "list [session-id]",
	Short: "List the runs of a session in start order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "session")
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		s, err := wire.Archive().Session(ctx, id)
		if err != nil {
			return err
		}
		runs, err := s.ListRuns(ctx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return wire.Presenter(cmd.OutOrStdout()).Runs(ctx, runs, nil)
	},
}

var runEventsCmd = &cobra.Command{
	Use:   "events [run-id]",
	Short: "Show the events of a run",
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
		events, err := r.Events().Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		wire.Presenter(cmd.OutOrStdout()).Table(events)
		return nil
	},
}

var runExperimentersCmd = &cobra.Command{
	Use:   "experimenters [run-id] [name...]",
	Short: "Show or replace the experimenters of a run",
	Long: `Show the experimenters of a run. With names, replace them; unknown
names are skipped unless --register adds them first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "run")
		if err != nil {
			return err
		}
		register, _ := cmd.Flags().GetBool("register")

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := a.Run(ctx, id)
			if err != nil {
				return err
			}
			if names := args[1:]; len(names) > 0 {
				if register {
					for _, n := range names {
						if err := a.AddExperimenter(ctx, n); err != nil {
							return fmt.Errorf("failed to register %s: %w", n, err)
						}
					}
				}
				if err := r.SetExperimenters(ctx, names); err != nil {
					return err
				}
			}
			names, err := r.Experimenters(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No experimenters")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
			return nil
		})
	},
}

var runIntendedForCmd = &cobra.Command{
	Use:   "intended-for [run-id] [target-run-id...]",
	Short: "Show or change the runs a run is intended for",
	Long: `Show the runs a field map or top-up run is intended for. With target ids,
attach them, or detach them with --detach.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "run")
		if err != nil {
			return err
		}
		targets, err := parseIDs(args[1:], "run")
		if err != nil {
			return err
		}
		detach, _ := cmd.Flags().GetBool("detach")

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := a.Run(ctx, id)
			if err != nil {
				return err
			}
			for _, tid := range targets {
				target, err := a.Run(ctx, tid)
				if err != nil {
					return err
				}
				if detach {
					err = r.DetachIntendedFor(ctx, target)
				} else {
					err = r.AttachIntendedFor(ctx, target)
				}
				if err != nil {
					return fmt.Errorf("failed to update run %d: %w", id, err)
				}
			}
			runs, err := r.ListIntendedFor(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Not intended for any run")
				return nil
			}
			return wire.Presenter(cmd.OutOrStdout()).Runs(ctx, runs, nil)
		})
	},
}

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	runAddCmd.Flags().String("start", "", "Start time (YYYY-MM-DDTHH:MM:SS)")
	runExperimentersCmd.Flags().Bool("register", false, "Register unknown experimenter names")
	runIntendedForCmd.Flags().Bool("detach", false, "Detach the given runs instead")

	runCmd.AddCommand(runAddCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runEventsCmd)
	runCmd.AddCommand(runExperimentersCmd)
	runCmd.AddCommand(runIntendedForCmd)
	return runCmd
}
