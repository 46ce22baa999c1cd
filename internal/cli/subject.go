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

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects",
	Long:  "Create, list, search and delete the subjects of the archive",
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [code...]",
	Short: "Create a subject with the given codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		sex, _ := cmd.Flags().GetString("sex")
		dob, _ := cmd.Flags().GetString("date-of-birth")

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			s, err := a.AddSubject(ctx, args...)
			if err != nil {
				return fmt.Errorf("failed to create subject: %w", err)
			}
			if sex != "" {
				if err := s.Set(ctx, "sex", sex); err != nil {
					return err
				}
			}
			if dob != "" {
				v, err := coerce.Parse(catalog.Date, dob)
				if err != nil {
					return err
				}
				if err := s.Set(ctx, "date_of_birth", v); err != nil {
					return err
				}
			}

			name, err := s.Name(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created subject %d: %s\n", s.ID(), name)
			return nil
		})
	},
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects",
	Long: `List subjects ordered by the date of their first run, or by code.

Search flags mark the subjects owning a matching run:
  aspen subject list --task motor --modality ieeg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		order, _ := cmd.Flags().GetString("order")
		reverse, _ := cmd.Flags().GetBool("reverse")
		var filter archive.RunFilter
		filter.SubjectCode, _ = cmd.Flags().GetString("code")
		filter.SessionName, _ = cmd.Flags().GetString("session")
		filter.TaskName, _ = cmd.Flags().GetString("task")
		filter.Modality, _ = cmd.Flags().GetString("modality")

		var sortOrder archive.SubjectOrder
		switch order {
		case "date":
			sortOrder = archive.ByDate
		case "code":
			sortOrder = archive.Alphabetical
		default:
			return fmt.Errorf("unknown order '%s'. Use date or code", order)
		}

		ctx := commandContext(cmd)
		a := wire.Archive()
		subjects, err := a.ListSubjects(ctx, sortOrder, reverse)
		if err != nil {
			return fmt.Errorf("failed to list subjects: %w", err)
		}

		var hits archive.RefSet
		if filter != (archive.RunFilter{}) {
			if hits, err = searchHits(ctx, a, filter); err != nil {
				return err
			}
		}
		return wire.Presenter(cmd.OutOrStdout()).Subjects(ctx, subjects, hits)
	},
}

// searchHits returns the matching runs together with their sessions and
// subjects.
func searchHits(ctx context.Context, a *archive.Archive, filter archive.RunFilter) (archive.RefSet, error) {
	runs, err := a.FindRuns(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search runs: %w", err)
	}
	hits := archive.NewRefSet(runs...)
	for _, r := range runs {
		sess, err := r.Session(ctx)
		if err != nil {
			return nil, err
		}
		subj, err := sess.Subject(ctx)
		if err != nil {
			return nil, err
		}
		hits[sess.Ref()] = struct{}{}
		hits[subj.Ref()] = struct{}{}
	}
	return hits, nil
}

var subjectShowCmd = &cobra.Command{
	Use:   "show [subject-id | code]",
	Short: "Show subject attributes, sessions and protocols",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a := wire.Archive()
		s, err := findSubject(ctx, a, args[0])
		if err != nil {
			return err
		}

		p := wire.Presenter(cmd.OutOrStdout())
		fields, err := s.Attributes(ctx)
		if err != nil {
			return err
		}
		p.Attributes(s, fields)

		codes, err := s.Codes(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Codes: %s\n\nSessions:\n", strings.Join(codes, ", "))

		sessions, err := s.ListSessions(ctx)
		if err != nil {
			return err
		}
		if err := p.Sessions(ctx, sessions, nil); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "\nProtocols:")
		protocols, err := s.ListProtocols(ctx)
		if err != nil {
			return err
		}
		if err := p.Protocols(ctx, protocols); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "\nFiles:")
		files, err := s.ListFiles(ctx)
		if err != nil {
			return err
		}
		return p.Files(ctx, files)
	},
}

// findSubject accepts a numeric id or one of the subject's codes.
func findSubject(ctx context.Context, a *archive.Archive, arg string) (archive.Subject, error) {
	if id, err := parseID(arg, "subject"); err == nil {
		return a.Subject(ctx, id)
	}
	return a.FindSubjectByCode(ctx, arg)
}

var subjectCodesCmd = &cobra.Command{
	Use:   "codes [subject-id] [code...]",
	Short: "Show or replace the codes of a subject",
	Args:  cobra.MinimumNArgs(1),
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
			if len(args) > 1 {
				if err := s.SetCodes(ctx, args[1:]); err != nil {
					return fmt.Errorf("failed to set codes: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated codes of subject %d\n", id)
			}
			codes, err := s.Codes(ctx)
			if err != nil {
				return err
			}
			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		})
	},
}

var subjectDeleteCmd = &cobra.Command{
	Use:   "delete [subject-id]",
	Short: "Delete a subject without sessions or protocols",
	Args:  cobra.ExactArgs(1),
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
			if err := s.Delete(ctx); err != nil {
				return fmt.Errorf("failed to delete subject: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted subject %d\n", id)
			return nil
		})
	},
}

// SubjectCmd returns the subject command
func SubjectCmd() *cobra.Command {
	subjectAddCmd.Flags().String("sex", "", "Sex (female, male, unknown)")
	subjectAddCmd.Flags().String("date-of-birth", "", "Date of birth (YYYY-MM-DD)")
	subjectListCmd.Flags().StringP("order", "o", "date", "Sort order (date, code)")
	subjectListCmd.Flags().BoolP("reverse", "r", false, "Reverse the order")
	subjectListCmd.Flags().String("code", "", "Mark subjects with this code")
	subjectListCmd.Flags().String("session", "", "Mark subjects with a session of this type")
	subjectListCmd.Flags().String("task", "", "Mark subjects with a run of this task")
	subjectListCmd.Flags().String("modality", "", "Mark subjects with a recording of this modality")

	subjectCmd.AddCommand(subjectAddCmd)
	subjectCmd.AddCommand(subjectListCmd)
	subjectCmd.AddCommand(subjectShowCmd)
	subjectCmd.AddCommand(subjectCodesCmd)
	subjectCmd.AddCommand(subjectDeleteCmd)

	return subjectCmd
}
