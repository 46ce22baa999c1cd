package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/config"
	"github.com/example/aspen/internal/db"
	"github.com/example/aspen/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the aspen archive",
		Long: `Write ~/.aspen/config.json when it is missing and create or upgrade the
archive schema. --seed fills an empty archive with a small demonstration set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := wire.Config()

			created, err := writeDefaultConfig(wire.ConfigDir(), cfg)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(out, "✓ Config written to %s\n", filepath.Join(wire.ConfigDir(), ".aspen", "config.json"))
			}

			fmt.Fprintf(out, "Initializing %s archive at %s\n", cfg.Driver, cfg.DSN)
			database, dialect := wire.Database()
			fmt.Fprintln(out, "✓ Schema up to date")

			if seed {
				ctx := commandContext(cmd)
				subjects, err := wire.Archive().ListSubjects(ctx, archive.ByDate, false)
				if err != nil {
					return err
				}
				if len(subjects) > 0 {
					return fmt.Errorf("refusing to seed: the archive already holds %d subjects", len(subjects))
				}
				if err := db.SeedFixtures(ctx, database, dialect); err != nil {
					return fmt.Errorf("failed to seed archive: %w", err)
				}
				fmt.Fprintln(out, "✓ Demonstration data added")
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  aspen subject add RESP0001")
			fmt.Fprintln(out, "  aspen subject list")
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Add demonstration data to an empty archive")
	return cmd
}

// writeDefaultConfig saves cfg under dir unless a config file exists there.
func writeDefaultConfig(dir string, cfg *config.Config) (bool, error) {
	path := filepath.Join(dir, ".aspen", "config.json")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := config.SaveConfig(dir, cfg); err != nil {
		return false, err
	}
	return true, nil
}
