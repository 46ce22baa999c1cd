package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/config"
	"github.com/example/aspen/internal/version"
	"github.com/example/aspen/internal/wire"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the aspen configuration and archive",
		Long: `Health check for an aspen installation.

Validates:
- Configuration file and export settings
- Database connectivity
- Every catalog table exists in the database

Examples:
  aspen doctor              # Run full health check
  aspen doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			results := []CheckResult{checkConfig(wire.ConfigDir(), cfg)}

			database, _ := wire.Database()
			ctx := commandContext(cmd)
			results = append(results, checkDatabase(ctx, database))
			results = append(results, checkSchema(ctx, database, catalog.Default()))
			results = append(results, checkExport(cfg.Export))

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				printResults(cmd.OutOrStdout(), results, hasErrors)
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func printResults(out io.Writer, results []CheckResult, hasErrors bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, version.String())
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, r.Status)
	}
	fmt.Fprintln(out)

	hasDetails := false
	for _, r := range results {
		if r.Status != "✓" && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasErrors {
		fmt.Fprintln(out, "\n⚠ Issues found. Run 'aspen init' to create missing configuration and schema.")
	} else {
		fmt.Fprintln(out, "All checks passed.")
	}
}

// checkConfig reports whether the configuration comes from a file.
func checkConfig(dir string, cfg *config.Config) CheckResult {
	path := filepath.Join(dir, ".aspen", "config.json")
	if _, err := os.Stat(path); err != nil {
		return CheckResult{Name: "Config", Status: "⚠", Details: fmt.Sprintf("  %s not found, using defaults (run 'aspen init')", path)}
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Config", Status: "✓"}
}

func checkDatabase(ctx context.Context, database *sql.DB) CheckResult {
	if err := database.PingContext(ctx); err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Database", Status: "✓"}
}

// checkSchema verifies that every catalog table can be queried.
func checkSchema(ctx context.Context, database *sql.DB, cat *catalog.Catalog) CheckResult {
	var missing []string
	for _, table := range cat.Tables() {
		var n int
		if err := database.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n); err != nil {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return CheckResult{Name: "Schema", Status: "✗", Details: "  Missing tables: " + strings.Join(missing, ", ")}
	}
	return CheckResult{Name: "Schema", Status: "✓"}
}

// checkExport validates the export sink settings without writing anything.
func checkExport(c config.ExportConfig) CheckResult {
	switch c.Driver {
	case config.ExportS3:
		if os.Getenv("AWS_ACCESS_KEY_ID") == "" && os.Getenv("AWS_PROFILE") == "" {
			return CheckResult{Name: "Export", Status: "⚠", Details: "  No AWS credentials in the environment; relying on the default chain"}
		}
	case config.ExportMemory:
		return CheckResult{Name: "Export", Status: "⚠", Details: "  Memory sink: exported files are discarded on exit"}
	default:
		info, err := os.Stat(c.Root)
		if err != nil {
			return CheckResult{Name: "Export", Status: "⚠", Details: fmt.Sprintf("  %s does not exist yet; it is created on first export", c.Root)}
		}
		if !info.IsDir() {
			return CheckResult{Name: "Export", Status: "✗", Details: fmt.Sprintf("  %s is not a directory", c.Root)}
		}
	}
	return CheckResult{Name: "Export", Status: "✓"}
}
