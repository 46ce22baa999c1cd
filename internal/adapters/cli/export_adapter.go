package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/aspen/internal/ports/primary"
)

// ExportAdapter is a thin adapter that translates CLI operations to ExportService calls.
type ExportAdapter struct {
	service primary.ExportService
	out     io.Writer
}

// NewExportAdapter creates a new ExportAdapter with the given service.
func NewExportAdapter(service primary.ExportService, out io.Writer) *ExportAdapter {
	return &ExportAdapter{
		service: service,
		out:     out,
	}
}

// Runs exports the sidecar files of the given runs.
func (a *ExportAdapter) Runs(ctx context.Context, runIDs []int64, overwrite bool) error {
	if len(runIDs) == 0 {
		return fmt.Errorf("no runs to export")
	}

	resp, err := a.service.ExportRuns(ctx, primary.ExportRequest{
		RunIDs:    runIDs,
		Overwrite: overwrite,
	})
	if resp != nil {
		for _, key := range resp.Written {
			fmt.Fprintf(a.out, "  %s\n", key)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	skip := color.New(color.FgYellow)
	for _, s := range resp.Skipped {
		fmt.Fprintln(a.out, skip.Sprintf("  skipped %s: %s", s.Entity, s.Reason))
	}
	fmt.Fprintf(a.out, "✓ Exported %d files from %d runs\n", len(resp.Written), len(runIDs))
	return nil
}
