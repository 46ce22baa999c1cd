// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// archive logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/aspen/internal/ports/primary"
)

// IngestAdapter is a thin adapter that translates CLI operations to IngestService calls.
type IngestAdapter struct {
	service primary.IngestService
	out     io.Writer
}

// NewIngestAdapter creates a new IngestAdapter with the given service.
func NewIngestAdapter(service primary.IngestService, out io.Writer) *IngestAdapter {
	return &IngestAdapter{
		service: service,
		out:     out,
	}
}

// Channels imports the channel table of a recording file.
func (a *IngestAdapter) Channels(ctx context.Context, recordingID int64, path, group string) error {
	resp, err := a.service.ImportChannels(ctx, primary.ImportChannelsRequest{
		RecordingID: recordingID,
		Path:        path,
		GroupName:   group,
	})
	if err != nil {
		return fmt.Errorf("failed to import channels: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Imported %d channels from %s file into channels/%d\n", resp.Count, resp.Format, resp.ChannelsID)
	return nil
}

// Electrodes imports an electrode localisation file.
func (a *IngestAdapter) Electrodes(ctx context.Context, req primary.ImportElectrodesRequest) error {
	resp, err := a.service.ImportElectrodes(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to import electrodes: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Imported %d electrodes into electrodes/%d\n", resp.Count, resp.ElectrodesID)
	return nil
}

// Events replaces the events of a run.
func (a *IngestAdapter) Events(ctx context.Context, runID int64) error {
	resp, err := a.service.ImportEvents(ctx, primary.ImportEventsRequest{RunID: runID})
	if err != nil {
		return fmt.Errorf("failed to import events: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Imported %d events into run/%d\n", resp.Count, runID)
	if !resp.StartTimeSet {
		fmt.Fprintln(a.out, color.New(color.FgYellow).Sprint("  header has no start time; run timing left unchanged"))
	}
	return nil
}

// Modality prints the guessed modality for a new recording of the run.
func (a *IngestAdapter) Modality(ctx context.Context, runID int64) (string, error) {
	mod, err := a.service.GuessModality(ctx, runID)
	if err != nil {
		return "", err
	}
	if mod == "" {
		fmt.Fprintln(a.out, "No modality guess")
		return "", nil
	}
	fmt.Fprintf(a.out, "Guessed modality: %s\n", mod)
	return mod, nil
}
