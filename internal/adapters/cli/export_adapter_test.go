package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/aspen/internal/ports/primary"
)

// mockExportService implements primary.ExportService for testing
type mockExportService struct {
	resp    *primary.ExportResponse
	err     error
	lastReq primary.ExportRequest
}

func (m *mockExportService) ExportRuns(ctx context.Context, req primary.ExportRequest) (*primary.ExportResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func TestExportAdapter_Runs(t *testing.T) {
	service := &mockExportService{
		resp: &primary.ExportResponse{
			Written: []string{
				"sub-A/ses-iemu1/ieeg/sub-A_ses-iemu1_task-rest_run-1_channels.tsv",
				"sub-A/ses-iemu1/ieeg/sub-A_ses-iemu1_task-rest_run-1_events.tsv",
			},
			Skipped: []primary.ExportSkip{{Entity: "recording/3", Reason: "no sidecars for modality ecg"}},
		},
	}
	var out bytes.Buffer
	adapter := NewExportAdapter(service, &out)

	if err := adapter.Runs(context.Background(), []int64{1, 2}, true); err != nil {
		t.Fatalf("Runs failed: %v", err)
	}

	if !service.lastReq.Overwrite || len(service.lastReq.RunIDs) != 2 {
		t.Errorf("unexpected request: %+v", service.lastReq)
	}
	output := out.String()
	for _, want := range []string{
		"run-1_channels.tsv",
		"run-1_events.tsv",
		"skipped recording/3: no sidecars for modality ecg",
		"✓ Exported 2 files from 2 runs",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestExportAdapter_NoRuns(t *testing.T) {
	service := &mockExportService{}
	adapter := NewExportAdapter(service, &bytes.Buffer{})

	if err := adapter.Runs(context.Background(), nil, false); err == nil {
		t.Error("expected error for empty run list")
	}
}

func TestExportAdapter_PartialFailure(t *testing.T) {
	service := &mockExportService{
		resp: &primary.ExportResponse{Written: []string{"sub-A/ses-iemu1/ieeg/a.json"}},
		err:  errors.New("sink full"),
	}
	var out bytes.Buffer
	adapter := NewExportAdapter(service, &out)

	err := adapter.Runs(context.Background(), []int64{1}, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), "a.json") {
		t.Errorf("files written before the failure should be listed: %q", out.String())
	}
	if strings.Contains(out.String(), "✓") {
		t.Errorf("no success line expected: %q", out.String())
	}
}
