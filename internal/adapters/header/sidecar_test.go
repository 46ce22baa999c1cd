package header

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestReadHeader_AllSidecars(t *testing.T) {
	dir := t.TempDir()
	rec := filepath.Join(dir, "EEG_1.TRC")

	writeFile(t, rec+".header.json", `{"vendor":"micromed","start_time":"2019-03-04T10:15:00Z","duration":600.5}`)
	writeFile(t, rec+".channels.tsv", "name\tunits\tlow_cutoff\thigh_cutoff\treference\n"+
		"GA1\tuV\t0\t300\tG2\n"+
		"ECG+\tuV\tn/a\tn/a\tn/a\n")
	writeFile(t, rec+".events.tsv", "onset\tduration\tvalue\ttrial_type\n"+
		"1.5\t0.5\t3\tmove\n")

	h, err := NewSidecarReader().ReadHeader(context.Background(), rec, "micromed")
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}

	if h.Vendor != "micromed" {
		t.Errorf("Vendor = %q", h.Vendor)
	}
	if !h.StartTime.Equal(time.Date(2019, 3, 4, 10, 15, 0, 0, time.UTC)) {
		t.Errorf("StartTime = %v", h.StartTime)
	}
	if h.Duration != 600.5 {
		t.Errorf("Duration = %v", h.Duration)
	}
	if len(h.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(h.Channels))
	}
	if h.Channels[0].Label != "GA1" || h.Channels[0].HighCutoff != 300 || h.Channels[0].Reference != "G2" {
		t.Errorf("channel 0 = %+v", h.Channels[0])
	}
	if !math.IsNaN(h.Channels[1].LowCutoff) || h.Channels[1].Reference != "" {
		t.Errorf("n/a cells should read as missing, got %+v", h.Channels[1])
	}
	if len(h.Events) != 1 || h.Events[0].Onset != 1.5 || h.Events[0].TrialType != "move" {
		t.Errorf("events = %+v", h.Events)
	}
}

func TestReadHeader_NoSidecars(t *testing.T) {
	rec := filepath.Join(t.TempDir(), "run.dat")

	h, err := NewSidecarReader().ReadHeader(context.Background(), rec, "bci2000")
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if h.Vendor != "bci2000" {
		t.Errorf("Vendor = %q, want bci2000", h.Vendor)
	}
	if !h.StartTime.IsZero() || !math.IsNaN(h.Duration) || len(h.Channels) != 0 || len(h.Events) != 0 {
		t.Errorf("expected empty header, got %+v", h)
	}
}

func TestReadHeader_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		body   string
	}{
		{"bad json", ".header.json", `{"vendor":`},
		{"bad start time", ".header.json", `{"start_time":"yesterday"}`},
		{"bad cutoff", ".channels.tsv", "name\tlow_cutoff\nA1\tlow\n"},
		{"bad onset", ".events.tsv", "onset\tduration\nsoon\t1\n"},
		{"ragged row", ".channels.tsv", "name\tunits\nA1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := filepath.Join(t.TempDir(), "x.TRC")
			writeFile(t, rec+tt.suffix, tt.body)

			if _, err := NewSidecarReader().ReadHeader(context.Background(), rec, "micromed"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
