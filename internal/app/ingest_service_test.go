package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/example/aspen/internal/errs"
	"github.com/example/aspen/internal/ports/primary"
	"github.com/example/aspen/internal/ports/secondary"
)

func newTestIngestService(t *testing.T) (*IngestServiceImpl, *mockHeaderReader, *mockCoordinateReader, *mockMetrics, fixture) {
	t.Helper()
	a := setupArchive(t)
	headers := newMockHeaderReader()
	coords := &mockCoordinateReader{}
	metrics := newMockMetrics()
	svc := NewIngestService(a, headers, coords, metrics, discardLogger())
	return svc, headers, coords, metrics, newFixture(t, a, "alpha", "motor")
}

func TestImportChannels_Micromed(t *testing.T) {
	ctx := context.Background()
	svc, headers, _, metrics, fx := newTestIngestService(t)

	path := filepath.Join(t.TempDir(), "EEG_1.TRC")
	headers.headers[path] = &secondary.Header{
		Vendor: "micromed",
		Channels: []secondary.ChannelInfo{
			{Label: "GA1", Units: "uV", LowCutoff: 0, HighCutoff: 300, Reference: "G2"},
			{Label: "GA2", Units: "uV", LowCutoff: 0.15, HighCutoff: 300, Reference: "G2"},
			{Label: "MKR1+", Units: "dimentionless", LowCutoff: 0, HighCutoff: 0},
			{Label: "", Units: "uV"},
		},
	}

	resp, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{
		RecordingID: fx.recording.ID(),
		Path:        path,
		GroupName:   "clinical-ECoG",
	})
	if err != nil {
		t.Fatalf("ImportChannels failed: %v", err)
	}
	if resp.Format != "micromed" || resp.Count != 4 {
		t.Errorf("response = %+v", resp)
	}

	group, ok, err := fx.recording.Channels(ctx)
	if err != nil || !ok {
		t.Fatalf("channels not attached: %v", err)
	}
	if group.ID() != resp.ChannelsID {
		t.Errorf("attached group %d, response %d", group.ID(), resp.ChannelsID)
	}
	if name, _ := group.Name(ctx); name != "clinical-ECoG" {
		t.Errorf("group name = %q", name)
	}

	d, err := group.Table().Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	tests := []struct {
		row    int
		name   string
		typ    string
		group  string
		units  string
		lowNaN bool
	}{
		{0, "GA1", "ECOG", "GA", "uV", true},
		{1, "GA2", "ECOG", "GA", "uV", false},
		{2, "MKR1+", "TRIG", "n/a", "", true},
		{3, "chan4", "OTHER", "n/a", "uV", true},
	}
	for _, tt := range tests {
		if got := d.Text(tt.row, "name"); got != tt.name {
			t.Errorf("row %d name = %q, want %q", tt.row, got, tt.name)
		}
		if got := d.Text(tt.row, "type"); got != tt.typ {
			t.Errorf("row %d type = %q, want %q", tt.row, got, tt.typ)
		}
		if got := d.Text(tt.row, "groups"); got != tt.group {
			t.Errorf("row %d groups = %q, want %q", tt.row, got, tt.group)
		}
		if got := d.Text(tt.row, "units"); got != tt.units {
			t.Errorf("row %d units = %q, want %q", tt.row, got, tt.units)
		}
		if got := math.IsNaN(d.Float(tt.row, "low_cutoff")); got != tt.lowNaN {
			t.Errorf("row %d low_cutoff NaN = %v, want %v", tt.row, got, tt.lowNaN)
		}
		if got := d.Text(tt.row, "status"); got != "good" {
			t.Errorf("row %d status = %q", tt.row, got)
		}
	}

	files, _ := fx.recording.ListFiles(ctx)
	if len(files) != 1 {
		t.Errorf("signal file not registered, %d files", len(files))
	}
	if got := metrics.outcomes["import_channels"]; !slices.Equal(got, []bool{true}) {
		t.Errorf("metrics outcomes = %v", got)
	}
}

func TestImportChannels_Blackrock(t *testing.T) {
	ctx := context.Background()
	svc, headers, _, _, fx := newTestIngestService(t)

	dir := t.TempDir()
	nev := filepath.Join(dir, "datafile001.nev")
	ns3 := filepath.Join(dir, "datafile001.ns3")
	if err := os.WriteFile(ns3, nil, 0644); err != nil {
		t.Fatal(err)
	}
	headers.headers[ns3] = &secondary.Header{
		Channels: []secondary.ChannelInfo{
			{Label: "chan1", Units: "uV", LowCutoff: 0.3, HighCutoff: 7500},
			{Label: "chan2", Units: "uV", LowCutoff: 0.3, HighCutoff: 7500},
		},
	}

	resp, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), Path: nev})
	if err != nil {
		t.Fatalf("ImportChannels failed: %v", err)
	}
	if !slices.Equal(headers.calls, []string{ns3 + "|blackrock"}) {
		t.Errorf("header read from %v, want the .ns3 file", headers.calls)
	}

	group, _, _ := fx.recording.Channels(ctx)
	if name, _ := group.Name(ctx); name != "datafile001" {
		t.Errorf("default group name = %q", name)
	}
	d, _ := group.Table().Read(ctx)
	if d.Len() != resp.Count || d.Len() != 2 {
		t.Fatalf("rows = %d", d.Len())
	}
	for row := range d.Len() {
		if d.Text(row, "type") != "ECOG" || d.Text(row, "groups") != "HD" || d.Text(row, "units") != "μV" {
			t.Errorf("row %d = %v", row, d.Row(row))
		}
		if d.Float(row, "low_cutoff") != 0.3 {
			t.Errorf("row %d low_cutoff = %v", row, d.Float(row, "low_cutoff"))
		}
	}
}

func TestImportChannels_BCI2000NamesOnly(t *testing.T) {
	ctx := context.Background()
	svc, headers, _, _, fx := newTestIngestService(t)

	path := filepath.Join(t.TempDir(), "run1.dat")
	headers.headers[path] = &secondary.Header{
		Channels: []secondary.ChannelInfo{{Label: "1", LowCutoff: math.NaN(), HighCutoff: math.NaN()}, {Label: "2", LowCutoff: math.NaN(), HighCutoff: math.NaN()}},
	}
	if _, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), Path: path, GroupName: "bci"}); err != nil {
		t.Fatalf("ImportChannels failed: %v", err)
	}

	group, _, _ := fx.recording.Channels(ctx)
	d, _ := group.Table().Read(ctx)
	if d.Text(1, "name") != "2" || d.Text(1, "type") != "" || d.Text(1, "status") != "" {
		t.Errorf("row 1 = %v", d.Row(1))
	}
}

func TestImportChannels_UsesRegisteredFile(t *testing.T) {
	ctx := context.Background()
	svc, headers, _, _, fx := newTestIngestService(t)

	path := filepath.Join(t.TempDir(), "EEG_1.TRC")
	if _, err := fx.recording.AddFile(ctx, "micromed", path); err != nil {
		t.Fatal(err)
	}
	headers.headers[path] = &secondary.Header{Channels: []secondary.ChannelInfo{{Label: "GA1"}}}

	resp, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), GroupName: "g"})
	if err != nil {
		t.Fatalf("ImportChannels failed: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Count = %d", resp.Count)
	}
}

func TestImportChannels_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no signal file", func(t *testing.T) {
		svc, _, _, metrics, fx := newTestIngestService(t)
		_, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), GroupName: "g"})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
		if got := metrics.outcomes["import_channels"]; !slices.Equal(got, []bool{false}) {
			t.Errorf("metrics outcomes = %v", got)
		}
	})

	t.Run("two signal files", func(t *testing.T) {
		svc, _, _, _, fx := newTestIngestService(t)
		dir := t.TempDir()
		for _, name := range []string{"a.trc", "b.trc"} {
			if _, err := fx.recording.AddFile(ctx, "micromed", filepath.Join(dir, name)); err != nil {
				t.Fatal(err)
			}
		}
		_, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), GroupName: "g"})
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("format without channels", func(t *testing.T) {
		svc, _, _, _, fx := newTestIngestService(t)
		_, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), Path: "/data/scan.nii.gz"})
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("header failure rolls back", func(t *testing.T) {
		svc, headers, _, _, fx := newTestIngestService(t)
		headers.readErr = errors.New("truncated header")
		_, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: fx.recording.ID(), Path: filepath.Join(t.TempDir(), "x.trc")})
		if err == nil {
			t.Fatal("expected error")
		}
		if files, _ := fx.recording.ListFiles(ctx); len(files) != 0 {
			t.Errorf("file link should be rolled back, got %d", len(files))
		}
	})

	t.Run("unknown recording", func(t *testing.T) {
		svc, _, _, _, _ := newTestIngestService(t)
		_, err := svc.ImportChannels(ctx, primary.ImportChannelsRequest{RecordingID: 999})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestImportElectrodes(t *testing.T) {
	ctx := context.Background()
	svc, _, coords, _, fx := newTestIngestService(t)

	coords.coords = []secondary.Coordinate{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}
	resp, err := svc.ImportElectrodes(ctx, primary.ImportElectrodesRequest{
		RecordingID:     fx.recording.ID(),
		Path:            filepath.Join(t.TempDir(), "elec.txt"),
		CoordinateUnits: "cm",
	})
	if err != nil {
		t.Fatalf("ImportElectrodes failed: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Count = %d", resp.Count)
	}

	group, ok, err := fx.recording.Electrodes(ctx)
	if err != nil || !ok {
		t.Fatalf("electrodes not attached: %v", err)
	}
	if units, _ := group.CoordinateUnits(ctx); units != "cm" {
		t.Errorf("CoordinateUnits = %q", units)
	}
	if system, _ := group.CoordinateSystem(ctx); system != "ACPC" {
		t.Errorf("CoordinateSystem = %q, want default", system)
	}
	d, _ := group.Table().Read(ctx)
	if d.Text(0, "name") != "chan1" || d.Text(1, "name") != "chan2" {
		t.Errorf("names not back-filled: %v %v", d.Row(0), d.Row(1))
	}
	if d.Float(1, "z") != 6 {
		t.Errorf("z = %v", d.Float(1, "z"))
	}

	coords.coords = nil
	if _, err := svc.ImportElectrodes(ctx, primary.ImportElectrodesRequest{RecordingID: fx.recording.ID(), Path: "empty.txt"}); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("empty file: expected validation error, got %v", err)
	}
}

func TestImportElectrodes_NamedContactsGetGroups(t *testing.T) {
	ctx := context.Background()
	svc, _, coords, _, fx := newTestIngestService(t)

	coords.coords = []secondary.Coordinate{{Name: "GA1"}, {Name: "GA2"}, {Name: "ECG1"}}
	if _, err := svc.ImportElectrodes(ctx, primary.ImportElectrodesRequest{RecordingID: fx.recording.ID(), Path: "/data/elec.tsv", GroupName: "grid"}); err != nil {
		t.Fatalf("ImportElectrodes failed: %v", err)
	}
	group, _, _ := fx.recording.Electrodes(ctx)
	d, _ := group.Table().Read(ctx)
	want := []string{"GA", "GA", "n/a"}
	for i, g := range want {
		if got := d.Text(i, "group"); got != g {
			t.Errorf("row %d group = %q, want %q", i, got, g)
		}
	}
}

func TestImportEvents(t *testing.T) {
	ctx := context.Background()
	svc, headers, _, _, fx := newTestIngestService(t)

	path := filepath.Join(t.TempDir(), "EEG_1.TRC")
	if _, err := fx.recording.AddFile(ctx, "micromed", path); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2020, 5, 6, 9, 30, 0, 0, time.UTC)
	headers.headers[path] = &secondary.Header{
		StartTime: start,
		Duration:  90,
		Events: []secondary.EventInfo{
			{Onset: 1, Duration: 0.5, Value: "10", TrialType: "move"},
			{Onset: 3, Duration: math.NaN(), Value: "11", TrialType: "rest"},
		},
	}

	resp, err := svc.ImportEvents(ctx, primary.ImportEventsRequest{RunID: fx.run.ID()})
	if err != nil {
		t.Fatalf("ImportEvents failed: %v", err)
	}
	if resp.Count != 2 || !resp.StartTimeSet {
		t.Errorf("response = %+v", resp)
	}

	events, _ := fx.run.Events().Read(ctx)
	if events.Len() != 2 || events.Text(1, "trial_type") != "rest" || !math.IsNaN(events.Float(1, "duration")) {
		t.Errorf("events = %v %v", events.Row(0), events.Row(1))
	}

	got, _ := fx.run.StartTime(ctx)
	if !got.Equal(start) {
		t.Errorf("start_time = %v, want %v", got, start)
	}
	end, _ := fx.run.EndTime(ctx)
	if !end.Equal(start.Add(90 * time.Second)) {
		t.Errorf("end_time = %v", end)
	}
	if d, _ := fx.run.Duration(ctx); d != 90 {
		t.Errorf("duration = %v", d)
	}

	// a second import replaces the events
	headers.headers[path].Events = headers.headers[path].Events[:1]
	if _, err := svc.ImportEvents(ctx, primary.ImportEventsRequest{RunID: fx.run.ID()}); err != nil {
		t.Fatal(err)
	}
	if events, _ := fx.run.Events().Read(ctx); events.Len() != 1 {
		t.Errorf("events after re-import = %d", events.Len())
	}
}

func TestImportEvents_WithoutSignalFile(t *testing.T) {
	svc, _, _, _, fx := newTestIngestService(t)
	_, err := svc.ImportEvents(context.Background(), primary.ImportEventsRequest{RunID: fx.run.ID()})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGuessModality(t *testing.T) {
	ctx := context.Background()
	a := setupArchive(t)
	svc := NewIngestService(a, newMockHeaderReader(), &mockCoordinateReader{}, nil, nil)

	tests := []struct {
		session string
		task    string
		want    string
	}{
		{"IEMU", "motor", "ieeg"},
		{"MRI", "t1_anatomy_scan", "T1w"},
		{"MRI", "motor", "bold"},
		{"BCI", "motor", ""},
	}
	subj, err := a.AddSubject(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.session+"/"+tt.task, func(t *testing.T) {
			sess, err := subj.AddSession(ctx, tt.session)
			if err != nil {
				t.Fatal(err)
			}
			run, err := sess.AddRun(ctx, tt.task)
			if err != nil {
				t.Fatal(err)
			}
			got, err := svc.GuessModality(ctx, run.ID())
			if err != nil {
				t.Fatalf("GuessModality failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("GuessModality = %q, want %q", got, tt.want)
			}
		})
	}
}
