// Package app contains the application layer: service implementations that
// move data between recording files, the archive and the export sink.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/core/channels"
	"github.com/example/aspen/internal/core/filetype"
	"github.com/example/aspen/internal/core/modality"
	"github.com/example/aspen/internal/errs"
	"github.com/example/aspen/internal/ports/primary"
	"github.com/example/aspen/internal/ports/secondary"
)

// channelSources are the formats whose headers list channels.
var channelSources = filetype.SignalFormats()

// IngestServiceImpl implements the IngestService interface.
type IngestServiceImpl struct {
	archive     *archive.Archive
	headers     secondary.HeaderReader
	coordinates secondary.CoordinateReader
	metrics     secondary.MetricsRecorder
	logger      *slog.Logger
}

// NewIngestService creates a new IngestService with injected dependencies.
func NewIngestService(
	a *archive.Archive,
	headers secondary.HeaderReader,
	coordinates secondary.CoordinateReader,
	metrics secondary.MetricsRecorder,
	logger *slog.Logger,
) *IngestServiceImpl {
	if metrics == nil {
		metrics = secondary.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestServiceImpl{
		archive:     a,
		headers:     headers,
		coordinates: coordinates,
		metrics:     metrics,
		logger:      logger.With("component", "ingest"),
	}
}

var _ primary.IngestService = (*IngestServiceImpl)(nil)

// ImportChannels creates a channel group from the header of a recording file.
func (s *IngestServiceImpl) ImportChannels(ctx context.Context, req primary.ImportChannelsRequest) (_ *primary.ImportChannelsResponse, err error) {
	defer s.observe(ctx, "import_channels", time.Now(), &err)

	rec, err := s.archive.Recording(ctx, req.RecordingID)
	if err != nil {
		return nil, err
	}

	resp := &primary.ImportChannelsResponse{}
	err = s.archive.Transact(ctx, func(ctx context.Context) error {
		path, format, err := s.signalFile(ctx, rec.Record, req.Path)
		if err != nil {
			return err
		}
		if format == filetype.Blackrock {
			path = blackrockSignal(path)
		}

		h, err := s.headers.ReadHeader(ctx, path, format)
		if err != nil {
			return fmt.Errorf("failed to read header of %s: %w", path, err)
		}

		name := req.GroupName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		group, err := s.archive.AddChannels(ctx, name)
		if err != nil {
			return err
		}

		d, err := group.Table().Empty(len(h.Channels))
		if err != nil {
			return err
		}
		if err := fillChannels(d, format, h.Channels); err != nil {
			return fmt.Errorf("failed to build channels of %s: %w", path, err)
		}
		if err := group.Table().Write(ctx, d); err != nil {
			return err
		}
		if err := rec.AttachChannels(ctx, group); err != nil {
			return err
		}

		resp.ChannelsID = group.ID()
		resp.Format = format
		resp.Count = d.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported channels",
		"recording_id", req.RecordingID,
		"channels_id", resp.ChannelsID,
		"format", resp.Format,
		"count", resp.Count)
	return resp, nil
}

// fillChannels writes the header channel list into d following the
// conventions of each vendor.
func fillChannels(d *archive.Data, format string, info []secondary.ChannelInfo) error {
	labels := make([]string, len(info))
	units := make([]string, len(info))
	low := make([]float64, len(info))
	high := make([]float64, len(info))
	refs := make([]string, len(info))
	for i, ch := range info {
		labels[i] = ch.Label
		units[i] = ch.Units
		low[i] = ch.LowCutoff
		high[i] = ch.HighCutoff
		refs[i] = ch.Reference
	}

	if err := d.SetTexts("name", channels.BackfillNames(labels)); err != nil {
		return err
	}

	switch format {
	case filetype.Micromed:
		types, groups := channels.Derive(labels)
		for i := range units {
			units[i] = strings.ReplaceAll(units[i], "dimentionless", "")
			if low[i] == 0 {
				low[i] = math.NaN()
			}
		}
		return setAll(d,
			texts("type", types), texts("units", units), texts("reference", refs), texts("groups", groups),
			floats("low_cutoff", low), floats("high_cutoff", high), fill("status", "good"))

	case filetype.Blackrock:
		for i := range units {
			units[i] = strings.ReplaceAll(units[i], "uV", "μV")
		}
		return setAll(d,
			fill("type", channels.ECOG), texts("units", units), fill("groups", "HD"),
			floats("low_cutoff", low), floats("high_cutoff", high), fill("status", "good"))

	case filetype.BCI2000:
		// the header carries names only
		return nil
	}
	return fmt.Errorf("no channel conventions for format %q", format)
}

type columnSetter func(*archive.Data) error

func texts(column string, values []string) columnSetter {
	return func(d *archive.Data) error { return d.SetTexts(column, values) }
}

func floats(column string, values []float64) columnSetter {
	return func(d *archive.Data) error { return d.SetFloats(column, values) }
}

func fill(column string, v any) columnSetter {
	return func(d *archive.Data) error { return d.Fill(column, v) }
}

func setAll(d *archive.Data, setters ...columnSetter) error {
	for _, set := range setters {
		if err := set(d); err != nil {
			return err
		}
	}
	return nil
}

// ImportElectrodes creates an electrode group from a localisation file.
func (s *IngestServiceImpl) ImportElectrodes(ctx context.Context, req primary.ImportElectrodesRequest) (_ *primary.ImportElectrodesResponse, err error) {
	defer s.observe(ctx, "import_electrodes", time.Now(), &err)

	rec, err := s.archive.Recording(ctx, req.RecordingID)
	if err != nil {
		return nil, err
	}
	coords, err := s.coordinates.ReadCoordinates(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read electrodes from %s: %w", req.Path, err)
	}
	if len(coords) == 0 {
		return nil, errs.Invalid(string(archive.KindRecording), req.RecordingID, "electrodes", req.Path, "no coordinates in file")
	}

	names := make([]string, len(coords))
	x := make([]float64, len(coords))
	y := make([]float64, len(coords))
	z := make([]float64, len(coords))
	for i, c := range coords {
		names[i], x[i], y[i], z[i] = c.Name, c.X, c.Y, c.Z
	}
	groups := slices.Repeat([]string{channels.NotApplicable}, len(names))
	if names[0] != "" {
		_, groups = channels.Derive(names)
	}
	names = channels.BackfillNames(names)

	resp := &primary.ImportElectrodesResponse{}
	err = s.archive.Transact(ctx, func(ctx context.Context) error {
		if _, err := rec.AddFile(ctx, filetype.Electrodes, req.Path); err != nil {
			return err
		}

		name := req.GroupName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))
		}
		group, err := s.archive.AddElectrodes(ctx, name)
		if err != nil {
			return err
		}
		if req.CoordinateSystem != "" {
			if err := group.Set(ctx, "CoordinateSystem", req.CoordinateSystem); err != nil {
				return err
			}
		}
		if req.CoordinateUnits != "" {
			if err := group.Set(ctx, "CoordinateUnits", req.CoordinateUnits); err != nil {
				return err
			}
		}

		d, err := group.Table().Empty(len(coords))
		if err != nil {
			return err
		}
		if err := setAll(d, texts("name", names), texts("group", groups),
			floats("x", x), floats("y", y), floats("z", z)); err != nil {
			return err
		}
		if err := group.Table().Write(ctx, d); err != nil {
			return err
		}
		if err := rec.AttachElectrodes(ctx, group); err != nil {
			return err
		}

		resp.ElectrodesID = group.ID()
		resp.Count = d.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported electrodes",
		"recording_id", req.RecordingID,
		"electrodes_id", resp.ElectrodesID,
		"count", resp.Count)
	return resp, nil
}

// ImportEvents replaces the events of a run from the header of its signal
// file. The run start time, duration and end time follow the header when it
// reports them.
func (s *IngestServiceImpl) ImportEvents(ctx context.Context, req primary.ImportEventsRequest) (_ *primary.ImportEventsResponse, err error) {
	defer s.observe(ctx, "import_events", time.Now(), &err)

	run, err := s.archive.Run(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	resp := &primary.ImportEventsResponse{}
	err = s.archive.Transact(ctx, func(ctx context.Context) error {
		recs, err := run.ListRecordings(ctx)
		if err != nil {
			return err
		}
		var path, format string
		for _, rec := range recs {
			p, f, err := s.signalFile(ctx, rec.Record, "")
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if path != "" {
				return errs.Invalid(string(archive.KindRun), req.RunID, "files", p, "more than one recording has a signal file")
			}
			path, format = p, f
		}
		if path == "" {
			return errs.NotFound("signal file", "run_id", req.RunID)
		}

		h, err := s.headers.ReadHeader(ctx, path, format)
		if err != nil {
			return fmt.Errorf("failed to read header of %s: %w", path, err)
		}

		d, err := run.Events().Empty(0)
		if err != nil {
			return err
		}
		for _, ev := range h.Events {
			if err := d.Append(map[string]any{
				"onset":      ev.Onset,
				"duration":   ev.Duration,
				"value":      ev.Value,
				"trial_type": ev.TrialType,
			}); err != nil {
				return err
			}
		}
		if err := run.Events().Write(ctx, d); err != nil {
			return err
		}
		resp.Count = d.Len()

		if h.StartTime.IsZero() {
			return nil
		}
		if err := run.Set(ctx, "start_time", h.StartTime); err != nil {
			return err
		}
		if !math.IsNaN(h.Duration) {
			if err := run.Set(ctx, "duration", h.Duration); err != nil {
				return err
			}
			end := h.StartTime.Add(time.Duration(h.Duration * float64(time.Second)))
			if err := run.Set(ctx, "end_time", end); err != nil {
				return err
			}
		}
		resp.StartTimeSet = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("imported events", "run_id", req.RunID, "count", resp.Count)
	return resp, nil
}

// GuessModality returns the likely modality of a new recording of the run.
func (s *IngestServiceImpl) GuessModality(ctx context.Context, runID int64) (string, error) {
	run, err := s.archive.Run(ctx, runID)
	if err != nil {
		return "", err
	}
	task, err := run.TaskName(ctx)
	if err != nil {
		return "", err
	}
	session, err := run.Session(ctx)
	if err != nil {
		return "", err
	}
	name, err := session.Name(ctx)
	if err != nil {
		return "", err
	}
	return modality.Guess(task, name), nil
}

// signalFile picks the file whose header is read. An explicit path is
// classified and linked to the entity; otherwise the entity must have exactly
// one file in a channel source format.
func (s *IngestServiceImpl) signalFile(ctx context.Context, owner archive.Record, path string) (string, string, error) {
	if path != "" {
		format, err := filetype.Classify(path)
		if err != nil {
			return "", "", err
		}
		if !slices.Contains(channelSources, format) {
			return "", "", errs.Invalid(string(owner.Kind()), owner.ID(), "file", path,
				fmt.Sprintf("cannot extract channels from %s files", format))
		}
		f, err := owner.AddFile(ctx, format, path)
		if err != nil {
			return "", "", err
		}
		abs, err := f.Path(ctx)
		return abs, format, err
	}

	files, err := owner.ListFiles(ctx)
	if err != nil {
		return "", "", err
	}
	var found []archive.File
	var formats []string
	for _, f := range files {
		format, err := f.Format(ctx)
		if err != nil {
			return "", "", err
		}
		if slices.Contains(channelSources, format) {
			found = append(found, f)
			formats = append(formats, format)
		}
	}
	want := "formats (" + strings.Join(channelSources, ", ") + ")"
	switch len(found) {
	case 0:
		s.logger.Warn("no signal file", "entity", owner.String(), "want", want)
		return "", "", errs.NotFound("file", "owner", owner.String())
	case 1:
		p, err := found[0].Path(ctx)
		return p, formats[0], err
	}
	return "", "", errs.Invalid(string(owner.Kind()), owner.ID(), "files", want,
		fmt.Sprintf("%d files with %s; remove the incorrect ones", len(found), want))
}

// blackrockSignal maps a .nev event file to the continuous file next to it,
// preferring .ns3 over .ns2. Other paths are returned unchanged.
func blackrockSignal(path string) string {
	if !strings.EqualFold(filepath.Ext(path), ".nev") {
		return path
	}
	for _, ext := range []string{".ns3", ".ns2"} {
		candidate := strings.TrimSuffix(path, filepath.Ext(path)) + ext
		if _, err := os.Stat(candidate); !errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
	return path
}

func (s *IngestServiceImpl) observe(ctx context.Context, op string, start time.Time, err *error) {
	s.metrics.Observe(ctx, op, *err == nil, time.Since(start))
}
