package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/core/bids"
	"github.com/example/aspen/internal/ports/primary"
	"github.com/example/aspen/internal/ports/secondary"
)

// notAvailable is written for missing cells.
const notAvailable = "n/a"

// ExportServiceImpl implements the ExportService interface.
type ExportServiceImpl struct {
	archive *archive.Archive
	sink    secondary.BlobStore
	metrics secondary.MetricsRecorder
	logger  *slog.Logger
}

// NewExportService creates a new ExportService with injected dependencies.
func NewExportService(a *archive.Archive, sink secondary.BlobStore, metrics secondary.MetricsRecorder, logger *slog.Logger) *ExportServiceImpl {
	if metrics == nil {
		metrics = secondary.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportServiceImpl{
		archive: a,
		sink:    sink,
		metrics: metrics,
		logger:  logger.With("component", "export", "sink", sink.Driver()),
	}
}

var _ primary.ExportService = (*ExportServiceImpl)(nil)

// ExportRuns writes the sidecar files of every requested run.
func (s *ExportServiceImpl) ExportRuns(ctx context.Context, req primary.ExportRequest) (_ *primary.ExportResponse, err error) {
	start := time.Now()
	defer func() { s.metrics.Observe(ctx, "export_runs", err == nil, time.Since(start)) }()

	resp := &primary.ExportResponse{}
	for _, id := range req.RunIDs {
		run, err := s.archive.Run(ctx, id)
		if err != nil {
			return resp, err
		}
		if err := s.exportRun(ctx, run, req.Overwrite, resp); err != nil {
			return resp, fmt.Errorf("failed to export %s: %w", run, err)
		}
	}

	s.logger.Info("export finished", "runs", len(req.RunIDs), "written", len(resp.Written), "skipped", len(resp.Skipped))
	return resp, nil
}

func (s *ExportServiceImpl) exportRun(ctx context.Context, run archive.Run, overwrite bool, resp *primary.ExportResponse) error {
	name, err := s.bidsName(ctx, run)
	if err != nil {
		return err
	}

	recs, err := run.ListRecordings(ctx)
	if err != nil {
		return err
	}

	datatype := "beh"
	for _, rec := range recs {
		mod, err := rec.Modality(ctx)
		if err != nil {
			return err
		}
		level, ok := map[string]bids.Level{"ieeg": bids.IEEG, "eeg": bids.EEG}[mod]
		if !ok {
			resp.Skipped = append(resp.Skipped, primary.ExportSkip{Entity: rec.String(), Reason: "no sidecars for modality " + mod})
			continue
		}
		datatype = mod
		dir := name.Folder() + "/" + mod + "/"

		if err := s.exportRecordingSidecar(ctx, run, rec, name, level, dir, overwrite, resp); err != nil {
			return err
		}

		group, ok, err := rec.Channels(ctx)
		if err != nil {
			return err
		}
		if ok {
			d, err := group.Table().Read(ctx)
			if err != nil {
				return err
			}
			if err := s.putTSV(ctx, dir, name, bids.Channels, d, overwrite, resp); err != nil {
				return err
			}
		} else {
			resp.Skipped = append(resp.Skipped, primary.ExportSkip{Entity: rec.String(), Reason: "no channels attached"})
		}

		elec, ok, err := rec.Electrodes(ctx)
		if err != nil {
			return err
		}
		if ok {
			if err := s.exportElectrodes(ctx, elec, name, mod, dir, overwrite, resp); err != nil {
				return err
			}
		}
	}

	events, err := run.Events().Read(ctx)
	if err != nil {
		return err
	}
	if events.Len() == 0 {
		resp.Skipped = append(resp.Skipped, primary.ExportSkip{Entity: run.String(), Reason: "no events"})
		return nil
	}
	return s.putTSV(ctx, name.Folder()+"/"+datatype+"/", name, bids.Events, events, overwrite, resp)
}

func (s *ExportServiceImpl) exportElectrodes(ctx context.Context, elec archive.Electrodes, name bids.Name, mod, dir string, overwrite bool, resp *primary.ExportResponse) error {
	system, err := elec.CoordinateSystem(ctx)
	if err != nil {
		return err
	}
	units, err := elec.CoordinateUnits(ctx)
	if err != nil {
		return err
	}
	name.Space = bids.Label(system)

	d, err := elec.Table().Read(ctx)
	if err != nil {
		return err
	}
	if err := s.putTSV(ctx, dir, name, bids.Electrodes, d, overwrite, resp); err != nil {
		return err
	}

	prefix := "iEEG"
	if mod == "eeg" {
		prefix = "EEG"
	}
	coords := map[string]string{
		prefix + "CoordinateSystem": system,
		prefix + "CoordinateUnits":  units,
	}
	return s.putJSON(ctx, dir, name, bids.Coordsystem, coords, overwrite, resp)
}

// exportRecordingSidecar writes the <name>_<modality>.json file describing
// the task and the acquisition.
func (s *ExportServiceImpl) exportRecordingSidecar(ctx context.Context, run archive.Run, rec archive.Recording, name bids.Name, level bids.Level, dir string, overwrite bool, resp *primary.ExportResponse) error {
	task, err := run.TaskName(ctx)
	if err != nil {
		return err
	}
	description, err := textAttr(ctx, run.Record, "task_description")
	if err != nil {
		return err
	}
	performance, err := textAttr(ctx, run.Record, "performance")
	if err != nil {
		return err
	}
	acquisition, err := textAttr(ctx, run.Record, "acquisition")
	if err != nil {
		return err
	}

	fields := map[string]any{
		"TaskName":        task,
		"TaskDescription": bids.TaskDescription(description, performance, acquisition),
	}
	for _, attr := range []string{"Manufacturer", "SamplingFrequency"} {
		v, err := rec.Get(ctx, attr)
		if err != nil {
			return err
		}
		fields[attr] = jsonValue(v)
	}

	file, err := name.Make(level)
	if err != nil {
		return err
	}
	key := dir + strings.TrimSuffix(file, ".eeg") + ".json"
	body, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}
	return s.put(ctx, key, "application/json", body, overwrite, resp)
}

// bidsName derives the entities of a run: the subject's primary code, the
// session type numbered among the subject's sessions of that type, the task
// and the run numbered among the session's runs of that task.
func (s *ExportServiceImpl) bidsName(ctx context.Context, run archive.Run) (bids.Name, error) {
	var n bids.Name

	session, err := run.Session(ctx)
	if err != nil {
		return n, err
	}
	subject, err := session.Subject(ctx)
	if err != nil {
		return n, err
	}
	code, err := subject.PrimaryCode(ctx)
	if err != nil {
		return n, err
	}
	if code == "" {
		return n, fmt.Errorf("%s has no code", subject)
	}
	n.Sub = bids.Label(code)

	sessionName, err := session.Name(ctx)
	if err != nil {
		return n, err
	}
	sessions, err := subject.ListSessions(ctx)
	if err != nil {
		return n, err
	}
	idx, err := ordinal(ctx, sessions, session, func(ctx context.Context, x archive.Session) (string, error) { return x.Name(ctx) })
	if err != nil {
		return n, err
	}
	n.Ses = strings.ToLower(bids.Label(sessionName)) + strconv.Itoa(idx)

	task, err := run.TaskName(ctx)
	if err != nil {
		return n, err
	}
	n.Task = bids.RenameTask(task)

	runs, err := session.ListRuns(ctx)
	if err != nil {
		return n, err
	}
	idx, err = ordinal(ctx, runs, run, func(ctx context.Context, x archive.Run) (string, error) { return x.TaskName(ctx) })
	if err != nil {
		return n, err
	}
	n.Run = strconv.Itoa(idx)

	acq, err := textAttr(ctx, run.Record, "acquisition")
	if err != nil {
		return n, err
	}
	n.Acq = bids.Label(acq)
	return n, nil
}

// ordinal returns the 1-based position of target among the entities of list
// that share its key.
func ordinal[E archive.Entity](ctx context.Context, list []E, target E, key func(context.Context, E) (string, error)) (int, error) {
	want, err := key(ctx, target)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range list {
		k, err := key(ctx, e)
		if err != nil {
			return 0, err
		}
		if k != want {
			continue
		}
		n++
		if e.Ref() == target.Ref() {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%s not found among its siblings", target.Ref())
}

func (s *ExportServiceImpl) putTSV(ctx context.Context, dir string, name bids.Name, level bids.Level, d *archive.Data, overwrite bool, resp *primary.ExportResponse) error {
	file, err := name.Make(level)
	if err != nil {
		return err
	}
	body, err := encodeTSV(d)
	if err != nil {
		return err
	}
	return s.put(ctx, dir+file, "text/tab-separated-values", body, overwrite, resp)
}

func (s *ExportServiceImpl) putJSON(ctx context.Context, dir string, name bids.Name, level bids.Level, v any, overwrite bool, resp *primary.ExportResponse) error {
	file, err := name.Make(level)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.put(ctx, dir+file, "application/json", body, overwrite, resp)
}

func (s *ExportServiceImpl) put(ctx context.Context, key, contentType string, body []byte, overwrite bool, resp *primary.ExportResponse) error {
	if overwrite {
		if _, err := s.sink.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to replace %s: %w", key, err)
		}
	}
	if _, err := s.sink.Put(ctx, key, bytes.NewReader(body), secondary.BlobPutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug("wrote export file", "key", key, "bytes", len(body))
	resp.Written = append(resp.Written, key)
	return nil
}

// encodeTSV renders d with a header row. Floats use three decimals; missing
// cells are written n/a.
func encodeTSV(d *archive.Data) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	columns := d.Columns()
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, len(columns))
	for row := range d.Len() {
		for i, c := range columns {
			record[i] = formatCell(c.Type, d.Value(row, c.Name))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatCell(t catalog.Type, v any) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return notAvailable
		}
		return fmt.Sprintf("%.3f", x)
	case time.Time:
		if x.IsZero() {
			return notAvailable
		}
		if t == catalog.Date {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02T15:04:05")
	case string:
		if x == "" {
			return notAvailable
		}
		return x
	}
	return notAvailable
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case nil:
		return notAvailable
	case float64:
		if math.IsNaN(x) {
			return notAvailable
		}
	case string:
		if x == "" {
			return notAvailable
		}
	}
	return v
}

func textAttr(ctx context.Context, r archive.Record, attribute string) (string, error) {
	v, err := r.Get(ctx, attribute)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}
