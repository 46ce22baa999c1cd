// Package header reads recording-file headers from sidecar files written next
// to the recording by the vendor export tools.
//
// For a recording at <path> the reader looks for:
//
//	<path>.header.json    {"vendor": "...", "start_time": "RFC 3339", "duration": seconds}
//	<path>.channels.tsv   name, units, low_cutoff, high_cutoff, reference
//	<path>.events.tsv     onset, duration, value, trial_type
//
// Every sidecar is optional. A recording without any of them yields an empty
// header with the vendor set to the classifier tag.
package header

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/aspen/internal/ports/secondary"
)

// missing marks an empty cell in a sidecar.
const missing = "n/a"

// SidecarReader implements secondary.HeaderReader over TSV/JSON sidecars.
type SidecarReader struct{}

// NewSidecarReader creates a new SidecarReader.
func NewSidecarReader() *SidecarReader {
	return &SidecarReader{}
}

var _ secondary.HeaderReader = (*SidecarReader)(nil)

type meta struct {
	Vendor    string   `json:"vendor"`
	StartTime string   `json:"start_time"`
	Duration  *float64 `json:"duration"`
}

// ReadHeader implements secondary.HeaderReader.
func (r *SidecarReader) ReadHeader(ctx context.Context, path, format string) (*secondary.Header, error) {
	h := &secondary.Header{Vendor: format, Duration: math.NaN()}

	data, err := os.ReadFile(path + ".header.json")
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	default:
		var m meta
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse header of %s: %w", path, err)
		}
		if m.Vendor != "" {
			h.Vendor = m.Vendor
		}
		if m.StartTime != "" {
			t, err := time.Parse(time.RFC3339, m.StartTime)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time of %s: %w", path, err)
			}
			h.StartTime = t
		}
		if m.Duration != nil {
			h.Duration = *m.Duration
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := readTSV(path + ".channels.tsv")
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		low, err := number(row["low_cutoff"])
		if err != nil {
			return nil, fmt.Errorf("channels row %d: low_cutoff: %w", i+1, err)
		}
		high, err := number(row["high_cutoff"])
		if err != nil {
			return nil, fmt.Errorf("channels row %d: high_cutoff: %w", i+1, err)
		}
		h.Channels = append(h.Channels, secondary.ChannelInfo{
			Label:      row["name"],
			Units:      row["units"],
			LowCutoff:  low,
			HighCutoff: high,
			Reference:  row["reference"],
		})
	}

	rows, err = readTSV(path + ".events.tsv")
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		onset, err := number(row["onset"])
		if err != nil {
			return nil, fmt.Errorf("events row %d: onset: %w", i+1, err)
		}
		duration, err := number(row["duration"])
		if err != nil {
			return nil, fmt.Errorf("events row %d: duration: %w", i+1, err)
		}
		h.Events = append(h.Events, secondary.EventInfo{
			Onset:     onset,
			Duration:  duration,
			Value:     row["value"],
			TrialType: row["trial_type"],
		})
	}

	return h, nil
}

// readTSV returns the rows of a headed TSV file keyed by column name. "n/a"
// cells come back empty. A missing file has no rows.
func readTSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.LazyQuotes = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	for i := range head {
		head[i] = strings.TrimSpace(head[i])
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		row := make(map[string]string, len(head))
		for i, col := range head {
			v := strings.TrimSpace(rec[i])
			if v == missing {
				v = ""
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func number(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
