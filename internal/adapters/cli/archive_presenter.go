package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
)

const rule = "────────────────────────────────────────────────────────────────"

// ArchivePresenter renders archive entities. It holds no state besides the
// writer; every method reads what it prints through the entity handles.
type ArchivePresenter struct {
	out io.Writer
	hit *color.Color
}

// NewArchivePresenter creates a presenter writing to out.
func NewArchivePresenter(out io.Writer) *ArchivePresenter {
	return &ArchivePresenter{
		out: out,
		hit: color.New(color.FgGreen, color.Bold),
	}
}

func (p *ArchivePresenter) mark(line string, e archive.Entity, hits archive.RefSet) string {
	if hits != nil && hits.Has(e) {
		return p.hit.Sprint("* " + line)
	}
	return "  " + line
}

// Subjects lists subjects with their first recording date. Entities in hits
// are highlighted.
func (p *ArchivePresenter) Subjects(ctx context.Context, subjects []archive.Subject, hits archive.RefSet) error {
	if len(subjects) == 0 {
		fmt.Fprintln(p.out, "No subjects found")
		return nil
	}

	fmt.Fprintf(p.out, "\n  %-6s %-30s %s\n", "ID", "CODES", "FIRST RUN")
	fmt.Fprintln(p.out, rule)
	for _, s := range subjects {
		name, err := s.Name(ctx)
		if err != nil {
			return err
		}
		first, err := s.FirstRunTime(ctx)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%-6d %-30s %s", s.ID(), name, dateOrUnknown(first))
		fmt.Fprintln(p.out, p.mark(line, s, hits))
	}
	fmt.Fprintln(p.out)
	return nil
}

// SessionLabel renders one session through SessionLabel.
func (p *ArchivePresenter) SessionLabel(ctx context.Context, s archive.Session) (string, error) {
	name, err := s.Name(ctx)
	if err != nil {
		return "", err
	}
	start, err := s.StartTime(ctx)
	if err != nil {
		return "", err
	}

	var strength string
	number := math.NaN()
	var created time.Time
	switch name {
	case "MRI":
		v, err := s.Get(ctx, "MagneticFieldStrength")
		if err != nil {
			return "", err
		}
		strength, _ = v.(string)
	case "BCI":
		v, err := s.Get(ctx, "session_number")
		if err != nil {
			return "", err
		}
		if f, ok := v.(float64); ok {
			number = f
		}
		v, err = s.Get(ctx, "data_created")
		if err != nil {
			return "", err
		}
		created, _ = v.(time.Time)
	}
	return SessionLabel(name, start, strength, number, created), nil
}

// Sessions lists sessions in the given order, numbered from 1.
func (p *ArchivePresenter) Sessions(ctx context.Context, sessions []archive.Session, hits archive.RefSet) error {
	if len(sessions) == 0 {
		fmt.Fprintln(p.out, "No sessions found")
		return nil
	}
	for i, s := range sessions {
		label, err := p.SessionLabel(ctx, s)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("#%2d  %s  [id %d]", i+1, label, s.ID())
		fmt.Fprintln(p.out, p.mark(line, s, hits))
	}
	return nil
}

// Runs lists runs in the given order, numbered from 1.
func (p *ArchivePresenter) Runs(ctx context.Context, runs []archive.Run, hits archive.RefSet) error {
	if len(runs) == 0 {
		fmt.Fprintln(p.out, "No runs found")
		return nil
	}
	for i, r := range runs {
		task, err := r.TaskName(ctx)
		if err != nil {
			return err
		}
		start, err := r.StartTime(ctx)
		if err != nil {
			return err
		}
		when := "no start time"
		if !start.IsZero() {
			when = start.Format("02 Jan 2006 15:04")
		}
		line := fmt.Sprintf("%s  (%s)  [id %d]", RunLabel(i+1, task), when, r.ID())
		fmt.Fprintln(p.out, p.mark(line, r, hits))
	}
	return nil
}

// Recordings lists recordings with their modality and attached groups.
func (p *ArchivePresenter) Recordings(ctx context.Context, recs []archive.Recording) error {
	if len(recs) == 0 {
		fmt.Fprintln(p.out, "No recordings found")
		return nil
	}
	for _, r := range recs {
		mod, err := r.Modality(ctx)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("  [id %d] %s", r.ID(), mod)
		if ch, ok, err := r.Channels(ctx); err != nil {
			return err
		} else if ok {
			name, _ := ch.Name(ctx)
			line += fmt.Sprintf("  channels: %s", name)
		}
		if el, ok, err := r.Electrodes(ctx); err != nil {
			return err
		} else if ok {
			name, _ := el.Name(ctx)
			line += fmt.Sprintf("  electrodes: %s", name)
		}
		fmt.Fprintln(p.out, line)
	}
	return nil
}

// Protocols lists protocols by label.
func (p *ArchivePresenter) Protocols(ctx context.Context, protocols []archive.Protocol) error {
	if len(protocols) == 0 {
		fmt.Fprintln(p.out, "No protocols found")
		return nil
	}
	for _, pr := range protocols {
		metc, err := pr.METC(ctx)
		if err != nil {
			return err
		}
		signed, err := pr.DateOfSignature(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "  [id %d] %s\n", pr.ID(), ProtocolLabel(metc, signed))
	}
	return nil
}

// Attributes prints the attribute panel of one entity.
func (p *ArchivePresenter) Attributes(e archive.Entity, fields []archive.Field) {
	fmt.Fprintf(p.out, "\n%s\n", e.Ref())
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		value := formatValue(f.Type, f.Value)
		if len(f.Values) > 0 && value == "" {
			value = color.New(color.FgYellow).Sprint("(not set)")
		}
		fmt.Fprintf(w, "  %s\t%s\n", f.Label, value)
	}
	w.Flush()
	fmt.Fprintln(p.out)
}

// Files lists file paths with their format.
func (p *ArchivePresenter) Files(ctx context.Context, files []archive.File) error {
	if len(files) == 0 {
		fmt.Fprintln(p.out, "No files linked")
		return nil
	}
	for _, f := range files {
		format, err := f.Format(ctx)
		if err != nil {
			return err
		}
		path, err := f.Path(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "  [id %d] %-10s %s\n", f.ID(), format, path)
	}
	return nil
}

// Table prints bulk rows, one line per row.
func (p *ArchivePresenter) Table(d *archive.Data) {
	if d.Len() == 0 {
		fmt.Fprintln(p.out, "No rows")
		return
	}
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	columns := d.Columns()
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for row := range d.Len() {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatValue(c.Type, d.Value(row, c.Name))
			if cells[i] == "" {
				cells[i] = "-"
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func formatValue(t catalog.Type, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return fmt.Sprintf("%g", x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if t == catalog.Date {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	}
	return fmt.Sprint(v)
}
