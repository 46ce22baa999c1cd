package wire

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/example/aspen/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantJSON  bool
	}{
		{name: "text info", level: "info", format: "text"},
		{name: "json debug", level: "debug", format: "json", wantDebug: true, wantJSON: true},
		{name: "unknown level falls back to info", level: "loud", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(&buf, tt.level, tt.format)

			l.Debug("debug line")
			l.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing: %q", out)
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, tt.wantJSON, out)
			}
		})
	}
}

func TestNewSink(t *testing.T) {
	ctx := context.Background()

	sink, err := newSink(ctx, config.ExportConfig{Driver: config.ExportMemory})
	if err != nil {
		t.Fatalf("memory sink: %v", err)
	}
	if sink.Driver() != "memory" {
		t.Errorf("driver = %q, want memory", sink.Driver())
	}

	sink, err = newSink(ctx, config.ExportConfig{Driver: config.ExportFS, Root: t.TempDir()})
	if err != nil {
		t.Fatalf("fs sink: %v", err)
	}
	if sink.Driver() != "fs" {
		t.Errorf("driver = %q, want fs", sink.Driver())
	}

	if _, err := newSink(ctx, config.ExportConfig{Driver: config.ExportFS}); err == nil {
		t.Error("expected error for fs sink without root")
	}
}
