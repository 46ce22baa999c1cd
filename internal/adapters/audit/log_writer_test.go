package audit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/aspen/internal/ctxutil"
)

func TestLogWriterAdapter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLogWriterAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := ctxutil.WithUser(context.Background(), "gio")

	if err := w.LogUpdate(ctx, "run", 7, "task_name", "rest", "motor"); err != nil {
		t.Fatalf("LogUpdate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"user=gio", "kind=run", "id=7", "action=update", "attribute=task_name", "old=rest", "new=motor", "component=audit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestLogWriterAdapterWithoutUser(t *testing.T) {
	var buf bytes.Buffer
	w := NewLogWriterAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := w.LogDelete(context.Background(), "subject", 1); err != nil {
		t.Fatalf("LogDelete failed: %v", err)
	}
	if !strings.Contains(buf.String(), "user=unknown") {
		t.Errorf("expected unknown user, got %q", buf.String())
	}
}
