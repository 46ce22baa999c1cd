package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/aspen/internal/adapters/sqlstore"
	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/db"
	"github.com/example/aspen/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockHeaderReader implements secondary.HeaderReader for testing.
type mockHeaderReader struct {
	headers map[string]*secondary.Header // path -> header
	readErr error
	calls   []string // "path|format"
}

func newMockHeaderReader() *mockHeaderReader {
	return &mockHeaderReader{headers: make(map[string]*secondary.Header)}
}

func (m *mockHeaderReader) ReadHeader(ctx context.Context, path, format string) (*secondary.Header, error) {
	m.calls = append(m.calls, path+"|"+format)
	if m.readErr != nil {
		return nil, m.readErr
	}
	if h, ok := m.headers[path]; ok {
		return h, nil
	}
	return &secondary.Header{Vendor: format}, nil
}

// mockCoordinateReader implements secondary.CoordinateReader for testing.
type mockCoordinateReader struct {
	coords  []secondary.Coordinate
	readErr error
}

func (m *mockCoordinateReader) ReadCoordinates(ctx context.Context, path string) ([]secondary.Coordinate, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.coords, nil
}

// mockMetrics implements secondary.MetricsRecorder for testing.
type mockMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]bool
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{outcomes: make(map[string][]bool)}
}

func (m *mockMetrics) ObserveQuery(table, op string) {}

func (m *mockMetrics) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[operation] = append(m.outcomes[operation], success)
}

// ============================================================================
// Archive fixtures
// ============================================================================

func setupArchive(t *testing.T) *archive.Archive {
	t.Helper()

	database, dialect, err := db.Open(context.Background(), db.DriverSQLite3, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	return archive.New(sqlstore.New(database, dialect, nil), catalog.Default(), archive.WithLogger(discardLogger()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is one subject with an IEMU session, a motor run and an ieeg recording.
type fixture struct {
	subject   archive.Subject
	session   archive.Session
	run       archive.Run
	recording archive.Recording
}

func newFixture(t *testing.T, a *archive.Archive, code, task string) fixture {
	t.Helper()
	ctx := context.Background()

	subj, err := a.AddSubject(ctx, code)
	if err != nil {
		t.Fatalf("AddSubject failed: %v", err)
	}
	sess, err := subj.AddSession(ctx, "IEMU")
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	run, err := sess.AddRun(ctx, task)
	if err != nil {
		t.Fatalf("AddRun failed: %v", err)
	}
	rec, err := run.AddRecording(ctx, "ieeg", 0)
	if err != nil {
		t.Fatalf("AddRecording failed: %v", err)
	}
	return fixture{subject: subj, session: sess, run: run, recording: rec}
}
