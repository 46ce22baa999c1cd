// Package wire provides dependency injection for the aspen application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/aspen/internal/adapters/audit"
	fsblob "github.com/example/aspen/internal/adapters/blob/fs"
	"github.com/example/aspen/internal/adapters/blob/memory"
	"github.com/example/aspen/internal/adapters/blob/s3"
	cliadapter "github.com/example/aspen/internal/adapters/cli"
	"github.com/example/aspen/internal/adapters/header"
	"github.com/example/aspen/internal/adapters/sqlstore"
	"github.com/example/aspen/internal/app"
	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/config"
	"github.com/example/aspen/internal/db"
	"github.com/example/aspen/internal/metrics"
	"github.com/example/aspen/internal/ports/primary"
	"github.com/example/aspen/internal/ports/secondary"
)

var (
	cfg            *config.Config
	logger         *slog.Logger
	recorder       *metrics.Recorder
	store          *archive.Archive
	database       *sql.DB
	dialect        db.Dialect
	ingestService  primary.IngestService
	exportService  primary.ExportService
	once           sync.Once
	configOnce     sync.Once
	loadedConfigAt string
)

// Config returns the loaded configuration.
func Config() *config.Config {
	configOnce.Do(initConfig)
	return cfg
}

// ConfigDir returns the directory whose .aspen/config.json was loaded.
func ConfigDir() string {
	configOnce.Do(initConfig)
	return loadedConfigAt
}

// Logger returns the application logger.
func Logger() *slog.Logger {
	configOnce.Do(initConfig)
	return logger
}

// Archive returns the singleton archive.
func Archive() *archive.Archive {
	once.Do(initServices)
	return store
}

// Database returns the open database handle and its dialect.
func Database() (*sql.DB, db.Dialect) {
	once.Do(initServices)
	return database, dialect
}

// Metrics returns the prometheus recorder, nil when metrics are disabled.
func Metrics() *metrics.Recorder {
	once.Do(initServices)
	return recorder
}

// IngestService returns the singleton IngestService instance.
func IngestService() primary.IngestService {
	once.Do(initServices)
	return ingestService
}

// ExportService returns the singleton ExportService instance.
func ExportService() primary.ExportService {
	once.Do(initServices)
	return exportService
}

// configDir picks the working directory when it carries a .aspen/config.json,
// the home directory otherwise.
func configDir() string {
	if wd, err := os.Getwd(); err == nil {
		if _, err := os.Stat(filepath.Join(wd, ".aspen", "config.json")); err == nil {
			return wd
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func initConfig() {
	loadedConfigAt = configDir()

	var err error
	cfg, err = config.LoadConfig(loadedConfigAt)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger = NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// NewLogger builds the slog logger described by level and format.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	configOnce.Do(initConfig)
	ctx := context.Background()

	var err error
	database, dialect, err = db.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	var rec secondary.MetricsRecorder = secondary.NoopMetrics{}
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
		rec = recorder
	}

	store = archive.New(
		sqlstore.New(database, dialect, rec),
		catalog.Default(),
		archive.WithLogger(logger),
		archive.WithAudit(audit.NewLogWriterAdapter(logger)),
	)

	sink, err := newSink(ctx, cfg.Export)
	if err != nil {
		log.Fatalf("failed to initialize export sink: %v", err)
	}

	ingestService = app.NewIngestService(store, header.NewSidecarReader(), header.NewCoordinateReader(), rec, logger)
	exportService = app.NewExportService(store, sink, rec, logger)
}

// newSink opens the blob store export files are written to.
func newSink(ctx context.Context, c config.ExportConfig) (secondary.BlobStore, error) {
	switch c.Driver {
	case config.ExportS3:
		return s3.New(ctx, s3.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			Endpoint:        c.S3.Endpoint,
			PathStyle:       c.S3.PathStyle,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	case config.ExportMemory:
		return memory.New(), nil
	default:
		root := c.Root
		if root == "" {
			return nil, errors.New("export root is not configured")
		}
		return fsblob.New(root)
	}
}

// IngestAdapter returns a new IngestAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func IngestAdapter() *cliadapter.IngestAdapter {
	return IngestAdapterWithOutput(os.Stdout)
}

// IngestAdapterWithOutput returns a new IngestAdapter writing to the given output.
func IngestAdapterWithOutput(out io.Writer) *cliadapter.IngestAdapter {
	once.Do(initServices)
	return cliadapter.NewIngestAdapter(ingestService, out)
}

// ExportAdapter returns a new ExportAdapter writing to stdout.
func ExportAdapter() *cliadapter.ExportAdapter {
	return ExportAdapterWithOutput(os.Stdout)
}

// ExportAdapterWithOutput returns a new ExportAdapter writing to the given output.
func ExportAdapterWithOutput(out io.Writer) *cliadapter.ExportAdapter {
	once.Do(initServices)
	return cliadapter.NewExportAdapter(exportService, out)
}

// Presenter returns an ArchivePresenter writing to out.
func Presenter(out io.Writer) *cliadapter.ArchivePresenter {
	return cliadapter.NewArchivePresenter(out)
}
