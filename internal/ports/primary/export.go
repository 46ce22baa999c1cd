package primary

import "context"

// ExportService defines the primary port for writing BIDS sidecar files.
type ExportService interface {
	// ExportRuns writes the channels, electrodes, coordsystem and events files
	// of the given runs to the export sink.
	ExportRuns(ctx context.Context, req ExportRequest) (*ExportResponse, error)
}

// ExportRequest contains parameters for an export.
type ExportRequest struct {
	RunIDs []int64
	// Overwrite replaces files that already exist in the sink.
	Overwrite bool
}

// ExportResponse lists the keys written, in write order.
type ExportResponse struct {
	Written []string
	Skipped []ExportSkip
}

// ExportSkip records a run or recording that produced no file.
type ExportSkip struct {
	Entity string
	Reason string
}
