// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the archive.
package primary

import "context"

// IngestService defines the primary port for filling the archive from
// recording files.
type IngestService interface {
	// ImportChannels creates a channel group from the header of a recording
	// file and attaches it to the recording.
	ImportChannels(ctx context.Context, req ImportChannelsRequest) (*ImportChannelsResponse, error)

	// ImportElectrodes creates an electrode group from a localisation file
	// and attaches it to the recording.
	ImportElectrodes(ctx context.Context, req ImportElectrodesRequest) (*ImportElectrodesResponse, error)

	// ImportEvents replaces the events of a run with those found in the
	// header of one of its recording files, and sets the run timing.
	ImportEvents(ctx context.Context, req ImportEventsRequest) (*ImportEventsResponse, error)

	// GuessModality returns the modality a new recording of the run most
	// likely has, "" when there is no guess.
	GuessModality(ctx context.Context, runID int64) (string, error)
}

// ImportChannelsRequest contains parameters for importing channels.
// Path is optional: when empty the recording's single signal file is used;
// when set, the file is registered on the recording first.
type ImportChannelsRequest struct {
	RecordingID int64
	Path        string
	GroupName   string
}

// ImportChannelsResponse contains the result of importing channels.
type ImportChannelsResponse struct {
	ChannelsID int64
	Format     string
	Count      int
}

// ImportElectrodesRequest contains parameters for importing electrodes.
type ImportElectrodesRequest struct {
	RecordingID      int64
	Path             string
	GroupName        string
	CoordinateSystem string // default ACPC
	CoordinateUnits  string // default mm
}

// ImportElectrodesResponse contains the result of importing electrodes.
type ImportElectrodesResponse struct {
	ElectrodesID int64
	Count        int
}

// ImportEventsRequest contains parameters for importing events.
type ImportEventsRequest struct {
	RunID int64
}

// ImportEventsResponse contains the result of importing events.
type ImportEventsResponse struct {
	Count        int
	StartTimeSet bool
}
