package secondary

import (
	"context"
	"time"
)

// HeaderReader extracts vendor metadata from a recording file. The archive
// never parses binary formats itself; implementations wrap whatever reader
// understands the vendor format.
type HeaderReader interface {
	// ReadHeader returns the header of the file at path. format is the
	// classifier tag of the file (micromed, blackrock, bci2000, ...).
	ReadHeader(ctx context.Context, path, format string) (*Header, error)
}

// Header is the vendor metadata of one recording file.
type Header struct {
	Vendor    string
	StartTime time.Time // zero when the vendor does not record it
	Duration  float64   // seconds, NaN when unknown
	Channels  []ChannelInfo
	Events    []EventInfo
}

// ChannelInfo describes one channel as reported by the vendor. Cutoffs are
// NaN when the vendor does not report them.
type ChannelInfo struct {
	Label      string
	Units      string
	LowCutoff  float64
	HighCutoff float64
	Reference  string
}

// EventInfo is one trigger/annotation of a recording, onset in seconds from
// the start of the file.
type EventInfo struct {
	Onset     float64
	Duration  float64
	Value     string
	TrialType string
}

// CoordinateReader reads electrode positions from a localisation file.
type CoordinateReader interface {
	ReadCoordinates(ctx context.Context, path string) ([]Coordinate, error)
}

// Coordinate is the position of one contact. Name is empty when the file
// carries positions only.
type Coordinate struct {
	Name    string
	X, Y, Z float64
}
