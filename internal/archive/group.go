package archive

import (
	"context"
)

// Defaults of newly created groups.
const (
	DefaultReference        = "n/a"
	DefaultCoordinateSystem = "ACPC"
	DefaultCoordinateUnits  = "mm"
)

// group is the part shared by channel and electrode groups.
type group struct {
	Record
}

// Name returns the group name.
func (g group) Name(ctx context.Context) (string, error) { return g.text(ctx, "name") }

// ListRecordings returns the recordings the group is attached to, ordered by modality.
func (g group) ListRecordings(ctx context.Context) ([]Recording, error) {
	column := "channel_group_id"
	if g.ref.Kind == KindElectrodes {
		column = "electrode_group_id"
	}
	ids, err := g.a.store.IDs(ctx, "recordings_ieeg",
		`SELECT "recording_id" FROM "recordings_ieeg" WHERE "`+column+`" = ? ORDER BY "recording_id"`, g.ref.ID)
	if err != nil {
		return nil, err
	}
	recs := make([]Recording, len(ids))
	for i, id := range ids {
		recs[i] = Recording{Record: g.a.record(KindRecording, id)}
	}
	return SortRecordings(ctx, recs)
}

// Channels is a reusable set of channel definitions.
type Channels struct {
	group
}

// AddChannels creates an empty channel group.
func (a *Archive) AddChannels(ctx context.Context, name string) (Channels, error) {
	r, err := a.create(ctx, KindChannels, "", 0, attr{"name", name}, attr{"Reference", DefaultReference})
	if err != nil {
		return Channels{}, err
	}
	return Channels{group{Record: r}}, nil
}

// Table returns the channel definitions of the group.
func (c Channels) Table() Tabular {
	return Tabular{a: c.a, owner: "channel_groups", ownerID: c.ref.ID}
}

// Electrodes is a reusable set of electrode positions.
type Electrodes struct {
	group
}

// AddElectrodes creates an empty electrode group.
func (a *Archive) AddElectrodes(ctx context.Context, name string) (Electrodes, error) {
	r, err := a.create(ctx, KindElectrodes, "", 0, attr{"name", name},
		attr{"CoordinateSystem", DefaultCoordinateSystem}, attr{"CoordinateUnits", DefaultCoordinateUnits})
	if err != nil {
		return Electrodes{}, err
	}
	return Electrodes{group{Record: r}}, nil
}

// Table returns the electrode definitions of the group.
func (e Electrodes) Table() Tabular {
	return Tabular{a: e.a, owner: "electrode_groups", ownerID: e.ref.ID}
}

// CoordinateSystem returns the coordinate system of the electrode positions.
func (e Electrodes) CoordinateSystem(ctx context.Context) (string, error) {
	return e.text(ctx, "CoordinateSystem")
}

// CoordinateUnits returns the unit of the electrode positions.
func (e Electrodes) CoordinateUnits(ctx context.Context) (string, error) {
	return e.text(ctx, "CoordinateUnits")
}
