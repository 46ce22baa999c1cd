package archive

import (
	"context"
	"database/sql"
	"fmt"
)

// Recording is one device capture within a run.
type Recording struct {
	Record
	run *Run
}

// Modality returns the recording modality.
func (r Recording) Modality(ctx context.Context) (string, error) { return r.text(ctx, "modality") }

// Onset returns the offset from the run start in seconds, NaN when unknown.
func (r Recording) Onset(ctx context.Context) (float64, error) { return r.float(ctx, "onset") }

// Run returns the owning run.
func (r Recording) Run(ctx context.Context) (Run, error) {
	if r.run != nil {
		return *r.run, nil
	}
	id, err := r.parentID(ctx, "recordings", "run_id")
	if err != nil {
		return Run{}, err
	}
	return Run{Record: r.a.record(KindRun, id)}, nil
}

// Channels returns the attached channel group. ok is false when none is attached.
func (r Recording) Channels(ctx context.Context) (Channels, bool, error) {
	id, ok, err := r.attached(ctx, "channel_group_id")
	if err != nil || !ok {
		return Channels{}, false, err
	}
	return Channels{group{Record: r.a.record(KindChannels, id)}}, true, nil
}

// Electrodes returns the attached electrode group. ok is false when none is attached.
func (r Recording) Electrodes(ctx context.Context) (Electrodes, bool, error) {
	id, ok, err := r.attached(ctx, "electrode_group_id")
	if err != nil || !ok {
		return Electrodes{}, false, err
	}
	return Electrodes{group{Record: r.a.record(KindElectrodes, id)}}, true, nil
}

// AttachChannels makes c the recording's channel group, replacing any other.
func (r Recording) AttachChannels(ctx context.Context, c Channels) error {
	return r.attach(ctx, "channel_group_id", c.ref.ID)
}

// AttachElectrodes makes e the recording's electrode group, replacing any other.
func (r Recording) AttachElectrodes(ctx context.Context, e Electrodes) error {
	return r.attach(ctx, "electrode_group_id", e.ref.ID)
}

// DetachChannels clears the recording's channel group.
func (r Recording) DetachChannels(ctx context.Context) error {
	return r.detach(ctx, "channel_group_id")
}

// DetachElectrodes clears the recording's electrode group.
func (r Recording) DetachElectrodes(ctx context.Context) error {
	return r.detach(ctx, "electrode_group_id")
}

func (r Recording) attached(ctx context.Context, column string) (int64, bool, error) {
	raw, _, err := r.a.store.Value(ctx, "recordings_ieeg", "recording_id", r.ref.ID, column)
	if err != nil {
		return 0, false, err
	}
	var id sql.NullInt64
	if err := id.Scan(raw); err != nil {
		return 0, false, fmt.Errorf("failed to read %s of %s: %w", column, r.ref, err)
	}
	return id.Int64, id.Valid, nil
}

func (r Recording) attach(ctx context.Context, column string, groupID int64) error {
	return r.a.Transact(ctx, func(ctx context.Context) error {
		if err := r.a.store.EnsureRow(ctx, "recordings_ieeg", "recording_id", r.ref.ID); err != nil {
			return err
		}
		if _, err := r.a.store.SetValue(ctx, "recordings_ieeg", "recording_id", r.ref.ID, column, groupID); err != nil {
			return err
		}
		r.a.logUpdate(ctx, r.ref, column, "", fmt.Sprint(groupID))
		return nil
	})
}

func (r Recording) detach(ctx context.Context, column string) error {
	if _, err := r.a.store.SetValue(ctx, "recordings_ieeg", "recording_id", r.ref.ID, column, nil); err != nil {
		return err
	}
	r.a.logUpdate(ctx, r.ref, column, "", "")
	return nil
}
