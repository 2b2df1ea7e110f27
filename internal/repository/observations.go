package repository

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const observationColumns = `id, feature_id, notes, tags, recorded_at, created_at,
       observer_latitude, observer_longitude, observer_accuracy`

// ObservationsTable reads and writes observations.
type ObservationsTable struct {
	*env
}

// GetByFeatureID returns a feature's observations, most recent first.
func (t *ObservationsTable) GetByFeatureID(ctx context.Context, featureID string) ([]types.Observation, error) {
	return t.list(ctx, "WHERE feature_id = ?", featureID)
}

// GetAll returns every observation, most recent first.
func (t *ObservationsTable) GetAll(ctx context.Context) ([]types.Observation, error) {
	return t.list(ctx, "")
}

// GetByID returns the observation or a NotFoundError.
func (t *ObservationsTable) GetByID(ctx context.Context, id string) (*types.Observation, error) {
	row, err := t.db.Get(ctx, "SELECT "+observationColumns+" FROM observations WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting observation %s: %w", id, err)
	}
	if row == nil {
		return nil, types.NotFound("observation", id)
	}
	return hydrateObservation(row)
}

func (t *ObservationsTable) list(ctx context.Context, where string, args ...any) ([]types.Observation, error) {
	rows, err := t.db.All(ctx,
		"SELECT "+observationColumns+" FROM observations "+where+" ORDER BY recorded_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing observations: %w", err)
	}
	out := make([]types.Observation, 0, len(rows))
	for _, row := range rows {
		o, err := hydrateObservation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// Create inserts an observation. A nil RecordedAt records the current time.
func (t *ObservationsTable) Create(ctx context.Context, in types.CreateObservationInput) (*types.Observation, error) {
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	now := t.now()
	recordedAt := now
	if in.RecordedAt != nil {
		recordedAt = *in.RecordedAt
	}

	id := t.newID()
	err = t.db.Run(ctx, `INSERT INTO observations (
    id, feature_id, notes, tags, recorded_at, created_at,
    observer_latitude, observer_longitude, observer_accuracy
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.FeatureID, arg(in.Notes), tags, formatTime(recordedAt), formatTime(now),
		arg(in.ObserverLatitude), arg(in.ObserverLongitude), arg(in.ObserverAccuracy))
	if err != nil {
		return nil, fmt.Errorf("creating observation: %w", err)
	}
	return t.GetByID(ctx, id)
}

// Update replaces notes and tags when given.
func (t *ObservationsTable) Update(ctx context.Context, id string, in types.UpdateObservationInput) (*types.Observation, error) {
	existing, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Notes == nil && in.Tags == nil {
		return existing, nil
	}
	tags, err := optEncode(in.Tags, in.Tags != nil)
	if err != nil {
		return nil, err
	}
	err = t.db.Run(ctx, `UPDATE observations SET
    notes = COALESCE(?, notes),
    tags = COALESCE(?, tags)
WHERE id = ?`, arg(in.Notes), tags, id)
	if err != nil {
		return nil, fmt.Errorf("updating observation %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes an observation. Attached media keep their row with the
// observation reference cleared.
func (t *ObservationsTable) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	if err := t.db.Run(ctx, "DELETE FROM observations WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting observation %s: %w", id, err)
	}
	return nil
}

// Count returns the number of observations, optionally for one feature.
func (t *ObservationsTable) Count(ctx context.Context, featureID string) (int, error) {
	query, args := "SELECT COUNT(*) AS count FROM observations", []any{}
	if featureID != "" {
		query += " WHERE feature_id = ?"
		args = append(args, featureID)
	}
	row, err := t.db.Get(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return count(row), nil
}

func hydrateObservation(r types.Row) (*types.Observation, error) {
	o := &types.Observation{
		ID:                str(r, "id"),
		FeatureID:         str(r, "feature_id"),
		Notes:             optStr(r, "notes"),
		ObserverLatitude:  optNum(r, "observer_latitude"),
		ObserverLongitude: optNum(r, "observer_longitude"),
		ObserverAccuracy:  optNum(r, "observer_accuracy"),
	}
	var err error
	if o.Tags, err = decodeTags(r, "tags"); err != nil {
		return nil, err
	}
	if o.RecordedAt, err = timestamp(r, "recorded_at"); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = timestamp(r, "created_at"); err != nil {
		return nil, err
	}
	return o, nil
}
