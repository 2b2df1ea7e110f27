package repository

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const mediaColumns = `id, feature_id, observation_id, type, filename, storage_path, mime_type,
       size_bytes, width, height, duration_seconds, caption, recorded_at, created_at,
       latitude, longitude, accuracy`

// MediaTable reads and writes media metadata.
type MediaTable struct {
	*env
}

// GetByFeatureID returns a feature's media, most recent first.
func (t *MediaTable) GetByFeatureID(ctx context.Context, featureID string) ([]types.Media, error) {
	return t.list(ctx, "WHERE feature_id = ?", featureID)
}

// GetByObservationID returns an observation's media, most recent first.
func (t *MediaTable) GetByObservationID(ctx context.Context, observationID string) ([]types.Media, error) {
	return t.list(ctx, "WHERE observation_id = ?", observationID)
}

// GetByType returns media of one kind.
func (t *MediaTable) GetByType(ctx context.Context, mt types.MediaType) ([]types.Media, error) {
	return t.list(ctx, "WHERE type = ?", string(mt))
}

// GetAll returns every media record, most recent first.
func (t *MediaTable) GetAll(ctx context.Context) ([]types.Media, error) {
	return t.list(ctx, "")
}

// GetByID returns the media record or a NotFoundError.
func (t *MediaTable) GetByID(ctx context.Context, id string) (*types.Media, error) {
	row, err := t.db.Get(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting media %s: %w", id, err)
	}
	if row == nil {
		return nil, types.NotFound("media", id)
	}
	return hydrateMedia(row)
}

func (t *MediaTable) list(ctx context.Context, where string, args ...any) ([]types.Media, error) {
	rows, err := t.db.All(ctx,
		"SELECT "+mediaColumns+" FROM media "+where+" ORDER BY recorded_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	out := make([]types.Media, 0, len(rows))
	for _, row := range rows {
		m, err := hydrateMedia(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// Create validates and inserts a media record.
func (t *MediaTable) Create(ctx context.Context, in types.CreateMediaInput) (*types.Media, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := t.now()
	recordedAt := now
	if in.RecordedAt != nil {
		recordedAt = *in.RecordedAt
	}

	id := t.newID()
	err := t.db.Run(ctx, `INSERT INTO media (
    id, feature_id, observation_id, type, filename, storage_path, mime_type,
    size_bytes, width, height, duration_seconds, caption, recorded_at, created_at,
    latitude, longitude, accuracy
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, arg(in.FeatureID), arg(in.ObservationID), string(in.Type), in.Filename, in.StoragePath, in.MimeType,
		arg(in.SizeBytes), arg(in.Width), arg(in.Height), arg(in.DurationSeconds), arg(in.Caption),
		formatTime(recordedAt), formatTime(now),
		arg(in.Latitude), arg(in.Longitude), arg(in.Accuracy))
	if err != nil {
		return nil, fmt.Errorf("creating media: %w", err)
	}
	return t.GetByID(ctx, id)
}

// UpdateCaption replaces the caption. An empty caption clears it.
func (t *MediaTable) UpdateCaption(ctx context.Context, id, caption string) (*types.Media, error) {
	if _, err := t.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := t.db.Run(ctx, "UPDATE media SET caption = ? WHERE id = ?", arg(&caption), id); err != nil {
		return nil, fmt.Errorf("updating media %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes a media record. The file at its storage path is left to
// the caller.
func (t *MediaTable) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	if err := t.db.Run(ctx, "DELETE FROM media WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting media %s: %w", id, err)
	}
	return nil
}

// Count returns the number of media records, optionally for one feature.
func (t *MediaTable) Count(ctx context.Context, featureID string) (int, error) {
	query, args := "SELECT COUNT(*) AS count FROM media", []any{}
	if featureID != "" {
		query += " WHERE feature_id = ?"
		args = append(args, featureID)
	}
	row, err := t.db.Get(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("counting media: %w", err)
	}
	return count(row), nil
}

// TotalSize returns the summed size of all media in bytes.
func (t *MediaTable) TotalSize(ctx context.Context) (int64, error) {
	row, err := t.db.Get(ctx, "SELECT COALESCE(SUM(size_bytes), 0) AS total FROM media")
	if err != nil {
		return 0, fmt.Errorf("summing media size: %w", err)
	}
	if row == nil {
		return 0, nil
	}
	return integer(row, "total"), nil
}

func hydrateMedia(r types.Row) (*types.Media, error) {
	m := &types.Media{
		ID:              str(r, "id"),
		FeatureID:       optStr(r, "feature_id"),
		ObservationID:   optStr(r, "observation_id"),
		Type:            types.MediaType(str(r, "type")),
		Filename:        str(r, "filename"),
		StoragePath:     str(r, "storage_path"),
		MimeType:        str(r, "mime_type"),
		SizeBytes:       optInt64(r, "size_bytes"),
		Width:           optInt(r, "width"),
		Height:          optInt(r, "height"),
		DurationSeconds: optNum(r, "duration_seconds"),
		Caption:         optStr(r, "caption"),
		Latitude:        optNum(r, "latitude"),
		Longitude:       optNum(r, "longitude"),
		Accuracy:        optNum(r, "accuracy"),
	}
	var err error
	if m.RecordedAt, err = timestamp(r, "recorded_at"); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = timestamp(r, "created_at"); err != nil {
		return nil, err
	}
	return m, nil
}
