package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const featureColumns = `id, name, description, geometry_type, geometry,
       template_id, tags, properties, created_at, updated_at`

// FeaturesTable reads and writes features.
type FeaturesTable struct {
	*env
}

// GetAll returns every feature, newest first.
func (t *FeaturesTable) GetAll(ctx context.Context) ([]types.Feature, error) {
	return t.list(ctx, "")
}

// GetByID returns the feature or a NotFoundError.
func (t *FeaturesTable) GetByID(ctx context.Context, id string) (*types.Feature, error) {
	row, err := t.db.Get(ctx, "SELECT "+featureColumns+" FROM features WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting feature %s: %w", id, err)
	}
	if row == nil {
		return nil, types.NotFound("feature", id)
	}
	return hydrateFeature(row)
}

// GetByType returns features of one geometry type.
func (t *FeaturesTable) GetByType(ctx context.Context, gt types.GeometryType) ([]types.Feature, error) {
	return t.list(ctx, "WHERE geometry_type = ?", string(gt))
}

// GetByTag returns features whose tag list contains tag.
func (t *FeaturesTable) GetByTag(ctx context.Context, tag string) ([]types.Feature, error) {
	return t.list(ctx, "WHERE tags LIKE ?", tagPattern(tag))
}

// GetByTemplateID returns features created from a template.
func (t *FeaturesTable) GetByTemplateID(ctx context.Context, templateID string) ([]types.Feature, error) {
	return t.list(ctx, "WHERE template_id = ?", templateID)
}

// Search matches query against name, description and tags.
func (t *FeaturesTable) Search(ctx context.Context, query string) ([]types.Feature, error) {
	term := "%" + query + "%"
	return t.list(ctx, "WHERE name LIKE ? OR description LIKE ? OR tags LIKE ?", term, term, term)
}

func (t *FeaturesTable) list(ctx context.Context, where string, args ...any) ([]types.Feature, error) {
	rows, err := t.db.All(ctx,
		"SELECT "+featureColumns+" FROM features "+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}
	out := make([]types.Feature, 0, len(rows))
	for _, row := range rows {
		f, err := hydrateFeature(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// Create validates and inserts a feature, returning the stored row.
func (t *FeaturesTable) Create(ctx context.Context, in types.CreateFeatureInput) (*types.Feature, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	geometry, err := json.Marshal(in.Geometry)
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}
	properties, err := encode(props)
	if err != nil {
		return nil, err
	}

	id := t.newID()
	now := t.stamp()
	err = t.db.Run(ctx, `INSERT INTO features (
    id, name, description, geometry_type, geometry,
    template_id, tags, properties, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, arg(in.Description), string(in.GeometryType), string(geometry),
		arg(in.TemplateID), tags, properties, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating feature: %w", err)
	}
	return t.GetByID(ctx, id)
}

// Update applies a partial update. Nil and empty fields keep the stored
// value; a replacement geometry must keep the feature's geometry type.
func (t *FeaturesTable) Update(ctx context.Context, id string, in types.UpdateFeatureInput) (*types.Feature, error) {
	existing, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var geometry any
	if in.Geometry != nil {
		if err := in.Geometry.Validate(); err != nil {
			return nil, err
		}
		if in.Geometry.Type() != existing.GeometryType {
			return nil, fmt.Errorf("%w: feature is %s, got %s",
				types.ErrGeometryMismatch, existing.GeometryType, in.Geometry.Type())
		}
		data, err := json.Marshal(in.Geometry)
		if err != nil {
			return nil, fmt.Errorf("encoding geometry: %w", err)
		}
		geometry = string(data)
	}
	tags, err := optEncode(in.Tags, in.Tags != nil)
	if err != nil {
		return nil, err
	}
	properties, err := optEncode(in.Properties, in.Properties != nil)
	if err != nil {
		return nil, err
	}

	err = t.db.Run(ctx, `UPDATE features SET
    name = COALESCE(?, name),
    description = COALESCE(?, description),
    geometry = COALESCE(?, geometry),
    tags = COALESCE(?, tags),
    properties = COALESCE(?, properties),
    updated_at = ?
WHERE id = ?`,
		arg(in.Name), arg(in.Description), geometry, tags, properties, t.stamp(), id)
	if err != nil {
		return nil, fmt.Errorf("updating feature %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes a feature. Observations, measurements and tasks cascade;
// media keep their row with the feature reference cleared.
func (t *FeaturesTable) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	if err := t.db.Run(ctx, "DELETE FROM features WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting feature %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every feature and, through the cascades, their
// dependents.
func (t *FeaturesTable) DeleteAll(ctx context.Context) error {
	if err := t.db.Run(ctx, "DELETE FROM features"); err != nil {
		return fmt.Errorf("deleting features: %w", err)
	}
	return nil
}

// Count returns the number of features.
func (t *FeaturesTable) Count(ctx context.Context) (int, error) {
	row, err := t.db.Get(ctx, "SELECT COUNT(*) AS count FROM features")
	if err != nil {
		return 0, fmt.Errorf("counting features: %w", err)
	}
	return count(row), nil
}

// AllTags returns the distinct tags used by any feature, sorted.
func (t *FeaturesTable) AllTags(ctx context.Context) ([]string, error) {
	rows, err := t.db.All(ctx, "SELECT DISTINCT tags FROM features WHERE tags != '[]'")
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	seen := map[string]bool{}
	for _, row := range rows {
		tags, err := decodeTags(row, "tags")
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			seen[tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// Timeline returns the feature with its child record counts and the time
// of its most recent observation, measurement or task change.
func (t *FeaturesTable) Timeline(ctx context.Context, id string) (*types.FeatureTimeline, error) {
	f, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row, err := t.db.Get(ctx, `SELECT
    (SELECT COUNT(*) FROM observations WHERE feature_id = ?) AS observations,
    (SELECT COUNT(*) FROM measurements WHERE feature_id = ?) AS measurements,
    (SELECT COUNT(*) FROM tasks WHERE feature_id = ?) AS tasks,
    (SELECT MAX(at) FROM (
        SELECT recorded_at AS at FROM observations WHERE feature_id = ?
        UNION ALL SELECT recorded_at FROM measurements WHERE feature_id = ?
        UNION ALL SELECT updated_at FROM tasks WHERE feature_id = ?
    )) AS last_activity`, id, id, id, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("building timeline for %s: %w", id, err)
	}
	last, err := optTimestamp(row, "last_activity")
	if err != nil {
		return nil, err
	}
	return &types.FeatureTimeline{
		Feature:          *f,
		ObservationCount: int(integer(row, "observations")),
		MeasurementCount: int(integer(row, "measurements")),
		TaskCount:        int(integer(row, "tasks")),
		LastActivity:     last,
	}, nil
}

func hydrateFeature(r types.Row) (*types.Feature, error) {
	f := &types.Feature{
		ID:           str(r, "id"),
		Name:         str(r, "name"),
		Description:  optStr(r, "description"),
		GeometryType: types.GeometryType(str(r, "geometry_type")),
		TemplateID:   optStr(r, "template_id"),
	}
	if err := json.Unmarshal([]byte(str(r, "geometry")), &f.Geometry); err != nil {
		return nil, fmt.Errorf("decoding geometry of feature %s: %w", f.ID, err)
	}
	var err error
	if f.Tags, err = decodeTags(r, "tags"); err != nil {
		return nil, err
	}
	if f.Properties, err = decodeObject(r, "properties"); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = timestamp(r, "created_at"); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = timestamp(r, "updated_at"); err != nil {
		return nil, err
	}
	return f, nil
}
