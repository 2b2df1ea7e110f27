package repository

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Setting keys written by the initial schema.
const (
	SettingMapCenter   = "map_center"
	SettingMapZoom     = "map_zoom"
	SettingBasemap     = "basemap"
	SettingUnitsSystem = "units_system"
)

// SettingsTable reads and writes application preferences.
type SettingsTable struct {
	*env
}

// Get returns the setting or a NotFoundError.
func (t *SettingsTable) Get(ctx context.Context, key string) (*types.Setting, error) {
	row, err := t.db.Get(ctx, "SELECT key, value, updated_at FROM settings WHERE key = ?", key)
	if err != nil {
		return nil, fmt.Errorf("getting setting %s: %w", key, err)
	}
	if row == nil {
		return nil, types.NotFound("setting", key)
	}
	return hydrateSetting(row)
}

// Set inserts or replaces a setting.
func (t *SettingsTable) Set(ctx context.Context, key, value string) (*types.Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: setting key must not be empty", types.ErrInvalidValue)
	}
	err := t.db.Run(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, t.stamp())
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return t.Get(ctx, key)
}

// All returns every setting by key.
func (t *SettingsTable) All(ctx context.Context) ([]types.Setting, error) {
	rows, err := t.db.All(ctx, "SELECT key, value, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	out := make([]types.Setting, 0, len(rows))
	for _, row := range rows {
		s, err := hydrateSetting(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

func hydrateSetting(r types.Row) (*types.Setting, error) {
	updated, err := timestamp(r, "updated_at")
	if err != nil {
		return nil, err
	}
	return &types.Setting{Key: str(r, "key"), Value: str(r, "value"), UpdatedAt: updated}, nil
}
