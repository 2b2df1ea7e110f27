package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func TestMigrationsCreateSchema(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := CurrentVersion(ctx, db)
			require.NoError(t, err)
			assert.Equal(t, 1, v)

			for _, table := range []string{"features", "observations", "measurements", "tasks", "templates", "media", "settings", "schema_version"} {
				row, err := db.Get(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
				require.NoError(t, err)
				assert.NotNil(t, row, "table %s", table)
			}

			settings, err := db.All(ctx, "SELECT key, value FROM settings ORDER BY key")
			require.NoError(t, err)
			got := map[string]any{}
			for _, s := range settings {
				got[s["key"].(string)] = s["value"]
			}
			assert.Equal(t, map[string]any{
				"basemap":      "osm",
				"map_center":   `{"lat": 0, "lng": 0}`,
				"map_zoom":     "13",
				"units_system": "metric",
			}, got)

			desc, err := db.Get(ctx, "SELECT description FROM schema_version WHERE version = 1")
			require.NoError(t, err)
			assert.Equal(t, "Initial schema", desc["description"])
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newNative(t)

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Equal(t, int64(1), countRows(t, db, "schema_version"))
}

func TestMigrateAppliesOnlyNewer(t *testing.T) {
	ctx := context.Background()
	db := newNative(t)

	list := append(Migrations(), Migration{
		Version:     2,
		Description: "Add notes index",
		Up: statements([]string{
			"CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks(title)",
		}),
	})
	applied, err := migrate(ctx, db, list, db.logger)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newNative(t)

	boom := errors.New("boom")
	list := []Migration{{
		Version:     5,
		Description: "Broken",
		Up: func(ctx context.Context, db types.Database) error {
			if err := db.Run(ctx, "CREATE TABLE half_done (id TEXT)"); err != nil {
				return err
			}
			return boom
		},
	}}
	applied, err := migrate(ctx, db, list, db.logger)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, applied)

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "version not recorded")

	row, err := db.Get(ctx, "SELECT name FROM sqlite_master WHERE name = 'half_done'")
	require.NoError(t, err)
	assert.Nil(t, row, "DDL rolled back with the migration")
}

func TestCurrentVersionWithoutTable(t *testing.T) {
	ctx := context.Background()
	db := newNative(t)
	require.NoError(t, db.Run(ctx, "DROP TABLE schema_version"))

	v, err := CurrentVersion(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, v)
}
