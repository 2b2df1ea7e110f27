package sqlite

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func TestNewDatabase(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		opts     []Option
		want     types.Backend
	}{
		{"native", types.PlatformNative, nil, types.BackendNative},
		{"web on disk", types.PlatformWeb, nil, types.BackendWeb},
		{"web in memory", types.PlatformWeb, []Option{WithMemoryBlocks()}, types.BackendWeb},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db, err := NewDatabase(types.Config{
				Platform:     tt.platform,
				DataDir:      t.TempDir(),
				ScratchDir:   t.TempDir(),
				DatabaseName: "public-" + tt.platform,
			}, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, db.Kind())

			_, err = db.Execute(ctx, "SELECT 1")
			assert.ErrorIs(t, err, types.ErrNotInitialized)

			require.NoError(t, db.Initialize(ctx))
			t.Cleanup(func() { db.Close() })

			v, err := CurrentVersion(ctx, db)
			require.NoError(t, err)
			assert.Equal(t, LatestVersion(), v)

			row, err := db.Get(ctx, "SELECT value FROM settings WHERE key = ?", "units_system")
			require.NoError(t, err)
			assert.Equal(t, "metric", row["value"])
		})
	}
}

func TestNewDatabaseRejectsUnknownPlatform(t *testing.T) {
	_, err := NewDatabase(types.Config{Platform: "mars", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrPlatformUnknown)
}

func TestWithRegisterer(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	db, err := NewDatabase(types.Config{
		Platform:     types.PlatformNative,
		DataDir:      t.TempDir(),
		DatabaseName: "public-metrics",
	}, WithRegisterer(reg))
	require.NoError(t, err)
	require.NoError(t, db.Initialize(ctx))
	t.Cleanup(func() { db.Close() })

	before, err := testutil.GatherAndCount(reg, "landmark_storage_statements_total")
	require.NoError(t, err)
	assert.Positive(t, before, "migrations issue statements")

	require.NoError(t, db.Run(ctx, "UPDATE settings SET value = ? WHERE key = ?", "imperial", "units_system"))
	n, err := testutil.GatherAndCount(reg, "landmark_storage_statements_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, before)
}
