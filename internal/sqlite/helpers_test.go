package sqlite

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// newNative returns an initialized native database in a temp directory.
func newNative(t *testing.T, opts ...Option) *NativeDatabase {
	t.Helper()
	db := NewNativeDatabase(types.Config{
		Platform: types.PlatformNative,
		DataDir:  t.TempDir(),
	}, opts...)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

// newWeb returns an initialized web database over store.
func newWeb(t *testing.T, store blockstore.Store, opts ...Option) *WebDatabase {
	t.Helper()
	opts = append(opts, WithBlockStore(store))
	db := NewWebDatabase(types.Config{
		Platform:   types.PlatformWeb,
		ScratchDir: t.TempDir(),
	}, opts...)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

// backends returns one initialized database of each kind.
func backends(t *testing.T) map[string]types.Database {
	t.Helper()
	return map[string]types.Database{
		"native": newNative(t),
		"web":    newWeb(t, blockstore.NewMemory()),
	}
}

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func insertFeature(t *testing.T, db types.Database, id, name string) {
	t.Helper()
	require.NoError(t, db.Run(context.Background(),
		`INSERT INTO features (id, name, geometry_type, geometry) VALUES (?, ?, 'Point', '{"type":"Point","coordinates":[0,0]}')`,
		id, name))
}

func countRows(t *testing.T, db types.Database, table string) int64 {
	t.Helper()
	row, err := db.Get(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	return row["n"].(int64)
}
