package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func TestExecuteShapesResults(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			insertFeature(t, db, "f1", "Oak")
			insertFeature(t, db, "f2", "Ash")

			res, err := db.Execute(ctx, "SELECT id, name FROM features ORDER BY name")
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "name"}, res.Columns)
			assert.Equal(t, [][]any{{"f2", "Ash"}, {"f1", "Oak"}}, res.Rows)

			row, err := db.Get(ctx, "SELECT name, 1 AS one, 2.5 AS half, NULL AS missing FROM features WHERE id = ?", "f1")
			require.NoError(t, err)
			assert.Equal(t, types.Row{"name": "Oak", "one": int64(1), "half": 2.5, "missing": nil}, row)

			missing, err := db.Get(ctx, "SELECT * FROM features WHERE id = ?", "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)

			all, err := db.All(ctx, "SELECT id FROM features WHERE name = ?", "none")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSQLErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Execute(ctx, "SELECT * FROM no_such_table")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no such table")

			err = db.Run(ctx, "INSERT INTO observations (id, feature_id) VALUES ('o1', 'missing')")
			require.Error(t, err, "foreign keys are enforced")
			assert.Contains(t, err.Error(), "FOREIGN KEY")
		})
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := db.Transaction(ctx, func(ctx context.Context) error {
				insertFeature(t, db, "f1", "Kept")
				return nil
			})
			require.NoError(t, err)

			boom := errors.New("boom")
			err = db.Transaction(ctx, func(ctx context.Context) error {
				insertFeature(t, db, "f2", "Discarded")
				return boom
			})
			assert.Same(t, boom, err, "the callback error is returned unchanged")

			assert.Equal(t, int64(1), countRows(t, db, "features"))
		})
	}
}

func TestTransactionsDoNotNest(t *testing.T) {
	ctx := context.Background()
	db := newNative(t)

	err := db.Transaction(ctx, func(ctx context.Context) error {
		return db.Transaction(ctx, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, types.ErrNestedTransaction)

	// The outer transaction rolled back and the engine is usable again.
	require.NoError(t, db.Transaction(ctx, func(context.Context) error { return nil }))
}

func TestOperationsRequireInitialize(t *testing.T) {
	ctx := context.Background()
	db := NewNativeDatabase(types.Config{Platform: types.PlatformNative, DataDir: t.TempDir()})

	_, err := db.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrNotInitialized)
	assert.ErrorIs(t, db.Run(ctx, "SELECT 1"), types.ErrNotInitialized)
	_, err = db.Get(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrNotInitialized)
	_, err = db.All(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrNotInitialized)
	assert.ErrorIs(t, db.Transaction(ctx, func(context.Context) error { return nil }), types.ErrNotInitialized)
	_, err = db.ExportDatabase(ctx)
	assert.ErrorIs(t, err, types.ErrNotInitialized)

	require.NoError(t, db.Initialize(ctx))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "Close is idempotent")
	_, err = db.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrNotInitialized, "closed databases reject statements")
}

func TestPanicInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, "boom", func() {
				_ = db.Transaction(ctx, func(ctx context.Context) error {
					insertFeature(t, db, "f1", "Oak")
					panic("boom")
				})
			})
			assert.Equal(t, int64(0), countRows(t, db, "features"))

			require.NoError(t, db.Transaction(ctx, func(ctx context.Context) error {
				return db.Run(ctx, `INSERT INTO features (id, name, geometry_type, geometry) VALUES ('f2', 'Ash', 'Point', '{"type":"Point","coordinates":[0,0]}')`)
			}))
			assert.Equal(t, int64(1), countRows(t, db, "features"))
		})
	}
}

func TestImportAfterCloseRequiresInitialize(t *testing.T) {
	ctx := context.Background()
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			insertFeature(t, db, "f1", "Oak")
			snapshot, err := db.ExportDatabase(ctx)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			assert.ErrorIs(t, db.ImportDatabase(ctx, snapshot), types.ErrNotInitialized)
			assert.ErrorIs(t, db.Run(ctx, "SELECT 1"), types.ErrNotInitialized)

			require.NoError(t, db.Initialize(ctx))
			require.NoError(t, db.ImportDatabase(ctx, snapshot))
			assert.Equal(t, int64(1), countRows(t, db, "features"))
		})
	}
}

func TestMetricsCountStatements(t *testing.T) {
	ctx := context.Background()
	m := testMetrics()
	db := newNative(t, WithMetrics(m))

	before := testutil.ToFloat64(m.statements.WithLabelValues("native", opExecute))
	_, err := db.Execute(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(m.statements.WithLabelValues("native", opExecute)))

	_, _ = db.Execute(ctx, "SELECT * FROM missing")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("native", opExecute)))

	_ = db.Transaction(ctx, func(context.Context) error { return errors.New("no") })
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transactions.WithLabelValues("native", outcomeRollback)))
}

func TestNormalize(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{int64(3), int64(3)},
		{7, int64(7)},
		{float32(1.5), 1.5},
		{true, int64(1)},
		{false, int64(0)},
		{"s", "s"},
		{[]byte("b"), []byte("b")},
		{when, "2024-05-01T12:00:00Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(tt.in), "normalize(%#v)", tt.in)
	}
}
