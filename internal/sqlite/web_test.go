package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/internal/blockstore"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

func storedImage(t *testing.T, store blockstore.Store) []byte {
	t.Helper()
	ks, err := store.Open(context.Background(), types.DefaultKeyspace, keyspaceVersion)
	require.NoError(t, err)
	data, ok, err := ks.Get(context.Background(), imageKey)
	require.NoError(t, err)
	require.True(t, ok, "image persisted")
	return data
}

func TestWebPersistsAfterEveryRun(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	db := newWeb(t, store)
	assert.Equal(t, types.BackendWeb, db.Kind())

	assert.True(t, len(storedImage(t, store)) > len(imageHeader), "migrated image persisted on initialize")

	insertFeature(t, db, "f1", "Oak")

	// A second instance hydrates from the block store without Close.
	reader := NewWebDatabase(types.Config{ScratchDir: t.TempDir()}, WithBlockStore(store))
	require.NoError(t, reader.Initialize(ctx))
	defer reader.Close()
	assert.Equal(t, int64(1), countRows(t, reader, "features"))
}

func TestWebTransactionPersistsOnCommit(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m := testMetrics()
	db := newWeb(t, store, WithMetrics(m))

	before := testutil.ToFloat64(m.persists)
	err := db.Transaction(ctx, func(ctx context.Context) error {
		insertFeature(t, db, "f1", "Oak")
		insertFeature(t, db, "f2", "Ash")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(m.persists), "one persist per commit")
	assert.Equal(t, float64(len(storedImage(t, store))), testutil.ToFloat64(m.imageBytes))
}

func TestWebSurvivesClose(t *testing.T) {
	ctx := context.Background()
	store, err := blockstore.NewDir(t.TempDir())
	require.NoError(t, err)
	scratch := t.TempDir()

	db := NewWebDatabase(types.Config{ScratchDir: scratch}, WithBlockStore(store))
	require.NoError(t, db.Initialize(ctx))
	insertFeature(t, db, "f1", "Oak")
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch copy removed on close")

	_, err = db.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, types.ErrNotInitialized)

	again := NewWebDatabase(types.Config{ScratchDir: scratch}, WithBlockStore(store))
	require.NoError(t, again.Initialize(ctx))
	defer again.Close()
	assert.Equal(t, int64(1), countRows(t, again, "features"))
}

func TestWebExportImportImage(t *testing.T) {
	ctx := context.Background()
	src := newWeb(t, blockstore.NewMemory())
	insertFeature(t, src, "f1", "Oak")

	image, err := src.ExportDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, imageHeader, image[:len(imageHeader)])

	store := blockstore.NewMemory()
	dst := newWeb(t, store)
	insertFeature(t, dst, "f9", "Elm")

	require.NoError(t, dst.ImportDatabase(ctx, image))
	assert.Equal(t, int64(1), countRows(t, dst, "features"))
	assert.Equal(t, image, storedImage(t, store))
}

func TestWebRejectsInvalidImage(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	db := newWeb(t, store)
	insertFeature(t, db, "f1", "Oak")

	assert.ErrorIs(t, db.ImportDatabase(ctx, []byte("not a database")), types.ErrInvalidImage)
	assert.Equal(t, int64(1), countRows(t, db, "features"), "working copy untouched")

	ks, err := store.Open(ctx, "corrupt", keyspaceVersion)
	require.NoError(t, err)
	require.NoError(t, ks.Put(ctx, imageKey, []byte("garbage")))
	broken := NewWebDatabase(types.Config{Keyspace: "corrupt", ScratchDir: t.TempDir()}, WithBlockStore(store))
	assert.ErrorIs(t, broken.Initialize(ctx), types.ErrInvalidImage)
}

func TestWebRequiresBlockStore(t *testing.T) {
	db := NewWebDatabase(types.Config{ScratchDir: t.TempDir()})
	assert.ErrorIs(t, db.Initialize(context.Background()), ErrNoBlockStore)
}

func TestWebScratchFileLocation(t *testing.T) {
	scratch := t.TempDir()
	db := NewWebDatabase(types.Config{ScratchDir: scratch}, WithBlockStore(blockstore.NewMemory()))
	require.NoError(t, db.Initialize(context.Background()))
	defer db.Close()

	rel, err := filepath.Rel(scratch, db.scratch)
	require.NoError(t, err)
	assert.Equal(t, "landmark.db", filepath.Base(rel))
}
