package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/internal/sqlite"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// tickClock advances one second per reading so creation order is stable.
type tickClock struct {
	t time.Time
}

func (c *tickClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) *Store {
	t.Helper()
	db := sqlite.NewNativeDatabase(types.Config{
		Platform: types.PlatformNative,
		DataDir:  t.TempDir(),
	})
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	clock := &tickClock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	return New(db, WithClock(clock.Now))
}

func createPoint(t *testing.T, s *Store, name string, tags ...string) *types.Feature {
	t.Helper()
	f, err := s.Features.Create(context.Background(), types.CreateFeatureInput{
		Name:         name,
		GeometryType: types.GeometryPoint,
		Geometry:     types.PointGeometry(174.77, -41.28),
		Tags:         tags,
	})
	require.NoError(t, err)
	return f
}

func names(features []types.Feature) []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.Name
	}
	return out
}

func titles(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}
