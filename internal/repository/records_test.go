package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func TestObservations(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := createPoint(t, s, "Oak")

	when := time.Date(2023, 11, 5, 14, 30, 0, 0, time.UTC)
	first, err := s.Observations.Create(ctx, types.CreateObservationInput{
		FeatureID:        f.ID,
		Notes:            ptr("First leaves"),
		Tags:             []string{"spring"},
		RecordedAt:       &when,
		ObserverLatitude: ptr(-41.28),
	})
	require.NoError(t, err)
	assert.Equal(t, when, first.RecordedAt)
	assert.Equal(t, -41.28, *first.ObserverLatitude)
	assert.Nil(t, first.ObserverLongitude)

	second, err := s.Observations.Create(ctx, types.CreateObservationInput{FeatureID: f.ID})
	require.NoError(t, err)
	assert.Equal(t, second.CreatedAt, second.RecordedAt, "recorded now by default")
	assert.Equal(t, []string{}, second.Tags)

	list, err := s.Observations.GetByFeatureID(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "most recent first")

	same, err := s.Observations.Update(ctx, first.ID, types.UpdateObservationInput{})
	require.NoError(t, err)
	assert.Equal(t, first, same)

	updated, err := s.Observations.Update(ctx, first.ID, types.UpdateObservationInput{Tags: []string{"spring", "growth"}})
	require.NoError(t, err)
	assert.Equal(t, "First leaves", *updated.Notes)
	assert.Equal(t, []string{"spring", "growth"}, updated.Tags)

	_, err = s.Observations.Create(ctx, types.CreateObservationInput{FeatureID: "missing"})
	assert.Error(t, err)

	require.NoError(t, s.Observations.Delete(ctx, first.ID))
	_, err = s.Observations.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.Observations.Delete(ctx, first.ID), types.ErrNotFound)

	n, err := s.Observations.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMeasurements(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := createPoint(t, s, "Oak")

	height, err := s.Measurements.Create(ctx, types.CreateMeasurementInput{FeatureID: f.ID, Metric: "height", Value: 4.5, Unit: "m"})
	require.NoError(t, err)
	assert.Equal(t, types.MethodEstimated, height.Method)
	assert.Equal(t, 4.5, height.Value)
	assert.Nil(t, height.Confidence)

	high := types.ConfidenceHigh
	_, err = s.Measurements.Create(ctx, types.CreateMeasurementInput{
		FeatureID: f.ID, Metric: "dbh", Value: 32, Unit: "cm",
		Method: types.MethodMeasured, Confidence: &high, Accuracy: ptr(0.5),
	})
	require.NoError(t, err)
	_, err = s.Measurements.Create(ctx, types.CreateMeasurementInput{FeatureID: f.ID, Metric: "height", Value: 5, Unit: "m"})
	require.NoError(t, err)

	for _, in := range []types.CreateMeasurementInput{
		{FeatureID: f.ID, Metric: "", Value: 1},
		{FeatureID: f.ID, Metric: "height", Value: math.NaN()},
		{FeatureID: f.ID, Metric: "height", Value: math.Inf(1)},
		{FeatureID: f.ID, Metric: "height", Value: 1, Method: "guessed"},
	} {
		_, err := s.Measurements.Create(ctx, in)
		assert.ErrorIs(t, err, types.ErrInvalidValue)
	}

	heights, err := s.Measurements.GetByMetric(ctx, "height")
	require.NoError(t, err)
	require.Len(t, heights, 2)
	assert.Equal(t, 5.0, heights[0].Value, "most recent first")

	metrics, err := s.Measurements.DistinctMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dbh", "height"}, metrics)

	measured := types.MethodMeasured
	updated, err := s.Measurements.Update(ctx, height.ID, types.UpdateMeasurementInput{Value: ptr(4.8), Method: &measured})
	require.NoError(t, err)
	assert.Equal(t, 4.8, updated.Value)
	assert.Equal(t, types.MethodMeasured, updated.Method)
	assert.Equal(t, "m", updated.Unit)
	assert.Equal(t, height.RecordedAt, updated.RecordedAt)

	_, err = s.Measurements.Update(ctx, height.ID, types.UpdateMeasurementInput{Value: ptr(math.NaN())})
	assert.ErrorIs(t, err, types.ErrInvalidValue)
	_, err = s.Measurements.Update(ctx, "missing", types.UpdateMeasurementInput{})
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.Measurements.Delete(ctx, height.ID))
	n, err := s.Measurements.Count(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMedia(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := createPoint(t, s, "Oak")
	obs, err := s.Observations.Create(ctx, types.CreateObservationInput{FeatureID: f.ID})
	require.NoError(t, err)

	photo, err := s.Media.Create(ctx, types.CreateMediaInput{
		FeatureID: &f.ID, ObservationID: &obs.ID, Type: types.MediaPhoto,
		Filename: "oak.jpg", StoragePath: "media/oak.jpg", MimeType: "image/jpeg",
		SizeBytes: ptr(int64(2048)), Width: ptr(640), Height: ptr(480),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2048), *photo.SizeBytes)
	assert.Equal(t, 640, *photo.Width)
	assert.Nil(t, photo.Caption)

	_, err = s.Media.Create(ctx, types.CreateMediaInput{
		FeatureID: &f.ID, Type: types.MediaAudio,
		Filename: "wind.m4a", StoragePath: "media/wind.m4a", MimeType: "audio/mp4",
		SizeBytes: ptr(int64(1000)), DurationSeconds: ptr(12.5),
	})
	require.NoError(t, err)

	_, err = s.Media.Create(ctx, types.CreateMediaInput{Type: "hologram", Filename: "x", StoragePath: "x", MimeType: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidValue)
	_, err = s.Media.Create(ctx, types.CreateMediaInput{Type: types.MediaPhoto})
	assert.ErrorIs(t, err, types.ErrInvalidValue)

	byFeature, err := s.Media.GetByFeatureID(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, byFeature, 2)
	byObs, err := s.Media.GetByObservationID(ctx, obs.ID)
	require.NoError(t, err)
	require.Len(t, byObs, 1)
	assert.Equal(t, photo.ID, byObs[0].ID)
	audio, err := s.Media.GetByType(ctx, types.MediaAudio)
	require.NoError(t, err)
	require.Len(t, audio, 1)
	assert.Equal(t, 12.5, *audio[0].DurationSeconds)

	total, err := s.Media.TotalSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3048), total)

	captioned, err := s.Media.UpdateCaption(ctx, photo.ID, "Canopy")
	require.NoError(t, err)
	assert.Equal(t, "Canopy", *captioned.Caption)
	cleared, err := s.Media.UpdateCaption(ctx, photo.ID, "")
	require.NoError(t, err)
	assert.Nil(t, cleared.Caption)

	require.NoError(t, s.Observations.Delete(ctx, obs.ID))
	detached, err := s.Media.GetByID(ctx, photo.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.ObservationID)
	assert.Equal(t, f.ID, *detached.FeatureID)

	require.NoError(t, s.Media.Delete(ctx, photo.ID))
	assert.ErrorIs(t, s.Media.Delete(ctx, photo.ID), types.ErrNotFound)
	_, err = s.Media.UpdateCaption(ctx, photo.ID, "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	all, err := s.Settings.All(ctx)
	require.NoError(t, err)
	keys := make([]string, len(all))
	for i, st := range all {
		keys[i] = st.Key
	}
	assert.Equal(t, []string{SettingBasemap, SettingMapCenter, SettingMapZoom, SettingUnitsSystem}, keys)

	units, err := s.Settings.Get(ctx, SettingUnitsSystem)
	require.NoError(t, err)
	assert.Equal(t, "metric", units.Value)

	set, err := s.Settings.Set(ctx, SettingUnitsSystem, "imperial")
	require.NoError(t, err)
	assert.Equal(t, "imperial", set.Value)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 1, 0, time.UTC), set.UpdatedAt)

	_, err = s.Settings.Set(ctx, "last_export", "2024-03-01")
	require.NoError(t, err)
	all, err = s.Settings.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = s.Settings.Set(ctx, "", "x")
	assert.ErrorIs(t, err, types.ErrInvalidValue)
	_, err = s.Settings.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
