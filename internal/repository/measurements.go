package repository

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const measurementColumns = `id, feature_id, metric, value, unit, method, accuracy,
       confidence, notes, recorded_at, created_at`

// MeasurementsTable reads and writes measurements.
type MeasurementsTable struct {
	*env
}

// GetByFeatureID returns a feature's measurements, most recent first.
func (t *MeasurementsTable) GetByFeatureID(ctx context.Context, featureID string) ([]types.Measurement, error) {
	return t.list(ctx, "WHERE feature_id = ?", featureID)
}

// GetAll returns every measurement, most recent first.
func (t *MeasurementsTable) GetAll(ctx context.Context) ([]types.Measurement, error) {
	return t.list(ctx, "")
}

// GetByMetric returns measurements of one metric across features.
func (t *MeasurementsTable) GetByMetric(ctx context.Context, metric string) ([]types.Measurement, error) {
	return t.list(ctx, "WHERE metric = ?", metric)
}

// GetByID returns the measurement or a NotFoundError.
func (t *MeasurementsTable) GetByID(ctx context.Context, id string) (*types.Measurement, error) {
	row, err := t.db.Get(ctx, "SELECT "+measurementColumns+" FROM measurements WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting measurement %s: %w", id, err)
	}
	if row == nil {
		return nil, types.NotFound("measurement", id)
	}
	return hydrateMeasurement(row)
}

func (t *MeasurementsTable) list(ctx context.Context, where string, args ...any) ([]types.Measurement, error) {
	rows, err := t.db.All(ctx,
		"SELECT "+measurementColumns+" FROM measurements "+where+" ORDER BY recorded_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing measurements: %w", err)
	}
	out := make([]types.Measurement, 0, len(rows))
	for _, row := range rows {
		m, err := hydrateMeasurement(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// Create validates and inserts a measurement. The method defaults to
// estimated and RecordedAt to the current time.
func (t *MeasurementsTable) Create(ctx context.Context, in types.CreateMeasurementInput) (*types.Measurement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	method := in.Method
	if method == "" {
		method = types.MethodEstimated
	}
	now := t.now()
	recordedAt := now
	if in.RecordedAt != nil {
		recordedAt = *in.RecordedAt
	}

	id := t.newID()
	err := t.db.Run(ctx, `INSERT INTO measurements (
    id, feature_id, metric, value, unit, method,
    accuracy, confidence, notes, recorded_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.FeatureID, in.Metric, in.Value, in.Unit, string(method),
		arg(in.Accuracy), arg(in.Confidence), arg(in.Notes), formatTime(recordedAt), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("creating measurement: %w", err)
	}
	return t.GetByID(ctx, id)
}

// Update applies a partial update; nil fields keep their stored value.
func (t *MeasurementsTable) Update(ctx context.Context, id string, in types.UpdateMeasurementInput) (*types.Measurement, error) {
	if _, err := t.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	err := t.db.Run(ctx, `UPDATE measurements SET
    value = COALESCE(?, value),
    unit = COALESCE(?, unit),
    method = COALESCE(?, method),
    accuracy = COALESCE(?, accuracy),
    confidence = COALESCE(?, confidence),
    notes = COALESCE(?, notes)
WHERE id = ?`,
		arg(in.Value), arg(in.Unit), arg(in.Method), arg(in.Accuracy), arg(in.Confidence), arg(in.Notes), id)
	if err != nil {
		return nil, fmt.Errorf("updating measurement %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes a measurement.
func (t *MeasurementsTable) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	if err := t.db.Run(ctx, "DELETE FROM measurements WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting measurement %s: %w", id, err)
	}
	return nil
}

// Count returns the number of measurements, optionally for one feature.
func (t *MeasurementsTable) Count(ctx context.Context, featureID string) (int, error) {
	query, args := "SELECT COUNT(*) AS count FROM measurements", []any{}
	if featureID != "" {
		query += " WHERE feature_id = ?"
		args = append(args, featureID)
	}
	row, err := t.db.Get(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("counting measurements: %w", err)
	}
	return count(row), nil
}

// DistinctMetrics returns every metric name in use, sorted.
func (t *MeasurementsTable) DistinctMetrics(ctx context.Context) ([]string, error) {
	rows, err := t.db.All(ctx, "SELECT DISTINCT metric FROM measurements ORDER BY metric")
	if err != nil {
		return nil, fmt.Errorf("listing metrics: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, str(row, "metric"))
	}
	return out, nil
}

func hydrateMeasurement(r types.Row) (*types.Measurement, error) {
	m := &types.Measurement{
		ID:        str(r, "id"),
		FeatureID: str(r, "feature_id"),
		Metric:    str(r, "metric"),
		Value:     num(r, "value"),
		Unit:      str(r, "unit"),
		Method:    types.MeasurementMethod(str(r, "method")),
		Accuracy:  optNum(r, "accuracy"),
		Notes:     optStr(r, "notes"),
	}
	if c := optStr(r, "confidence"); c != nil {
		conf := types.Confidence(*c)
		m.Confidence = &conf
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
