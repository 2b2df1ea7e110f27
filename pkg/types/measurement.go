package types

import (
	"fmt"
	"math"
	"time"
)

// MeasurementMethod records how a value was obtained.
type MeasurementMethod string

// Measurement methods.
const (
	MethodEstimated MeasurementMethod = "estimated"
	MethodMeasured  MeasurementMethod = "measured"
	MethodDerived   MeasurementMethod = "derived"
)

// Valid reports whether m is a known method.
func (m MeasurementMethod) Valid() bool {
	switch m {
	case MethodEstimated, MethodMeasured, MethodDerived:
		return true
	}
	return false
}

// Confidence is the observer's confidence in a measurement.
type Confidence string

// Confidence levels.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Measurement is a quantitative reading recorded against a feature.
type Measurement struct {
	ID         string            `json:"id"`
	FeatureID  string            `json:"featureId"`
	Metric     string            `json:"metric"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	Method     MeasurementMethod `json:"method"`
	Accuracy   *float64          `json:"accuracy,omitempty"`
	Confidence *Confidence       `json:"confidence,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	RecordedAt time.Time         `json:"recordedAt"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// CreateMeasurementInput holds the fields of a new measurement. An empty
// Method means estimated; a nil RecordedAt means now.
type CreateMeasurementInput struct {
	FeatureID  string
	Metric     string
	Value      float64
	Unit       string
	Method     MeasurementMethod
	Accuracy   *float64
	Confidence *Confidence
	Notes      *string
	RecordedAt *time.Time
}

// Validate checks the metric, the value and the enumerated fields.
func (in CreateMeasurementInput) Validate() error {
	if in.Metric == "" {
		return fmt.Errorf("%w: metric must not be empty", ErrInvalidValue)
	}
	if err := checkFinite(in.Value); err != nil {
		return err
	}
	if in.Method != "" && !in.Method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidValue, in.Method)
	}
	if in.Confidence != nil && !in.Confidence.Valid() {
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidValue, *in.Confidence)
	}
	return nil
}

// UpdateMeasurementInput holds a partial measurement update.
type UpdateMeasurementInput struct {
	Value      *float64
	Unit       *string
	Method     *MeasurementMethod
	Accuracy   *float64
	Confidence *Confidence
	Notes      *string
}

// Validate checks the fields that are present.
func (in UpdateMeasurementInput) Validate() error {
	if in.Value != nil {
		if err := checkFinite(*in.Value); err != nil {
			return err
		}
	}
	if in.Method != nil && !in.Method.Valid() {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidValue, *in.Method)
	}
	if in.Confidence != nil && !in.Confidence.Valid() {
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidValue, *in.Confidence)
	}
	return nil
}

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: measurement value must be finite", ErrInvalidValue)
	}
	return nil
}
