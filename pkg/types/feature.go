package types

import (
	"fmt"
	"time"
)

// Feature is a point, line or polygon recorded on the map. Observations,
// measurements and tasks hang off it.
type Feature struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  *string        `json:"description,omitempty"`
	GeometryType GeometryType   `json:"geometryType"`
	Geometry     Geometry       `json:"geometry"`
	TemplateID   *string        `json:"templateId,omitempty"`
	Tags         []string       `json:"tags"`       // ordered, duplicates allowed
	Properties   map[string]any `json:"properties"` // custom template fields
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// CreateFeatureInput holds the fields of a new feature.
type CreateFeatureInput struct {
	Name         string
	Description  *string
	GeometryType GeometryType
	Geometry     Geometry
	TemplateID   *string
	Tags         []string
	Properties   map[string]any
}

// Validate checks the name, the geometry shape and that the declared type
// matches the geometry.
func (in CreateFeatureInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: feature name must not be empty", ErrInvalidValue)
	}
	if !in.GeometryType.Valid() {
		return fmt.Errorf("%w: unknown geometry type %q", ErrInvalidValue, in.GeometryType)
	}
	if err := in.Geometry.Validate(); err != nil {
		return err
	}
	if in.Geometry.Type() != in.GeometryType {
		return fmt.Errorf("%w: declared %s, got %s", ErrGeometryMismatch, in.GeometryType, in.Geometry.Type())
	}
	return nil
}

// UpdateFeatureInput holds a partial feature update. Nil fields keep their
// stored value.
type UpdateFeatureInput struct {
	Name        *string
	Description *string
	Geometry    *Geometry
	Tags        []string
	Properties  map[string]any
}

// FeatureTimeline is a feature with counts of its child records and the time
// of the most recent child activity.
type FeatureTimeline struct {
	Feature
	ObservationCount int        `json:"observationCount"`
	MeasurementCount int        `json:"measurementCount"`
	TaskCount        int        `json:"taskCount"`
	LastActivity     *time.Time `json:"lastActivity,omitempty"`
}
