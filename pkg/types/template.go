package types

import (
	"fmt"
	"time"
)

// PropertyFieldType is the input type of a custom template property.
type PropertyFieldType string

// Property field types.
const (
	FieldString  PropertyFieldType = "string"
	FieldNumber  PropertyFieldType = "number"
	FieldDate    PropertyFieldType = "date"
	FieldBoolean PropertyFieldType = "boolean"
	FieldSelect  PropertyFieldType = "select"
)

// MeasurementField suggests a measurement for features of a template.
type MeasurementField struct {
	Metric        string            `json:"metric"`
	Label         string            `json:"label"`
	Unit          string            `json:"unit"`
	DefaultMethod MeasurementMethod `json:"defaultMethod,omitempty"`
}

// PropertyField defines a custom property on features of a template.
type PropertyField struct {
	Type         PropertyFieldType `json:"type"`
	Label        string            `json:"label"`
	Required     bool              `json:"required,omitempty"`
	Options      []string          `json:"options,omitempty"`
	DefaultValue any               `json:"defaultValue,omitempty"`
}

// TemplateSchema describes a class of feature.
type TemplateSchema struct {
	GeometryTypes  []GeometryType           `json:"geometryTypes"`
	DefaultTags    []string                 `json:"defaultTags"`
	Measurements   []MeasurementField       `json:"measurements"`
	SuggestedTasks []string                 `json:"suggestedTasks"`
	Properties     map[string]PropertyField `json:"properties"`
}

// Allows reports whether the schema permits the geometry type.
func (s TemplateSchema) Allows(t GeometryType) bool {
	for _, gt := range s.GeometryTypes {
		if gt == t {
			return true
		}
	}
	return false
}

// Template is a reusable schema for features. Builtin templates ship with
// the application and cannot be changed.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Icon        *string        `json:"icon,omitempty"`
	IsBuiltin   bool           `json:"isBuiltin"`
	Schema      TemplateSchema `json:"schema"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateTemplateInput holds the fields of a new template. Templates carry
// their own id so they survive export and import unchanged.
type CreateTemplateInput struct {
	ID          string
	Name        string
	Description *string
	Icon        *string
	Schema      TemplateSchema
}

// Validate checks the id, the name and the schema's geometry types.
func (in CreateTemplateInput) Validate() error {
	if in.ID == "" {
		return fmt.Errorf("%w: template id must not be empty", ErrInvalidValue)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: template name must not be empty", ErrInvalidValue)
	}
	for _, gt := range in.Schema.GeometryTypes {
		if !gt.Valid() {
			return fmt.Errorf("%w: unknown geometry type %q", ErrInvalidValue, gt)
		}
	}
	return nil
}

// UpdateTemplateInput holds a partial template update.
type UpdateTemplateInput struct {
	Name        *string
	Description *string
	Icon        *string
	Schema      *TemplateSchema
}
