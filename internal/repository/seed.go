package repository

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// BundledTemplates returns the builtin template catalog in seed order.
func BundledTemplates() []types.CreateTemplateInput {
	return []types.CreateTemplateInput{
		{
			ID:          "generic-feature",
			Name:        "Generic Feature",
			Description: ptr("A general-purpose feature for any location"),
			Icon:        ptr("📍"),
			Schema: types.TemplateSchema{
				GeometryTypes:  []types.GeometryType{types.GeometryPoint, types.GeometryLineString, types.GeometryPolygon},
				DefaultTags:    []string{},
				Measurements:   []types.MeasurementField{},
				SuggestedTasks: []string{"Inspect", "Photograph", "Mark boundary"},
				Properties:     map[string]types.PropertyField{},
			},
		},
		{
			ID:          "tree",
			Name:        "Tree",
			Description: ptr("Individual tree or significant woody plant"),
			Icon:        ptr("🌳"),
			Schema: types.TemplateSchema{
				GeometryTypes: []types.GeometryType{types.GeometryPoint},
				DefaultTags:   []string{"tree", "planting"},
				Measurements: []types.MeasurementField{
					{Metric: "height", Label: "Height", Unit: "m", DefaultMethod: types.MethodEstimated},
					{Metric: "dbh", Label: "Diameter at Breast Height", Unit: "cm", DefaultMethod: types.MethodMeasured},
					{Metric: "canopy_diameter", Label: "Canopy Diameter", Unit: "m", DefaultMethod: types.MethodEstimated},
				},
				SuggestedTasks: []string{"Water", "Mulch", "Prune", "Stake", "Fertilize", "Check health"},
				Properties: map[string]types.PropertyField{
					"species":     {Type: types.FieldString, Label: "Species"},
					"commonName":  {Type: types.FieldString, Label: "Common Name"},
					"plantedDate": {Type: types.FieldDate, Label: "Date Planted"},
					"source": {
						Type:    types.FieldSelect,
						Label:   "Source",
						Options: []string{"Nursery", "Seed", "Cutting", "Volunteer", "Unknown"},
					},
					"isNative": {Type: types.FieldBoolean, Label: "Native Species", DefaultValue: false},
				},
			},
		},
		{
			ID:          "planting-row",
			Name:        "Planting Row",
			Description: ptr("A row of plants or crop line"),
			Icon:        ptr("🌱"),
			Schema: types.TemplateSchema{
				GeometryTypes: []types.GeometryType{types.GeometryLineString},
				DefaultTags:   []string{"planting", "row"},
				Measurements: []types.MeasurementField{
					{Metric: "length", Label: "Row Length", Unit: "m", DefaultMethod: types.MethodMeasured},
					{Metric: "spacing", Label: "Plant Spacing", Unit: "cm", DefaultMethod: types.MethodMeasured},
					{Metric: "plant_count", Label: "Plant Count", Unit: "count", DefaultMethod: types.MethodMeasured},
				},
				SuggestedTasks: []string{"Plant", "Weed", "Irrigate", "Harvest", "Replant gaps"},
				Properties: map[string]types.PropertyField{
					"crop":        {Type: types.FieldString, Label: "Crop/Species"},
					"plantedDate": {Type: types.FieldDate, Label: "Date Planted"},
					"rowNumber":   {Type: types.FieldNumber, Label: "Row Number"},
				},
			},
		},
		{
			ID:          "water-point",
			Name:        "Water Point",
			Description: ptr("Spring, well, tank, or other water source"),
			Icon:        ptr("💧"),
			Schema: types.TemplateSchema{
				GeometryTypes: []types.GeometryType{types.GeometryPoint},
				DefaultTags:   []string{"water"},
				Measurements: []types.MeasurementField{
					{Metric: "flow_rate", Label: "Flow Rate", Unit: "L/min", DefaultMethod: types.MethodMeasured},
					{Metric: "depth", Label: "Depth", Unit: "m", DefaultMethod: types.MethodMeasured},
					{Metric: "capacity", Label: "Capacity", Unit: "L", DefaultMethod: types.MethodMeasured},
					{Metric: "ph", Label: "pH Level", Unit: "pH", DefaultMethod: types.MethodMeasured},
				},
				SuggestedTasks: []string{"Test water quality", "Clean", "Repair", "Monitor level"},
				Properties: map[string]types.PropertyField{
					"waterType": {
						Type:    types.FieldSelect,
						Label:   "Water Type",
						Options: []string{"Spring", "Well", "Tank", "Dam", "Creek", "Bore", "Other"},
					},
					"isPotable":   {Type: types.FieldBoolean, Label: "Potable", DefaultValue: false},
					"isPerennial": {Type: types.FieldBoolean, Label: "Perennial", DefaultValue: true},
				},
			},
		},
		{
			ID:          "soil-pit",
			Name:        "Soil Pit",
			Description: ptr("Soil test location or observation pit"),
			Icon:        ptr("🕳️"),
			Schema: types.TemplateSchema{
				GeometryTypes: []types.GeometryType{types.GeometryPoint},
				DefaultTags:   []string{"soil", "test"},
				Measurements: []types.MeasurementField{
					{Metric: "depth", Label: "Pit Depth", Unit: "cm", DefaultMethod: types.MethodMeasured},
					{Metric: "topsoil_depth", Label: "Topsoil Depth", Unit: "cm", DefaultMethod: types.MethodMeasured},
					{Metric: "ph", Label: "pH Level", Unit: "pH", DefaultMethod: types.MethodMeasured},
				},
				SuggestedTasks: []string{"Collect sample", "Send for testing", "Photograph layers", "Backfill"},
				Properties: map[string]types.PropertyField{
					"soilTexture": {
						Type:    types.FieldSelect,
						Label:   "Soil Texture",
						Options: []string{"Sand", "Sandy Loam", "Loam", "Clay Loam", "Clay", "Silt"},
					},
					"drainage": {
						Type:    types.FieldSelect,
						Label:   "Drainage",
						Options: []string{"Excellent", "Good", "Moderate", "Poor", "Very Poor"},
					},
					"color": {Type: types.FieldString, Label: "Soil Color"},
				},
			},
		},
		{
			ID:          "weed-patch",
			Name:        "Weed Patch",
			Description: ptr("Area of weeds or invasive species"),
			Icon:        ptr("🌿"),
			Schema: types.TemplateSchema{
				GeometryTypes: []types.GeometryType{types.GeometryPoint, types.GeometryPolygon},
				DefaultTags:   []string{"weed", "invasive"},
				Measurements: []types.MeasurementField{
					{Metric: "area", Label: "Affected Area", Unit: "m²", DefaultMethod: types.MethodEstimated},
					{Metric: "density", Label: "Density", Unit: "%", DefaultMethod: types.MethodEstimated},
					{Metric: "height", Label: "Average Height", Unit: "cm", DefaultMethod: types.MethodEstimated},
				},
				SuggestedTasks: []string{"Remove manually", "Spray", "Mulch", "Monitor regrowth", "Revegetate"},
				Properties: map[string]types.PropertyField{
					"species": {Type: types.FieldString, Label: "Weed Species"},
					"severity": {
						Type:    types.FieldSelect,
						Label:   "Severity",
						Options: []string{"Low", "Medium", "High", "Critical"},
					},
					"isSpreading": {Type: types.FieldBoolean, Label: "Actively Spreading", DefaultValue: false},
				},
			},
		},
	}
}

// SeedBuiltinTemplates installs the bundled templates when the templates
// table is empty and returns how many were created. A template that fails
// to insert is logged and skipped.
func (s *Store) SeedBuiltinTemplates(ctx context.Context) (int, error) {
	n, err := s.Templates.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking templates: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, in := range BundledTemplates() {
		if _, err := s.Templates.Create(ctx, in, true); err != nil {
			s.logger.Warn("seeding builtin template failed", "template", in.ID, "error", err)
			continue
		}
		created++
	}
	return created, nil
}

func ptr[T any](v T) *T { return &v }
