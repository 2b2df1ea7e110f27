package geo

import (
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Feature converts a feature to a GeoJSON feature. The record fields are
// written first and custom properties with the same key replace them.
func Feature(f types.Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry.Geometry)
	gf.ID = f.ID
	gf.Properties["id"] = f.ID
	gf.Properties["name"] = f.Name
	if f.Description != nil {
		gf.Properties["description"] = *f.Description
	}
	if f.TemplateID != nil {
		gf.Properties["templateId"] = *f.TemplateID
	}
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	gf.Properties["tags"] = tags
	for k, v := range f.Properties {
		gf.Properties[k] = v
	}
	return gf
}

// FeatureCollection converts features to a GeoJSON feature collection in
// the given order.
func FeatureCollection(features []types.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(Feature(f))
	}
	return fc
}
