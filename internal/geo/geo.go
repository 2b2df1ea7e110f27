// Package geo measures feature geometries on the WGS84 sphere and renders
// them as GeoJSON. Coordinates are [lng, lat]; results that a map consumes
// directly (Center, Bounds) are [lat, lng].
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// Units is a display unit system, matching the units_system setting.
type Units string

// Unit systems.
const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// pointPad is the half-width in degrees of the bounds around a point.
const pointPad = 0.001

// Area returns the area of a polygon in square meters, holes excluded.
// Other geometries have no area.
func Area(g types.Geometry) float64 {
	p, ok := g.Geometry.(orb.Polygon)
	if !ok {
		return 0
	}
	return math.Abs(orbgeo.Area(p))
}

// Perimeter returns the summed length of every ring of a polygon in meters.
func Perimeter(g types.Geometry) float64 {
	p, ok := g.Geometry.(orb.Polygon)
	if !ok {
		return 0
	}
	var total float64
	for _, ring := range p {
		total += orbgeo.Length(orb.LineString(ring))
	}
	return total
}

// Length returns the length of a line string in meters.
func Length(g types.Geometry) float64 {
	ls, ok := g.Geometry.(orb.LineString)
	if !ok {
		return 0
	}
	return orbgeo.Length(ls)
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b)
}

// Center returns [lat, lng] of the point itself or of the centroid of a line
// or polygon.
func Center(g types.Geometry) [2]float64 {
	var c orb.Point
	switch v := g.Geometry.(type) {
	case nil:
		return [2]float64{}
	case orb.Point:
		c = v
	default:
		c, _ = planar.CentroidArea(v)
	}
	return [2]float64{c.Lat(), c.Lon()}
}

// Bounds returns [[minLat, minLng], [maxLat, maxLng]]. A point gets a small
// box around it so a map can zoom to it.
func Bounds(g types.Geometry) [2][2]float64 {
	switch v := g.Geometry.(type) {
	case nil:
		return [2][2]float64{}
	case orb.Point:
		return [2][2]float64{
			{v.Lat() - pointPad, v.Lon() - pointPad},
			{v.Lat() + pointPad, v.Lon() + pointPad},
		}
	}
	b := g.Geometry.Bound()
	return [2][2]float64{
		{b.Min.Lat(), b.Min.Lon()},
		{b.Max.Lat(), b.Max.Lon()},
	}
}

// PointInPolygon reports whether p lies inside poly. Points inside a hole
// are outside.
func PointInPolygon(p orb.Point, poly orb.Polygon) bool {
	return planar.PolygonContains(poly, p)
}

// FormatArea renders square meters as m² or ha, or as ft² or acres.
func FormatArea(squareMeters float64, u Units) string {
	if u == Imperial {
		acres := squareMeters * 0.000247105
		if acres >= 1 {
			return fmt.Sprintf("%.2f acres", acres)
		}
		return fmt.Sprintf("%.0f ft²", squareMeters*10.7639)
	}
	if squareMeters >= 10000 {
		return fmt.Sprintf("%.2f ha", squareMeters/10000)
	}
	return fmt.Sprintf("%.0f m²", squareMeters)
}

// FormatDistance renders meters as m or km, or as ft or mi.
func FormatDistance(meters float64, u Units) string {
	if u == Imperial {
		feet := meters * 3.28084
		if feet >= 5280 {
			return fmt.Sprintf("%.2f mi", feet/5280)
		}
		return fmt.Sprintf("%.0f ft", feet)
	}
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// Size returns the formatted area of a polygon or length of a line, and an
// empty string for a point.
func Size(g types.Geometry, u Units) string {
	switch g.Type() {
	case types.GeometryPolygon:
		return FormatArea(Area(g), u)
	case types.GeometryLineString:
		return FormatDistance(Length(g), u)
	}
	return ""
}
