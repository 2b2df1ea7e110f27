package types

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeometryType is the shape of a feature's geometry.
type GeometryType string

// Geometry types supported by features.
const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

// Valid reports whether t is a supported geometry type.
func (t GeometryType) Valid() bool {
	switch t {
	case GeometryPoint, GeometryLineString, GeometryPolygon:
		return true
	}
	return false
}

// Geometry is a GeoJSON point, line string or polygon in [lng, lat] order.
// It is stored and exchanged as GeoJSON text.
type Geometry struct {
	orb.Geometry
}

// PointGeometry returns a point geometry at the given coordinate.
func PointGeometry(lng, lat float64) Geometry {
	return Geometry{orb.Point{lng, lat}}
}

// LineGeometry returns a line string through the given [lng, lat] pairs.
func LineGeometry(coords [][2]float64) Geometry {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point(c))
	}
	return Geometry{ls}
}

// PolygonGeometry returns a single-ring polygon through the given [lng, lat]
// pairs. The ring is closed when the first and last coordinates differ.
func PolygonGeometry(coords [][2]float64) Geometry {
	ring := make(orb.Ring, 0, len(coords)+1)
	for _, c := range coords {
		ring = append(ring, orb.Point(c))
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return Geometry{orb.Polygon{ring}}
}

// Type returns the geometry type, or an empty string for unsupported shapes.
func (g Geometry) Type() GeometryType {
	switch g.Geometry.(type) {
	case orb.Point:
		return GeometryPoint
	case orb.LineString:
		return GeometryLineString
	case orb.Polygon:
		return GeometryPolygon
	}
	return ""
}

// Validate checks the structural shape: a line string needs at least two
// positions and every polygon ring at least four with first == last.
func (g Geometry) Validate() error {
	switch v := g.Geometry.(type) {
	case orb.Point:
		return nil
	case orb.LineString:
		if len(v) < 2 {
			return fmt.Errorf("%w: line string needs at least 2 positions, got %d", ErrInvalidGeometry, len(v))
		}
		return nil
	case orb.Polygon:
		if len(v) == 0 {
			return fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
		}
		for i, ring := range v {
			if len(ring) < 4 {
				return fmt.Errorf("%w: ring %d needs at least 4 positions, got %d", ErrInvalidGeometry, i, len(ring))
			}
			if !ring.Closed() {
				return fmt.Errorf("%w: ring %d is not closed", ErrInvalidGeometry, i)
			}
		}
		return nil
	case nil:
		return fmt.Errorf("%w: empty geometry", ErrInvalidGeometry)
	default:
		return fmt.Errorf("%w: unsupported type %s", ErrInvalidGeometry, v.GeoJSONType())
	}
}

// MarshalJSON encodes the geometry as a GeoJSON geometry object.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Geometry == nil {
		return []byte("null"), nil
	}
	return geojson.NewGeometry(g.Geometry).MarshalJSON()
}

// UnmarshalJSON decodes a GeoJSON geometry object.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.Geometry = nil
		return nil
	}
	gj, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	g.Geometry = gj.Geometry()
	return nil
}
