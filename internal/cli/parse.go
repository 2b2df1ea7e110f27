package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// parseCoords reads "lng,lat;lng,lat;..." into coordinate pairs.
func parseCoords(s string) ([][2]float64, error) {
	var out [][2]float64
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: coordinate %q is not lng,lat", types.ErrInvalidValue, pair)
		}
		var c [2]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: coordinate %q: %v", types.ErrInvalidValue, pair, err)
			}
			c[i] = v
		}
		if c[0] < -180 || c[0] > 180 || c[1] < -90 || c[1] > 90 {
			return nil, fmt.Errorf("%w: coordinate %q out of range", types.ErrInvalidValue, pair)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no coordinates", types.ErrInvalidValue)
	}
	return out, nil
}

// parseGeometryType accepts the GeoJSON names and the short forms point,
// line and polygon.
func parseGeometryType(s string) (types.GeometryType, error) {
	switch strings.ToLower(s) {
	case "point":
		return types.GeometryPoint, nil
	case "line", "linestring":
		return types.GeometryLineString, nil
	case "polygon":
		return types.GeometryPolygon, nil
	}
	return "", fmt.Errorf("%w: unknown geometry type %q", types.ErrInvalidValue, s)
}

// buildGeometry turns coordinates into a geometry. Without an explicit
// type, one coordinate is a point and several are a line string.
func buildGeometry(kind string, coords [][2]float64) (types.Geometry, types.GeometryType, error) {
	gt := types.GeometryPoint
	if len(coords) > 1 {
		gt = types.GeometryLineString
	}
	if kind != "" {
		var err error
		if gt, err = parseGeometryType(kind); err != nil {
			return types.Geometry{}, "", err
		}
	}
	switch gt {
	case types.GeometryPoint:
		if len(coords) != 1 {
			return types.Geometry{}, "", fmt.Errorf("%w: a point takes one coordinate, got %d", types.ErrInvalidGeometry, len(coords))
		}
		return types.PointGeometry(coords[0][0], coords[0][1]), gt, nil
	case types.GeometryLineString:
		return types.LineGeometry(coords), gt, nil
	default:
		return types.PolygonGeometry(coords), gt, nil
	}
}

// parseProps reads key=value pairs. Values are parsed as JSON when
// possible, so numbers and booleans keep their type; anything else is a
// string.
func parseProps(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: property %q is not key=value", types.ErrInvalidValue, pair)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		out[key] = v
	}
	return out, nil
}

// parseDate reads a YYYY-MM-DD date as midnight UTC.
func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", types.ErrInvalidValue, s)
	}
	return &t, nil
}
