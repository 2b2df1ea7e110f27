package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

// A degree of arc on the equator with orb's earth radius.
const degree = 111319.49

func square(side float64) types.Geometry {
	return types.PolygonGeometry([][2]float64{{0, 0}, {side, 0}, {side, side}, {0, side}})
}

func TestAreaAndPerimeter(t *testing.T) {
	g := square(0.001)
	assert.InEpsilon(t, 0.001*degree*0.001*degree, Area(g), 0.01)
	assert.InEpsilon(t, 4*0.001*degree, Perimeter(g), 0.01)

	assert.Zero(t, Area(types.PointGeometry(1, 1)))
	assert.Zero(t, Perimeter(types.LineGeometry([][2]float64{{0, 0}, {1, 1}})))

	holed := types.Geometry{Geometry: orb.Polygon{
		square(0.002).Geometry.(orb.Polygon)[0],
		square(0.001).Geometry.(orb.Polygon)[0],
	}}
	assert.InEpsilon(t, 3*0.001*degree*0.001*degree, Area(holed), 0.02)
}

func TestLengthAndDistance(t *testing.T) {
	line := types.LineGeometry([][2]float64{{0, 0}, {0, 0.01}, {0.01, 0.01}})
	assert.InEpsilon(t, 0.02*degree, Length(line), 0.01)
	assert.Zero(t, Length(square(1)))

	assert.InEpsilon(t, 0.01*degree, Distance(orb.Point{0, 0}, orb.Point{0, 0.01}), 0.01)
	assert.Zero(t, Distance(orb.Point{5, 5}, orb.Point{5, 5}))
}

func TestCenterAndBounds(t *testing.T) {
	tests := []struct {
		name   string
		g      types.Geometry
		center [2]float64
		bounds [2][2]float64
	}{
		{
			name:   "point",
			g:      types.PointGeometry(174.5, -41.5),
			center: [2]float64{-41.5, 174.5},
			bounds: [2][2]float64{{-41.501, 174.499}, {-41.499, 174.501}},
		},
		{
			name:   "line",
			g:      types.LineGeometry([][2]float64{{10, 20}, {12, 20}}),
			center: [2]float64{20, 11},
			bounds: [2][2]float64{{20, 10}, {20, 12}},
		},
		{
			name:   "polygon",
			g:      square(2),
			center: [2]float64{1, 1},
			bounds: [2][2]float64{{0, 0}, {2, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Center(tt.g)
			assert.InDelta(t, tt.center[0], c[0], 1e-9)
			assert.InDelta(t, tt.center[1], c[1], 1e-9)
			b := Bounds(tt.g)
			for i := range b {
				for j := range b[i] {
					assert.InDelta(t, tt.bounds[i][j], b[i][j], 1e-9)
				}
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	poly := square(2).Geometry.(orb.Polygon)
	assert.True(t, PointInPolygon(orb.Point{1, 1}, poly))
	assert.False(t, PointInPolygon(orb.Point{3, 1}, poly))

	holed := orb.Polygon{poly[0], square(1).Geometry.(orb.Polygon)[0]}
	assert.False(t, PointInPolygon(orb.Point{0.5, 0.5}, holed))
	assert.True(t, PointInPolygon(orb.Point{1.5, 1.5}, holed))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatArea(950, Metric), "950 m²"},
		{FormatArea(25000, Metric), "2.50 ha"},
		{FormatArea(100, Imperial), "1076 ft²"},
		{FormatArea(8093.7, Imperial), "2.00 acres"},
		{FormatDistance(42.4, Metric), "42 m"},
		{FormatDistance(1500, Metric), "1.50 km"},
		{FormatDistance(10, Imperial), "33 ft"},
		{FormatDistance(3218.69, Imperial), "2.00 mi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got)
	}

	assert.Equal(t, "", Size(types.PointGeometry(0, 0), Metric))
	assert.Equal(t, "1.11 km", Size(types.LineGeometry([][2]float64{{0, 0}, {0, 0.01}}), Metric))
	assert.Regexp(t, `^\d+ m²$`, Size(square(0.0005), Metric))
	assert.Regexp(t, `^\d+\.\d{2} ha$`, Size(square(0.001), Metric))
}

func TestFeatureCollection(t *testing.T) {
	desc := "Gate post"
	features := []types.Feature{
		{
			ID:           "f1",
			Name:         "Gate",
			Description:  &desc,
			GeometryType: types.GeometryPoint,
			Geometry:     types.PointGeometry(1, 2),
			Tags:         []string{"fence"},
			Properties:   map[string]any{"material": "wood", "name": "Override"},
		},
		{
			ID:           "f2",
			Name:         "Track",
			GeometryType: types.GeometryLineString,
			Geometry:     types.LineGeometry([][2]float64{{0, 0}, {1, 1}}),
		},
	}

	data, err := json.Marshal(FeatureCollection(features))
	require.NoError(t, err)

	var out struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Geometry   map[string]any `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "FeatureCollection", out.Type)
	require.Len(t, out.Features, 2)

	first := out.Features[0]
	assert.Equal(t, "f1", first.ID)
	assert.Equal(t, "Point", first.Geometry["type"])
	assert.Equal(t, "Override", first.Properties["name"], "custom properties win")
	assert.Equal(t, "wood", first.Properties["material"])
	assert.Equal(t, "Gate post", first.Properties["description"])
	assert.Equal(t, []any{"fence"}, first.Properties["tags"])

	second := out.Features[1]
	assert.NotContains(t, second.Properties, "description")
	assert.NotContains(t, second.Properties, "templateId")
	assert.Equal(t, []any{}, second.Properties["tags"])
}
