package types

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		geom    Geometry
		wantErr error
	}{
		{
			name: "point",
			geom: PointGeometry(174.77, -41.29),
		},
		{
			name: "line string with two positions",
			geom: LineGeometry([][2]float64{{0, 0}, {1, 1}}),
		},
		{
			name:    "line string with one position",
			geom:    LineGeometry([][2]float64{{0, 0}}),
			wantErr: ErrInvalidGeometry,
		},
		{
			name: "polygon closed by constructor",
			geom: PolygonGeometry([][2]float64{{0, 0}, {1, 0}, {1, 1}}),
		},
		{
			name:    "polygon ring not closed",
			geom:    Geometry{orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}},
			wantErr: ErrInvalidGeometry,
		},
		{
			name:    "polygon ring too short",
			geom:    Geometry{orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {0, 0}}}},
			wantErr: ErrInvalidGeometry,
		},
		{
			name:    "polygon without rings",
			geom:    Geometry{orb.Polygon{}},
			wantErr: ErrInvalidGeometry,
		},
		{
			name:    "empty geometry",
			geom:    Geometry{},
			wantErr: ErrInvalidGeometry,
		},
		{
			name:    "multipoint unsupported",
			geom:    Geometry{orb.MultiPoint{{0, 0}}},
			wantErr: ErrInvalidGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.geom.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPolygonGeometryClosesRing(t *testing.T) {
	g := PolygonGeometry([][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	poly := g.Geometry.(orb.Polygon)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
	assert.Equal(t, poly[0][0], poly[0][4])

	closed := PolygonGeometry([][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	assert.Len(t, closed.Geometry.(orb.Polygon)[0], 4, "already closed ring is left alone")
}

func TestGeometryJSONRoundTrip(t *testing.T) {
	for _, g := range []Geometry{
		PointGeometry(1.5, -2.25),
		LineGeometry([][2]float64{{0, 0}, {1, 1}, {2, 0}}),
		PolygonGeometry([][2]float64{{0, 0}, {1, 0}, {1, 1}}),
	} {
		t.Run(string(g.Type()), func(t *testing.T) {
			data, err := json.Marshal(g)
			require.NoError(t, err)

			var back Geometry
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, g.Type(), back.Type())
			assert.Equal(t, g.Geometry, back.Geometry)
		})
	}
}

func TestGeometryUnmarshalGeoJSON(t *testing.T) {
	var g Geometry
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Point","coordinates":[10,20]}`), &g))
	assert.Equal(t, GeometryPoint, g.Type())
	assert.Equal(t, orb.Point{10, 20}, g.Geometry)

	err := json.Unmarshal([]byte(`{"type":"Circle","coordinates":[10,20]}`), &g)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestCreateFeatureInputValidate(t *testing.T) {
	base := CreateFeatureInput{Name: "Oak", GeometryType: GeometryPoint, Geometry: PointGeometry(1, 2)}
	assert.NoError(t, base.Validate())

	noName := base
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrInvalidValue)

	mismatch := base
	mismatch.GeometryType = GeometryPolygon
	assert.ErrorIs(t, mismatch.Validate(), ErrGeometryMismatch)

	unknown := base
	unknown.GeometryType = "Circle"
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidValue)
}
