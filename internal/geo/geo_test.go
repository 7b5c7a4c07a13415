package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  LatLng
		want  float64
		delta float64
	}{
		{"same point", LatLng{-6, -53}, LatLng{-6, -53}, 0, 1e-6},
		{"one degree of latitude", LatLng{0, 0}, LatLng{1, 0}, 111194.9, 1},
		{"austin to dallas", LatLng{30.2672, -97.7431}, LatLng{32.7767, -96.7970}, 293095, 10},
		{"across the antimeridian", LatLng{0, 179.5}, LatLng{0, -179.5}, 111194.9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDestination_RoundTrip(t *testing.T) {
	origin := LatLng{Lat: -6.0, Lng: -53.0}
	for _, bearing := range []float64{0, 45, 90, 180, 270, 333} {
		p := Destination(origin, bearing, 10000)
		assert.InDelta(t, 10000, Distance(origin, p), 0.5, "bearing %v", bearing)
	}

	north := Destination(origin, 0, 10000)
	assert.Greater(t, north.Lat, origin.Lat)
	assert.InDelta(t, origin.Lng, north.Lng, 1e-9)
}

func TestCircle(t *testing.T) {
	center := LatLng{Lat: -6.0, Lng: -53.0}
	poly := Circle(center, 5000, 32)

	require.Equal(t, 1, poly.NumLinearRings())
	ring := poly.LinearRing(0)
	assert.Equal(t, 33, ring.NumCoords())
	assert.Equal(t, ring.Coord(0), ring.Coord(32), "ring is closed")
	assert.Equal(t, 4326, poly.SRID())

	for i := 0; i < ring.NumCoords(); i++ {
		c := ring.Coord(i)
		assert.InDelta(t, 5000, Distance(center, LatLng{Lat: c.Y(), Lng: c.X()}), 0.5)
	}
}

func TestCircle_DefaultSegments(t *testing.T) {
	poly := Circle(LatLng{}, 1000, 0)
	assert.Equal(t, DefaultCircleSegments+1, poly.LinearRing(0).NumCoords())
}

func TestBoundsAround(t *testing.T) {
	center := LatLng{Lat: -6.0, Lng: -53.0}
	b := BoundsAround(center, 10000)

	assert.True(t, b.Contains(center))
	assert.InDelta(t, 10000, Distance(center, LatLng{Lat: b.North, Lng: center.Lng}), 50)
	assert.InDelta(t, 10000, Distance(center, LatLng{Lat: center.Lat, Lng: b.East}), 50)
	assert.InDelta(t, center.Lat, b.Center().Lat, 1e-6)
	assert.InDelta(t, center.Lng, b.Center().Lng, 1e-6)
}

func TestUnion(t *testing.T) {
	_, ok := Union()
	assert.False(t, ok)

	u, ok := Union(
		Bounds{North: -5, South: -6, East: -52, West: -53},
		Bounds{North: -7, South: -8, East: -50, West: -51},
	)
	require.True(t, ok)
	assert.InDelta(t, -5, u.North, 1e-9)
	assert.InDelta(t, -8, u.South, 1e-9)
	assert.InDelta(t, -50, u.East, 1e-9)
	assert.InDelta(t, -53, u.West, 1e-9)
}

func TestLatLngValid(t *testing.T) {
	assert.True(t, LatLng{Lat: -6, Lng: -53}.Valid())
	assert.False(t, LatLng{Lat: 91, Lng: 0}.Valid())
	assert.False(t, LatLng{Lat: 0, Lng: -181}.Valid())
}
