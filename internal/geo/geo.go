// Package geo provides the spherical geometry behind region circles: great-circle
// distance, destination points, circle polygons and bounding boxes.
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean Earth radius used by web map distance math.
const EarthRadiusMeters = 6371000.0

// DefaultCircleSegments is the number of vertices used to approximate a circle.
const DefaultCircleSegments = 64

// LatLng is a point in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

func (p LatLng) s2() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b LatLng) float64 {
	return a.s2().Distance(b.s2()).Radians() * EarthRadiusMeters
}

// Destination returns the point reached by travelling distMeters from origin
// along the initial bearing (degrees clockwise from north).
func Destination(origin LatLng, bearingDeg, distMeters float64) LatLng {
	ll := origin.s2()
	lat1 := ll.Lat.Radians()
	lng1 := ll.Lng.Radians()
	brng := (s1.Angle(bearingDeg) * s1.Degree).Radians()
	ang := distMeters / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2),
	)

	out := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lng2)}.Normalized()
	return LatLng{Lat: out.Lat.Degrees(), Lng: out.Lng.Degrees()}
}

// Circle approximates a circle of radiusMeters around center as a closed
// polygon in lng/lat order. segments below 8 fall back to DefaultCircleSegments.
func Circle(center LatLng, radiusMeters float64, segments int) *geom.Polygon {
	if segments < 8 {
		segments = DefaultCircleSegments
	}

	flat := make([]float64, 0, (segments+1)*2)
	for i := 0; i < segments; i++ {
		p := Destination(center, 360*float64(i)/float64(segments), radiusMeters)
		flat = append(flat, p.Lng, p.Lat)
	}
	flat = append(flat, flat[0], flat[1])

	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
}

// Bounds is a north/south/east/west bounding box in degrees.
type Bounds struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// BoundsAround returns the box enclosing a circle of radiusMeters around center.
func BoundsAround(center LatLng, radiusMeters float64) Bounds {
	size := s2.LatLng{
		Lat: s1.Angle(2 * radiusMeters / EarthRadiusMeters),
		Lng: s1.Angle(2 * radiusMeters / EarthRadiusMeters / math.Max(math.Cos(center.s2().Lat.Radians()), 1e-6)),
	}
	rect := s2.RectFromCenterSize(center.s2(), size)
	return boundsFromRect(rect)
}

// Union returns the smallest box covering all of bs. It returns false when bs is empty.
func Union(bs ...Bounds) (Bounds, bool) {
	if len(bs) == 0 {
		return Bounds{}, false
	}
	rect := s2.EmptyRect()
	for _, b := range bs {
		rect = rect.AddPoint(s2.LatLngFromDegrees(b.South, b.West))
		rect = rect.AddPoint(s2.LatLngFromDegrees(b.North, b.East))
	}
	return boundsFromRect(rect), true
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.South && p.Lat <= b.North && p.Lng >= b.West && p.Lng <= b.East
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.North + b.South) / 2, Lng: (b.East + b.West) / 2}
}

func boundsFromRect(r s2.Rect) Bounds {
	return Bounds{
		North: r.Hi().Lat.Degrees(),
		South: r.Lo().Lat.Degrees(),
		East:  r.Hi().Lng.Degrees(),
		West:  r.Lo().Lng.Degrees(),
	}
}
