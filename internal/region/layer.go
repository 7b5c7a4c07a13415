package region

import (
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Center returns the region's center point.
func Center(r forestshield.Region) geo.LatLng {
	return geo.LatLng{Lat: r.Latitude, Lng: r.Longitude}
}

// Feature renders r as a GeoJSON circle polygon with its appearance attached.
func Feature(r forestshield.Region, selected bool) *geojson.Feature {
	app := Classify(r)
	props := map[string]any{
		"name":                r.Name,
		"status":              string(r.Status),
		"statusLabel":         app.Label,
		"color":               app.Color,
		"severity":            string(app.Severity),
		"radiusKm":            r.RadiusKm,
		"cloudCoverThreshold": r.CloudCoverThreshold,
		"selected":            selected,
	}
	if r.LastDeforestationPercentage != nil {
		props["lastDeforestationPercentage"] = *r.LastDeforestationPercentage
	}
	if r.LastAnalysis != nil {
		props["lastAnalysis"] = r.LastAnalysis.UTC().Format("2006-01-02T15:04:05Z")
	}

	return &geojson.Feature{
		ID:         r.ID,
		Geometry:   geo.Circle(Center(r), r.RadiusKm*1000, geo.DefaultCircleSegments),
		Properties: props,
	}
}

// Layer renders every region as one feature collection. selectedID marks the
// selected region, if any.
func Layer(regions []forestshield.Region, selectedID string) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(regions))}
	for _, r := range regions {
		fc.Features = append(fc.Features, Feature(r, r.ID == selectedID))
	}
	return fc
}

// Extent returns the box covering every region's circle.
func Extent(regions []forestshield.Region) (geo.Bounds, bool) {
	bs := make([]geo.Bounds, 0, len(regions))
	for _, r := range regions {
		bs = append(bs, geo.BoundsAround(Center(r), r.RadiusKm*1000))
	}
	return geo.Union(bs...)
}
