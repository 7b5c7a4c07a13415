// Package export writes one-shot files from console data: region layers as
// GeoJSON or shapefile, alerts and cost reports as spreadsheets.
package export

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// wgs84PRJ is the .prj sidecar for EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Shapefile attribute columns. dBase limits names to 10 characters.
var regionFields = []shp.Field{
	shp.StringField("ID", 40),
	shp.StringField("NAME", 80),
	shp.StringField("STATUS", 12),
	shp.FloatField("RADIUS_KM", 8, 1),
	shp.NumberField("CLOUD_PCT", 3),
	shp.FloatField("DEFOR_PCT", 8, 2),
	shp.StringField("SEVERITY", 10),
	shp.StringField("COLOR", 7),
}

// WriteGeoJSON writes regions as a GeoJSON FeatureCollection of circles.
func WriteGeoJSON(w io.Writer, regions []forestshield.Region) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(region.Layer(regions, "")); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}

// WriteShapefile writes regions as a polygon shapefile at path (.shp, .shx,
// .dbf and .prj siblings).
func WriteShapefile(path string, regions []forestshield.Region) error {
	if !strings.HasSuffix(strings.ToLower(path), ".shp") {
		path += ".shp"
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	if err := w.SetFields(regionFields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for _, r := range regions {
		circle := geo.Circle(region.Center(r), r.RadiusKm*1000, geo.DefaultCircleSegments)
		row := int(w.Write(polygonToShape(circle)))

		app := region.Classify(r)
		var defor float64
		if r.LastDeforestationPercentage != nil {
			defor = *r.LastDeforestationPercentage
		}
		attrs := []any{r.ID, r.Name, string(r.Status), r.RadiusKm, r.CloudCoverThreshold, defor, string(app.Severity), app.Color}
		for i, v := range attrs {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "export: write attribute %s for region %s", regionFields[i].String(), r.ID)
			}
		}
	}

	prj := strings.TrimSuffix(path, path[len(path)-4:]) + ".prj"
	if err := os.WriteFile(prj, []byte(wgs84PRJ), 0o644); err != nil {
		return eris.Wrap(err, "export: write .prj")
	}
	return nil
}

// polygonToShape converts a go-geom polygon into a shapefile polygon, one
// part per ring.
func polygonToShape(p *geom.Polygon) *shp.Polygon {
	var (
		parts  []int32
		points []shp.Point
	)
	for i := 0; i < p.NumLinearRings(); i++ {
		parts = append(parts, int32(len(points)))
		for _, c := range p.LinearRing(i).Coords() {
			points = append(points, shp.Point{X: c.X(), Y: c.Y()})
		}
	}
	return &shp.Polygon{
		Box:       shp.BBoxFromPoints(points),
		NumParts:  int32(len(parts)),
		NumPoints: int32(len(points)),
		Parts:     parts,
		Points:    points,
	}
}
