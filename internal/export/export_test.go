package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

func testRegions() []forestshield.Region {
	defor := 6.5
	return []forestshield.Region{
		{ID: "r1", Name: "Xingu", Latitude: -6, Longitude: -53, RadiusKm: 10, CloudCoverThreshold: 20, Status: forestshield.StatusActive, LastDeforestationPercentage: &defor},
		{ID: "r2", Name: "Tapajos", Latitude: -4, Longitude: -55, RadiusKm: 5, CloudCoverThreshold: 30, Status: forestshield.StatusPaused},
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, testRegions()))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "r1", fc.Features[0].ID)
	assert.Equal(t, "high", fc.Features[0].Properties["severity"])
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions")
	require.NoError(t, WriteShapefile(path, testRegions()))

	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		_, err := os.Stat(path + ext)
		require.NoError(t, err, ext)
	}

	reader, err := shp.Open(path + ".shp")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	idx := map[string]int{}
	for i, f := range reader.Fields() {
		idx[strings.TrimRight(f.String(), "\x00")] = i
	}

	var names []string
	var statuses []string
	for reader.Next() {
		_, s := reader.Shape()
		poly, ok := s.(*shp.Polygon)
		require.True(t, ok)
		assert.Equal(t, int32(1), poly.NumParts)
		assert.Len(t, poly.Points, geo.DefaultCircleSegments+1)

		names = append(names, strings.TrimSpace(reader.Attribute(idx["NAME"])))
		statuses = append(statuses, strings.TrimSpace(reader.Attribute(idx["STATUS"])))
	}
	assert.Equal(t, []string{"Xingu", "Tapajos"}, names)
	assert.Equal(t, []string{"ACTIVE", "PAUSED"}, statuses)
}

func TestPolygonToShape(t *testing.T) {
	circle := geo.Circle(geo.LatLng{Lat: 0, Lng: 0}, 1000, 8)
	s := polygonToShape(circle)

	assert.Equal(t, int32(1), s.NumParts)
	assert.Equal(t, int32(9), s.NumPoints)
	assert.Equal(t, s.Points[0], s.Points[len(s.Points)-1])
	assert.Less(t, s.Box.MinX, 0.0)
	assert.Greater(t, s.Box.MaxY, 0.0)
}

func TestWriteAlertsXLSX(t *testing.T) {
	alerts := []forestshield.Alert{
		{ID: "a1", RegionName: "Xingu", Level: forestshield.AlertCritical, DeforestationPercentage: 12.5, Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Message: "Deforestation spike"},
		{ID: "a2", RegionID: "r2", Level: forestshield.AlertLow},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAlertsXLSX(&buf, alerts))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[AlertsSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "a1", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Xingu", sheet.Rows[1].Cells[1].String())
	assert.Equal(t, "CRITICAL", sheet.Rows[1].Cells[2].String())
	assert.Equal(t, "2024-03-01T00:00:00Z", sheet.Rows[1].Cells[7].String())
	assert.Equal(t, "r2", sheet.Rows[2].Cells[1].String(), "falls back to region id")
}

func TestWriteCostXLSX(t *testing.T) {
	report := &forestshield.CostReport{
		Total:    42,
		Currency: "USD",
		Breakdown: []forestshield.ServiceCost{
			{Service: "Lambda", Amount: 30},
			{Service: "S3", Amount: 12},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCostXLSX(&buf, report))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet := f.Sheet[CostSheet]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, "Lambda", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Total", sheet.Rows[3].Cells[0].String())
	assert.Equal(t, "USD", sheet.Rows[3].Cells[2].String())

	assert.Error(t, WriteCostXLSX(&buf, nil))
}
