package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Sheet names.
const (
	AlertsSheet = "Alerts"
	CostSheet   = "Cost"
)

var alertHeader = []string{"ID", "Region", "Level", "Deforestation %", "Latitude", "Longitude", "Acknowledged", "Timestamp", "Message"}

var costHeader = []string{"Service", "Amount", "Currency"}

// WriteAlertsXLSX writes alerts to a single-sheet workbook.
func WriteAlertsXLSX(w io.Writer, alerts []forestshield.Alert) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(AlertsSheet)
	if err != nil {
		return eris.Wrap(err, "export: add alerts sheet")
	}

	addHeader(sheet, alertHeader)
	for _, a := range alerts {
		row := sheet.AddRow()
		row.AddCell().SetString(a.ID)
		regionName := a.RegionName
		if regionName == "" {
			regionName = a.RegionID
		}
		row.AddCell().SetString(regionName)
		row.AddCell().SetString(string(a.Level))
		row.AddCell().SetFloat(a.DeforestationPercentage)
		row.AddCell().SetFloat(a.Latitude)
		row.AddCell().SetFloat(a.Longitude)
		row.AddCell().SetBool(a.Acknowledged)
		row.AddCell().SetString(a.Timestamp.UTC().Format(time.RFC3339))
		row.AddCell().SetString(a.Message)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write alerts workbook")
	}
	return nil
}

// WriteCostXLSX writes a cost report's per-service breakdown plus a total row.
func WriteCostXLSX(w io.Writer, report *forestshield.CostReport) error {
	if report == nil {
		return eris.New("export: nil cost report")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(CostSheet)
	if err != nil {
		return eris.Wrap(err, "export: add cost sheet")
	}

	addHeader(sheet, costHeader)
	for _, c := range report.Breakdown {
		row := sheet.AddRow()
		row.AddCell().SetString(c.Service)
		row.AddCell().SetFloat(c.Amount)
		row.AddCell().SetString(report.Currency)
	}
	total := sheet.AddRow()
	total.AddCell().SetString("Total")
	total.AddCell().SetFloat(report.Total)
	total.AddCell().SetString(report.Currency)

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write cost workbook")
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().SetString(c)
	}
}
