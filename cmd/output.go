package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var outputFormat string

// render writes v in the selected format. table is used for the table format.
func render(out io.Writer, format string, v any, table func(io.Writer)) error {
	switch strings.ToLower(format) {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	case outputTable, "":
		table(out)
		return nil
	default:
		return eris.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// bannerError prefixes err with the operator message a controller showed for it.
func bannerError(current func() (notify.Message, bool), err error) error {
	msg, ok := current()
	if !ok || msg.Level != notify.LevelError || msg.Text == err.Error() {
		return err
	}
	return eris.Wrap(err, msg.Text)
}

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtPct(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *p)
}

// formatRegions writes a tabular list of regions to out.
func formatRegions(out io.Writer, regions []forestshield.Region) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tRADIUS_KM\tCLOUD\tDEFOR\tSEVERITY\tLAST_ANALYSIS")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t---------\t-----\t-----\t--------\t-------------")
	for _, r := range regions {
		app := region.Classify(r)
		last := "-"
		if r.LastAnalysis != nil {
			last = fmtTime(*r.LastAnalysis)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d%%\t%s\t%s\t%s\n",
			r.ID,
			r.Name,
			app.Label,
			r.RadiusKm,
			r.CloudCoverThreshold,
			fmtPct(r.LastDeforestationPercentage),
			app.Severity,
			last,
		)
	}
	_ = w.Flush()
}

// formatRegion writes one region as key/value pairs.
func formatRegion(out io.Writer, r forestshield.Region) {
	app := region.Classify(r)
	w := newTabWriter(out)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", r.Name)
	if r.Description != "" {
		_, _ = fmt.Fprintf(w, "Description:\t%s\n", r.Description)
	}
	_, _ = fmt.Fprintf(w, "Center:\t%.4f, %.4f\n", r.Latitude, r.Longitude)
	_, _ = fmt.Fprintf(w, "Radius:\t%.1f km\n", r.RadiusKm)
	_, _ = fmt.Fprintf(w, "Cloud cover:\t%d%%\n", r.CloudCoverThreshold)
	_, _ = fmt.Fprintf(w, "Status:\t%s (%s)\n", app.Label, app.Color)
	_, _ = fmt.Fprintf(w, "Deforestation:\t%s\n", fmtPct(r.LastDeforestationPercentage))
	if r.LastAnalysis != nil {
		_, _ = fmt.Fprintf(w, "Last analysis:\t%s\n", fmtTime(*r.LastAnalysis))
	}
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", fmtTime(r.CreatedAt))
	_ = w.Flush()
}

// formatAlerts writes a tabular list of alerts to out.
func formatAlerts(out io.Writer, alerts []forestshield.Alert) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "ID\tLEVEL\tREGION\tDEFOR\tACK\tTIME\tMESSAGE")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t-----\t---\t----\t-------")
	for _, a := range alerts {
		name := a.RegionName
		if name == "" {
			name = a.RegionID
		}
		ack := "no"
		if a.Acknowledged {
			ack = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f%%\t%s\t%s\t%s\n",
			a.ID, a.Level, name, a.DeforestationPercentage, ack, fmtTime(a.Timestamp), truncate(a.Message, 60))
	}
	_ = w.Flush()
}

func formatSubscriptions(out io.Writer, subs []forestshield.AlertSubscription) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "EMAIL\tSTATUS\tSUBSCRIBED")
	for _, s := range subs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Email, s.Status, fmtTime(s.SubscribedAt))
	}
	_ = w.Flush()
}

// formatJobs writes a tabular list of analysis jobs to out.
func formatJobs(out io.Writer, jobs []forestshield.ActiveJob) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tREGION\tPROGRESS\tSTARTED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t--------\t-------")
	for _, j := range jobs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			j.ID, j.Type, j.Status, j.RegionID, j.Progress, fmtTime(j.StartTime))
	}
	_ = w.Flush()
}

func formatHeatmap(out io.Writer, h *forestshield.HeatmapResponse) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintf(w, "Period:\t%s\n", h.Period)
	_, _ = fmt.Fprintf(w, "Bounds:\tN %.4f  S %.4f  E %.4f  W %.4f\n", h.Bounds.North, h.Bounds.South, h.Bounds.East, h.Bounds.West)
	_, _ = fmt.Fprintf(w, "Points:\t%d\n", len(h.Data))
	_ = w.Flush()

	w = newTabWriter(out)
	_, _ = fmt.Fprintln(w, "LAT\tLNG\tINTENSITY")
	for _, p := range h.Data {
		_, _ = fmt.Fprintf(w, "%.4f\t%.4f\t%.3f\n", p.Latitude, p.Longitude, p.Intensity)
	}
	_ = w.Flush()
}

func formatStats(out io.Writer, s *forestshield.DashboardStats) {
	p := message.NewPrinter(language.English)
	w := newTabWriter(out)
	_, _ = fmt.Fprintf(w, "Regions:\t%s (%s active)\n", p.Sprintf("%d", s.TotalRegions), p.Sprintf("%d", s.ActiveRegions))
	_, _ = fmt.Fprintf(w, "Alerts:\t%s (%s unacknowledged)\n", p.Sprintf("%d", s.TotalAlerts), p.Sprintf("%d", s.UnacknowledgedAlerts))
	_, _ = fmt.Fprintf(w, "Avg deforestation:\t%.2f%%\n", s.AverageDeforestation)
	_, _ = fmt.Fprintf(w, "Images processed:\t%s\n", p.Sprintf("%d", s.ImagesProcessed))
	_, _ = fmt.Fprintf(w, "Active jobs:\t%d\n", s.ActiveJobs)
	_ = w.Flush()
}

func formatHealth(out io.Writer, h *forestshield.SystemHealth) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintf(w, "Overall:\t%s\t%s\n", strings.ToUpper(h.Status), fmtTime(h.Timestamp))
	for _, c := range h.Components {
		latency := ""
		if c.LatencyMs > 0 {
			latency = fmt.Sprintf("%dms", c.LatencyMs)
		}
		_, _ = fmt.Fprintf(w, "  %s:\t%s\t%s\t%s\n", c.Name, c.Status, latency, c.Message)
	}
	_ = w.Flush()
}

func formatCost(out io.Writer, r *forestshield.CostReport) {
	p := message.NewPrinter(language.English)
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "SERVICE\tAMOUNT")
	_, _ = fmt.Fprintln(w, "-------\t------")
	for _, c := range r.Breakdown {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", c.Service, p.Sprintf("%.2f %s", c.Amount, r.Currency))
	}
	_, _ = fmt.Fprintf(w, "Total (%s)\t%s\n", r.Period, p.Sprintf("%.2f %s", r.Total, r.Currency))
	_ = w.Flush()
}

func formatLogs(out io.Writer, logs []forestshield.LogEntry) {
	w := newTabWriter(out)
	for _, l := range logs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			l.Timestamp.Local().Format("15:04:05"), strings.ToUpper(l.Level), l.Service, l.Message)
	}
	_ = w.Flush()
}

func formatExecutions(out io.Writer, execs []forestshield.StepFunctionExecution) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "----\t------\t-------\t--------")
	for _, e := range execs {
		dur := "-"
		if e.StopDate != nil {
			dur = e.StopDate.Sub(e.StartDate).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Status, fmtTime(e.StartDate), dur)
	}
	_ = w.Flush()
}

func formatMetrics(out io.Writer, metrics []forestshield.ServiceMetric) {
	p := message.NewPrinter(language.English)
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "SERVICE\tSTATUS\tINVOCATIONS\tERRORS\tAVG_MS")
	_, _ = fmt.Fprintln(w, "-------\t------\t-----------\t------\t------")
	for _, m := range metrics {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\n", m.Name, m.Status, p.Sprintf("%d", m.Invocations), m.Errors, m.AvgDuration)
	}
	_ = w.Flush()
}

func formatVisualizations(out io.Writer, vis []forestshield.RegionVisualization) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tMEAN_NDVI\tCLUSTERS\tCREATED\tIMAGE")
	for _, v := range vis {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.3f\t%d\t%s\t%s\n", v.ID, v.Type, v.MeanNDVI, len(v.Clusters), fmtTime(v.CreatedAt), v.ImageURL)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
