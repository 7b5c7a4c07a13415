package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/forestshield/internal/details"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List analysis jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		jobs, err := client.ListJobs(cmd.Context(), forestshield.JobFilter{
			Status: forestshield.JobStatus(strings.ToUpper(status)),
		})
		if err != nil {
			return eris.Wrap(err, "list jobs")
		}
		return render(cmd.OutOrStdout(), outputFormat, jobs, func(w io.Writer) {
			if len(jobs) == 0 {
				_, _ = fmt.Fprintln(w, "No jobs.")
				return
			}
			formatJobs(w, jobs)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze REGION_ID",
	Short: "Trigger a satellite analysis for a region",
	Long:  "Starts the backend analysis workflow over --start..--end using the region's center and cloud cover threshold. Dates are YYYY-MM-DD; --end defaults to today and --start to 30 days before it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		start, end, err := analysisWindow(startStr, endStr, time.Now())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store := region.NewStore(client)
		if err := store.Load(ctx); err != nil {
			return err
		}
		form := details.New(ctx, store, client)
		defer form.Close()

		if _, err := form.Edit(args[0]); err != nil {
			return err
		}
		resp, err := form.TriggerAnalysis(ctx, start, end)
		if err != nil {
			return bannerError(form.Banner().Current, err)
		}
		return render(cmd.OutOrStdout(), outputFormat, resp, func(w io.Writer) {
			msg := resp.Message
			if msg == "" {
				msg = details.MsgAnalysisStarted
			}
			_, _ = fmt.Fprintln(w, msg)
			if resp.JobID != "" {
				_, _ = fmt.Fprintf(w, "Job: %s\n", resp.JobID)
			}
			if resp.ExecutionArn != "" {
				_, _ = fmt.Fprintf(w, "Execution: %s\n", resp.ExecutionArn)
			}
		})
	},
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show deforestation intensity within a bounding box",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		q := forestshield.HeatmapQuery{}
		q.North, _ = cmd.Flags().GetFloat64("north")
		q.South, _ = cmd.Flags().GetFloat64("south")
		q.East, _ = cmd.Flags().GetFloat64("east")
		q.West, _ = cmd.Flags().GetFloat64("west")
		q.Days, _ = cmd.Flags().GetInt("days")
		if q.North <= q.South {
			return eris.Errorf("--north (%.4f) must be greater than --south (%.4f)", q.North, q.South)
		}

		h, err := client.Heatmap(cmd.Context(), q)
		if err != nil {
			return eris.Wrap(err, "heatmap")
		}
		return render(cmd.OutOrStdout(), outputFormat, h, func(w io.Writer) {
			formatHeatmap(w, h)
		})
	},
}

// analysisWindow parses the analysis date flags. Empty values default to the
// 30 days ending today.
func analysisWindow(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if endStr != "" {
		t, err := time.Parse(details.DateLayout, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "parse --end %q", endStr)
		}
		end = t
	}
	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		t, err := time.Parse(details.DateLayout, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "parse --start %q", startStr)
		}
		start = t
	}
	return start, end, nil
}

func init() {
	jobsCmd.Flags().String("status", "", "filter by status (PENDING, RUNNING, COMPLETED, FAILED)")

	analyzeCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	analyzeCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")

	heatmapCmd.Flags().Float64("north", 5.3, "northern latitude")
	heatmapCmd.Flags().Float64("south", -33.7, "southern latitude")
	heatmapCmd.Flags().Float64("east", -34.8, "eastern longitude")
	heatmapCmd.Flags().Float64("west", -73.9, "western longitude")
	heatmapCmd.Flags().Int("days", 30, "look-back window in days")

	rootCmd.AddCommand(jobsCmd, analyzeCmd, heatmapCmd)
}
