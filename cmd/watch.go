package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forestshield/internal/config"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/panel"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the operations panels and print a summary until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := newAPIClient("watch")
		if err != nil {
			return err
		}
		names, _ := cmd.Flags().GetStringSlice("panels")
		every, _ := cmd.Flags().GetDuration("every")
		if every <= 0 {
			every = 10 * time.Second
		}

		banner := notify.NewBanner(cfg.Notify.BannerTTL())
		defer banner.Close()
		set := panel.NewSet(ctx, client, panelIntervals(cfg.Panels), banner)
		defer set.Close()

		if len(names) == 0 {
			names = set.Names()
		}
		for _, n := range names {
			if _, ok := set.Get(n); !ok {
				return &panel.UnknownPanelError{Name: n}
			}
		}

		zap.L().Info("watching panels", zap.Strings("panels", names), zap.Duration("every", every))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return set.Run(gctx, names...)
		})
		g.Go(func() error {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					views := make([]panel.Snapshot[any], 0, len(names))
					for _, n := range names {
						p, _ := set.Get(n)
						views = append(views, p.View())
					}
					formatPanels(cmd.OutOrStdout(), views)
				}
			}
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return err
		}
		zap.L().Info("watch stopped")
		return nil
	},
}

// panelIntervals converts the configured seconds into panel intervals.
func panelIntervals(c config.PanelsConfig) panel.Intervals {
	secs := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return panel.Intervals{
		Alerts:   secs(c.AlertsSecs),
		Jobs:     secs(c.JobsSecs),
		Logs:     secs(c.LogsSecs),
		Activity: secs(c.ActivitySecs),
		Cost:     secs(c.CostSecs),
		Health:   secs(c.HealthSecs),
		Stats:    secs(c.StatsSecs),
	}
}

// formatPanels writes one summary line per panel.
func formatPanels(out io.Writer, views []panel.Snapshot[any]) {
	w := newTabWriter(out)
	_, _ = fmt.Fprintln(w, "PANEL\tSTATE\tUPDATED\tSUMMARY")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-------\t-------")
	for _, v := range views {
		state := string(v.State)
		if !v.Live {
			state += " (paused)"
		}
		updated := "-"
		if !v.UpdatedAt.IsZero() {
			updated = v.UpdatedAt.Local().Format("15:04:05")
		}
		summary := summarize(v.Data)
		if v.Error != "" {
			summary = "error: " + v.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, state, updated, summary)
	}
	_ = w.Flush()
}

// summarize renders a one-line digest of a panel's data.
func summarize(data any) string {
	switch d := data.(type) {
	case []forestshield.Alert:
		critical := 0
		for _, a := range d {
			if a.Level == forestshield.AlertCritical {
				critical++
			}
		}
		return fmt.Sprintf("%d unacknowledged, %d critical", len(d), critical)
	case []forestshield.ActiveJob:
		running := 0
		for _, j := range d {
			if j.Status == forestshield.JobRunning {
				running++
			}
		}
		return fmt.Sprintf("%d jobs, %d running", len(d), running)
	case []forestshield.LogEntry:
		if len(d) == 0 {
			return "no lines"
		}
		last := d[len(d)-1]
		return fmt.Sprintf("%d lines, last: [%s] %s", len(d), strings.ToUpper(last.Level), truncate(last.Message, 50))
	case []forestshield.ActivityItem:
		if len(d) == 0 {
			return "no activity"
		}
		return fmt.Sprintf("%d items, latest: %s", len(d), truncate(d[0].Message, 50))
	case *forestshield.CostReport:
		if d == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f %s over %s", d.Total, d.Currency, d.Period)
	case *forestshield.SystemHealth:
		if d == nil {
			return "-"
		}
		return fmt.Sprintf("%s, %d components", d.Status, len(d.Components))
	case *forestshield.DashboardStats:
		if d == nil {
			return "-"
		}
		return fmt.Sprintf("%d regions, %d unacknowledged alerts, %d active jobs", d.TotalRegions, d.UnacknowledgedAlerts, d.ActiveJobs)
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%v", d)
	}
}

// runPanels keeps the panel set polling for the lifetime of ctx.
func runPanels(ctx context.Context, set *panel.Set) {
	if err := set.Run(ctx); err != nil {
		zap.L().Error("panels stopped", zap.Error(err))
	}
}

func init() {
	watchCmd.Flags().StringSlice("panels", nil, "panels to poll (default all): alerts, jobs, logs, activity, cost, health, stats")
	watchCmd.Flags().Duration("every", 10*time.Second, "summary print interval")
	rootCmd.AddCommand(watchCmd)
}
