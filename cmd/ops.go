package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/export"
	"github.com/sells-group/forestshield/internal/panel"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		s, err := client.Stats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "stats")
		}
		return render(cmd.OutOrStdout(), outputFormat, s, func(w io.Writer) {
			formatStats(w, s)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show backend component health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		h, err := client.Health(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "health")
		}
		return render(cmd.OutOrStdout(), outputFormat, h, func(w io.Writer) {
			formatHealth(w, h)
		})
	},
}

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Show cloud spend by service",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		report, err := client.Cost(cmd.Context(), days)
		if err != nil {
			return eris.Wrap(err, "cost")
		}

		if xlsxPath != "" {
			f, err := os.Create(xlsxPath)
			if err != nil {
				return eris.Wrapf(err, "create %s", xlsxPath)
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteCostXLSX(f, report); err != nil {
				return err
			}
			zap.L().Info("cost report exported", zap.String("path", xlsxPath), zap.Int("services", len(report.Breakdown)))
			return nil
		}

		return render(cmd.OutOrStdout(), outputFormat, report, func(w io.Writer) {
			formatCost(w, report)
		})
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent backend log lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		q := forestshield.LogQuery{}
		q.Service, _ = cmd.Flags().GetString("service")
		q.Level, _ = cmd.Flags().GetString("level")
		q.Limit, _ = cmd.Flags().GetInt("limit")
		q.Level = strings.ToLower(q.Level)

		logs, err := client.Logs(cmd.Context(), q)
		if err != nil {
			return eris.Wrap(err, "logs")
		}
		return render(cmd.OutOrStdout(), outputFormat, logs, func(w io.Writer) {
			if len(logs) == 0 {
				_, _ = fmt.Fprintln(w, "No log entries.")
				return
			}
			formatLogs(w, logs)
		})
	},
}

var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "List analysis workflow executions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		execs, err := client.Executions(cmd.Context(), limit)
		if err != nil {
			return eris.Wrap(err, "executions")
		}
		return render(cmd.OutOrStdout(), outputFormat, execs, func(w io.Writer) {
			formatExecutions(w, execs)
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show per-service invocation metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		metrics, err := client.ServiceMetrics(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "service metrics")
		}
		return render(cmd.OutOrStdout(), outputFormat, metrics, func(w io.Writer) {
			formatMetrics(w, metrics)
		})
	},
}

var visualizationsCmd = &cobra.Command{
	Use:   "visualizations REGION_ID",
	Short: "List analysis visualizations for a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		vis, err := client.RegionVisualizations(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrapf(err, "visualizations for %s", args[0])
		}
		return render(cmd.OutOrStdout(), outputFormat, vis, func(w io.Writer) {
			if len(vis) == 0 {
				_, _ = fmt.Fprintln(w, "No visualizations yet.")
				return
			}
			formatVisualizations(w, vis)
		})
	},
}

func init() {
	costCmd.Flags().Int("days", panel.DefaultCostDays, "reporting window in days")
	costCmd.Flags().String("xlsx", "", "write the report to an Excel workbook instead of stdout")

	logsCmd.Flags().String("service", "", "filter by service")
	logsCmd.Flags().String("level", "", "filter by level (debug, info, warn, error)")
	logsCmd.Flags().Int("limit", panel.DefaultLogLimit, "max log lines")

	executionsCmd.Flags().Int("limit", 20, "max executions")

	rootCmd.AddCommand(statsCmd, healthCmd, costCmd, logsCmd, executionsCmd, metricsCmd, visualizationsCmd)
}
