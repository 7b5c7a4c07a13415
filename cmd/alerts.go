package main

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/export"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Review, acknowledge and subscribe to deforestation alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		filter, err := alertFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		alerts, err := client.ListAlerts(cmd.Context(), filter)
		if err != nil {
			return eris.Wrap(err, "list alerts")
		}
		return render(cmd.OutOrStdout(), outputFormat, alerts, func(w io.Writer) {
			if len(alerts) == 0 {
				_, _ = fmt.Fprintln(w, "No alerts found.")
				return
			}
			formatAlerts(w, alerts)
		})
	},
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack ALERT_ID...",
	Short: "Acknowledge one or more alerts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		var failed int
		for _, id := range args {
			if err := client.AcknowledgeAlert(cmd.Context(), id); err != nil {
				zap.L().Error("acknowledge alert failed", zap.String("alert_id", id), zap.Error(err))
				failed++
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s\n", id)
		}
		if failed > 0 {
			return eris.Errorf("%d of %d acknowledgements failed", failed, len(args))
		}
		return nil
	},
}

var alertsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export alerts to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		filter, err := alertFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		alerts, err := client.ListAlerts(cmd.Context(), filter)
		if err != nil {
			return eris.Wrap(err, "list alerts")
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer f.Close() //nolint:errcheck
		if err := export.WriteAlertsXLSX(f, alerts); err != nil {
			return err
		}
		zap.L().Info("alerts exported", zap.String("path", out), zap.Int("count", len(alerts)))
		return nil
	},
}

var alertsSubscribeCmd = &cobra.Command{
	Use:   "subscribe EMAIL",
	Short: "Subscribe an email address to alert notifications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := parseEmail(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		sub, err := client.Subscribe(cmd.Context(), email)
		if err != nil {
			return eris.Wrapf(err, "subscribe %s", email)
		}
		return render(cmd.OutOrStdout(), outputFormat, sub, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "Subscribed %s\n", sub.Email)
		})
	},
}

var alertsUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe EMAIL",
	Short: "Stop alert notifications for an email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := parseEmail(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		if err := client.Unsubscribe(cmd.Context(), email); err != nil {
			return eris.Wrapf(err, "unsubscribe %s", email)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed %s\n", email)
		return nil
	},
}

var alertsSubscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "List alert email subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		subs, err := client.ListSubscriptions(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list subscriptions")
		}
		return render(cmd.OutOrStdout(), outputFormat, subs, func(w io.Writer) {
			if len(subs) == 0 {
				_, _ = fmt.Fprintln(w, "No subscriptions.")
				return
			}
			formatSubscriptions(w, subs)
		})
	},
}

// alertFilterFromFlags reads --level, --acknowledged and --limit.
// --acknowledged accepts "true", "false" or "" for both.
func alertFilterFromFlags(cmd *cobra.Command) (forestshield.AlertFilter, error) {
	level, _ := cmd.Flags().GetString("level")
	acked, _ := cmd.Flags().GetString("acknowledged")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := forestshield.AlertFilter{
		Level: forestshield.AlertLevel(strings.ToUpper(level)),
		Limit: limit,
	}
	switch filter.Level {
	case "", forestshield.AlertLow, forestshield.AlertModerate, forestshield.AlertHigh, forestshield.AlertCritical:
	default:
		return filter, eris.Errorf("unknown alert level %q", level)
	}
	switch strings.ToLower(acked) {
	case "":
	case "true", "yes":
		v := true
		filter.Acknowledged = &v
	case "false", "no":
		v := false
		filter.Acknowledged = &v
	default:
		return filter, eris.Errorf("--acknowledged must be true or false, got %q", acked)
	}
	return filter, nil
}

func parseEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", eris.Wrapf(err, "invalid email %q", s)
	}
	return addr.Address, nil
}

func init() {
	for _, c := range []*cobra.Command{alertsListCmd, alertsExportCmd} {
		c.Flags().String("level", "", "filter by level (LOW, MODERATE, HIGH, CRITICAL)")
		c.Flags().String("acknowledged", "", "filter by acknowledgement (true or false)")
	}
	alertsListCmd.Flags().Int("limit", 50, "max alerts to return")
	alertsExportCmd.Flags().Int("limit", 1000, "max alerts to export")
	alertsExportCmd.Flags().String("out", "alerts.xlsx", "output workbook path")

	alertsCmd.AddCommand(alertsListCmd, alertsAckCmd, alertsExportCmd,
		alertsSubscribeCmd, alertsUnsubscribeCmd, alertsSubscriptionsCmd)
	rootCmd.AddCommand(alertsCmd)
}
