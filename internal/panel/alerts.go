package panel

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/view"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// DefaultAlertLimit caps the unacknowledged alert list.
const DefaultAlertLimit = 50

// MsgAcknowledgeFailed is shown when the backend refuses an acknowledgement.
const MsgAcknowledgeFailed = "Failed to acknowledge alert"

// AlertService is the backend surface of the alerts panel.
type AlertService interface {
	ListAlerts(ctx context.Context, filter forestshield.AlertFilter) ([]forestshield.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
}

// AlertsPanel lists unacknowledged alerts and is the one panel that writes.
type AlertsPanel struct {
	*Panel[[]forestshield.Alert]
	svc    AlertService
	banner *notify.Banner
}

// NewAlertsPanel creates the alerts panel.
func NewAlertsPanel(svc AlertService, interval time.Duration, banner *notify.Banner) *AlertsPanel {
	unacked := false
	fetch := func(ctx context.Context) ([]forestshield.Alert, error) {
		return svc.ListAlerts(ctx, forestshield.AlertFilter{Acknowledged: &unacked, Limit: DefaultAlertLimit})
	}
	if banner == nil {
		banner = notify.NewBanner(notify.DefaultTTL)
	}
	return &AlertsPanel{
		Panel:  New(NameAlerts, interval, fetch, emptySlice[forestshield.Alert]),
		svc:    svc,
		banner: banner,
	}
}

// Acknowledge removes alert id from the list, then confirms with the
// backend. If the backend call fails the list is re-read so the alert
// reappears, and the error is returned.
func (a *AlertsPanel) Acknowledge(ctx context.Context, id string) error {
	if view.PolicyFor(view.EntityAlert) == view.Optimistic {
		a.update(func(alerts []forestshield.Alert) []forestshield.Alert {
			out := make([]forestshield.Alert, 0, len(alerts))
			for _, al := range alerts {
				if al.ID != id {
					out = append(out, al)
				}
			}
			return out
		})
	}

	if err := a.svc.AcknowledgeAlert(ctx, id); err != nil {
		a.log.Warn("acknowledge failed, reconciling", zap.String("alert_id", id), zap.Error(err))
		a.banner.Error(fault.Message(err, MsgAcknowledgeFailed))
		if rerr := a.Refresh(ctx); rerr != nil {
			a.log.Warn("reconcile refresh failed", zap.Error(rerr))
		}
		return eris.Wrapf(err, "panel: acknowledge alert %s", id)
	}

	if view.PolicyFor(view.EntityAlert) == view.MustConfirm {
		return a.Refresh(ctx)
	}
	return nil
}
