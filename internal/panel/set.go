package panel

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/view"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Panel names.
const (
	NameAlerts   = "alerts"
	NameJobs     = "jobs"
	NameLogs     = "logs"
	NameActivity = "activity"
	NameCost     = "cost"
	NameHealth   = "health"
	NameStats    = "stats"
)

// Read sizes for the list panels.
const (
	DefaultLogLimit      = 100
	DefaultActivityLimit = 20
	DefaultCostDays      = 30
)

// Intervals are the polling periods of each panel.
type Intervals struct {
	Alerts   time.Duration
	Jobs     time.Duration
	Logs     time.Duration
	Activity time.Duration
	Cost     time.Duration
	Health   time.Duration
	Stats    time.Duration
}

// DefaultIntervals returns the stock polling periods.
func DefaultIntervals() Intervals {
	return Intervals{
		Alerts:   30 * time.Second,
		Jobs:     5 * time.Second,
		Logs:     2 * time.Second,
		Activity: 15 * time.Second,
		Cost:     60 * time.Second,
		Health:   30 * time.Second,
		Stats:    30 * time.Second,
	}
}

// Source is the read surface the panels poll.
type Source interface {
	AlertService
	ListJobs(ctx context.Context, filter forestshield.JobFilter) ([]forestshield.ActiveJob, error)
	Logs(ctx context.Context, q forestshield.LogQuery) ([]forestshield.LogEntry, error)
	Activity(ctx context.Context, limit int) ([]forestshield.ActivityItem, error)
	Cost(ctx context.Context, days int) (*forestshield.CostReport, error)
	Health(ctx context.Context) (*forestshield.SystemHealth, error)
	Stats(ctx context.Context) (*forestshield.DashboardStats, error)
}

// Set is every panel of the console, sharing one lifetime.
type Set struct {
	scope  *view.Scope
	alerts *AlertsPanel
	panels map[string]Viewer
}

// NewSet builds all panels over src.
func NewSet(parent context.Context, src Source, iv Intervals, banner *notify.Banner) *Set {
	alerts := NewAlertsPanel(src, iv.Alerts, banner)
	panels := []Viewer{
		alerts,
		New(NameJobs, iv.Jobs, func(ctx context.Context) ([]forestshield.ActiveJob, error) {
			return src.ListJobs(ctx, forestshield.JobFilter{})
		}, emptySlice[forestshield.ActiveJob]),
		New(NameLogs, iv.Logs, func(ctx context.Context) ([]forestshield.LogEntry, error) {
			return src.Logs(ctx, forestshield.LogQuery{Limit: DefaultLogLimit})
		}, emptySlice[forestshield.LogEntry]),
		New(NameActivity, iv.Activity, func(ctx context.Context) ([]forestshield.ActivityItem, error) {
			return src.Activity(ctx, DefaultActivityLimit)
		}, emptySlice[forestshield.ActivityItem]),
		New(NameCost, iv.Cost, func(ctx context.Context) (*forestshield.CostReport, error) {
			return src.Cost(ctx, DefaultCostDays)
		}, func(r *forestshield.CostReport) bool { return r == nil || len(r.Breakdown) == 0 }),
		New(NameHealth, iv.Health, src.Health, nilPtr[forestshield.SystemHealth]),
		New(NameStats, iv.Stats, src.Stats, nilPtr[forestshield.DashboardStats]),
	}

	s := &Set{
		scope:  view.NewScope(parent),
		alerts: alerts,
		panels: make(map[string]Viewer, len(panels)),
	}
	for _, p := range panels {
		s.panels[p.Name()] = p
	}
	return s
}

// Get returns the panel called name.
func (s *Set) Get(name string) (Viewer, bool) {
	p, ok := s.panels[name]
	return p, ok
}

// Alerts returns the alerts panel.
func (s *Set) Alerts() *AlertsPanel {
	return s.alerts
}

// Names returns every panel name, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.panels))
	for n := range s.panels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Context is the lifetime panel calls are bound to.
func (s *Set) Context() context.Context {
	return s.scope.Context()
}

// Run polls the named panels (all when names is empty) until ctx is
// cancelled or the set is closed.
func (s *Set) Run(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = s.Names()
	}
	run := make([]Viewer, 0, len(names))
	for _, n := range names {
		p, ok := s.panels[n]
		if !ok {
			return &UnknownPanelError{Name: n}
		}
		run = append(run, p)
	}

	runCtx, cancel := s.scope.Bind(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for _, p := range run {
		g.Go(func() error {
			p.Run(gctx)
			return nil
		})
	}
	return g.Wait()
}

// Close stops every panel.
func (s *Set) Close() {
	s.scope.Close()
}

// UnknownPanelError is returned for a panel name that does not exist.
type UnknownPanelError struct {
	Name string
}

func (e *UnknownPanelError) Error() string {
	return "panel: unknown panel " + e.Name
}
