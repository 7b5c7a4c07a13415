// Package details implements the region details form: editing a working
// copy, deleting with confirmation, and triggering analyses.
package details

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/internal/view"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// DateLayout is the date format the analysis trigger expects.
const DateLayout = "2006-01-02"

// Operator-facing messages.
const (
	MsgInvalidRadius   = "Invalid radius: must be between 1 and 50 kilometers"
	MsgUpdateFailed    = "Failed to update region"
	MsgDeleteFailed    = "Failed to delete region"
	MsgAnalysisFailed  = "Failed to trigger analysis"
	MsgDateOrder       = "Start date must be before end date"
	MsgRegionUpdated   = "Region updated"
	MsgRegionDeleted   = "Region deleted"
	MsgAnalysisStarted = "Analysis started"
)

var (
	// ErrBusy is returned when an action is requested while another is in flight.
	ErrBusy = eris.New("details: another action is in progress")
	// ErrNotEditing is returned when no region is loaded into the form.
	ErrNotEditing = eris.New("details: no region is being edited")
	// ErrNotFound is returned by Edit for ids the store does not hold.
	ErrNotFound = eris.New("details: region not found")
)

// RegionService is the backend surface the form needs.
type RegionService interface {
	UpdateRegion(ctx context.Context, id string, dto forestshield.UpdateRegionDto) (*forestshield.Region, error)
	DeleteRegion(ctx context.Context, id string) error
	TriggerAnalysis(ctx context.Context, req forestshield.AnalysisRequest) (*forestshield.AnalysisResponse, error)
}

// Selector owns the map selection.
type Selector interface {
	Deselect()
}

// Patch is an edit to the mutable fields of a region. Nil fields are left as is.
type Patch struct {
	Name                *string  `json:"name,omitempty"`
	Description         *string  `json:"description,omitempty"`
	RadiusKm            *float64 `json:"radiusKm,omitempty"`
	CloudCoverThreshold *int     `json:"cloudCoverThreshold,omitempty"`
}

func (p Patch) dto() forestshield.UpdateRegionDto {
	return forestshield.UpdateRegionDto{
		Name:                p.Name,
		Description:         p.Description,
		RadiusKm:            p.RadiusKm,
		CloudCoverThreshold: p.CloudCoverThreshold,
	}
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.RadiusKm == nil && p.CloudCoverThreshold == nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithBanner routes operator messages to b.
func WithBanner(b *notify.Banner) Option {
	return func(c *Controller) { c.banner = b }
}

// WithSelector lets the form clear the map selection after a delete.
func WithSelector(s Selector) Option {
	return func(c *Controller) { c.selector = s }
}

// Controller holds the working copy of the region being edited. Edits are
// only visible to other views once the backend has accepted them.
type Controller struct {
	store    *region.Store
	svc      RegionService
	selector Selector
	banner   *notify.Banner
	scope    *view.Scope
	log      *zap.Logger

	mu      sync.Mutex
	editing *forestshield.Region
	busy    bool
}

// New opens a details controller whose lifetime is bound to parent.
func New(parent context.Context, store *region.Store, svc RegionService, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		svc:   svc,
		scope: view.NewScope(parent),
		log:   zap.L().With(zap.String("component", "details")),
	}
	for _, o := range opts {
		o(c)
	}
	if c.banner == nil {
		c.banner = notify.NewBanner(notify.DefaultTTL)
		c.scope.OnClose(c.banner.Close)
	}
	return c
}

// Banner returns the banner this controller reports to.
func (c *Controller) Banner() *notify.Banner {
	return c.banner
}

// Edit loads region id into the form.
func (c *Controller) Edit(id string) (forestshield.Region, error) {
	r, ok := c.store.Get(id)
	if !ok {
		return forestshield.Region{}, eris.Wrapf(ErrNotFound, "id %s", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return forestshield.Region{}, ErrBusy
	}
	c.editing = clone(r)
	return *clone(r), nil
}

// Working returns a copy of the working region.
func (c *Controller) Working() (forestshield.Region, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return forestshield.Region{}, false
	}
	return *clone(*c.editing), true
}

// Busy reports whether an action is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Discard closes the form without saving.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
}

// begin claims the busy gate and returns the working region.
func (c *Controller) begin() (forestshield.Region, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return forestshield.Region{}, ErrNotEditing
	}
	if c.busy {
		return forestshield.Region{}, ErrBusy
	}
	c.busy = true
	return *clone(*c.editing), nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Update validates p and sends it as a partial update. On success the
// working copy and the store entry are both replaced; on any failure they
// keep their prior values.
func (c *Controller) Update(ctx context.Context, p Patch) (forestshield.Region, error) {
	dto := p.dto()
	if err := region.ValidateUpdate(dto); err != nil {
		c.banner.Error(err.Error())
		return forestshield.Region{}, err
	}

	working, err := c.begin()
	if err != nil {
		return forestshield.Region{}, err
	}
	defer c.end()

	if p.Empty() {
		return working, nil
	}

	callCtx, cancel := c.scope.Bind(ctx)
	defer cancel()
	updated, err := c.svc.UpdateRegion(callCtx, working.ID, dto)
	if err != nil {
		msg := fault.Message(err, MsgUpdateFailed)
		if fault.Mentions(err, "radiusKm") {
			msg = MsgInvalidRadius
		}
		c.log.Warn("update region failed", zap.String("id", working.ID), zap.Error(err))
		c.banner.Error(msg)
		return forestshield.Region{}, eris.Wrapf(err, "details: update region %s", working.ID)
	}

	c.mu.Lock()
	if c.editing != nil && c.editing.ID == updated.ID {
		c.editing = clone(*updated)
	}
	c.mu.Unlock()

	c.store.Replace(*updated)
	c.banner.Success(MsgRegionUpdated)
	return *clone(*updated), nil
}

// Delete removes the working region. Without confirmation nothing is sent
// and the selection is kept; deleted reports whether the region is gone.
func (c *Controller) Delete(ctx context.Context, confirmed bool) (deleted bool, err error) {
	if view.PolicyFor(view.EntityRegion) == view.MustConfirm && !confirmed {
		return false, nil
	}

	working, err := c.begin()
	if err != nil {
		return false, err
	}
	defer c.end()

	callCtx, cancel := c.scope.Bind(ctx)
	defer cancel()
	if err := c.svc.DeleteRegion(callCtx, working.ID); err != nil {
		c.log.Warn("delete region failed", zap.String("id", working.ID), zap.Error(err))
		c.banner.Error(fault.Message(err, MsgDeleteFailed))
		return false, eris.Wrapf(err, "details: delete region %s", working.ID)
	}

	c.mu.Lock()
	if c.editing != nil && c.editing.ID == working.ID {
		c.editing = nil
	}
	c.mu.Unlock()

	c.store.Remove(working.ID)
	if c.selector != nil {
		c.selector.Deselect()
	}
	c.banner.Success(MsgRegionDeleted)
	return true, nil
}

// TriggerAnalysis starts an analysis of the working region over [start, end].
// The region itself is not changed; results arrive with the next reload.
func (c *Controller) TriggerAnalysis(ctx context.Context, start, end time.Time) (*forestshield.AnalysisResponse, error) {
	if !start.Before(end) {
		err := fault.Validation("startDate", MsgDateOrder)
		c.banner.Error(err.Error())
		return nil, err
	}

	working, err := c.begin()
	if err != nil {
		return nil, err
	}
	defer c.end()

	stored, ok := c.store.Get(working.ID)
	if !ok {
		stored = working
	}

	req := forestshield.AnalysisRequest{SearchParams: forestshield.SearchParams{
		Latitude:   stored.Latitude,
		Longitude:  stored.Longitude,
		StartDate:  start.Format(DateLayout),
		EndDate:    end.Format(DateLayout),
		CloudCover: stored.CloudCoverThreshold,
	}}

	callCtx, cancel := c.scope.Bind(ctx)
	defer cancel()
	resp, err := c.svc.TriggerAnalysis(callCtx, req)
	if err != nil {
		c.log.Warn("trigger analysis failed", zap.String("id", working.ID), zap.Error(err))
		c.banner.Error(fault.Message(err, MsgAnalysisFailed))
		return nil, eris.Wrapf(err, "details: trigger analysis for %s", working.ID)
	}

	msg := resp.Message
	if msg == "" {
		msg = MsgAnalysisStarted
	}
	c.log.Info("analysis triggered",
		zap.String("region_id", working.ID),
		zap.String("job_id", resp.JobID),
		zap.String("execution_arn", resp.ExecutionArn),
	)
	c.banner.Success(msg)
	return resp, nil
}

// Close tears the form down, cancelling any call in flight.
func (c *Controller) Close() {
	c.scope.Close()
}

func clone(r forestshield.Region) *forestshield.Region {
	out := r
	if r.LastDeforestationPercentage != nil {
		v := *r.LastDeforestationPercentage
		out.LastDeforestationPercentage = &v
	}
	if r.LastAnalysis != nil {
		t := *r.LastAnalysis
		out.LastAnalysis = &t
	}
	return &out
}
