// Package mapctl drives the region map: marker selection and the
// drag-to-create gesture.
package mapctl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/internal/view"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// PreviewFeatureID is the feature id of the in-progress gesture circle.
const PreviewFeatureID = "preview"

var (
	// ErrNoGesture is returned by PointerUp when no drag is in progress.
	ErrNoGesture = eris.New("mapctl: no drag gesture in progress")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = eris.New("mapctl: controller closed")
)

// RegionCreator creates regions on the backend.
type RegionCreator interface {
	CreateRegion(ctx context.Context, dto forestshield.CreateRegionDto) (*forestshield.Region, error)
}

// Preview is the live state of a drag gesture.
type Preview struct {
	Start        geo.LatLng `json:"start" yaml:"start"`
	Current      geo.LatLng `json:"current" yaml:"current"`
	RadiusMeters float64    `json:"radiusMeters" yaml:"radius_meters"`
	Valid        bool       `json:"valid" yaml:"valid"`
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State       State    `json:"state" yaml:"state"`
	SelectedID  string   `json:"selectedId,omitempty" yaml:"selected_id,omitempty"`
	Interactive bool     `json:"interactive" yaml:"interactive"`
	Submitting  bool     `json:"submitting" yaml:"submitting"`
	Preview     *Preview `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithBanner routes operator messages to b.
func WithBanner(b *notify.Banner) Option {
	return func(c *Controller) { c.banner = b }
}

// WithClock overrides the clock used to name new regions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDefaultCloudCover sets the cloud cover threshold of drawn regions.
func WithDefaultCloudCover(pct int) Option {
	return func(c *Controller) { c.cloudCover = pct }
}

// Controller is the map view. It owns the selection and the gesture state;
// regions are read from and added to the shared store.
type Controller struct {
	store   *region.Store
	creator RegionCreator
	banner  *notify.Banner
	scope   *view.Scope
	log     *zap.Logger

	now        func() time.Time
	cloudCover int

	mu          sync.Mutex
	armed       bool
	dragging    bool
	submitting  bool
	interactive bool
	selectedID  string
	start       geo.LatLng
	current     geo.LatLng
}

// New opens a map controller whose lifetime is bound to parent.
func New(parent context.Context, store *region.Store, creator RegionCreator, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		creator:     creator,
		scope:       view.NewScope(parent),
		log:         zap.L().With(zap.String("component", "mapctl")),
		now:         time.Now,
		cloudCover:  region.DefaultCloudCover,
		interactive: true,
	}
	for _, o := range opts {
		o(c)
	}
	if c.banner == nil {
		c.banner = notify.NewBanner(notify.DefaultTTL)
		c.scope.OnClose(c.banner.Close)
	}

	unsubscribe := store.Subscribe(c.onStoreEvent)
	c.scope.OnClose(unsubscribe)
	return c
}

// Banner returns the banner this controller reports to.
func (c *Controller) Banner() *notify.Banner {
	return c.banner
}

// State returns the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.dragging:
		return Dragging
	case c.armed:
		return CreationArmed
	case c.selectedID != "":
		return RegionSelected
	default:
		return Idle
	}
}

// Snapshot returns the full controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:       c.stateLocked(),
		SelectedID:  c.selectedID,
		Interactive: c.interactive,
		Submitting:  c.submitting,
	}
	if c.dragging {
		p := c.previewLocked()
		s.Preview = &p
	}
	return s
}

// ArmCreation enters creation mode and drops any selection, so a rejected
// gesture lands in Idle. It is a no-op while a gesture or a create call is
// in progress.
func (c *Controller) ArmCreation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging || c.submitting || c.scope.Closed() {
		return
	}
	c.armed = true
	c.selectedID = ""
}

// CancelCreation leaves creation mode, discarding any gesture, and returns to Idle.
func (c *Controller) CancelCreation() {
	c.Deselect()
}

// PointerDown starts a drag gesture at p. It reports false when the gesture
// was not started: creation mode is off, a drag is already active, or a
// create call is still in flight.
func (c *Controller) PointerDown(p geo.LatLng) bool {
	if !p.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || c.dragging || c.submitting {
		return false
	}
	c.dragging = true
	c.interactive = false
	c.start = p
	c.current = p
	return true
}

// PointerMove updates the gesture. Out-of-bounds radii are reported through
// Preview.Valid and never stop the gesture.
func (c *Controller) PointerMove(p geo.LatLng) (Preview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return Preview{}, false
	}
	c.current = p
	return c.previewLocked(), true
}

func (c *Controller) previewLocked() Preview {
	r := geo.Distance(c.start, c.current)
	return Preview{
		Start:        c.start,
		Current:      c.current,
		RadiusMeters: r,
		Valid:        region.GestureRadiusValid(r),
	}
}

// PointerUp ends the gesture at p. An out-of-bounds radius is rejected without
// a backend call. Otherwise the region is created, added to the store and
// selected. Creation mode is left in every outcome and pan/zoom restored.
func (c *Controller) PointerUp(ctx context.Context, p geo.LatLng) (*forestshield.Region, error) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return nil, ErrNoGesture
	}
	c.current = p
	center := c.start
	radius := geo.Distance(c.start, p)
	c.dragging = false
	c.armed = false
	c.interactive = true

	if err := region.ValidateGestureRadius(radius); err != nil {
		c.mu.Unlock()
		c.log.Debug("gesture rejected", zap.Float64("radius_m", radius))
		c.banner.Error(err.Error())
		return nil, err
	}
	if c.scope.Closed() {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.submitting = true
	dto := c.newRegionDto(center, radius)
	c.mu.Unlock()

	callCtx, cancel := c.scope.Bind(ctx)
	defer cancel()
	created, err := c.creator.CreateRegion(callCtx, dto)

	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()

	if err != nil {
		if c.scope.Closed() {
			return nil, ErrClosed
		}
		c.log.Warn("create region failed", zap.String("name", dto.Name), zap.Error(err))
		c.banner.Error(fault.Message(err, "Failed to create region"))
		return nil, eris.Wrap(err, "mapctl: create region")
	}

	c.store.Add(*created)

	c.mu.Lock()
	if !c.scope.Closed() {
		c.selectedID = created.ID
	}
	c.mu.Unlock()

	c.log.Info("region created",
		zap.String("id", created.ID),
		zap.Float64("radius_km", created.RadiusKm),
	)
	c.banner.Success(fmt.Sprintf("Region %q created", created.Name))
	return created, nil
}

func (c *Controller) newRegionDto(center geo.LatLng, radiusMeters float64) forestshield.CreateRegionDto {
	lat := region.RoundCoord(center.Lat)
	lng := region.RoundCoord(center.Lng)
	return forestshield.CreateRegionDto{
		Name:                fmt.Sprintf("Region %s (%.4f, %.4f)", c.now().Format("2006-01-02 15:04:05"), lat, lng),
		Latitude:            lat,
		Longitude:           lng,
		Description:         "Drawn on map",
		RadiusKm:            region.ClampRadiusKm(region.RoundRadiusKm(radiusMeters / 1000)),
		CloudCoverThreshold: c.cloudCover,
	}
}

// ClickRegion selects the region id. Clicks are ignored in creation mode and
// for ids the store does not hold.
func (c *Controller) ClickRegion(id string) bool {
	if _, ok := c.store.Get(id); !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed || c.dragging {
		return false
	}
	c.selectedID = id
	return true
}

// ClickMap handles a click on empty map. In creation mode it clears the
// selection; it never selects.
func (c *Controller) ClickMap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed && !c.dragging {
		c.selectedID = ""
	}
}

// Deselect returns to Idle from any state.
func (c *Controller) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = ""
	c.armed = false
	c.dragging = false
	c.interactive = true
}

// Selected returns the selected region as currently held by the store.
func (c *Controller) Selected() (forestshield.Region, bool) {
	c.mu.Lock()
	id := c.selectedID
	c.mu.Unlock()
	if id == "" {
		return forestshield.Region{}, false
	}
	return c.store.Get(id)
}

// SelectedID returns the id of the selected region, or "".
func (c *Controller) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedID
}

// Layers renders the region layer plus the gesture preview circle, if any.
func (c *Controller) Layers() *geojson.FeatureCollection {
	c.mu.Lock()
	selected := c.selectedID
	var preview *Preview
	if c.dragging {
		p := c.previewLocked()
		preview = &p
	}
	c.mu.Unlock()

	fc := region.Layer(c.store.List(), selected)
	if preview != nil {
		fc.Features = append(fc.Features, previewFeature(*preview))
	}
	return fc
}

func previewFeature(p Preview) *geojson.Feature {
	color := region.ColorActive
	if !p.Valid {
		color = region.ColorCritical
	}
	return &geojson.Feature{
		ID:       PreviewFeatureID,
		Geometry: geo.Circle(p.Start, p.RadiusMeters, geo.DefaultCircleSegments),
		Properties: map[string]any{
			"preview":      true,
			"valid":        p.Valid,
			"radiusMeters": p.RadiusMeters,
			"color":        color,
		},
	}
}

// onStoreEvent drops the selection when the selected region leaves the store.
func (c *Controller) onStoreEvent(ev region.Event) {
	switch ev.Kind {
	case region.EventRemoved:
		c.mu.Lock()
		if c.selectedID == ev.ID {
			c.selectedID = ""
		}
		c.mu.Unlock()
	case region.EventLoaded:
		c.mu.Lock()
		id := c.selectedID
		c.mu.Unlock()
		if id == "" {
			return
		}
		if _, ok := c.store.Get(id); !ok {
			c.mu.Lock()
			if c.selectedID == id {
				c.selectedID = ""
			}
			c.mu.Unlock()
		}
	}
}

// Close tears the view down, cancelling any create call in flight.
func (c *Controller) Close() {
	c.scope.Close()
}
