package mapctl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

type mockCreator struct {
	mu    sync.Mutex
	calls []forestshield.CreateRegionDto
	fn    func(ctx context.Context, dto forestshield.CreateRegionDto) (*forestshield.Region, error)
}

func (m *mockCreator) CreateRegion(ctx context.Context, dto forestshield.CreateRegionDto) (*forestshield.Region, error) {
	m.mu.Lock()
	m.calls = append(m.calls, dto)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, dto)
	}
	return &forestshield.Region{
		ID:        "r1",
		Name:      dto.Name,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		RadiusKm:  dto.RadiusKm,
		Status:    forestshield.StatusActive,
	}, nil
}

func (m *mockCreator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type emptyLister struct {
	regions []forestshield.Region
}

func (l emptyLister) ListRegions(context.Context, forestshield.RegionFilter) ([]forestshield.Region, error) {
	return l.regions, nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newController(t *testing.T, creator *mockCreator, regions ...forestshield.Region) (*Controller, *region.Store) {
	t.Helper()
	store := region.NewStore(emptyLister{regions: regions})
	require.NoError(t, store.Load(context.Background()))
	c := New(context.Background(), store, creator,
		WithClock(func() time.Time { return fixedNow }),
		WithBanner(notify.NewBanner(time.Minute)),
	)
	t.Cleanup(c.Close)
	return c, store
}

func drag(t *testing.T, c *Controller, from geo.LatLng, meters float64) (*forestshield.Region, error) {
	t.Helper()
	c.ArmCreation()
	require.True(t, c.PointerDown(from))
	to := geo.Destination(from, 90, meters)
	_, ok := c.PointerMove(to)
	require.True(t, ok)
	return c.PointerUp(context.Background(), to)
}

func TestDragCreatesAndSelectsRegion(t *testing.T) {
	creator := &mockCreator{}
	c, store := newController(t, creator)

	created, err := drag(t, c, geo.LatLng{Lat: -6.0, Lng: -53.0}, 10000)
	require.NoError(t, err)
	require.NotNil(t, created)

	require.Equal(t, 1, creator.count())
	dto := creator.calls[0]
	assert.InDelta(t, -6.0, dto.Latitude, 1e-9)
	assert.InDelta(t, -53.0, dto.Longitude, 1e-9)
	assert.InDelta(t, 10.0, dto.RadiusKm, 1e-9)
	assert.Equal(t, region.DefaultCloudCover, dto.CloudCoverThreshold)
	assert.Equal(t, "Region 2024-03-01 12:30:00 (-6.0000, -53.0000)", dto.Name)

	r, ok := store.Get("r1")
	require.True(t, ok)
	assert.Equal(t, forestshield.StatusActive, r.Status)

	assert.Equal(t, RegionSelected, c.State())
	assert.Equal(t, "r1", c.SelectedID())
	assert.True(t, c.Snapshot().Interactive)

	fc := c.Layers()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "r1", fc.Features[0].ID)
	assert.Equal(t, true, fc.Features[0].Properties["selected"])

	msg, ok := c.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, msg.Level)
}

func TestDragBelowMinimumIsRejected(t *testing.T) {
	creator := &mockCreator{}
	c, store := newController(t, creator)

	created, err := drag(t, c, geo.LatLng{Lat: 0, Lng: 0}, 50)
	require.Error(t, err)
	assert.Nil(t, created)
	assert.Equal(t, region.MsgGestureTooSmall, err.Error())

	assert.Equal(t, 0, creator.count())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, Idle, c.State())
	assert.True(t, c.Snapshot().Interactive)

	msg, ok := c.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, msg.Level)
	assert.Equal(t, region.MsgGestureTooSmall, msg.Text)
}

func TestDragRadiusBounds(t *testing.T) {
	tests := []struct {
		meters  float64
		creates bool
		wantMsg string
	}{
		{10, false, region.MsgGestureTooSmall},
		{99, false, region.MsgGestureTooSmall},
		{101, true, ""},
		{2500, true, ""},
		{49999, true, ""},
		{50001, false, region.MsgGestureTooLarge},
		{90000, false, region.MsgGestureTooLarge},
	}
	for _, tt := range tests {
		creator := &mockCreator{}
		c, _ := newController(t, creator)

		_, err := drag(t, c, geo.LatLng{Lat: -3.4653, Lng: -62.2159}, tt.meters)
		if tt.creates {
			assert.NoError(t, err, "meters=%v", tt.meters)
			assert.Equal(t, 1, creator.count(), "meters=%v", tt.meters)
			dto := creator.calls[0]
			assert.GreaterOrEqual(t, dto.RadiusKm, region.MinRadiusKm)
			assert.LessOrEqual(t, dto.RadiusKm, region.MaxRadiusKm)
			continue
		}
		require.Error(t, err, "meters=%v", tt.meters)
		assert.Equal(t, tt.wantMsg, err.Error())
		assert.Equal(t, 0, creator.count(), "meters=%v", tt.meters)
	}
}

func TestPointerMovePreviewValidity(t *testing.T) {
	c, _ := newController(t, &mockCreator{})
	start := geo.LatLng{Lat: -6, Lng: -53}
	c.ArmCreation()
	require.True(t, c.PointerDown(start))
	assert.False(t, c.Snapshot().Interactive, "pan/zoom disabled while dragging")

	p, ok := c.PointerMove(geo.Destination(start, 0, 60000))
	require.True(t, ok)
	assert.False(t, p.Valid)

	p, ok = c.PointerMove(geo.Destination(start, 0, 5000))
	require.True(t, ok)
	assert.True(t, p.Valid)
	assert.InDelta(t, 5000, p.RadiusMeters, 1)

	fc := c.Layers()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, PreviewFeatureID, fc.Features[0].ID)
	assert.Equal(t, Dragging, c.State())
}

func TestSecondPointerDownIgnored(t *testing.T) {
	c, _ := newController(t, &mockCreator{})
	start := geo.LatLng{Lat: 1, Lng: 1}

	assert.False(t, c.PointerDown(start), "not armed")

	c.ArmCreation()
	require.True(t, c.PointerDown(start))
	assert.False(t, c.PointerDown(geo.LatLng{Lat: 2, Lng: 2}))

	p, _ := c.PointerMove(start)
	assert.Equal(t, start, p.Start)
}

func TestPointerUpWithoutGesture(t *testing.T) {
	c, _ := newController(t, &mockCreator{})
	_, err := c.PointerUp(context.Background(), geo.LatLng{})
	assert.ErrorIs(t, err, ErrNoGesture)
}

func TestCreateFailureLeavesCreationMode(t *testing.T) {
	creator := &mockCreator{fn: func(context.Context, forestshield.CreateRegionDto) (*forestshield.Region, error) {
		return nil, &forestshield.APIError{StatusCode: 400, Message: "radiusKm must not be greater than 50"}
	}}
	c, store := newController(t, creator)

	_, err := drag(t, c, geo.LatLng{Lat: -6, Lng: -53}, 10000)
	require.Error(t, err)

	assert.Equal(t, Idle, c.State(), "creation mode is not re-armed")
	assert.True(t, c.Snapshot().Interactive)
	assert.Equal(t, 0, store.Len())

	msg, ok := c.Banner().Current()
	require.True(t, ok)
	assert.Equal(t, "Failed to create region", msg.Text)
}

func TestSelection(t *testing.T) {
	regions := []forestshield.Region{
		{ID: "r1", Name: "Xingu", Latitude: -6, Longitude: -53, RadiusKm: 10},
		{ID: "r2", Name: "Tapajos", Latitude: -4, Longitude: -55, RadiusKm: 5},
	}
	c, store := newController(t, &mockCreator{}, regions...)

	assert.False(t, c.ClickRegion("missing"))
	assert.True(t, c.ClickRegion("r1"))
	assert.Equal(t, RegionSelected, c.State())

	sel, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "Xingu", sel.Name)

	c.ClickMap()
	assert.Equal(t, "r1", c.SelectedID(), "plain map click outside creation mode keeps selection")

	c.ArmCreation()
	assert.Equal(t, CreationArmed, c.State())
	assert.Equal(t, "", c.SelectedID(), "arming drops the selection")
	assert.False(t, c.ClickRegion("r2"), "creation mode never selects")
	assert.Equal(t, "", c.SelectedID())

	c.ClickMap()
	assert.Equal(t, CreationArmed, c.State())

	c.CancelCreation()
	assert.Equal(t, Idle, c.State())

	require.True(t, c.ClickRegion("r2"))
	store.Remove("r2")
	assert.Equal(t, Idle, c.State(), "removing the selected region clears the selection")
}

func TestRejectedGestureFromSelectionReturnsToIdle(t *testing.T) {
	creator := &mockCreator{}
	c, _ := newController(t, creator, forestshield.Region{ID: "r0", Name: "Xingu", Latitude: -6, Longitude: -53, RadiusKm: 10})

	require.True(t, c.ClickRegion("r0"))
	require.Equal(t, RegionSelected, c.State())

	_, err := drag(t, c, geo.LatLng{Lat: -6, Lng: -53}, 50)
	require.Error(t, err)
	assert.Equal(t, region.MsgGestureTooSmall, err.Error())
	assert.Equal(t, 0, creator.count())

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "", c.SelectedID())
	_, ok := c.Selected()
	assert.False(t, ok)
}

func TestDeselectFromAnyState(t *testing.T) {
	c, _ := newController(t, &mockCreator{})
	c.ArmCreation()
	require.True(t, c.PointerDown(geo.LatLng{Lat: 1, Lng: 1}))

	c.Deselect()
	assert.Equal(t, Idle, c.State())
	assert.True(t, c.Snapshot().Interactive)
}

func TestCloseCancelsInFlightCreate(t *testing.T) {
	started := make(chan struct{})
	creator := &mockCreator{fn: func(ctx context.Context, _ forestshield.CreateRegionDto) (*forestshield.Region, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c, store := newController(t, creator)

	c.ArmCreation()
	start := geo.LatLng{Lat: -6, Lng: -53}
	require.True(t, c.PointerDown(start))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.PointerUp(context.Background(), geo.Destination(start, 0, 5000))
		errCh <- err
	}()

	<-started
	assert.True(t, c.Snapshot().Submitting)
	c.Close()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("create call was not cancelled")
	}
	assert.Equal(t, 0, store.Len())
}

func TestStateText(t *testing.T) {
	b, err := RegionSelected.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "region_selected", string(b))

	var s State
	require.NoError(t, s.UnmarshalText([]byte("creation_armed")))
	assert.Equal(t, CreationArmed, s)
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}
