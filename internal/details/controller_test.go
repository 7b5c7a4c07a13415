package details

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/internal/notify"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

type mockService struct {
	mu          sync.Mutex
	updates     []forestshield.UpdateRegionDto
	deletes     []string
	analyses    []forestshield.AnalysisRequest
	updateErr   error
	deleteErr   error
	analysisErr error
	block       chan struct{}
}

func (m *mockService) UpdateRegion(_ context.Context, id string, dto forestshield.UpdateRegionDto) (*forestshield.Region, error) {
	m.mu.Lock()
	m.updates = append(m.updates, dto)
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	r := forestshield.Region{ID: id, Name: "Xingu", Latitude: -6, Longitude: -53, RadiusKm: 10, CloudCoverThreshold: 20}
	if dto.Name != nil {
		r.Name = *dto.Name
	}
	if dto.RadiusKm != nil {
		r.RadiusKm = *dto.RadiusKm
	}
	if dto.CloudCoverThreshold != nil {
		r.CloudCoverThreshold = *dto.CloudCoverThreshold
	}
	return &r, nil
}

func (m *mockService) DeleteRegion(_ context.Context, id string) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, id)
	m.mu.Unlock()
	return m.deleteErr
}

func (m *mockService) TriggerAnalysis(_ context.Context, req forestshield.AnalysisRequest) (*forestshield.AnalysisResponse, error) {
	m.mu.Lock()
	m.analyses = append(m.analyses, req)
	m.mu.Unlock()
	if m.analysisErr != nil {
		return nil, m.analysisErr
	}
	return &forestshield.AnalysisResponse{Message: "Analysis started", JobID: "job-1"}, nil
}

type fakeSelector struct{ deselected int }

func (f *fakeSelector) Deselect() { f.deselected++ }

type staticLister []forestshield.Region

func (l staticLister) ListRegions(context.Context, forestshield.RegionFilter) ([]forestshield.Region, error) {
	return l, nil
}

func setup(t *testing.T, svc *mockService) (*Controller, *region.Store, *fakeSelector) {
	t.Helper()
	store := region.NewStore(staticLister{
		{ID: "r1", Name: "Xingu", Latitude: -6, Longitude: -53, RadiusKm: 10, CloudCoverThreshold: 20, Status: forestshield.StatusActive},
	})
	require.NoError(t, store.Load(context.Background()))
	sel := &fakeSelector{}
	c := New(context.Background(), store, svc, WithSelector(sel), WithBanner(notify.NewBanner(time.Minute)))
	t.Cleanup(c.Close)
	_, err := c.Edit("r1")
	require.NoError(t, err)
	return c, store, sel
}

func ptr[T any](v T) *T { return &v }

func bannerText(t *testing.T, c *Controller) string {
	t.Helper()
	msg, ok := c.Banner().Current()
	require.True(t, ok, "banner is empty")
	return msg.Text
}

func TestEditWorkingCopyIsDistinct(t *testing.T) {
	c, store, _ := setup(t, &mockService{})

	w, ok := c.Working()
	require.True(t, ok)
	w.Name = "changed locally"

	again, _ := c.Working()
	assert.Equal(t, "Xingu", again.Name)
	stored, _ := store.Get("r1")
	assert.Equal(t, "Xingu", stored.Name)

	_, err := c.Edit("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRadiusOutOfRangeRejectedBeforeCall(t *testing.T) {
	tests := []struct {
		km      float64
		wantMsg string
	}{
		{60, "Radius cannot exceed 50 kilometers"},
		{50.5, "Radius cannot exceed 50 kilometers"},
		{0.5, "Radius must be at least 1 kilometer"},
		{-1, "Radius must be at least 1 kilometer"},
	}
	for _, tt := range tests {
		svc := &mockService{}
		c, store, _ := setup(t, svc)
		before, _ := store.Get("r1")

		_, err := c.Update(context.Background(), Patch{RadiusKm: ptr(tt.km)})
		require.Error(t, err)
		assert.Equal(t, tt.wantMsg, err.Error())
		assert.True(t, fault.IsClientSide(err))
		assert.Equal(t, tt.wantMsg, bannerText(t, c))

		assert.Empty(t, svc.updates, "no network call for km=%v", tt.km)
		after, _ := store.Get("r1")
		assert.Equal(t, before, after)
		w, _ := c.Working()
		assert.InDelta(t, 10.0, w.RadiusKm, 1e-9)
	}
}

func TestUpdateSuccessReplacesWorkingCopyAndStore(t *testing.T) {
	svc := &mockService{}
	c, store, _ := setup(t, svc)

	got, err := c.Update(context.Background(), Patch{Name: ptr("Xingu North"), RadiusKm: ptr(25.0)})
	require.NoError(t, err)
	assert.Equal(t, "Xingu North", got.Name)

	require.Len(t, svc.updates, 1)
	assert.Nil(t, svc.updates[0].Description)
	assert.Nil(t, svc.updates[0].CloudCoverThreshold)

	w, _ := c.Working()
	assert.InDelta(t, 25.0, w.RadiusKm, 1e-9)
	stored, _ := store.Get("r1")
	assert.Equal(t, "Xingu North", stored.Name)
	assert.Equal(t, MsgRegionUpdated, bannerText(t, c))
}

func TestUpdateBackendFailureMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "radius rejected by backend",
			err:     &forestshield.APIError{StatusCode: 400, Message: "radiusKm must not be greater than 50"},
			wantMsg: MsgInvalidRadius,
		},
		{
			name:    "other rejection",
			err:     &forestshield.APIError{StatusCode: 404, Message: "Region not found"},
			wantMsg: MsgUpdateFailed,
		},
		{
			name:    "server error",
			err:     &forestshield.APIError{StatusCode: 500, Body: "boom"},
			wantMsg: MsgUpdateFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{updateErr: tt.err}
			c, store, _ := setup(t, svc)

			_, err := c.Update(context.Background(), Patch{Name: ptr("renamed")})
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, bannerText(t, c))
			assert.Len(t, svc.updates, 1, "single attempt")

			stored, _ := store.Get("r1")
			assert.Equal(t, "Xingu", stored.Name)
			w, _ := c.Working()
			assert.Equal(t, "Xingu", w.Name)
			assert.False(t, c.Busy())
		})
	}
}

func TestUpdateBusyGate(t *testing.T) {
	svc := &mockService{block: make(chan struct{})}
	c, _, _ := setup(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := c.Update(context.Background(), Patch{Name: ptr("first")})
		done <- err
	}()

	require.Eventually(t, c.Busy, time.Second, 5*time.Millisecond)
	_, err := c.Update(context.Background(), Patch{Name: ptr("second")})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.Delete(context.Background(), true)
	assert.ErrorIs(t, err, ErrBusy)

	close(svc.block)
	require.NoError(t, <-done)
	assert.Len(t, svc.updates, 1)
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	svc := &mockService{}
	c, store, sel := setup(t, svc)

	deleted, err := c.Delete(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, svc.deletes)
	assert.Equal(t, 0, sel.deselected)
	assert.Equal(t, 1, store.Len())
	_, ok := c.Working()
	assert.True(t, ok)
}

func TestDeleteConfirmed(t *testing.T) {
	svc := &mockService{}
	c, store, sel := setup(t, svc)

	deleted, err := c.Delete(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"r1"}, svc.deletes)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, sel.deselected)
	_, ok := c.Working()
	assert.False(t, ok)
}

func TestDeleteFailureKeepsRegion(t *testing.T) {
	svc := &mockService{deleteErr: errors.New("dial tcp 127.0.0.1:3000: connect: connection refused")}
	c, store, sel := setup(t, svc)

	deleted, err := c.Delete(context.Background(), true)
	require.Error(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, sel.deselected)
	assert.Equal(t, "Unable to reach the Forest Shield backend", bannerText(t, c))
}

func TestTriggerAnalysis(t *testing.T) {
	svc := &mockService{}
	c, store, _ := setup(t, svc)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	before, _ := store.Get("r1")
	resp, err := c.TriggerAnalysis(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)

	require.Len(t, svc.analyses, 1)
	sp := svc.analyses[0].SearchParams
	assert.InDelta(t, -6.0, sp.Latitude, 1e-9)
	assert.InDelta(t, -53.0, sp.Longitude, 1e-9)
	assert.Equal(t, "2024-01-01", sp.StartDate)
	assert.Equal(t, "2024-02-01", sp.EndDate)
	assert.Equal(t, 20, sp.CloudCover)

	after, _ := store.Get("r1")
	assert.Equal(t, before, after, "analysis does not touch region state")
}

func TestTriggerAnalysisDateOrder(t *testing.T) {
	svc := &mockService{}
	c, _, _ := setup(t, svc)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.TriggerAnalysis(context.Background(), day, day)
	require.Error(t, err)
	assert.Equal(t, MsgDateOrder, err.Error())

	_, err = c.TriggerAnalysis(context.Background(), day.AddDate(0, 0, 1), day)
	require.Error(t, err)
	assert.Empty(t, svc.analyses)
}

func TestActionsRequireEditing(t *testing.T) {
	svc := &mockService{}
	c, _, _ := setup(t, svc)
	c.Discard()

	_, err := c.Update(context.Background(), Patch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotEditing)
	_, err = c.Delete(context.Background(), true)
	assert.ErrorIs(t, err, ErrNotEditing)
}
