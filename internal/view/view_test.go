package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_BindCancelledOnClose(t *testing.T) {
	s := NewScope(context.Background())
	ctx, done := s.Bind(context.Background())
	defer done()

	require.NoError(t, ctx.Err())
	s.Close()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context not cancelled after scope close")
	}
	assert.True(t, s.Closed())
}

func TestScope_BindRespectsCallerContext(t *testing.T) {
	s := NewScope(context.Background())
	defer s.Close()

	parent, cancel := context.WithCancel(context.Background())
	ctx, done := s.Bind(parent)
	defer done()

	cancel()
	<-ctx.Done()
	assert.False(t, s.Closed(), "caller cancellation must not close the scope")
}

func TestScope_ParentEndsScope(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := NewScope(parent)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scope not done after parent cancel")
	}
}

func TestScope_OnCloseOrder(t *testing.T) {
	s := NewScope(context.Background())
	var order []int
	s.OnClose(func() { order = append(order, 1) })
	s.OnClose(func() { order = append(order, 2) })

	s.Close()
	s.Close()
	assert.Equal(t, []int{2, 1}, order)

	ran := false
	s.OnClose(func() { ran = true })
	assert.True(t, ran, "cleanup registered after close runs immediately")
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, MustConfirm, PolicyFor(EntityRegion))
	assert.Equal(t, Optimistic, PolicyFor(EntityAlert))
	assert.Equal(t, MustConfirm, PolicyFor(Entity("job")))
	assert.Equal(t, "optimistic", Optimistic.String())
}
