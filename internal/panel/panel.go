// Package panel implements the console's polling panels. Each panel polls
// one backend endpoint on its own interval and keeps the last good snapshot.
package panel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is what a panel currently renders.
type State string

const (
	StateLoading   State = "loading"
	StateError     State = "error"
	StateEmpty     State = "empty"
	StatePopulated State = "populated"
)

// Fetcher reads one snapshot from the backend.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Snapshot is the renderable state of a panel. Data is the last successful
// read and is kept when a later read fails.
type Snapshot[T any] struct {
	Name      string    `json:"name" yaml:"name"`
	State     State     `json:"state" yaml:"state"`
	Live      bool      `json:"live" yaml:"live"`
	Data      T         `json:"data" yaml:"data"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// Viewer is the type-erased surface shared by every panel.
type Viewer interface {
	Name() string
	Interval() time.Duration
	Live() bool
	SetLive(live bool)
	Refresh(ctx context.Context) error
	Run(ctx context.Context)
	View() Snapshot[any]
}

// Panel polls fetch every interval while live.
type Panel[T any] struct {
	name     string
	interval time.Duration
	fetch    Fetcher[T]
	empty    func(T) bool
	now      func() time.Time
	log      *zap.Logger
	wake     chan struct{}

	// refreshMu serializes fetch and apply so an older read never lands
	// after a newer one.
	refreshMu sync.Mutex

	mu        sync.Mutex
	live      bool
	data      T
	hasData   bool
	lastErr   error
	updatedAt time.Time
}

// New creates a live panel. empty reports whether a snapshot has nothing to show.
func New[T any](name string, interval time.Duration, fetch Fetcher[T], empty func(T) bool) *Panel[T] {
	if empty == nil {
		empty = func(T) bool { return false }
	}
	return &Panel[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		empty:    empty,
		now:      time.Now,
		log:      zap.L().With(zap.String("component", "panel."+name)),
		wake:     make(chan struct{}, 1),
		live:     true,
	}
}

func (p *Panel[T]) Name() string            { return p.name }
func (p *Panel[T]) Interval() time.Duration { return p.interval }

// Live reports whether the panel is polling.
func (p *Panel[T]) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// SetLive pauses or resumes polling. Resuming triggers an immediate read.
func (p *Panel[T]) SetLive(live bool) {
	p.mu.Lock()
	was := p.live
	p.live = live
	p.mu.Unlock()

	if live && !was {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

// Refresh reads one snapshot now. On failure the previous data is kept.
// Concurrent calls run one at a time. A read cut short by ctx leaves the
// panel state untouched.
func (p *Panel[T]) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	data, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		p.lastErr = err
		return err
	}
	p.data = data
	p.hasData = true
	p.lastErr = nil
	p.updatedAt = p.now()
	return nil
}

// Run polls until ctx is cancelled. It blocks.
func (p *Panel[T]) Run(ctx context.Context) {
	interval := p.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	p.log.Debug("starting panel", zap.Duration("interval", interval))
	if p.Live() {
		p.poll(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Debug("panel stopped")
			return
		case <-ticker.C:
			if p.Live() {
				p.poll(ctx)
			}
		case <-p.wake:
			p.poll(ctx)
		}
	}
}

func (p *Panel[T]) poll(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Warn("panel: refresh failed, retrying next tick", zap.Error(err))
	}
}

// Snapshot returns the panel's current state.
func (p *Panel[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot[T]{
		Name:      p.name,
		Live:      p.live,
		Data:      p.data,
		UpdatedAt: p.updatedAt,
	}
	switch {
	case p.lastErr != nil:
		s.State = StateError
		s.Error = p.lastErr.Error()
	case !p.hasData:
		s.State = StateLoading
	case p.empty(p.data):
		s.State = StateEmpty
	default:
		s.State = StatePopulated
	}
	return s
}

// View returns the snapshot with its data type erased.
func (p *Panel[T]) View() Snapshot[any] {
	s := p.Snapshot()
	return Snapshot[any]{
		Name:      s.Name,
		State:     s.State,
		Live:      s.Live,
		Data:      s.Data,
		Error:     s.Error,
		UpdatedAt: s.UpdatedAt,
	}
}

// update applies fn to the held data, if any.
func (p *Panel[T]) update(fn func(T) T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasData {
		return
	}
	p.data = fn(p.data)
}

func emptySlice[E any](s []E) bool { return len(s) == 0 }

func nilPtr[E any](v *E) bool { return v == nil }
