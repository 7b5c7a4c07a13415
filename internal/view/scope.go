// Package view holds the lifetime and mutation rules shared by the console's
// controllers and panels.
package view

import (
	"context"
	"sync"
)

// Scope is the lifetime of one view (map, details form, panel). Every backend
// call a view issues is bound to its scope, so closing the view cancels calls
// still in flight instead of letting stale responses land in torn-down state.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	cleanup []func()
}

// NewScope opens a scope that also ends when parent is done.
func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Bind derives a call context from ctx that is additionally cancelled when the
// scope closes. The returned cancel func must be called when the call returns.
func (s *Scope) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// Context returns the scope's own context.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Done is closed when the scope ends.
func (s *Scope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Closed reports whether the scope has ended.
func (s *Scope) Closed() bool {
	return s.ctx.Err() != nil
}

// OnClose registers fn to run once when the scope closes. If the scope is
// already closed fn runs immediately.
func (s *Scope) OnClose(fn func()) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanup = append(s.cleanup, fn)
	s.mu.Unlock()
}

// Close ends the scope, cancelling bound calls and running cleanups in
// reverse registration order. It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	s.cancel()
	fns := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
