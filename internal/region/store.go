// Package region holds the console's local copy of monitored regions and the
// rules every view applies to them.
package region

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Lister fetches regions from the backend.
type Lister interface {
	ListRegions(ctx context.Context, filter forestshield.RegionFilter) ([]forestshield.Region, error)
}

// EventKind identifies a store mutation.
type EventKind string

const (
	EventLoaded   EventKind = "loaded"
	EventAdded    EventKind = "added"
	EventReplaced EventKind = "replaced"
	EventRemoved  EventKind = "removed"
)

// Event describes one applied mutation. ID is empty for EventLoaded.
type Event struct {
	Kind EventKind
	ID   string
}

// Store is the authoritative local copy of all regions. Views read it freely;
// Load, Add, Replace and Remove are the only write path, and Add/Remove are
// only called after the backend has confirmed the change.
type Store struct {
	lister Lister

	mu    sync.RWMutex
	byID  map[string]forestshield.Region
	order []string

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// NewStore creates an empty store backed by lister.
func NewStore(lister Lister) *Store {
	return &Store{
		lister: lister,
		byID:   make(map[string]forestshield.Region),
		subs:   make(map[int]func(Event)),
	}
}

// Load fetches every region and replaces the local set. On error the previous
// set is left untouched; retrying is the caller's decision.
func (s *Store) Load(ctx context.Context) error {
	regions, err := s.lister.ListRegions(ctx, forestshield.RegionFilter{})
	if err != nil {
		return eris.Wrap(err, "region: load")
	}

	byID := make(map[string]forestshield.Region, len(regions))
	order := make([]string, 0, len(regions))
	for _, r := range regions {
		if r.ID == "" {
			zap.L().Warn("region: skipping region without id", zap.String("name", r.Name))
			continue
		}
		if _, dup := byID[r.ID]; !dup {
			order = append(order, r.ID)
		}
		byID[r.ID] = r
	}

	s.mu.Lock()
	s.byID = byID
	s.order = order
	s.mu.Unlock()

	zap.L().Debug("region: store loaded", zap.Int("count", len(order)))
	s.publish(Event{Kind: EventLoaded})
	return nil
}

// Add inserts a region the backend has created. Adding an id that is already
// present replaces it, so repeated delivery is harmless.
func (s *Store) Add(r forestshield.Region) {
	if r.ID == "" {
		return
	}
	s.mu.Lock()
	_, exists := s.byID[r.ID]
	s.byID[r.ID] = r
	if !exists {
		s.order = append(s.order, r.ID)
	}
	s.mu.Unlock()

	if exists {
		s.publish(Event{Kind: EventReplaced, ID: r.ID})
		return
	}
	s.publish(Event{Kind: EventAdded, ID: r.ID})
}

// Replace swaps in an updated region. It reports false, changing nothing,
// when the id is unknown.
func (s *Store) Replace(r forestshield.Region) bool {
	s.mu.Lock()
	if _, ok := s.byID[r.ID]; !ok {
		s.mu.Unlock()
		return false
	}
	s.byID[r.ID] = r
	s.mu.Unlock()

	s.publish(Event{Kind: EventReplaced, ID: r.ID})
	return true
}

// Remove deletes a region the backend has deleted. It reports false when the
// id is unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventRemoved, ID: id})
	return true
}

// Get returns a copy of the region with id.
func (s *Store) Get(id string) (forestshield.Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	return r, ok
}

// List returns a copy of all regions in load/insertion order.
func (s *Store) List() []forestshield.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]forestshield.Region, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of regions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe registers fn to receive every applied mutation. fn runs on the
// mutating goroutine after the store lock is released. The returned func
// unsubscribes.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
