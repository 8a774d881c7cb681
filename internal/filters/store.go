package filters

import (
	"sync"
)

// Store owns the filter state for one browsing session. Consumers get the
// store injected and subscribe to changes instead of reading ambient state.
type Store struct {
	mu          sync.Mutex
	notify      sync.Mutex
	reducer     *Reducer
	state       State
	revision    uint64
	nextSub     int
	subscribers map[int]func(State)
}

func NewStore(reducer *Reducer) *Store {
	return &Store{
		reducer:     reducer,
		state:       reducer.InitialState(),
		subscribers: make(map[int]func(State)),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Revision counts state changes since the store was created.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Dispatch applies the action and reports whether the state changed.
// Subscribers are called only on change, outside the state lock but in
// revision order: a concurrent Dispatch cannot notify an older state after
// a newer one. Subscribers must not call Dispatch themselves.
func (s *Store) Dispatch(a Action) (State, bool) {
	s.mu.Lock()
	next := s.reducer.Reduce(s.state, a)
	if next.Equal(s.state) {
		s.mu.Unlock()
		return next.clone(), false
	}
	s.state = next
	s.revision++
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	// taken before releasing mu so notifications keep revision order
	s.notify.Lock()
	s.mu.Unlock()
	defer s.notify.Unlock()

	for _, fn := range subs {
		fn(next.clone())
	}
	return next.clone(), true
}

// Subscribe registers fn for state changes and returns the function that
// removes it again.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
