package session

import (
	"sync"
	"time"
)

// Snapshot is a consistent view of the session state.
type Snapshot struct {
	Active    bool      `json:"active"`
	Previous  bool      `json:"previous"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`

	// Updates counts every write, including writes that did not flip Active.
	Updates uint64 `json:"updates"`
}

// Changed reports whether the write that produced this snapshot flipped the
// session state.
func (s Snapshot) Changed() bool {
	return s.Active != s.Previous
}

// Listener is called with the state after every write. Listeners run while
// the store is locked, they must not block and must not call back into the
// store.
type Listener func(Snapshot)

// Store holds whether a lockdown session is active. It starts inactive and
// lives only as long as the process.
type Store struct {
	mu        sync.Mutex
	snapshot  Snapshot
	listeners []Listener

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		now: time.Now,
	}
}

// Active returns whether a session is currently active.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot.Active
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot
}

// Set records active as the session state on behalf of by. Every call
// notifies the listeners, even when the state is unchanged, so listeners
// see writes in the order they were made.
func (s *Store) Set(active bool, by string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{
		Active:    active,
		Previous:  s.snapshot.Active,
		ChangedBy: by,
		ChangedAt: s.now().UTC(),
		Updates:   s.snapshot.Updates + 1,
	}

	for _, listener := range s.listeners {
		listener(s.snapshot)
	}

	return s.snapshot
}

// Listen registers l to be called after every Set.
func (s *Store) Listen(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}
