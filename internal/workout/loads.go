package workout

import "sync"

// LoadSequencer orders the template loads of each draft owner, typically a session. Concurrent loads of one
// owner may finish in any order; only the one that began last may be applied.
type LoadSequencer struct {
	mu     sync.Mutex
	last   uint64
	latest map[string]uint64
}

func NewLoadSequencer() *LoadSequencer {
	return &LoadSequencer{latest: make(map[string]uint64)}
}

// Begin starts a load for owner and returns its ticket. Loads of an empty owner are not sequenced.
func (s *LoadSequencer) Begin(owner string) uint64 {
	if owner == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	s.latest[owner] = s.last
	return s.last
}

// Finish ends the load of ticket and reports whether it is still the newest load of owner. Every Begin must be
// followed by exactly one Finish.
func (s *LoadSequencer) Finish(owner string, ticket uint64) bool {
	if owner == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[owner] != ticket {
		return false
	}
	delete(s.latest, owner)
	return true
}
