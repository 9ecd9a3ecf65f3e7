package inventory

import (
	"maps"
	"sync"
)

// DefaultSeed is the stock a fresh inventory process starts with.
func DefaultSeed() map[string]int {
	return map[string]int{
		"laptop-001":     100,
		"mouse-001":      500,
		"keyboard-001":   200,
		"monitor-001":    50,
		"headphones-001": 150,
	}
}

// Store holds available quantities per product id. Products it has never
// seen read as zero. State lives in this process only and is lost on
// restart.
type Store struct {
	mu     sync.RWMutex
	levels map[string]int
}

func NewStore(seed map[string]int) *Store {
	levels := make(map[string]int, len(seed))
	maps.Copy(levels, seed)
	return &Store{levels: levels}
}

func (s *Store) Available(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[productID]
}

// Take decrements productID by quantity if enough is available. It returns
// the level seen before the attempt and whether the quantity was taken.
func (s *Store) Take(productID string, quantity int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	available := s.levels[productID]
	if available < quantity {
		return available, false
	}
	s.levels[productID] = available - quantity
	return available, true
}

// Restore gives back a quantity previously taken.
func (s *Store) Restore(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[productID] += quantity
}

// Snapshot returns a copy of every known level.
func (s *Store) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.levels)
}
