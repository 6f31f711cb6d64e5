// Package state holds the set of targets currently believed to be down.
package state

import (
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DownSet is safe for concurrent use. Its zero value is not usable; call New.
type DownSet struct {
	mu   sync.RWMutex
	down map[domain.Target]struct{}
}

func New() *DownSet {
	return &DownSet{down: make(map[domain.Target]struct{})}
}

// MarkDown adds targets to the set and returns the ones that were not already
// in it, in first-seen order.
func (s *DownSet) MarkDown(targets ...domain.Target) []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	var added []domain.Target
	for _, t := range targets {
		if _, ok := s.down[t]; ok {
			continue
		}
		s.down[t] = struct{}{}
		added = append(added, t)
	}
	return added
}

// MarkUp removes targets from the set and returns the ones that were in it.
func (s *DownSet) MarkUp(targets ...domain.Target) []domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.Target
	for _, t := range targets {
		if _, ok := s.down[t]; !ok {
			continue
		}
		delete(s.down, t)
		removed = append(removed, t)
	}
	return removed
}

func (s *DownSet) IsDown(t domain.Target) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.down[t]
	return ok
}

// Snapshot returns a copy of the set in no particular order.
func (s *DownSet) Snapshot() []domain.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Target, 0, len(s.down))
	for t := range s.down {
		out = append(out, t)
	}
	return out
}

// Up filters targets down to those not in the set, keeping order and duplicates.
func (s *DownSet) Up(targets []domain.Target) []domain.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Target, 0, len(targets))
	for _, t := range targets {
		if _, ok := s.down[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func (s *DownSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.down)
}
