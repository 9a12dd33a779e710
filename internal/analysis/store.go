package analysis

import (
	"sync"

	"github.com/aristath/marketscan/internal/domain"
)

// Store holds the most recent analysis result for the HTTP surface.
// Writes come from the scheduler or a manual trigger; reads come from
// request handlers.
type Store struct {
	mu     sync.RWMutex
	latest *domain.AnalysisResult
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{}
}

// Put replaces the latest result.
func (s *Store) Put(result *domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = result
}

// Latest returns the most recent result, or nil before the first run.
func (s *Store) Latest() *domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
