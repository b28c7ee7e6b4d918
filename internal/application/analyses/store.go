package analyses

import (
	"sync"
	"time"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// Store holds the last successfully listed record set. It is rebuilt from
// scratch on every refresh and never patched locally.
type Store struct {
	mu          sync.RWMutex
	records     []domain.Analysis
	loading     bool
	refreshedAt time.Time
}

// NewStore returns an empty store that is still loading.
func NewStore() *Store {
	return &Store{loading: true}
}

// ReplaceAll swaps the record set atomically, keeping list order. A repeated
// id keeps its first occurrence; the number of dropped rows is returned.
func (s *Store) ReplaceAll(records []domain.Analysis, at time.Time) int {
	next := make([]domain.Analysis, 0, len(records))
	seen := make(map[domain.ID]struct{}, len(records))
	dropped := 0
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			dropped++
			continue
		}
		seen[r.ID] = struct{}{}
		next = append(next, r)
	}

	s.mu.Lock()
	s.records = next
	s.refreshedAt = at
	s.mu.Unlock()
	return dropped
}

// FinishLoading clears the loading flag. Called after the first list call
// completes, whether it succeeded or not.
func (s *Store) FinishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Records returns a copy of the current record set.
func (s *Store) Records() []domain.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Analysis, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Find(id domain.ID) (domain.Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Analysis{}, false
}

func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
