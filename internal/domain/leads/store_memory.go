package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is used when no database is configured. Leads are lost on
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: map[string]Record{}}
}

func (s *MemoryStore) Create(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[r.ID] = r
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.leads[id]
	if !ok {
		return Record{}, ErrLeadNotFound
	}
	return r, nil
}

func (s *MemoryStore) MarkBooked(ctx context.Context, id, ref string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	r.BookedAt = &at
	r.BookingRef = ref
	s.leads[id] = r
	return nil
}

func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.leads {
		if r.CreatedAt.Before(cutoff) {
			delete(s.leads, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.leads))
	for _, r := range s.leads {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
