package audit

import (
	"context"
	"sync"
	"time"
)

// defaultQueryLimit caps query results when the caller does not set one.
const defaultQueryLimit = 1000

// MemoryStore keeps records in a bounded in-memory buffer. When the buffer
// is full the oldest records are discarded. It is intended for tests and
// ephemeral deployments where durability does not matter.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []*Record
	maxRecords int
}

// NewMemoryStore creates a memory store holding at most maxRecords entries.
// Non-positive maxRecords defaults to 10000.
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = 10000
	}
	return &MemoryStore{
		maxRecords: maxRecords,
	}
}

// Insert stores a copy of the record, evicting the oldest entries when the
// buffer exceeds its capacity.
func (s *MemoryStore) Insert(ctx context.Context, record *Record) error {
	if record == nil {
		return NewStorageError("memory", "insert", errNilRecord)
	}

	clone := *record

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, &clone)
	if len(s.records) > s.maxRecords {
		overflow := len(s.records) - s.maxRecords
		s.records = append(s.records[:0], s.records[overflow:]...)
	}
	return nil
}

// Query returns matching records, newest first. Callers must not modify the
// returned records.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]*Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Record, 0)
	for i := len(s.records) - 1; i >= 0 && len(results) < limit; i-- {
		if q.matches(s.records[i]) {
			results = append(results, s.records[i])
		}
	}
	return results, nil
}

// Prune deletes records older than the given time.
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, record := range s.records {
		if !record.Time.Before(olderThan) {
			kept = append(kept, record)
		}
	}

	removed := len(s.records) - len(kept)
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return removed, nil
}

// Ping always succeeds for the memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close releases nothing for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// matches reports whether a record passes every filter set on the query.
func (q Query) matches(r *Record) bool {
	if q.ClientKey != "" && r.ClientKey != q.ClientKey {
		return false
	}
	if q.Rule != "" && r.Rule != q.Rule {
		return false
	}
	if q.Allowed != nil && r.Allowed != *q.Allowed {
		return false
	}
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !r.Time.Before(q.Until) {
		return false
	}
	return true
}
