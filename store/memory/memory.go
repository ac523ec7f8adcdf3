// Package memory provides an in-memory implementation of the ledger.Store
// interface. This implementation is primarily intended for testing and
// development.
package memory

import (
	"context"
	"sync"

	"github.com/viajeia/viajeia-go/pkg/ledger"
)

// Store implements ledger.Store using in-memory maps.
type Store struct {
	mu      sync.RWMutex
	records map[string][]ledger.QueryRecord
	stats   map[string]map[string]int

	// FailWith, when set, makes every operation return this error.
	// Used in tests to exercise the ledger's fail-open paths.
	FailWith error
}

// New creates a new in-memory store adapter.
func New() *Store {
	return &Store{
		records: make(map[string][]ledger.QueryRecord),
		stats:   make(map[string]map[string]int),
	}
}

// GetRecords implements ledger.Store.
func (s *Store) GetRecords(ctx context.Context, userID string) ([]ledger.QueryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	// Return a copy to prevent external mutations.
	recs := s.records[userID]
	out := make([]ledger.QueryRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// AppendRecord implements ledger.Store.
func (s *Store) AppendRecord(ctx context.Context, userID string, rec ledger.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	s.records[userID] = append(s.records[userID], rec)
	return nil
}

// SetRecords implements ledger.Store.
func (s *Store) SetRecords(ctx context.Context, userID string, recs []ledger.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	out := make([]ledger.QueryRecord, len(recs))
	copy(out, recs)
	s.records[userID] = out
	return nil
}

// IncrementDailyStat implements ledger.Store.
func (s *Store) IncrementDailyStat(ctx context.Context, userID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	if s.stats[userID] == nil {
		s.stats[userID] = make(map[string]int)
	}
	s.stats[userID][day]++
	return nil
}

// DailyStat returns the stored counter for a user and day (useful for testing).
func (s *Store) DailyStat(userID, day string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[userID][day]
}

// Clear removes all data (useful for testing).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string][]ledger.QueryRecord)
	s.stats = make(map[string]map[string]int)
}
