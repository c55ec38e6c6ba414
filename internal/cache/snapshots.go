package cache

import (
	"sync"

	"github.com/gamevault/admin-connector/pkg/schema"
)

// SnapshotStore keeps the last known server state for each entity type.
// Exactly one previous snapshot is retained per type and it is replaced
// wholesale on every successful data event, never merged field by field.
type SnapshotStore struct {
	mu          sync.Mutex
	profiles    []schema.ProfileRow
	withdrawals []schema.Withdrawal
}

// NewSnapshotStore creates an empty store. Empty snapshots mean cold start:
// the next data event has no prior state to compare against.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// SwapProfiles stores the new profile snapshot and returns the previous one.
// The returned slice is the caller's to read; the store never hands it out
// again.
func (s *SnapshotStore) SwapProfiles(rows []schema.ProfileRow) []schema.ProfileRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.profiles
	s.profiles = rows
	return old
}

// SwapWithdrawals stores the new withdrawal snapshot and returns the previous
// one.
func (s *SnapshotStore) SwapWithdrawals(ws []schema.Withdrawal) []schema.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.withdrawals
	s.withdrawals = ws
	return old
}

// Profiles returns a copy of the retained profile snapshot.
func (s *SnapshotStore) Profiles() []schema.ProfileRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.ProfileRow, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Withdrawals returns a copy of the retained withdrawal snapshot.
func (s *SnapshotStore) Withdrawals() []schema.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Withdrawal, len(s.withdrawals))
	copy(out, s.withdrawals)
	return out
}

// Reset drops both snapshots back to cold start. Called on teardown.
func (s *SnapshotStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = nil
	s.withdrawals = nil
}
