// Package scheduler runs the periodic beat that feeds the task queue.
// Last-run times are persisted as anchors so a restarted beat resumes
// its cadence instead of firing everything immediately.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// AnchorStore persists the last-fire time of each schedule entry.
type AnchorStore interface {
	// LastRun returns the stored anchor for the entry, or the zero time
	// when none has been recorded.
	LastRun(ctx context.Context, name string) (time.Time, error)

	// SetLastRun records the anchor for the entry.
	SetLastRun(ctx context.Context, name string, t time.Time) error
}

// MemoryAnchorStore keeps anchors in process memory. Used in tests and
// when running without Redis; a restart then fires all entries once.
type MemoryAnchorStore struct {
	mu      sync.RWMutex
	anchors map[string]time.Time
}

// NewMemoryAnchorStore creates an empty in-memory anchor store.
func NewMemoryAnchorStore() *MemoryAnchorStore {
	return &MemoryAnchorStore{anchors: make(map[string]time.Time)}
}

// Compile-time interface check.
var _ AnchorStore = (*MemoryAnchorStore)(nil)

func (s *MemoryAnchorStore) LastRun(_ context.Context, name string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.anchors[name], nil
}

func (s *MemoryAnchorStore) SetLastRun(_ context.Context, name string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchors[name] = t
	return nil
}
