package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/mannyAndem/crypto-clone/internal/domain"
)

// RateStore is a shared cell holding the current USD-per-SOL rate. It is
// written only by the price refresher job; readers that arrive before the
// first successful fetch get domain.DefaultUSDRate.
type RateStore interface {
	Rate(ctx context.Context) float64
	Update(ctx context.Context, rate float64) error
}

// Snapshot is an in-process RateStore. Used in tests and when running
// without Redis; it is not shared across processes.
type Snapshot struct {
	mu        sync.RWMutex
	rate      float64
	updatedAt time.Time
	set       bool
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Compile-time interface check.
var _ RateStore = (*Snapshot)(nil)

// Rate returns the last fetched rate, or the fixed default when no value
// has ever been set.
func (s *Snapshot) Rate(_ context.Context) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return domain.DefaultUSDRate
	}
	return s.rate
}

// Update overwrites the cell with a freshly fetched rate.
func (s *Snapshot) Update(_ context.Context, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rate = rate
	s.updatedAt = time.Now().UTC()
	s.set = true
	return nil
}

// Current returns the full snapshot value.
func (s *Snapshot) Current() domain.PriceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate := s.rate
	if !s.set {
		rate = domain.DefaultUSDRate
	}
	return domain.PriceSnapshot{Rate: rate, UpdatedAt: s.updatedAt}
}
