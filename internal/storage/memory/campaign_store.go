package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Campaign // keyed by campaign_id
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		data: make(map[string]*domain.Campaign),
	}
}

// Put adds or replaces a campaign. Test seeding helper; the monitoring
// core itself never writes campaigns.
func (s *CampaignStore) Put(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *c
	s.data[c.CampaignID] = &copy
	return nil
}

// GetActiveWithWallet retrieves all campaigns matching the dispatcher
// predicate, ordered by campaign_id for determinism.
func (s *CampaignStore) GetActiveWithWallet(_ context.Context) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Campaign
	for _, c := range s.data {
		if c.Monitorable() {
			copy := *c
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CampaignID < result[j].CampaignID
	})

	return result, nil
}

// GetByID retrieves a campaign by campaign_id. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(_ context.Context, campaignID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[campaignID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *c
	return &copy, nil
}

var _ storage.CampaignStore = (*CampaignStore)(nil)
