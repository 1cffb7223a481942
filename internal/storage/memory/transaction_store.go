package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by signature
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Insert adds a new transaction. Returns ErrDuplicateKey if the signature exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *tx
	s.data[tx.Signature] = &copy
	return nil
}

// ExistsBySignature reports whether a transaction with the signature exists.
func (s *TransactionStore) ExistsBySignature(_ context.Context, signature string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[signature]
	return exists, nil
}

// GetByCampaignID retrieves all transactions for a campaign, ordered by
// timestamp ASC.
func (s *TransactionStore) GetByCampaignID(_ context.Context, campaignID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.CampaignID == campaignID {
			copy := *tx
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].Signature < result[j].Signature
	})

	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
