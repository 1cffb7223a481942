package storage

import (
	"context"

	"github.com/mannyAndem/crypto-clone/internal/domain"
)

// CampaignStore provides read access to campaigns storage. The monitoring
// core never creates or mutates campaign rows; writes belong to the API
// layer.
type CampaignStore interface {
	// GetActiveWithWallet retrieves all campaigns with status active and a
	// non-empty wallet address, the dispatcher's eligibility predicate.
	GetActiveWithWallet(ctx context.Context) ([]*domain.Campaign, error)

	// GetByID retrieves a campaign by its external campaign_id.
	// Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error)
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	// Insert adds a new transaction. Returns ErrDuplicateKey if the
	// signature already exists; the uniqueness constraint is the single
	// source of truth for dedup across concurrent ingesters.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// ExistsBySignature reports whether a transaction with the given
	// signature has already been persisted.
	ExistsBySignature(ctx context.Context, signature string) (bool, error)

	// GetByCampaignID retrieves all transactions for a campaign, ordered
	// by timestamp ASC.
	GetByCampaignID(ctx context.Context, campaignID string) ([]*domain.Transaction, error)
}
