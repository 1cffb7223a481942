package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

const campaignColumns = `
	id, campaign_id, wallet_address, contract_address, status, goal_amount,
	expires_at, created_at, name, symbol, image_url, description,
	social_twitter, social_website
`

// GetActiveWithWallet retrieves all campaigns with status active and a
// non-empty wallet address, ordered by campaign_id.
func (s *CampaignStore) GetActiveWithWallet(ctx context.Context) ([]*domain.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'active' AND wallet_address <> ''
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// GetByID retrieves a campaign by campaign_id. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE campaign_id = $1
	`

	row := s.pool.QueryRow(ctx, query, campaignID)

	c, err := scanCampaign(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}

	return c, nil
}

// scanCampaign scans a single row into a Campaign.
func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign

	err := row.Scan(
		&c.ID,
		&c.CampaignID,
		&c.WalletAddress,
		&c.ContractAddress,
		&c.Status,
		&c.GoalAmount,
		&c.ExpiresAt,
		&c.CreatedAt,
		&c.Name,
		&c.Symbol,
		&c.ImageURL,
		&c.Description,
		&c.SocialTwitter,
		&c.SocialWebsite,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// scanCampaigns scans multiple rows into a slice of Campaign.
func scanCampaigns(rows pgx.Rows) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, nil
}
