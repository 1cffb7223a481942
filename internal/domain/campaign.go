package domain

import "time"

// CampaignStatus is the lifecycle state of a funding campaign.
type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusInactive CampaignStatus = "inactive"
	CampaignStatusExpired  CampaignStatus = "expired"
)

// Campaign is a funding campaign bound to exactly one escrow wallet and one
// token contract. Campaigns are created and mutated by the API layer; the
// monitoring core only reads them.
type Campaign struct {
	ID              string
	CampaignID      string // stable external id, e.g. "cmp_1a2b3c4d"
	WalletAddress   string // escrow wallet receiving contributions
	ContractAddress string // token contract the campaign is raising for
	Status          CampaignStatus
	GoalAmount      float64 // goal in USD
	ExpiresAt       time.Time
	CreatedAt       time.Time

	// Display metadata, filled at creation time from the quote provider.
	Name          string
	Symbol        string
	ImageURL      string
	Description   string
	SocialTwitter string
	SocialWebsite string
}

// Monitorable reports whether the campaign is eligible for wallet polling:
// status active and a non-empty escrow wallet.
func (c *Campaign) Monitorable() bool {
	return c.Status == CampaignStatusActive && c.WalletAddress != ""
}
