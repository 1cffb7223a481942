package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

func TestCampaignStore_GetActiveWithWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCampaign(t, ctx, pool, "cmp_active_1", "Wallet1", "active")
	seedCampaign(t, ctx, pool, "cmp_active_2", "Wallet2", "active")
	seedCampaign(t, ctx, pool, "cmp_inactive", "Wallet3", "inactive")
	seedCampaign(t, ctx, pool, "cmp_expired", "Wallet4", "expired")
	seedCampaign(t, ctx, pool, "cmp_no_wallet", "", "active")

	store := NewCampaignStore(pool)

	campaigns, err := store.GetActiveWithWallet(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)

	// Ordered by campaign_id.
	assert.Equal(t, "cmp_active_1", campaigns[0].CampaignID)
	assert.Equal(t, "cmp_active_2", campaigns[1].CampaignID)
	assert.Equal(t, domain.CampaignStatusActive, campaigns[0].Status)
	assert.Equal(t, "Wallet1", campaigns[0].WalletAddress)
}

func TestCampaignStore_GetActiveWithWallet_Empty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewCampaignStore(pool)

	campaigns, err := store.GetActiveWithWallet(ctx)
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}

func TestCampaignStore_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCampaign(t, ctx, pool, "cmp_lookup", "WalletX", "active")

	store := NewCampaignStore(pool)

	c, err := store.GetByID(ctx, "cmp_lookup")
	require.NoError(t, err)
	assert.Equal(t, "cmp_lookup", c.CampaignID)
	assert.Equal(t, "WalletX", c.WalletAddress)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1000.0, c.GoalAmount)
}

func TestCampaignStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCampaignStore(pool)

	_, err := store.GetByID(context.Background(), "cmp_missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
