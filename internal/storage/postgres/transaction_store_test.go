package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

func testTransaction(campaignID, signature string, timestamp int64) *domain.Transaction {
	return &domain.Transaction{
		CampaignID:  campaignID,
		Signature:   signature,
		Amount:      0.5,
		FromWallet:  "SenderWallet",
		ToWallet:    "EscrowWallet",
		Timestamp:   timestamp,
		AmountUSD:   90.0,
		ProcessedAt: time.Now().UTC(),
	}
}

func TestTransactionStore_InsertAndGetByCampaignID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCampaign(t, ctx, pool, "cmp_tx", "EscrowWallet", "active")

	store := NewTransactionStore(pool)

	require.NoError(t, store.Insert(ctx, testTransaction("cmp_tx", "Sig2", 1718000100)))
	require.NoError(t, store.Insert(ctx, testTransaction("cmp_tx", "Sig1", 1718000000)))

	txs, err := store.GetByCampaignID(ctx, "cmp_tx")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Ordered by timestamp ASC.
	assert.Equal(t, "Sig1", txs[0].Signature)
	assert.Equal(t, "Sig2", txs[1].Signature)
	assert.Equal(t, 0.5, txs[0].Amount)
	assert.Equal(t, 90.0, txs[0].AmountUSD)
	assert.Equal(t, "SenderWallet", txs[0].FromWallet)
	assert.NotEmpty(t, txs[0].ID)
}

func TestTransactionStore_InsertDuplicateSignature(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCampaign(t, ctx, pool, "cmp_dup", "EscrowWallet", "active")

	store := NewTransactionStore(pool)

	first := testTransaction("cmp_dup", "SigDup", 1718000000)
	require.NoError(t, store.Insert(ctx, first))

	// Same signature, even under a different campaign, is rejected.
	second := testTransaction("cmp_dup", "SigDup", 1718000500)
	second.Amount = 99.0
	err := store.Insert(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The original row is untouched.
	txs, err := store.GetByCampaignID(ctx, "cmp_dup")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 0.5, txs[0].Amount)
}

func TestTransactionStore_InsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.Transaction{CampaignID: "cmp_x"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.Transaction{Signature: "SigX"}), storage.ErrInvalidInput)
}

func TestTransactionStore_ExistsBySignature(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCampaign(t, ctx, pool, "cmp_exists", "EscrowWallet", "active")

	store := NewTransactionStore(pool)
	require.NoError(t, store.Insert(ctx, testTransaction("cmp_exists", "SigExists", 1718000000)))

	exists, err := store.ExistsBySignature(ctx, "SigExists")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsBySignature(ctx, "SigMissing")
	require.NoError(t, err)
	assert.False(t, exists)
}
