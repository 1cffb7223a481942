package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new transaction. Returns ErrDuplicateKey if the signature
// already exists. The UNIQUE constraint on signature serializes concurrent
// ingesters racing on the same wallet: only one insert succeeds.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			campaign_id, signature, amount, from_wallet, to_wallet, timestamp, amount_usd, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		tx.CampaignID,
		tx.Signature,
		tx.Amount,
		tx.FromWallet,
		tx.ToWallet,
		tx.Timestamp,
		tx.AmountUSD,
		tx.ProcessedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ExistsBySignature reports whether a transaction with the signature exists.
func (s *TransactionStore) ExistsBySignature(ctx context.Context, signature string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE signature = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, signature).Scan(&exists); err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	return exists, nil
}

// GetByCampaignID retrieves all transactions for a campaign, ordered by
// timestamp ASC.
func (s *TransactionStore) GetByCampaignID(ctx context.Context, campaignID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, campaign_id, signature, amount, from_wallet, to_wallet, timestamp, amount_usd, processed_at
		FROM transactions
		WHERE campaign_id = $1
		ORDER BY timestamp ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by campaign id: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var tx domain.Transaction

		err := rows.Scan(
			&tx.ID,
			&tx.CampaignID,
			&tx.Signature,
			&tx.Amount,
			&tx.FromWallet,
			&tx.ToWallet,
			&tx.Timestamp,
			&tx.AmountUSD,
			&tx.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
