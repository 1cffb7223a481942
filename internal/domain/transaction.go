package domain

import "time"

// Chain constants for SOL amounts.
const (
	// LamportsPerSOL is the subunit factor of the native token.
	LamportsPerSOL = 1_000_000_000

	// FeeToleranceLamports is the slack allowed when matching a sender's
	// debit against the credited amount; it absorbs the transaction fee.
	FeeToleranceLamports = 5000

	// UnknownSender is recorded when no debit matches the credited amount.
	UnknownSender = "Unknown"
)

// Transaction is an immutable record of one confirmed inbound transfer
// credited to an escrow wallet. Signature is the dedup key: it is unique
// across all campaigns, and a second insert for the same signature is
// rejected by the store, never overwritten.
type Transaction struct {
	ID          string
	CampaignID  string
	Signature   string
	Amount      float64 // native units (SOL)
	FromWallet  string
	ToWallet    string
	Timestamp   int64   // chain block time, or ingestion time fallback
	AmountUSD   float64 // priced at ingestion time
	ProcessedAt time.Time
}
