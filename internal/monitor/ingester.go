package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mr-tron/base58"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/pricing"
	"github.com/mannyAndem/crypto-clone/internal/queue"
	"github.com/mannyAndem/crypto-clone/internal/solana"
	"github.com/mannyAndem/crypto-clone/internal/storage"
	"github.com/mannyAndem/crypto-clone/internal/transfer"
)

const (
	// signatureLookback is how many of the wallet's newest signatures each
	// check examines. Transfers older than the window are never picked up;
	// the 15 second cadence keeps the window from being outrun under
	// normal load.
	signatureLookback = 5

	ingestRetryBase = 60 * time.Second

	// ingestMaxRetries bounds re-runs after the initial attempt.
	ingestMaxRetries = 2

	solanaAddressLen = 32
)

// IngestReport is the result of one wallet check.
type IngestReport struct {
	CampaignID      string
	Wallet          string
	Seen            int // signatures returned by the lookback
	NewTransactions int // transfers recorded by this check
	Duplicates      int // signatures already persisted
	Transactions    []*domain.Transaction
}

// Ingester examines an escrow wallet's recent transactions and persists
// newly detected inbound transfers.
type Ingester struct {
	rpc          solana.RPCClient
	transactions storage.TransactionStore
	prices       pricing.Source
	now          func() time.Time
	logger       *log.Logger
}

// NewIngester creates an ingester. prices values each transfer at
// ingestion time; provider failure falls back to the fixed default rate.
func NewIngester(rpc solana.RPCClient, transactions storage.TransactionStore, prices pricing.Source, logger *log.Logger) *Ingester {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingester{
		rpc:          rpc,
		transactions: transactions,
		prices:       prices,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// Handle runs one wallet check. An unreachable RPC node retries the whole
// check with backoff, up to two retries. Everything per signature is
// isolated: one bad transaction is logged and skipped, the rest of the
// window is still processed. Duplicate signatures, whether seen in the
// pre-check or raced into the store by a concurrent delivery, are silent
// no-ops; re-running the job can never double-record a contribution.
func (i *Ingester) Handle(ctx context.Context, job queue.Job, attempt int) queue.Outcome {
	check, ok := job.(queue.WalletCheckJob)
	if !ok {
		return queue.Fail(fmt.Errorf("ingester: unexpected job type %s", job.Type()))
	}

	if err := validateWallet(check.WalletAddress); err != nil {
		return queue.Fail(err)
	}

	sigs, err := i.rpc.GetSignaturesForAddress(ctx, check.WalletAddress, signatureLookback)
	if err != nil {
		if attempt > ingestMaxRetries {
			return queue.Fail(err)
		}
		return queue.RetryIn(queue.Backoff(ingestRetryBase, attempt), err)
	}

	report := IngestReport{CampaignID: check.CampaignID, Wallet: check.WalletAddress, Seen: len(sigs)}
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}

		exists, err := i.transactions.ExistsBySignature(ctx, sig.Signature)
		if err != nil {
			i.logger.Printf("wallet %s: check signature %s: %v", check.WalletAddress, sig.Signature, err)
			continue
		}
		if exists {
			report.Duplicates++
			continue
		}

		tx, err := i.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			i.logger.Printf("wallet %s: fetch transaction %s: %v", check.WalletAddress, sig.Signature, err)
			continue
		}
		if tx == nil || tx.Failed() || tx.Meta == nil || tx.Message == nil {
			continue
		}

		credit := transfer.Parse(tx.Message.AccountKeys, tx.Meta.PreBalances, tx.Meta.PostBalances, check.WalletAddress)
		if credit == nil {
			continue
		}

		rate := i.usdRate(ctx)
		record := &domain.Transaction{
			CampaignID:  check.CampaignID,
			Signature:   sig.Signature,
			Amount:      credit.AmountSOL,
			FromWallet:  credit.From,
			ToWallet:    check.WalletAddress,
			Timestamp:   i.blockTime(tx),
			AmountUSD:   credit.AmountSOL * rate,
			ProcessedAt: i.now(),
		}

		if err := i.transactions.Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				report.Duplicates++
				continue
			}
			i.logger.Printf("wallet %s: persist transaction %s: %v", check.WalletAddress, sig.Signature, err)
			continue
		}

		report.NewTransactions++
		report.Transactions = append(report.Transactions, record)
		i.logger.Printf("Recorded contribution of %.9f SOL (%.2f USD) from %s to campaign %s",
			credit.AmountSOL, record.AmountUSD, credit.From, check.CampaignID)
	}

	observability.RecordIngest(report.Seen, report.NewTransactions, report.Duplicates)
	return queue.Done(report)
}

// usdRate values a transfer at ingestion time. Provider failure falls back
// to the fixed default so a recorded contribution always carries a USD
// amount.
func (i *Ingester) usdRate(ctx context.Context) float64 {
	rate, err := i.prices.USDRate(ctx)
	if err != nil {
		return domain.DefaultUSDRate
	}
	return rate
}

// blockTime returns the chain timestamp, or ingestion time when the chain
// carries none.
func (i *Ingester) blockTime(tx *solana.Transaction) int64 {
	if tx.BlockTime > 0 {
		return tx.BlockTime
	}
	return i.now().Unix()
}

// validateWallet rejects addresses that cannot be a Solana public key:
// empty strings and strings that do not decode to 32 base58 bytes.
func validateWallet(address string) error {
	if address == "" {
		return errors.New("ingester: empty wallet address")
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("ingester: invalid wallet address %q: %w", address, err)
	}
	if len(raw) != solanaAddressLen {
		return fmt.Errorf("ingester: invalid wallet address %q: %d bytes", address, len(raw))
	}
	return nil
}
