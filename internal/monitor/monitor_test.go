package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/pricing"
	"github.com/mannyAndem/crypto-clone/internal/queue"
	"github.com/mannyAndem/crypto-clone/internal/solana"
	"github.com/mannyAndem/crypto-clone/internal/storage/memory"
)

// testWallet is a valid 32-byte base58 public key.
const testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

// testSender is a second valid public key, used as the contributor.
const testSender = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubSource struct {
	rate float64
	err  error
}

func (s *stubSource) USDRate(context.Context) (float64, error) {
	return s.rate, s.err
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (e *fakeEnqueuer) Enqueue(_ context.Context, job queue.Job) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return "", e.err
	}
	e.jobs = append(e.jobs, job)
	return "job-" + job.Type(), nil
}

type stubRPC struct {
	sigs    []solana.SignatureInfo
	sigsErr error
	txs     map[string]*solana.Transaction
	txErrs  map[string]error
}

func (s *stubRPC) GetSignaturesForAddress(_ context.Context, _ string, limit int) ([]solana.SignatureInfo, error) {
	if s.sigsErr != nil {
		return nil, s.sigsErr
	}
	if len(s.sigs) > limit {
		return s.sigs[:limit], nil
	}
	return s.sigs, nil
}

func (s *stubRPC) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err, ok := s.txErrs[signature]; ok {
		return nil, err
	}
	return s.txs[signature], nil
}

// creditTx builds a transaction crediting lamports to testWallet from
// testSender.
func creditTx(lamports uint64, blockTime int64) *solana.Transaction {
	return &solana.Transaction{
		BlockTime: blockTime,
		Meta: &solana.TransactionMeta{
			Fee:          5000,
			PreBalances:  []uint64{1_000_000_000, 5_000_000_000},
			PostBalances: []uint64{1_000_000_000 + lamports, 5_000_000_000 - lamports - 4000},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, testSender},
		},
	}
}

func TestRefresherUpdatesSnapshot(t *testing.T) {
	rates := pricing.NewSnapshot()
	r := NewRefresher(&stubSource{rate: 201.5}, rates, discard())

	outcome := r.Handle(context.Background(), queue.PriceRefreshJob{}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report, ok := outcome.Result.(PriceReport)
	require.True(t, ok)
	assert.Equal(t, 201.5, report.Rate)
	assert.Equal(t, domain.DefaultUSDRate, report.Previous)
	assert.Equal(t, 201.5, rates.Rate(context.Background()))
}

func TestRefresherRetryDelays(t *testing.T) {
	src := &stubSource{err: errors.New("providers down")}
	r := NewRefresher(src, pricing.NewSnapshot(), discard())
	ctx := context.Background()

	first := r.Handle(ctx, queue.PriceRefreshJob{}, 1)
	require.Equal(t, queue.StatusRetry, first.Status)
	assert.Equal(t, 60*time.Second, first.Delay)

	second := r.Handle(ctx, queue.PriceRefreshJob{}, 2)
	require.Equal(t, queue.StatusRetry, second.Status)
	assert.Equal(t, 120*time.Second, second.Delay)

	// Providers recover before the final attempt.
	src.err = nil
	src.rate = 180.25
	third := r.Handle(ctx, queue.PriceRefreshJob{}, 3)
	assert.Equal(t, queue.StatusDone, third.Status)
}

func TestRefresherFailsAfterMaxAttempts(t *testing.T) {
	r := NewRefresher(&stubSource{err: errors.New("providers down")}, pricing.NewSnapshot(), discard())

	outcome := r.Handle(context.Background(), queue.PriceRefreshJob{}, 3)
	assert.Equal(t, queue.StatusFail, outcome.Status)
}

func TestDispatcherNoCampaigns(t *testing.T) {
	enq := &fakeEnqueuer{}
	d := NewDispatcher(memory.NewCampaignStore(), enq, discard())

	outcome := d.Handle(context.Background(), queue.WalletFanoutJob{}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report, ok := outcome.Result.(FanoutReport)
	require.True(t, ok)
	assert.Zero(t, report.Scheduled)
	assert.Empty(t, enq.jobs)
}

func TestDispatcherFansOutPerCampaign(t *testing.T) {
	ctx := context.Background()
	campaigns := memory.NewCampaignStore()
	for _, c := range []*domain.Campaign{
		{CampaignID: "cmp_a", WalletAddress: testWallet, Status: domain.CampaignStatusActive},
		{CampaignID: "cmp_b", WalletAddress: testSender, Status: domain.CampaignStatusActive},
		{CampaignID: "cmp_c", WalletAddress: testWallet, Status: domain.CampaignStatusActive},
		{CampaignID: "cmp_paused", WalletAddress: testWallet, Status: domain.CampaignStatusInactive},
		{CampaignID: "cmp_walletless", Status: domain.CampaignStatusActive},
	} {
		require.NoError(t, campaigns.Put(ctx, c))
	}

	enq := &fakeEnqueuer{}
	d := NewDispatcher(campaigns, enq, discard())

	outcome := d.Handle(ctx, queue.WalletFanoutJob{}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report := outcome.Result.(FanoutReport)
	assert.Equal(t, 3, report.Scheduled)
	require.Len(t, enq.jobs, 3)

	ids := map[string]bool{}
	for _, j := range enq.jobs {
		check := j.(queue.WalletCheckJob)
		ids[check.CampaignID] = true
	}
	assert.Equal(t, map[string]bool{"cmp_a": true, "cmp_b": true, "cmp_c": true}, ids)
}

func TestIngesterPersistsNewTransfer(t *testing.T) {
	ctx := context.Background()
	rpc := &stubRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-1"}},
		txs:  map[string]*solana.Transaction{"sig-1": creditTx(500_000_000, 1718000000)},
	}
	txStore := memory.NewTransactionStore()
	ing := NewIngester(rpc, txStore, &stubSource{rate: 200}, discard())

	outcome := ing.Handle(ctx, queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report := outcome.Result.(IngestReport)
	assert.Equal(t, 1, report.Seen)
	assert.Equal(t, 1, report.NewTransactions)

	recorded, err := txStore.GetByCampaignID(ctx, "cmp_a")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "sig-1", recorded[0].Signature)
	assert.Equal(t, 0.5, recorded[0].Amount)
	assert.Equal(t, 100.0, recorded[0].AmountUSD)
	assert.Equal(t, testSender, recorded[0].FromWallet)
	assert.Equal(t, testWallet, recorded[0].ToWallet)
	assert.Equal(t, int64(1718000000), recorded[0].Timestamp)
}

func TestIngesterDuplicateDeliveryIsNoOp(t *testing.T) {
	ctx := context.Background()
	rpc := &stubRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-1"}},
		txs:  map[string]*solana.Transaction{"sig-1": creditTx(500_000_000, 1718000000)},
	}
	txStore := memory.NewTransactionStore()
	ing := NewIngester(rpc, txStore, &stubSource{rate: 200}, discard())
	job := queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}

	first := ing.Handle(ctx, job, 1)
	require.Equal(t, queue.StatusDone, first.Status)

	second := ing.Handle(ctx, job, 1)
	require.Equal(t, queue.StatusDone, second.Status)
	report := second.Result.(IngestReport)
	assert.Zero(t, report.NewTransactions)
	assert.Equal(t, 1, report.Duplicates)

	recorded, err := txStore.GetByCampaignID(ctx, "cmp_a")
	require.NoError(t, err)
	assert.Len(t, recorded, 1)
}

func TestIngesterLookbackWindow(t *testing.T) {
	ctx := context.Background()
	rpc := &stubRPC{txs: map[string]*solana.Transaction{}}
	for _, sig := range []string{"sig-6", "sig-5", "sig-4", "sig-3", "sig-2", "sig-1"} {
		rpc.sigs = append(rpc.sigs, solana.SignatureInfo{Signature: sig})
		rpc.txs[sig] = creditTx(100_000_000, 1718000000)
	}

	txStore := memory.NewTransactionStore()
	ing := NewIngester(rpc, txStore, &stubSource{rate: 200}, discard())

	outcome := ing.Handle(ctx, queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report := outcome.Result.(IngestReport)
	assert.Equal(t, 5, report.Seen)
	assert.Equal(t, 5, report.NewTransactions)

	recorded, err := txStore.GetByCampaignID(ctx, "cmp_a")
	require.NoError(t, err)
	assert.Len(t, recorded, 5)
}

func TestIngesterSkipsFailedAndMissingTransactions(t *testing.T) {
	ctx := context.Background()
	failed := creditTx(100_000_000, 1718000000)
	failed.Meta.Err = map[string]interface{}{"InstructionError": []interface{}{}}

	rpc := &stubRPC{
		sigs: []solana.SignatureInfo{
			{Signature: "sig-err", Err: "AccountNotFound"},
			{Signature: "sig-failed"},
			{Signature: "sig-missing"},
			{Signature: "sig-rpc-err"},
			{Signature: "sig-good"},
		},
		txs: map[string]*solana.Transaction{
			"sig-failed": failed,
			"sig-good":   creditTx(100_000_000, 1718000000),
		},
		txErrs: map[string]error{"sig-rpc-err": errors.New("node timeout")},
	}

	txStore := memory.NewTransactionStore()
	ing := NewIngester(rpc, txStore, &stubSource{rate: 200}, discard())

	outcome := ing.Handle(ctx, queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}, 1)

	require.Equal(t, queue.StatusDone, outcome.Status)
	report := outcome.Result.(IngestReport)
	assert.Equal(t, 5, report.Seen)
	assert.Equal(t, 1, report.NewTransactions)

	recorded, err := txStore.GetByCampaignID(ctx, "cmp_a")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "sig-good", recorded[0].Signature)
}

func TestIngesterRejectsInvalidWallet(t *testing.T) {
	ing := NewIngester(&stubRPC{}, memory.NewTransactionStore(), &stubSource{rate: 200}, discard())
	ctx := context.Background()

	for _, wallet := range []string{"", "not-base58-0OIl", "abc"} {
		outcome := ing.Handle(ctx, queue.WalletCheckJob{WalletAddress: wallet, CampaignID: "cmp_a"}, 1)
		assert.Equal(t, queue.StatusFail, outcome.Status, "wallet %q", wallet)
	}
}

func TestIngesterRetriesRPCOutage(t *testing.T) {
	rpc := &stubRPC{sigsErr: errors.New("connection refused")}
	ing := NewIngester(rpc, memory.NewTransactionStore(), &stubSource{rate: 200}, discard())
	ctx := context.Background()
	job := queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}

	first := ing.Handle(ctx, job, 1)
	require.Equal(t, queue.StatusRetry, first.Status)
	assert.Equal(t, 60*time.Second, first.Delay)

	second := ing.Handle(ctx, job, 2)
	require.Equal(t, queue.StatusRetry, second.Status)
	assert.Equal(t, 120*time.Second, second.Delay)

	third := ing.Handle(ctx, job, 3)
	assert.Equal(t, queue.StatusFail, third.Status)
}

func TestIngesterFallsBackToDefaultRate(t *testing.T) {
	ctx := context.Background()
	rpc := &stubRPC{
		sigs: []solana.SignatureInfo{{Signature: "sig-1"}},
		txs:  map[string]*solana.Transaction{"sig-1": creditTx(1_000_000_000, 1718000000)},
	}

	txStore := memory.NewTransactionStore()
	ing := NewIngester(rpc, txStore, &stubSource{err: errors.New("providers down")}, discard())

	outcome := ing.Handle(ctx, queue.WalletCheckJob{WalletAddress: testWallet, CampaignID: "cmp_a"}, 1)
	require.Equal(t, queue.StatusDone, outcome.Status)

	recorded, err := txStore.GetByCampaignID(ctx, "cmp_a")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, domain.DefaultUSDRate, recorded[0].AmountUSD)
}

func TestStatusReporter(t *testing.T) {
	ctx := context.Background()
	campaigns := memory.NewCampaignStore()
	require.NoError(t, campaigns.Put(ctx, &domain.Campaign{
		CampaignID:    "cmp_a",
		WalletAddress: testWallet,
		Status:        domain.CampaignStatusActive,
	}))

	rates := pricing.NewSnapshot()
	require.NoError(t, rates.Update(ctx, 195.5))

	reporter := NewStatusReporter(campaigns, rates, discard())
	status, err := reporter.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, status.ActiveCampaignCount)
	assert.Equal(t, 195.5, status.CurrentRate)
	assert.True(t, status.MonitoringActive)
	require.Len(t, status.Campaigns, 1)
	assert.Equal(t, "cmp_a", status.Campaigns[0].CampaignID)
}
