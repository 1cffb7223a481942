package monitor

import (
	"context"
	"log"
	"time"

	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/queue"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

const (
	fanoutRetryBase   = 30 * time.Second
	fanoutMaxAttempts = 3
)

// DispatchedJob identifies one wallet check enqueued by a fan-out.
type DispatchedJob struct {
	CampaignID string
	JobID      string
}

// FanoutReport is the result of one fan-out pass.
type FanoutReport struct {
	Scheduled int
	Jobs      []DispatchedJob
}

// Dispatcher scans eligible campaigns and enqueues one wallet check per
// campaign.
type Dispatcher struct {
	campaigns storage.CampaignStore
	enqueuer  queue.Enqueuer
	logger    *log.Logger
}

// NewDispatcher creates a dispatcher over the campaign store.
func NewDispatcher(campaigns storage.CampaignStore, enqueuer queue.Enqueuer, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{campaigns: campaigns, enqueuer: enqueuer, logger: logger}
}

// Handle runs one fan-out pass. A store failure retries the whole pass
// with backoff; a single campaign's enqueue failure is logged and skipped
// so the remaining campaigns still get their checks. An empty campaign
// list is a normal no-op.
func (d *Dispatcher) Handle(ctx context.Context, _ queue.Job, attempt int) queue.Outcome {
	campaigns, err := d.campaigns.GetActiveWithWallet(ctx)
	if err != nil {
		if attempt >= fanoutMaxAttempts {
			return queue.Fail(err)
		}
		return queue.RetryIn(queue.Backoff(fanoutRetryBase, attempt), err)
	}

	report := FanoutReport{}
	for _, c := range campaigns {
		if !c.Monitorable() {
			continue
		}

		id, err := d.enqueuer.Enqueue(ctx, queue.WalletCheckJob{
			WalletAddress: c.WalletAddress,
			CampaignID:    c.CampaignID,
		})
		if err != nil {
			d.logger.Printf("fanout: enqueue check for campaign %s: %v", c.CampaignID, err)
			continue
		}

		report.Scheduled++
		report.Jobs = append(report.Jobs, DispatchedJob{CampaignID: c.CampaignID, JobID: id})
	}

	observability.RecordFanout(report.Scheduled)
	d.logger.Printf("Scheduled wallet checks for %d active campaigns", report.Scheduled)
	return queue.Done(report)
}
