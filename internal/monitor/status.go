package monitor

import (
	"context"
	"log"

	"github.com/mannyAndem/crypto-clone/internal/domain"
	"github.com/mannyAndem/crypto-clone/internal/pricing"
	"github.com/mannyAndem/crypto-clone/internal/storage"
)

// MonitoringStatus is a point-in-time view of the monitoring core.
type MonitoringStatus struct {
	ActiveCampaignCount int
	Campaigns           []*domain.Campaign
	CurrentRate         float64
	MonitoringActive    bool
}

// StatusReporter answers status queries about the monitoring core.
type StatusReporter struct {
	campaigns storage.CampaignStore
	rates     pricing.RateStore
	logger    *log.Logger
}

// NewStatusReporter creates a reporter over the campaign store and the
// shared rate store.
func NewStatusReporter(campaigns storage.CampaignStore, rates pricing.RateStore, logger *log.Logger) *StatusReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &StatusReporter{campaigns: campaigns, rates: rates, logger: logger}
}

// LogStartup emits the startup marker with the current monitored set.
func (r *StatusReporter) LogStartup(ctx context.Context) {
	status, err := r.Status(ctx)
	if err != nil {
		r.logger.Printf("Monitoring started (campaign count unavailable: %v)", err)
		return
	}
	r.logger.Printf("Monitoring started: %d active campaigns, SOL rate %.2f USD",
		status.ActiveCampaignCount, status.CurrentRate)
}

// MonitoringStarted emits the per-campaign monitoring marker. It has no
// side effect; the API layer calls it when a campaign goes live so the
// logs show when coverage of a wallet began.
func (r *StatusReporter) MonitoringStarted(campaignID, wallet string) {
	r.logger.Printf("Started monitoring wallet %s for campaign %s", wallet, campaignID)
}

// Status reports the currently monitored campaigns and the rate in effect.
// MonitoringActive is always true while the process is up; the scheduler
// has no pause switch.
func (r *StatusReporter) Status(ctx context.Context) (MonitoringStatus, error) {
	campaigns, err := r.campaigns.GetActiveWithWallet(ctx)
	if err != nil {
		return MonitoringStatus{}, err
	}

	return MonitoringStatus{
		ActiveCampaignCount: len(campaigns),
		Campaigns:           campaigns,
		CurrentRate:         r.rates.Rate(ctx),
		MonitoringActive:    true,
	}, nil
}
