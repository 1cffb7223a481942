// Package monitor implements the job handlers of the escrow monitoring
// core: the USD rate refresher, the campaign fan-out dispatcher, and the
// per-wallet transaction ingester.
package monitor

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/mannyAndem/crypto-clone/internal/observability"
	"github.com/mannyAndem/crypto-clone/internal/pricing"
	"github.com/mannyAndem/crypto-clone/internal/queue"
)

const (
	priceRetryBase   = 60 * time.Second
	priceMaxAttempts = 3

	// notableRateDelta is the price move, in USD, above which a refresh is
	// logged as a change rather than a no-op.
	notableRateDelta = 0.01
)

// PriceReport is the result of one successful rate refresh.
type PriceReport struct {
	Rate     float64
	Previous float64
}

// Refresher fetches the current USD rate and overwrites the shared
// snapshot.
type Refresher struct {
	source pricing.Source
	rates  pricing.RateStore
	logger *log.Logger
}

// NewRefresher creates a refresher over the provider chain and the shared
// rate store.
func NewRefresher(source pricing.Source, rates pricing.RateStore, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{source: source, rates: rates, logger: logger}
}

// Handle runs one refresh. Provider and store failures retry with
// exponential backoff up to three attempts; readers keep the previous
// snapshot value in the meantime.
func (r *Refresher) Handle(ctx context.Context, _ queue.Job, attempt int) queue.Outcome {
	rate, err := r.source.USDRate(ctx)
	if err != nil {
		if attempt >= priceMaxAttempts {
			return queue.Fail(err)
		}
		return queue.RetryIn(queue.Backoff(priceRetryBase, attempt), err)
	}

	previous := r.rates.Rate(ctx)
	if math.Abs(rate-previous) > notableRateDelta {
		r.logger.Printf("SOL price updated: %.2f -> %.2f USD", previous, rate)
	}

	if err := r.rates.Update(ctx, rate); err != nil {
		if attempt >= priceMaxAttempts {
			return queue.Fail(err)
		}
		return queue.RetryIn(queue.Backoff(priceRetryBase, attempt), err)
	}

	observability.RecordUSDRate(rate, float64(time.Now().Unix()))
	return queue.Done(PriceReport{Rate: rate, Previous: previous})
}
