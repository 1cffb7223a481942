package domain

import "time"

// DefaultUSDRate is the fixed fallback conversion rate used when no quote
// has ever been fetched or every provider is unavailable.
const DefaultUSDRate = 180.0

// PriceSnapshot is the process-shared USD-per-SOL rate. It is written only
// by the price refresher job and read by anything needing USD conversion.
// No historical series is kept.
type PriceSnapshot struct {
	Rate      float64
	UpdatedAt time.Time
}
