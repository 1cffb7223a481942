// Package pricing provides USD conversion rates for the native token.
// Two independent providers are consulted: the DexScreener pair quote API
// (primary) and the CoinGecko simple price API (secondary). When both are
// unavailable, readers fall back to domain.DefaultUSDRate.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mannyAndem/crypto-clone/internal/observability"
)

// Source fetches a current USD-per-SOL rate from a quote provider.
type Source interface {
	USDRate(ctx context.Context) (float64, error)
}

// ErrNoQuote is returned when a provider responds without usable price data.
var ErrNoQuote = errors.New("pricing: provider returned no quote")

// ChainSource tries each provider in order and returns the first rate.
// The ordering is the documented provider fallback: DexScreener first,
// CoinGecko second.
type ChainSource struct {
	sources []Source
	logger  *log.Logger
}

// NewChainSource creates a ChainSource over the given providers, in
// fallback order.
func NewChainSource(logger *log.Logger, sources ...Source) *ChainSource {
	if logger == nil {
		logger = log.Default()
	}
	return &ChainSource{sources: sources, logger: logger}
}

// Compile-time interface check.
var _ Source = (*ChainSource)(nil)

// namer lets providers report a stable name for error metrics.
type namer interface {
	Name() string
}

func sourceName(s Source, i int) string {
	if n, ok := s.(namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("provider_%d", i)
}

// USDRate returns the rate from the first provider that answers. The last
// provider's error is returned when all fail.
func (c *ChainSource) USDRate(ctx context.Context) (float64, error) {
	var lastErr error
	for i, src := range c.sources {
		rate, err := src.USDRate(ctx)
		if err == nil {
			return rate, nil
		}
		lastErr = err
		observability.RecordPriceFetchError(sourceName(src, i))
		if i < len(c.sources)-1 {
			c.logger.Printf("Price provider %s failed, trying next: %v", sourceName(src, i), err)
		}
	}
	if lastErr == nil {
		lastErr = ErrNoQuote
	}
	return 0, lastErr
}
