package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultCoinGeckoEndpoint is the production CoinGecko API base URL.
const DefaultCoinGeckoEndpoint = "https://api.coingecko.com"

// CoinGeckoSource fetches the SOL/USD rate from the CoinGecko simple price
// API. It is the secondary provider in the fallback chain.
type CoinGeckoSource struct {
	endpoint string
	client   *http.Client
}

// NewCoinGeckoSource creates a CoinGecko source. An empty endpoint selects
// the production API.
func NewCoinGeckoSource(endpoint string) *CoinGeckoSource {
	if endpoint == "" {
		endpoint = DefaultCoinGeckoEndpoint
	}
	return &CoinGeckoSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Compile-time interface check.
var _ Source = (*CoinGeckoSource)(nil)

// Name identifies the provider in error metrics.
func (s *CoinGeckoSource) Name() string { return "coingecko" }

// USDRate returns the current SOL price in USD.
func (s *CoinGeckoSource) USDRate(ctx context.Context) (float64, error) {
	url := s.endpoint + "/api/v3/simple/price?ids=solana&vs_currencies=usd"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw coinGeckoResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}

	if raw.Solana.USD <= 0 {
		return 0, ErrNoQuote
	}

	return raw.Solana.USD, nil
}

// coinGeckoResponse is the raw API response for /simple/price.
type coinGeckoResponse struct {
	Solana struct {
		USD float64 `json:"usd"`
	} `json:"solana"`
}
