package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DexScreener defaults.
const (
	DefaultDexScreenerEndpoint = "https://api.dexscreener.com"

	// WrappedSOLMint is the mint whose pair quote prices the native token.
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
)

// Quote is one token pair quote from DexScreener. Beyond the USD price it
// carries the display metadata the campaign-creation enrichment layer
// consumes; the monitoring core only reads PriceUSD.
type Quote struct {
	PriceUSD     float64
	LiquidityUSD float64
	Volume24h    float64
	MarketCap    float64
	Name         string
	Symbol       string
	ImageURL     string
	WebsiteURL   string
	TwitterURL   string
	TelegramURL  string
}

// DexScreenerSource fetches pair quotes from the DexScreener API.
type DexScreenerSource struct {
	endpoint string
	mint     string
	client   *http.Client
}

// NewDexScreenerSource creates a source quoting the given mint. An empty
// endpoint or mint selects the production API and the wrapped SOL mint.
func NewDexScreenerSource(endpoint, mint string) *DexScreenerSource {
	if endpoint == "" {
		endpoint = DefaultDexScreenerEndpoint
	}
	if mint == "" {
		mint = WrappedSOLMint
	}
	return &DexScreenerSource{
		endpoint: endpoint,
		mint:     mint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Compile-time interface check.
var _ Source = (*DexScreenerSource)(nil)

// Name identifies the provider in error metrics.
func (s *DexScreenerSource) Name() string { return "dexscreener" }

// USDRate returns the USD price of the configured mint's first pair.
func (s *DexScreenerSource) USDRate(ctx context.Context) (float64, error) {
	quote, err := s.Quote(ctx, s.mint)
	if err != nil {
		return 0, err
	}
	if quote.PriceUSD <= 0 {
		return 0, ErrNoQuote
	}
	return quote.PriceUSD, nil
}

// Quote fetches the full pair quote for a mint. The first pair returned by
// the API wins, matching the upstream ordering by liquidity.
func (s *DexScreenerSource) Quote(ctx context.Context, mint string) (*Quote, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", s.endpoint, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw dexScreenerResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(raw.Pairs) == 0 {
		return nil, ErrNoQuote
	}

	pair := raw.Pairs[0]
	price, _ := strconv.ParseFloat(pair.PriceUSD, 64)

	quote := &Quote{
		PriceUSD:     price,
		LiquidityUSD: pair.Liquidity.USD,
		Volume24h:    pair.Volume.H24,
		MarketCap:    pair.MarketCap,
		Name:         pair.BaseToken.Name,
		Symbol:       pair.BaseToken.Symbol,
		ImageURL:     pair.Info.ImageURL,
	}

	if len(pair.Info.Websites) > 0 {
		quote.WebsiteURL = pair.Info.Websites[0].URL
	}
	for _, social := range pair.Info.Socials {
		switch social.Type {
		case "twitter":
			if quote.TwitterURL == "" {
				quote.TwitterURL = social.URL
			}
		case "telegram":
			if quote.TelegramURL == "" {
				quote.TelegramURL = social.URL
			}
		}
	}

	return quote, nil
}

// dexScreenerResponse is the raw API response for /latest/dex/tokens.
type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

type dexScreenerPair struct {
	PriceUSD  string  `json:"priceUsd"`
	MarketCap float64 `json:"marketCap"`
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Info struct {
		ImageURL string `json:"imageUrl"`
		Websites []struct {
			URL string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}
