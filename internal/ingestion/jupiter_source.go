package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/observability"
)

// DefaultJupiterPriceURL is the public Jupiter price API base.
const DefaultJupiterPriceURL = "https://price.jup.ag/v4"

// JupiterPriceSource fetches USD spot prices from the Jupiter price API.
type JupiterPriceSource struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache[map[string]float64]
}

var _ PriceSource = (*JupiterPriceSource)(nil)

// NewJupiterPriceSource creates a price source against the given API base.
// An empty baseURL selects the public endpoint; a nil cache disables caching.
func NewJupiterPriceSource(baseURL string, c *cache.Cache[map[string]float64]) *JupiterPriceSource {
	if baseURL == "" {
		baseURL = DefaultJupiterPriceURL
	}
	return &JupiterPriceSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   c,
	}
}

// Fetch returns USD prices keyed by mint. Mints Jupiter does not quote are
// absent from the result.
func (s *JupiterPriceSource) Fetch(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}

	key := mintSetKey("prices", mints)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("prices")
			return hit, nil
		}
		observability.RecordCacheMiss("prices")
	}

	start := time.Now()
	prices, err := s.fetch(ctx, mints)
	observability.RecordFetch("prices", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, prices)
	}
	return prices, nil
}

func (s *JupiterPriceSource) fetch(ctx context.Context, mints []string) (map[string]float64, error) {
	// Mint addresses are base58, safe to join unescaped.
	endpoint := fmt.Sprintf("%s/price?ids=%s", s.baseURL, strings.Join(mints, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Source: "prices", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Source: "prices", Err: fmt.Errorf("fetch prices: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Source: "prices", Err: fmt.Errorf("price API returned status %d", resp.StatusCode)}
	}

	var payload struct {
		Data map[string]struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Source: "prices", Err: fmt.Errorf("decode price response: %w", err)}
	}

	prices := make(map[string]float64, len(payload.Data))
	for mint, entry := range payload.Data {
		prices[mint] = entry.Price
	}
	return prices, nil
}
