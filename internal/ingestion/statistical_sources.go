package ingestion

// Statistical sources derive per-mint signals from a hash of the mint
// address. They stand in for live Pyth, DEX aggregator and holder-analysis
// integrations while keeping outputs deterministic across runs, which the
// caching and scoring layers depend on.

import (
	"context"
	"time"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/idhash"
	"solana-wallet-risk/internal/observability"
)

// StatisticalVolatilitySource produces volatility metrics per mint.
type StatisticalVolatilitySource struct {
	cache *cache.Cache[map[string]domain.VolatilityMetrics]
}

var _ VolatilitySource = (*StatisticalVolatilitySource)(nil)

// NewStatisticalVolatilitySource creates a volatility source.
// A nil cache disables caching.
func NewStatisticalVolatilitySource(c *cache.Cache[map[string]domain.VolatilityMetrics]) *StatisticalVolatilitySource {
	return &StatisticalVolatilitySource{cache: c}
}

// Fetch returns volatility metrics for every mint: 1h volatility in
// [1.2, 2.2), 24h volatility in [4.5, 9.5), 24h price change in [-3, +7).
func (s *StatisticalVolatilitySource) Fetch(ctx context.Context, mints []string) (map[string]domain.VolatilityMetrics, error) {
	key := mintSetKey("volatility", mints)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("volatility")
			return hit, nil
		}
		observability.RecordCacheMiss("volatility")
	}

	start := time.Now()
	result := make(map[string]domain.VolatilityMetrics, len(mints))
	for _, mint := range mints {
		result[mint] = domain.VolatilityMetrics{
			Volatility1h:   1.2 + float64(idhash.SignalMod(mint, 100))/100,
			Volatility24h:  4.5 + float64(idhash.SignalMod(mint, 500))/100,
			PriceChange24h: -3.0 + float64(idhash.SignalMod(mint, 1000))/100,
		}
	}
	observability.RecordFetch("volatility", time.Since(start).Seconds(), nil)

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result, nil
}

// StatisticalLiquiditySource produces pool TVL estimates per mint.
type StatisticalLiquiditySource struct {
	cache *cache.Cache[map[string]float64]
}

var _ LiquiditySource = (*StatisticalLiquiditySource)(nil)

// NewStatisticalLiquiditySource creates a liquidity source.
// A nil cache disables caching.
func NewStatisticalLiquiditySource(c *cache.Cache[map[string]float64]) *StatisticalLiquiditySource {
	return &StatisticalLiquiditySource{cache: c}
}

// Fetch returns USD liquidity for every mint, in [10_000, 10_010_000).
func (s *StatisticalLiquiditySource) Fetch(ctx context.Context, mints []string) (map[string]float64, error) {
	key := mintSetKey("liquidity", mints)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("liquidity")
			return hit, nil
		}
		observability.RecordCacheMiss("liquidity")
	}

	start := time.Now()
	result := make(map[string]float64, len(mints))
	for _, mint := range mints {
		result[mint] = 10_000 + float64(idhash.SignalMod(mint, 10_000_000))
	}
	observability.RecordFetch("liquidity", time.Since(start).Seconds(), nil)

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result, nil
}

// StatisticalConcentrationSource produces whale concentration scores per
// mint. Higher values mean more supply held by large wallets.
type StatisticalConcentrationSource struct {
	cache *cache.Cache[map[string]float64]
}

var _ ConcentrationSource = (*StatisticalConcentrationSource)(nil)

// NewStatisticalConcentrationSource creates a concentration source.
// A nil cache disables caching.
func NewStatisticalConcentrationSource(c *cache.Cache[map[string]float64]) *StatisticalConcentrationSource {
	return &StatisticalConcentrationSource{cache: c}
}

// Fetch returns a concentration score in [0.2, 1.0) for every mint.
func (s *StatisticalConcentrationSource) Fetch(ctx context.Context, mints []string) (map[string]float64, error) {
	key := mintSetKey("whale", mints)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("whale")
			return hit, nil
		}
		observability.RecordCacheMiss("whale")
	}

	start := time.Now()
	result := make(map[string]float64, len(mints))
	for _, mint := range mints {
		result[mint] = 0.2 + float64(idhash.SignalMod(mint, 80))/100
	}
	observability.RecordFetch("whale", time.Since(start).Seconds(), nil)

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result, nil
}
