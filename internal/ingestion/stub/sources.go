// Package stub provides fixed in-memory data sources for tests and demos.
package stub

import (
	"context"

	"solana-wallet-risk/internal/domain"
)

// StubBalanceSource returns fixed in-memory balances.
// Implements ingestion.BalanceSource interface.
type StubBalanceSource struct {
	balances map[string]*domain.WalletBalances // keyed by wallet address
}

// NewStubBalanceSource creates a new stub balance source.
func NewStubBalanceSource(balances map[string]*domain.WalletBalances) *StubBalanceSource {
	return &StubBalanceSource{balances: balances}
}

// Fetch returns the fixture for the wallet, or empty balances for unknown
// wallets. Returns copies to prevent mutation.
func (s *StubBalanceSource) Fetch(_ context.Context, walletAddress string) (*domain.WalletBalances, error) {
	b, exists := s.balances[walletAddress]
	if !exists {
		return &domain.WalletBalances{WalletAddress: walletAddress}, nil
	}
	copy := *b
	copy.Tokens = append([]domain.TokenHolding(nil), b.Tokens...)
	return &copy, nil
}

// StubMetadataSource returns fixed in-memory metadata.
// Implements ingestion.MetadataSource interface.
type StubMetadataSource struct {
	metadata map[string]domain.TokenMetadata // keyed by mint
}

// NewStubMetadataSource creates a new stub metadata source.
func NewStubMetadataSource(metadata map[string]domain.TokenMetadata) *StubMetadataSource {
	return &StubMetadataSource{metadata: metadata}
}

// Fetch returns metadata for the requested mints that have fixtures.
func (s *StubMetadataSource) Fetch(_ context.Context, mints []string) (map[string]domain.TokenMetadata, error) {
	result := make(map[string]domain.TokenMetadata)
	for _, mint := range mints {
		if meta, exists := s.metadata[mint]; exists {
			result[mint] = meta
		}
	}
	return result, nil
}

// StubPriceSource returns fixed in-memory USD prices.
// Implements ingestion.PriceSource interface.
type StubPriceSource struct {
	prices map[string]float64 // keyed by mint
}

// NewStubPriceSource creates a new stub price source.
func NewStubPriceSource(prices map[string]float64) *StubPriceSource {
	return &StubPriceSource{prices: prices}
}

// Fetch returns prices for the requested mints that have fixtures.
func (s *StubPriceSource) Fetch(_ context.Context, mints []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, mint := range mints {
		if price, exists := s.prices[mint]; exists {
			result[mint] = price
		}
	}
	return result, nil
}

// StubVolatilitySource returns fixed in-memory volatility metrics.
// Implements ingestion.VolatilitySource interface.
type StubVolatilitySource struct {
	metrics map[string]domain.VolatilityMetrics // keyed by mint
}

// NewStubVolatilitySource creates a new stub volatility source.
func NewStubVolatilitySource(metrics map[string]domain.VolatilityMetrics) *StubVolatilitySource {
	return &StubVolatilitySource{metrics: metrics}
}

// Fetch returns volatility metrics for the requested mints that have fixtures.
func (s *StubVolatilitySource) Fetch(_ context.Context, mints []string) (map[string]domain.VolatilityMetrics, error) {
	result := make(map[string]domain.VolatilityMetrics)
	for _, mint := range mints {
		if m, exists := s.metrics[mint]; exists {
			result[mint] = m
		}
	}
	return result, nil
}

// StubLiquiditySource returns fixed in-memory liquidity values.
// Implements ingestion.LiquiditySource interface.
type StubLiquiditySource struct {
	liquidity map[string]float64 // keyed by mint
}

// NewStubLiquiditySource creates a new stub liquidity source.
func NewStubLiquiditySource(liquidity map[string]float64) *StubLiquiditySource {
	return &StubLiquiditySource{liquidity: liquidity}
}

// Fetch returns liquidity for the requested mints that have fixtures.
func (s *StubLiquiditySource) Fetch(_ context.Context, mints []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, mint := range mints {
		if liq, exists := s.liquidity[mint]; exists {
			result[mint] = liq
		}
	}
	return result, nil
}

// StubConcentrationSource returns fixed in-memory concentration scores.
// Implements ingestion.ConcentrationSource interface.
type StubConcentrationSource struct {
	scores map[string]float64 // keyed by mint
}

// NewStubConcentrationSource creates a new stub concentration source.
func NewStubConcentrationSource(scores map[string]float64) *StubConcentrationSource {
	return &StubConcentrationSource{scores: scores}
}

// Fetch returns concentration scores for the requested mints that have fixtures.
func (s *StubConcentrationSource) Fetch(_ context.Context, mints []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, mint := range mints {
		if score, exists := s.scores[mint]; exists {
			result[mint] = score
		}
	}
	return result, nil
}

// StubHistorySource returns fixed in-memory signature history.
// Implements ingestion.HistorySource interface.
type StubHistorySource struct {
	history map[string][]domain.SignatureInfo // keyed by wallet address
}

// NewStubHistorySource creates a new stub history source.
func NewStubHistorySource(history map[string][]domain.SignatureInfo) *StubHistorySource {
	return &StubHistorySource{history: history}
}

// Fetch returns up to limit signatures for the wallet.
func (s *StubHistorySource) Fetch(_ context.Context, walletAddress string, limit int) ([]domain.SignatureInfo, error) {
	sigs := s.history[walletAddress]
	if limit > 0 && len(sigs) > limit {
		sigs = sigs[:limit]
	}
	result := make([]domain.SignatureInfo, len(sigs))
	copy(result, sigs)
	return result, nil
}
