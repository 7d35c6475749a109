package ingestion

import (
	"context"
	"sort"
	"strings"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/domain"
)

// BalanceSource provides wallet holdings. This is the only load-bearing
// source: the aggregator fails the whole collection when it errors.
type BalanceSource interface {
	// Fetch returns the wallet's positive token holdings and native balance.
	Fetch(ctx context.Context, walletAddress string) (*domain.WalletBalances, error)
}

// MetadataSource provides token metadata keyed by mint. Mints that cannot be
// resolved are simply absent from the result.
type MetadataSource interface {
	Fetch(ctx context.Context, mints []string) (map[string]domain.TokenMetadata, error)
}

// PriceSource provides USD spot prices keyed by mint.
type PriceSource interface {
	Fetch(ctx context.Context, mints []string) (map[string]float64, error)
}

// VolatilitySource provides volatility metrics keyed by mint.
type VolatilitySource interface {
	Fetch(ctx context.Context, mints []string) (map[string]domain.VolatilityMetrics, error)
}

// LiquiditySource provides pool TVL in USD keyed by mint.
type LiquiditySource interface {
	Fetch(ctx context.Context, mints []string) (map[string]float64, error)
}

// ConcentrationSource provides whale concentration scores (0..1) keyed by mint.
type ConcentrationSource interface {
	Fetch(ctx context.Context, mints []string) (map[string]float64, error)
}

// HistorySource provides the wallet's recent transaction signatures.
type HistorySource interface {
	Fetch(ctx context.Context, walletAddress string, limit int) ([]domain.SignatureInfo, error)
}

// mintSetKey builds a cache key for a set of mints that is stable under
// input ordering.
func mintSetKey(prefix string, mints []string) string {
	sorted := make([]string, len(mints))
	copy(sorted, mints)
	sort.Strings(sorted)
	return cache.Key(prefix, strings.Join(sorted, ","))
}
