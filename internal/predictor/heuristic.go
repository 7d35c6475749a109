package predictor

import (
	"math"

	"solana-wallet-risk/internal/domain"
)

// HeuristicScore computes the deterministic fallback risk score for one
// position. Pure function of the raw (unscaled) feature vector; the result
// is always in [0, 100].
func HeuristicScore(v *domain.FeatureVector) float64 {
	// Base risk starts at 30 (moderate)
	risk := 30.0

	// High volatility increases risk
	risk += math.Min(v.Volatility24h*5, 30)

	// Price decline increases risk
	if v.PriceChange24h < 0 {
		risk += math.Min(math.Abs(v.PriceChange24h)*2, 20)
	}

	// Low liquidity increases risk; unknown (zero) liquidity adds nothing
	if v.LiquidityUSD > 0 {
		risk += math.Min(5_000_000/v.LiquidityUSD, 20)
	}

	// High whale concentration increases risk
	risk += v.CentralizedScore * 10

	// New tokens are riskier
	if v.AgeDays < 30 {
		risk += math.Max(0, (30-v.AgeDays)*0.5)
	}

	return math.Max(0, math.Min(100, risk))
}
