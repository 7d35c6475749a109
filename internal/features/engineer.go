// Package features turns unified token records into model-ready feature
// vectors and scaled input matrices.
package features

import (
	"math"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
)

// DustThresholdUSD filters positions too small to matter. Tokens below it
// never reach the model.
const DustThresholdUSD = 0.01

// Engineer generates feature vectors from token records and prepares the
// numeric model input. Scaling is optional: when no scaler is loaded, or
// scaling fails, the raw matrix is used.
type Engineer struct {
	scaler *Scaler
	logger zerolog.Logger
}

// Options for creating an Engineer.
type Options struct {
	// ScalerPath optionally points at saved min-max scaler bounds. A missing
	// or unreadable file disables scaling.
	ScalerPath string
	Logger     zerolog.Logger
}

// New creates a new Engineer.
func New(opts Options) *Engineer {
	e := &Engineer{logger: opts.Logger}
	if opts.ScalerPath != "" {
		scaler, err := LoadScaler(opts.ScalerPath)
		if err != nil {
			opts.Logger.Warn().
				Err(err).
				Str("path", opts.ScalerPath).
				Msg("scaler unavailable, features will not be scaled")
		} else {
			e.scaler = scaler
			opts.Logger.Info().Str("path", opts.ScalerPath).Msg("loaded feature scaler")
		}
	}
	return e
}

// Generate builds one feature vector per token record, skipping dust
// positions. Non-finite inputs are zeroed before the derived features are
// computed.
//
// Derived features:
//   - position_liquidity_ratio = min(value_usd / liquidity_usd * 100, 100), 0 when liquidity is 0
//   - volatility_age_adjusted  = volatility_24h * (1 - min(age_days/30, 1) * 0.5)
//   - concentration_risk       = portfolio_pct / 100 * centralized_score
func (e *Engineer) Generate(records []*domain.UnifiedTokenRecord) []*domain.FeatureVector {
	vectors := make([]*domain.FeatureVector, 0, len(records))

	for _, r := range records {
		if r.ValueUSD < DustThresholdUSD {
			continue
		}

		v := &domain.FeatureVector{
			Mint:             r.Holding.Mint,
			Symbol:           r.Market.Symbol,
			ValueUSD:         sanitize(r.ValueUSD),
			PortfolioPercent: sanitize(r.PortfolioPercent),
			AgeDays:          sanitize(r.Market.AgeDays),
			Volatility24h:    sanitize(r.Market.Volatility24h),
			PriceChange24h:   sanitize(r.Market.PriceChange24h),
			LiquidityUSD:     sanitize(r.Market.LiquidityUSD),
			CentralizedScore: sanitize(r.Market.CentralizedScore),
		}

		// Low liquidity relative to position size is risky
		if v.LiquidityUSD > 0 {
			v.PositionLiquidityRatio = math.Min(v.ValueUSD/v.LiquidityUSD*100, 100)
		}

		// Newly acquired volatile assets are riskier
		ageFactor := math.Min(v.AgeDays/30, 1)
		v.VolatilityAgeAdjusted = v.Volatility24h * (1 - ageFactor*0.5)

		// Large positions in whale-heavy tokens are risky
		v.ConcentrationRisk = v.PortfolioPercent / 100 * v.CentralizedScore

		vectors = append(vectors, v)
	}

	return vectors
}

// ModelMatrix flattens the vectors into the scoring matrix, one row per
// vector in the fixed column order, applying the scaler when one is loaded.
// A scaling failure is reported and the raw matrix is returned.
func (e *Engineer) ModelMatrix(vectors []*domain.FeatureVector) [][]float64 {
	if len(vectors) == 0 {
		return nil
	}

	matrix := make([][]float64, len(vectors))
	for i, v := range vectors {
		matrix[i] = v.ModelRow()
	}

	if e.scaler == nil {
		return matrix
	}

	scaled, err := e.scaler.Transform(matrix)
	if err != nil {
		e.logger.Error().Err(err).Msg("feature scaling failed, using raw features")
		observability.RecordScalingFallback()
		return matrix
	}
	return scaled
}

// sanitize maps NaN and infinities to zero so a bad upstream value cannot
// poison the model input.
func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
