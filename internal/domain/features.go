package domain

// ModelFeatureCount is the width of the scoring matrix row produced from a
// FeatureVector. Scaler profiles and model weights must match this width.
const ModelFeatureCount = 9

// FeatureVector is the fixed-schema engineered view of one token position.
// Raw fields pass through from the unified record; the three derived fields
// are computed by the feature engineer. All values are finite.
type FeatureVector struct {
	Mint             string
	Symbol           string
	ValueUSD         float64
	PortfolioPercent float64
	AgeDays          float64
	Volatility24h    float64
	PriceChange24h   float64
	LiquidityUSD     float64
	CentralizedScore float64

	// Derived signals.
	PositionLiquidityRatio float64 // position size vs pool depth, capped at 100
	VolatilityAgeAdjusted  float64 // volatility discounted for mature holdings
	ConcentrationRisk      float64 // position weight x whale concentration, 0..1
}

// ModelRow flattens the vector into the scoring matrix column order.
func (f *FeatureVector) ModelRow() []float64 {
	return []float64{
		f.PortfolioPercent,
		f.AgeDays,
		f.Volatility24h,
		f.PriceChange24h,
		f.LiquidityUSD,
		f.CentralizedScore,
		f.PositionLiquidityRatio,
		f.VolatilityAgeAdjusted,
		f.ConcentrationRisk,
	}
}
