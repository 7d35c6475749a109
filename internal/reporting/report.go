package reporting

import "time"

// Report is a renderable snapshot of one wallet assessment, optionally
// enriched with score history pulled from storage.
type Report struct {
	// Metadata
	GeneratedAt  time.Time
	AssessmentID string

	// Wallet Summary
	WalletAddress     string
	OverallRiskScore  float64
	RecommendedAction string
	TokenCount        int
	PortfolioValueUSD float64
	AssessedAt        time.Time

	// Token tables, ordered by risk score descending
	AtRiskTokens []TokenRow
	SafeTokens   []TokenRow

	// History trend, oldest first. Empty when no history store is wired.
	History []HistoryRow
}

// TokenRow is one scored position in a token table.
type TokenRow struct {
	Mint              string
	Symbol            string
	RiskScore         float64
	USDValue          float64
	PortfolioPercent  float64
	Volatility24h     float64
	LiquidityUSD      float64
	AgeDays           float64
	RecommendedAction string
}

// HistoryRow is one prior score sample for the wallet.
type HistoryRow struct {
	AssessedAt time.Time
	Mint       string
	Symbol     string
	RiskScore  float64
}
