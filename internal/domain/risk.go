package domain

import "time"

// RiskAction is the recommended response to a scored position.
type RiskAction string

const (
	ActionHold     RiskAction = "HOLD"
	ActionBuyCover RiskAction = "BUY_COVER"
	ActionSwap     RiskAction = "SWAP"
)

// Default risk thresholds. Scores at or above High recommend SWAP; scores
// in [Medium, High) recommend BUY_COVER for large positions, HOLD otherwise.
const (
	DefaultHighRiskThreshold   = 75.0
	DefaultMediumRiskThreshold = 50.0
)

// SignificantPositionPct is the minimum portfolio percentage for a token to
// drive the wallet-level action. Smaller positions never escalate the wallet
// verdict above HOLD.
const SignificantPositionPct = 5.0

// HedgeWorthyPositionPct is the minimum portfolio percentage for a
// medium-risk position to be worth hedging. Below it the recommendation
// stays HOLD.
const HedgeWorthyPositionPct = 15.0

// TokenRiskScore is the scored view of one token position.
type TokenRiskScore struct {
	Mint              string     `json:"mint"`
	Symbol            string     `json:"symbol"`
	RiskScore         float64    `json:"risk_score"`         // 0..100
	USDValue          float64    `json:"usd_value"`
	PortfolioPercent  float64    `json:"portfolio_percentage"` // 0..100
	Volatility24h     float64    `json:"volatility_24h"`
	LiquidityUSD      float64    `json:"liquidity_usd"`
	AgeDays           float64    `json:"age_days"`
	CentralizedScore  float64    `json:"centralized_score"` // 0..1
	RecommendedAction RiskAction `json:"recommended_action"`
}

// WalletRiskAssessment is the wallet-level verdict. AtRiskTokens holds
// positions scoring at or above the medium threshold, SafeTokens the rest;
// both are ordered by risk score descending, ties keeping input order.
type WalletRiskAssessment struct {
	AssessmentID      string            `json:"assessment_id"`
	WalletAddress     string            `json:"wallet_address"`
	OverallRiskScore  float64           `json:"overall_risk_score"` // 0..100
	RecommendedAction RiskAction        `json:"recommended_action"`
	AtRiskTokens      []*TokenRiskScore `json:"at_risk_tokens"`
	SafeTokens        []*TokenRiskScore `json:"safe_tokens"`
	TokenCount        int               `json:"token_count"`
	AssessedAt        time.Time         `json:"assessed_at"`
}

// Tokens returns all scored positions, at-risk first.
func (a *WalletRiskAssessment) Tokens() []*TokenRiskScore {
	out := make([]*TokenRiskScore, 0, len(a.AtRiskTokens)+len(a.SafeTokens))
	out = append(out, a.AtRiskTokens...)
	out = append(out, a.SafeTokens...)
	return out
}

// TokenRiskRow is one append-only history sample: a single token's score
// within one assessment. Rows are immutable once written.
type TokenRiskRow struct {
	AssessmentID      string
	WalletAddress     string
	Mint              string
	Symbol            string
	RiskScore         float64
	USDValue          float64
	PortfolioPercent  float64
	RecommendedAction RiskAction
	AssessedAt        time.Time
}

// HistoryRows flattens the assessment into per-token history rows, at-risk
// tokens first.
func (a *WalletRiskAssessment) HistoryRows() []*TokenRiskRow {
	tokens := a.Tokens()
	rows := make([]*TokenRiskRow, len(tokens))
	for i, tok := range tokens {
		rows[i] = &TokenRiskRow{
			AssessmentID:      a.AssessmentID,
			WalletAddress:     a.WalletAddress,
			Mint:              tok.Mint,
			Symbol:            tok.Symbol,
			RiskScore:         tok.RiskScore,
			USDValue:          tok.USDValue,
			PortfolioPercent:  tok.PortfolioPercent,
			RecommendedAction: tok.RecommendedAction,
			AssessedAt:        a.AssessedAt,
		}
	}
	return rows
}

// RiskExplanation is the narrative companion to an assessment, produced by
// an explanation collaborator downstream of the scoring pipeline.
type RiskExplanation struct {
	WalletAddress    string   `json:"wallet_address"`
	OverallRiskScore float64  `json:"overall_risk_score"`
	Action           string   `json:"action"`
	AtRiskToken      string   `json:"at_risk_token,omitempty"`
	Reason           string   `json:"reason"`
	Suggestions      []string `json:"suggestions"`
	Confidence       float64  `json:"confidence"` // 0..1
	Source           string   `json:"source"`     // "rules" or the LLM provider name
}
