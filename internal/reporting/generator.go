// Package reporting renders wallet risk assessments as Markdown or CSV.
package reporting

import (
	"context"
	"time"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/storage"
)

// Generator produces reports from assessments and stored history.
type Generator struct {
	history storage.RiskHistoryStore // optional; nil disables the trend section
	now     func() time.Time         // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. The history store may be nil.
func NewGenerator(history storage.RiskHistoryStore) *Generator {
	return &Generator{
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report for one assessment. When a history store is
// wired, prior samples for the wallet fill the trend section.
func (g *Generator) Generate(ctx context.Context, a *domain.WalletRiskAssessment) (*Report, error) {
	r := &Report{
		GeneratedAt:       g.now(),
		AssessmentID:      a.AssessmentID,
		WalletAddress:     a.WalletAddress,
		OverallRiskScore:  a.OverallRiskScore,
		RecommendedAction: string(a.RecommendedAction),
		TokenCount:        a.TokenCount,
		AssessedAt:        a.AssessedAt,
		AtRiskTokens:      tokenRows(a.AtRiskTokens),
		SafeTokens:        tokenRows(a.SafeTokens),
	}

	for _, t := range a.Tokens() {
		r.PortfolioValueUSD += t.USDValue
	}

	if g.history != nil {
		rows, err := g.history.GetByWallet(ctx, a.WalletAddress)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			r.History = append(r.History, HistoryRow{
				AssessedAt: row.AssessedAt,
				Mint:       row.Mint,
				Symbol:     row.Symbol,
				RiskScore:  row.RiskScore,
			})
		}
	}

	return r, nil
}

func tokenRows(tokens []*domain.TokenRiskScore) []TokenRow {
	rows := make([]TokenRow, 0, len(tokens))
	for _, t := range tokens {
		rows = append(rows, TokenRow{
			Mint:              t.Mint,
			Symbol:            t.Symbol,
			RiskScore:         t.RiskScore,
			USDValue:          t.USDValue,
			PortfolioPercent:  t.PortfolioPercent,
			Volatility24h:     t.Volatility24h,
			LiquidityUSD:      t.LiquidityUSD,
			AgeDays:           t.AgeDays,
			RecommendedAction: string(t.RecommendedAction),
		})
	}
	return rows
}
