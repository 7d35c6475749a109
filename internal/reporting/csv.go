package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders all token rows as a CSV string, at-risk tokens first.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("wallet_address,mint,symbol,risk_score,usd_value,portfolio_pct,")
	sb.WriteString("volatility_24h,liquidity_usd,age_days,recommended_action\n")

	// Rows
	for _, t := range append(append([]TokenRow{}, r.AtRiskTokens...), r.SafeTokens...) {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.2f,%s\n",
			r.WalletAddress,
			t.Mint,
			t.Symbol,
			t.RiskScore,
			t.USDValue,
			t.PortfolioPercent,
			t.Volatility24h,
			t.LiquidityUSD,
			t.AgeDays,
			t.RecommendedAction,
		))
	}

	return sb.String()
}
