package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Assessment: %s\n\n", r.AssessmentID))

	// Wallet Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallet | %s |\n", r.WalletAddress))
	sb.WriteString(fmt.Sprintf("| Overall Risk Score | %.2f |\n", r.OverallRiskScore))
	sb.WriteString(fmt.Sprintf("| Recommended Action | %s |\n", r.RecommendedAction))
	sb.WriteString(fmt.Sprintf("| Token Count | %d |\n", r.TokenCount))
	sb.WriteString(fmt.Sprintf("| Portfolio Value (USD) | %.2f |\n", r.PortfolioValueUSD))
	sb.WriteString(fmt.Sprintf("| Assessed At | %s |\n", r.AssessedAt.Format(time.RFC3339)))
	sb.WriteString("\n")

	// Token tables
	sb.WriteString("## At-Risk Tokens\n\n")
	writeTokenTable(&sb, r.AtRiskTokens)

	sb.WriteString("## Safe Tokens\n\n")
	writeTokenTable(&sb, r.SafeTokens)

	// History
	sb.WriteString("## Score History\n\n")
	if len(r.History) > 0 {
		sb.WriteString("| Assessed At | Token | Score |\n")
		sb.WriteString("|-------------|-------|-------|\n")
		for _, h := range r.History {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f |\n",
				h.AssessedAt.Format(time.RFC3339), tokenLabel(h.Symbol, h.Mint), h.RiskScore))
		}
	} else {
		sb.WriteString("No score history available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeTokenTable(sb *strings.Builder, rows []TokenRow) {
	if len(rows) == 0 {
		sb.WriteString("None.\n\n")
		return
	}
	sb.WriteString("| Token | Score | USD Value | Portfolio% | Vol24h% | Liquidity USD | Age Days | Action |\n")
	sb.WriteString("|-------|-------|-----------|------------|---------|---------------|----------|--------|\n")
	for _, t := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.0f | %.0f | %s |\n",
			tokenLabel(t.Symbol, t.Mint), t.RiskScore, t.USDValue, t.PortfolioPercent,
			t.Volatility24h, t.LiquidityUSD, t.AgeDays, t.RecommendedAction))
	}
	sb.WriteString("\n")
}

// tokenLabel prefers the symbol, falling back to a shortened mint.
func tokenLabel(symbol, mint string) string {
	if symbol != "" {
		return symbol
	}
	if len(mint) > 8 {
		return mint[:4] + ".." + mint[len(mint)-4:]
	}
	return mint
}
