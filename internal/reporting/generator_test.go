package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/storage/memory"
)

func testAssessment() *domain.WalletRiskAssessment {
	return &domain.WalletRiskAssessment{
		AssessmentID:      "assess-1",
		WalletAddress:     "wallet1",
		OverallRiskScore:  62.5,
		RecommendedAction: domain.ActionSwap,
		AtRiskTokens: []*domain.TokenRiskScore{
			{Mint: "mint1", Symbol: "RISKY", RiskScore: 80, USDValue: 500, PortfolioPercent: 50, Volatility24h: 12, LiquidityUSD: 10000, AgeDays: 5, RecommendedAction: domain.ActionSwap},
		},
		SafeTokens: []*domain.TokenRiskScore{
			{Mint: "mint2", Symbol: "SAFE", RiskScore: 20, USDValue: 500, PortfolioPercent: 50, Volatility24h: 1, LiquidityUSD: 5000000, AgeDays: 400, RecommendedAction: domain.ActionHold},
		},
		TokenCount: 2,
		AssessedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	a := testAssessment()

	history := memory.NewRiskHistoryStore()
	prior := []*domain.TokenRiskRow{
		{AssessmentID: "assess-0", WalletAddress: "wallet1", Mint: "mint1", Symbol: "RISKY", RiskScore: 70, AssessedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)},
	}
	if err := history.InsertRows(ctx, prior); err != nil {
		t.Fatalf("InsertRows failed: %v", err)
	}

	now := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(history).WithClock(func() time.Time { return now })

	r, err := gen.Generate(ctx, a)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if r.GeneratedAt != now {
		t.Errorf("Expected clock time, got %v", r.GeneratedAt)
	}
	if r.OverallRiskScore != 62.5 {
		t.Errorf("Score mismatch: %v", r.OverallRiskScore)
	}
	if r.PortfolioValueUSD != 1000 {
		t.Errorf("Expected portfolio value 1000, got %v", r.PortfolioValueUSD)
	}
	if len(r.AtRiskTokens) != 1 || r.AtRiskTokens[0].Symbol != "RISKY" {
		t.Errorf("Unexpected at-risk tokens: %+v", r.AtRiskTokens)
	}
	if len(r.History) != 1 || r.History[0].RiskScore != 70 {
		t.Errorf("Unexpected history: %+v", r.History)
	}
}

func TestGenerate_NoHistoryStore(t *testing.T) {
	gen := NewGenerator(nil)
	r, err := gen.Generate(context.Background(), testAssessment())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.History) != 0 {
		t.Errorf("Expected empty history, got %d rows", len(r.History))
	}
}

func TestRenderMarkdown(t *testing.T) {
	gen := NewGenerator(nil)
	r, err := gen.Generate(context.Background(), testAssessment())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Wallet Risk Report",
		"| Wallet | wallet1 |",
		"| Overall Risk Score | 62.50 |",
		"| Recommended Action | SWAP |",
		"## At-Risk Tokens",
		"| RISKY | 80.00 |",
		"## Safe Tokens",
		"| SAFE | 20.00 |",
		"No score history available.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	gen := NewGenerator(nil)
	r, err := gen.Generate(context.Background(), testAssessment())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	csv := RenderCSV(r)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "wallet_address,mint,symbol,risk_score") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	// At-risk tokens come first
	if !strings.Contains(lines[1], "RISKY") {
		t.Errorf("Expected at-risk row first: %s", lines[1])
	}
	if !strings.Contains(lines[2], "SAFE") {
		t.Errorf("Expected safe row second: %s", lines[2])
	}
}
