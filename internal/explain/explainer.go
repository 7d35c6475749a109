// Package explain turns wallet risk assessments into narrative explanations.
// The rule-based explainer is the always-available default; the LLM explainer
// layers a language model on top and degrades to the rules on any failure.
package explain

import (
	"context"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
)

// Explainer produces a narrative explanation for an assessment.
type Explainer interface {
	Explain(ctx context.Context, assessment *domain.WalletRiskAssessment) (*domain.RiskExplanation, error)
}

// SourceRules marks explanations produced without a language model.
const SourceRules = "rules"

// RuleBasedExplainer maps the overall score into one of three fixed
// narrative bands. Deterministic; never errors.
type RuleBasedExplainer struct{}

var _ Explainer = (*RuleBasedExplainer)(nil)

// NewRuleBasedExplainer creates a new rule-based explainer.
func NewRuleBasedExplainer() *RuleBasedExplainer {
	return &RuleBasedExplainer{}
}

// Explain produces the banded narrative for the assessment.
func (e *RuleBasedExplainer) Explain(_ context.Context, a *domain.WalletRiskAssessment) (*domain.RiskExplanation, error) {
	explanation := &domain.RiskExplanation{
		WalletAddress:    a.WalletAddress,
		OverallRiskScore: a.OverallRiskScore,
		Action:           string(a.RecommendedAction),
		Source:           SourceRules,
	}
	if len(a.AtRiskTokens) > 0 {
		explanation.AtRiskToken = a.AtRiskTokens[0].Symbol
	}

	switch {
	case a.OverallRiskScore >= domain.DefaultHighRiskThreshold:
		explanation.Reason = "Your portfolio contains high-risk assets with significant volatility and low liquidity. Immediate action is recommended to reduce exposure."
		explanation.Suggestions = []string{
			"Swap high-risk tokens for stablecoins like USDC",
			"Reduce concentration in volatile assets",
			"Consider hedging strategies for remaining positions",
		}
		explanation.Confidence = 0.85
	case a.OverallRiskScore >= domain.DefaultMediumRiskThreshold:
		explanation.Reason = "Your portfolio has moderate risk exposure with some volatility. Consider insurance or partial rebalancing."
		explanation.Suggestions = []string{
			"Look into DeFi insurance protocols for your larger positions",
			"Diversify into some lower-risk assets",
			"Monitor market conditions closely",
		}
		explanation.Confidence = 0.75
	default:
		explanation.Reason = "Your portfolio is relatively low-risk. Continue to hold but monitor market conditions."
		explanation.Suggestions = []string{
			"Maintain current positions",
			"Set up alerts for any sudden market changes",
			"Consider DCA strategies for any new investments",
		}
		explanation.Confidence = 0.9
	}

	observability.RecordExplanation(SourceRules)

	return explanation, nil
}
