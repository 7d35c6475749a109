// Package predictor scores feature vectors into token and wallet risk
// verdicts. Scoring goes through a pluggable model when one is loaded and
// falls back to a deterministic heuristic otherwise; the fallback never
// errors, so an assessment is always produced.
package predictor

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/idhash"
	"solana-wallet-risk/internal/observability"
)

// Predictor turns engineered features into a WalletRiskAssessment.
type Predictor struct {
	model  Model
	high   float64
	medium float64
	logger zerolog.Logger
}

// Options for creating a Predictor.
type Options struct {
	// Model is an injected scoring capability. Takes precedence over
	// ModelPath when both are set.
	Model Model

	// ModelPath optionally points at a saved model file. A missing or
	// invalid file leaves the heuristic in charge.
	ModelPath string

	// Thresholds default to domain.DefaultHighRiskThreshold and
	// domain.DefaultMediumRiskThreshold when zero.
	HighRiskThreshold   float64
	MediumRiskThreshold float64

	Logger zerolog.Logger
}

// New creates a new Predictor.
func New(opts Options) *Predictor {
	p := &Predictor{
		model:  opts.Model,
		high:   opts.HighRiskThreshold,
		medium: opts.MediumRiskThreshold,
		logger: opts.Logger,
	}
	if p.high == 0 {
		p.high = domain.DefaultHighRiskThreshold
	}
	if p.medium == 0 {
		p.medium = domain.DefaultMediumRiskThreshold
	}

	if p.model == nil && opts.ModelPath != "" {
		model, err := LoadModel(opts.ModelPath)
		if err != nil {
			opts.Logger.Warn().
				Err(err).
				Str("path", opts.ModelPath).
				Msg("model unavailable, scoring with heuristic")
		} else {
			p.model = model
			opts.Logger.Info().Str("path", opts.ModelPath).Msg("loaded risk model")
		}
	}

	return p
}

// Assess scores every vector and aggregates the wallet verdict. The matrix
// is the (possibly scaled) model input aligned row-for-row with vectors; the
// heuristic always works on the raw vectors.
func (p *Predictor) Assess(walletAddress string, vectors []*domain.FeatureVector, matrix [][]float64) *domain.WalletRiskAssessment {
	now := time.Now().UTC()
	assessment := &domain.WalletRiskAssessment{
		AssessmentID:      idhash.ComputeAssessmentID(walletAddress, now.UnixMilli()),
		WalletAddress:     walletAddress,
		RecommendedAction: domain.ActionHold,
		AssessedAt:        now,
	}
	if len(vectors) == 0 {
		return assessment
	}

	scores := p.scores(vectors, matrix)

	tokens := make([]*domain.TokenRiskScore, len(vectors))
	for i, v := range vectors {
		tokens[i] = &domain.TokenRiskScore{
			Mint:              v.Mint,
			Symbol:            v.Symbol,
			RiskScore:         scores[i],
			USDValue:          v.ValueUSD,
			PortfolioPercent:  v.PortfolioPercent,
			Volatility24h:     v.Volatility24h,
			LiquidityUSD:      v.LiquidityUSD,
			AgeDays:           v.AgeDays,
			CentralizedScore:  v.CentralizedScore,
			RecommendedAction: p.action(scores[i], v.PortfolioPercent),
		}
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].RiskScore > tokens[j].RiskScore
	})

	// Portfolio-weighted average: larger positions dominate the verdict
	var weight, weighted float64
	for _, tok := range tokens {
		weight += tok.PortfolioPercent
		weighted += tok.RiskScore * tok.PortfolioPercent
	}
	if weight > 0 {
		assessment.OverallRiskScore = weighted / weight
	}

	// Wallet action follows the riskiest significant position. Small
	// positions never escalate the wallet verdict.
	for _, tok := range tokens {
		if tok.PortfolioPercent >= domain.SignificantPositionPct {
			assessment.RecommendedAction = tok.RecommendedAction
			break
		}
	}

	for _, tok := range tokens {
		if tok.RiskScore >= p.medium {
			assessment.AtRiskTokens = append(assessment.AtRiskTokens, tok)
		} else {
			assessment.SafeTokens = append(assessment.SafeTokens, tok)
		}
	}
	assessment.TokenCount = len(tokens)

	observability.RecordTokensScored(len(tokens))

	return assessment
}

// scores runs the model over the matrix, or the heuristic over the raw
// vectors when no model is loaded or the model fails.
func (p *Predictor) scores(vectors []*domain.FeatureVector, matrix [][]float64) []float64 {
	if p.model != nil && len(matrix) == len(vectors) {
		scores, err := p.modelScores(matrix)
		if err == nil {
			return scores
		}
		p.logger.Error().Err(err).Msg("model scoring failed, using heuristic")
		observability.RecordScoringFallback()
	}

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = HeuristicScore(v)
	}
	return scores
}

func (p *Predictor) modelScores(matrix [][]float64) ([]float64, error) {
	scores := make([]float64, len(matrix))

	switch m := p.model.(type) {
	case ProbabilityModel:
		for i, row := range matrix {
			proba, err := m.PredictProba(row)
			if err != nil {
				return nil, err
			}
			if len(proba) < 2 {
				return nil, fmt.Errorf("expected class probabilities, got %d values", len(proba))
			}
			scores[i] = proba[1] * 100
		}
	case DirectModel:
		for i, row := range matrix {
			pred, err := m.Predict(row)
			if err != nil {
				return nil, err
			}
			scores[i] = pred * 100
		}
	default:
		return nil, fmt.Errorf("model %T provides no scoring capability", p.model)
	}

	return scores, nil
}

func (p *Predictor) action(score, portfolioPct float64) domain.RiskAction {
	switch {
	case score >= p.high:
		return domain.ActionSwap
	case score >= p.medium:
		// Hedging only pays for major positions
		if portfolioPct > domain.HedgeWorthyPositionPct {
			return domain.ActionBuyCover
		}
		return domain.ActionHold
	default:
		return domain.ActionHold
	}
}
