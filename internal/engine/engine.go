// Package engine coordinates a full wallet assessment:
// aggregate signals → engineer features → score → persist → broadcast.
// Persistence and streaming are best-effort side effects; only a failed
// balance fetch surfaces as an error.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/features"
	"solana-wallet-risk/internal/ingestion"
	"solana-wallet-risk/internal/observability"
	"solana-wallet-risk/internal/predictor"
	"solana-wallet-risk/internal/storage"
)

// DefaultBatchConcurrency bounds the wallet fan-out of AssessBatch.
const DefaultBatchConcurrency = 8

// Broadcaster pushes completed assessments to streaming consumers.
type Broadcaster interface {
	BroadcastAssessment(a *domain.WalletRiskAssessment)
}

// Engine runs the assessment pipeline for one wallet at a time.
type Engine struct {
	aggregator *ingestion.Aggregator
	engineer   *features.Engineer
	predictor  *predictor.Predictor

	assessments storage.AssessmentStore
	history     storage.RiskHistoryStore
	broadcaster Broadcaster

	batchConcurrency int
	logger           zerolog.Logger
}

// Options for creating an Engine.
type Options struct {
	// Required pipeline stages
	Aggregator *ingestion.Aggregator
	Engineer   *features.Engineer
	Predictor  *predictor.Predictor

	// Optional side effects; nil disables each
	Assessments storage.AssessmentStore
	History     storage.RiskHistoryStore
	Broadcaster Broadcaster

	// BatchConcurrency bounds AssessBatch. Zero means DefaultBatchConcurrency.
	BatchConcurrency int

	Logger zerolog.Logger
}

// New creates a new Engine.
func New(opts Options) *Engine {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}

	return &Engine{
		aggregator:       opts.Aggregator,
		engineer:         opts.Engineer,
		predictor:        opts.Predictor,
		assessments:      opts.Assessments,
		history:          opts.History,
		broadcaster:      opts.Broadcaster,
		batchConcurrency: opts.BatchConcurrency,
		logger:           opts.Logger,
	}
}

// Assess runs the full pipeline for one wallet. An empty wallet yields a
// zero-score HOLD assessment, not an error.
func (e *Engine) Assess(ctx context.Context, walletAddress string) (*domain.WalletRiskAssessment, error) {
	start := time.Now()

	records, err := e.aggregator.Collect(ctx, walletAddress)
	if err != nil {
		observability.RecordAssessment("error", time.Since(start).Seconds())
		return nil, err
	}

	vectors := e.engineer.Generate(records)
	matrix := e.engineer.ModelMatrix(vectors)
	assessment := e.predictor.Assess(walletAddress, vectors, matrix)

	e.persist(ctx, assessment)
	if e.broadcaster != nil {
		e.broadcaster.BroadcastAssessment(assessment)
	}

	observability.RecordAssessment("success", time.Since(start).Seconds())
	e.logger.Info().
		Str("wallet", walletAddress).
		Float64("score", assessment.OverallRiskScore).
		Str("action", string(assessment.RecommendedAction)).
		Int("tokens", assessment.TokenCount).
		Dur("took", time.Since(start)).
		Msg("wallet assessed")

	return assessment, nil
}

// persist writes the assessment and its history rows. Storage failures are
// logged, never returned: the caller already has the result.
func (e *Engine) persist(ctx context.Context, a *domain.WalletRiskAssessment) {
	if e.assessments != nil {
		if err := e.assessments.Insert(ctx, a); err != nil {
			e.logger.Warn().Err(err).Str("assessment", a.AssessmentID).Msg("assessment persist failed")
		}
	}
	if e.history != nil && a.TokenCount > 0 {
		if err := e.history.InsertRows(ctx, a.HistoryRows()); err != nil {
			e.logger.Warn().Err(err).Str("assessment", a.AssessmentID).Msg("history persist failed")
		}
	}
}

// BatchResult pairs one wallet of a batch with its outcome.
type BatchResult struct {
	WalletAddress string
	Assessment    *domain.WalletRiskAssessment
	Err           error
}

// AssessBatch assesses wallets concurrently with a bounded fan-out. Results
// keep the input order; one failed wallet does not stop the rest.
func (e *Engine) AssessBatch(ctx context.Context, wallets []string) []BatchResult {
	results := make([]BatchResult, len(wallets))

	sem := make(chan struct{}, e.batchConcurrency)
	var wg sync.WaitGroup

	for i, wallet := range wallets {
		wg.Add(1)
		go func(i int, wallet string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			a, err := e.Assess(ctx, wallet)
			results[i] = BatchResult{WalletAddress: wallet, Assessment: a, Err: err}
		}(i, wallet)
	}

	wg.Wait()
	return results
}
