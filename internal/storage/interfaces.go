package storage

import (
	"context"
	"time"

	"solana-wallet-risk/internal/domain"
)

// AssessmentStore provides access to wallet_assessments storage.
type AssessmentStore interface {
	// Insert adds a new assessment. Returns ErrDuplicateKey if assessment_id exists.
	Insert(ctx context.Context, a *domain.WalletRiskAssessment) error

	// GetByID retrieves an assessment by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, assessmentID string) (*domain.WalletRiskAssessment, error)

	// GetLatestByWallet retrieves the most recent assessment for a wallet.
	// Returns ErrNotFound if the wallet has never been assessed.
	GetLatestByWallet(ctx context.Context, walletAddress string) (*domain.WalletRiskAssessment, error)

	// ListByWallet retrieves assessments for a wallet, newest first, capped
	// at limit (0 means no cap).
	ListByWallet(ctx context.Context, walletAddress string, limit int) ([]*domain.WalletRiskAssessment, error)
}

// RiskHistoryStore provides access to token_risk_history storage: one row
// per scored token per assessment, append-only.
type RiskHistoryStore interface {
	// InsertRows adds the per-token rows of one assessment.
	InsertRows(ctx context.Context, rows []*domain.TokenRiskRow) error

	// GetByWallet retrieves all rows for a wallet, ordered by assessed_at ASC.
	GetByWallet(ctx context.Context, walletAddress string) ([]*domain.TokenRiskRow, error)

	// GetByWalletRange retrieves rows for a wallet within [start, end] (inclusive).
	GetByWalletRange(ctx context.Context, walletAddress string, start, end time.Time) ([]*domain.TokenRiskRow, error)
}
