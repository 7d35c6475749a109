package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
	"solana-wallet-risk/internal/storage"
)

// AssessmentStore implements storage.AssessmentStore using PostgreSQL.
// Token detail travels as JSONB; the wallet-level columns stay relational so
// wallets can be queried without unpacking the token lists.
type AssessmentStore struct {
	pool *Pool
}

// NewAssessmentStore creates a new AssessmentStore.
func NewAssessmentStore(pool *Pool) *AssessmentStore {
	return &AssessmentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssessmentStore = (*AssessmentStore)(nil)

// Insert adds a new assessment. Returns ErrDuplicateKey if assessment_id exists.
func (s *AssessmentStore) Insert(ctx context.Context, a *domain.WalletRiskAssessment) error {
	if a == nil || a.AssessmentID == "" || a.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	atRisk, err := json.Marshal(tokensOrEmpty(a.AtRiskTokens))
	if err != nil {
		return fmt.Errorf("marshal at_risk_tokens: %w", err)
	}
	safe, err := json.Marshal(tokensOrEmpty(a.SafeTokens))
	if err != nil {
		return fmt.Errorf("marshal safe_tokens: %w", err)
	}

	query := `
		INSERT INTO wallet_assessments (
			assessment_id, wallet_address, overall_risk_score, recommended_action,
			token_count, at_risk_tokens, safe_tokens, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		a.AssessmentID,
		a.WalletAddress,
		a.OverallRiskScore,
		string(a.RecommendedAction),
		a.TokenCount,
		atRisk,
		safe,
		a.AssessedAt,
	)
	observability.RecordDBQuery("postgres", "insert_assessment", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

const assessmentColumns = `
	assessment_id, wallet_address, overall_risk_score, recommended_action,
	token_count, at_risk_tokens, safe_tokens, assessed_at
`

// GetByID retrieves an assessment by its ID. Returns ErrNotFound if not exists.
func (s *AssessmentStore) GetByID(ctx context.Context, assessmentID string) (*domain.WalletRiskAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM wallet_assessments
		WHERE assessment_id = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, assessmentID)
	a, err := scanAssessment(row)
	observability.RecordDBQuery("postgres", "get_assessment", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get assessment by id: %w", err)
	}
	return a, nil
}

// GetLatestByWallet retrieves the most recent assessment for a wallet.
func (s *AssessmentStore) GetLatestByWallet(ctx context.Context, walletAddress string) (*domain.WalletRiskAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM wallet_assessments
		WHERE wallet_address = $1
		ORDER BY assessed_at DESC, assessment_id ASC
		LIMIT 1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, walletAddress)
	a, err := scanAssessment(row)
	observability.RecordDBQuery("postgres", "get_latest_assessment", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest assessment: %w", err)
	}
	return a, nil
}

// ListByWallet retrieves assessments for a wallet, newest first.
func (s *AssessmentStore) ListByWallet(ctx context.Context, walletAddress string, limit int) ([]*domain.WalletRiskAssessment, error) {
	query := `
		SELECT ` + assessmentColumns + `
		FROM wallet_assessments
		WHERE wallet_address = $1
		ORDER BY assessed_at DESC, assessment_id ASC
	`
	args := []any{walletAddress}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	observability.RecordDBQuery("postgres", "list_assessments", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var result []*domain.WalletRiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessment rows: %w", err)
	}
	return result, nil
}

// scanAssessment scans a single row into a WalletRiskAssessment.
func scanAssessment(row pgx.Row) (*domain.WalletRiskAssessment, error) {
	var a domain.WalletRiskAssessment
	var actionStr string
	var atRisk, safe []byte

	err := row.Scan(
		&a.AssessmentID,
		&a.WalletAddress,
		&a.OverallRiskScore,
		&actionStr,
		&a.TokenCount,
		&atRisk,
		&safe,
		&a.AssessedAt,
	)
	if err != nil {
		return nil, err
	}

	a.RecommendedAction = domain.RiskAction(actionStr)
	if err := json.Unmarshal(atRisk, &a.AtRiskTokens); err != nil {
		return nil, fmt.Errorf("unmarshal at_risk_tokens: %w", err)
	}
	if err := json.Unmarshal(safe, &a.SafeTokens); err != nil {
		return nil, fmt.Errorf("unmarshal safe_tokens: %w", err)
	}
	if len(a.AtRiskTokens) == 0 {
		a.AtRiskTokens = nil
	}
	if len(a.SafeTokens) == 0 {
		a.SafeTokens = nil
	}
	return &a, nil
}

// tokensOrEmpty keeps nil token lists serializing as [] rather than null.
func tokensOrEmpty(tokens []*domain.TokenRiskScore) []*domain.TokenRiskScore {
	if tokens == nil {
		return []*domain.TokenRiskScore{}
	}
	return tokens
}
