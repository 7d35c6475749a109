package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
	"solana-wallet-risk/internal/storage"
)

// RiskHistoryStore implements storage.RiskHistoryStore using ClickHouse.
// token_risk_history is an append-only MergeTree ordered by
// (wallet_address, assessed_at); duplicates are prevented upstream by the
// deterministic assessment IDs, not by the engine.
type RiskHistoryStore struct {
	conn *Conn
}

// NewRiskHistoryStore creates a new RiskHistoryStore.
func NewRiskHistoryStore(conn *Conn) *RiskHistoryStore {
	return &RiskHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RiskHistoryStore = (*RiskHistoryStore)(nil)

// InsertRows adds the per-token rows of one assessment.
func (s *RiskHistoryStore) InsertRows(ctx context.Context, rows []*domain.TokenRiskRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.AssessmentID == "" || r.WalletAddress == "" || r.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	err := s.insertBatch(ctx, rows)
	observability.RecordDBQuery("clickhouse", "insert_history", time.Since(start).Seconds(), err)
	return err
}

func (s *RiskHistoryStore) insertBatch(ctx context.Context, rows []*domain.TokenRiskRow) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_risk_history (
			assessment_id, wallet_address, mint, symbol,
			risk_score, usd_value, portfolio_pct, recommended_action, assessed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.AssessmentID, r.WalletAddress, r.Mint, r.Symbol,
			r.RiskScore, r.USDValue, r.PortfolioPercent,
			string(r.RecommendedAction), r.AssessedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

const historyColumns = `
	assessment_id, wallet_address, mint, symbol,
	risk_score, usd_value, portfolio_pct, recommended_action, assessed_at
`

// GetByWallet retrieves all rows for a wallet, ordered by assessed_at ASC.
func (s *RiskHistoryStore) GetByWallet(ctx context.Context, walletAddress string) ([]*domain.TokenRiskRow, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM token_risk_history
		WHERE wallet_address = ?
		ORDER BY assessed_at ASC, mint ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, walletAddress)
	observability.RecordDBQuery("clickhouse", "get_history", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanHistoryRows(rows)
}

// GetByWalletRange retrieves rows for a wallet within [start, end] (inclusive).
func (s *RiskHistoryStore) GetByWalletRange(ctx context.Context, walletAddress string, start, end time.Time) ([]*domain.TokenRiskRow, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM token_risk_history
		WHERE wallet_address = ? AND assessed_at >= ? AND assessed_at <= ?
		ORDER BY assessed_at ASC, mint ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, walletAddress, start, end)
	observability.RecordDBQuery("clickhouse", "get_history_range", time.Since(began).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by wallet range: %w", err)
	}
	defer rows.Close()

	return scanHistoryRows(rows)
}

// scanHistoryRows scans multiple rows into TokenRiskRow values.
func scanHistoryRows(rows driver.Rows) ([]*domain.TokenRiskRow, error) {
	var result []*domain.TokenRiskRow

	for rows.Next() {
		var r domain.TokenRiskRow
		var actionStr string

		err := rows.Scan(
			&r.AssessmentID,
			&r.WalletAddress,
			&r.Mint,
			&r.Symbol,
			&r.RiskScore,
			&r.USDValue,
			&r.PortfolioPercent,
			&actionStr,
			&r.AssessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		r.RecommendedAction = domain.RiskAction(actionStr)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return result, nil
}
