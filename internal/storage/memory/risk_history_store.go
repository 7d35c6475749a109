package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/storage"
)

// RiskHistoryStore is an in-memory implementation of storage.RiskHistoryStore.
type RiskHistoryStore struct {
	mu   sync.RWMutex
	rows []*domain.TokenRiskRow
}

// NewRiskHistoryStore creates a new in-memory risk history store.
func NewRiskHistoryStore() *RiskHistoryStore {
	return &RiskHistoryStore{}
}

// Verify interface compliance at compile time.
var _ storage.RiskHistoryStore = (*RiskHistoryStore)(nil)

// InsertRows adds the per-token rows of one assessment.
func (s *RiskHistoryStore) InsertRows(_ context.Context, rows []*domain.TokenRiskRow) error {
	for _, r := range rows {
		if r == nil || r.AssessmentID == "" || r.WalletAddress == "" || r.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		rowCopy := *r
		s.rows = append(s.rows, &rowCopy)
	}
	return nil
}

// GetByWallet retrieves all rows for a wallet, ordered by assessed_at ASC.
func (s *RiskHistoryStore) GetByWallet(_ context.Context, walletAddress string) ([]*domain.TokenRiskRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenRiskRow
	for _, r := range s.rows {
		if r.WalletAddress == walletAddress {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sortRows(result)
	return result, nil
}

// GetByWalletRange retrieves rows for a wallet within [start, end] (inclusive).
func (s *RiskHistoryStore) GetByWalletRange(_ context.Context, walletAddress string, start, end time.Time) ([]*domain.TokenRiskRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenRiskRow
	for _, r := range s.rows {
		if r.WalletAddress != walletAddress {
			continue
		}
		if r.AssessedAt.Before(start) || r.AssessedAt.After(end) {
			continue
		}
		rowCopy := *r
		result = append(result, &rowCopy)
	}

	sortRows(result)
	return result, nil
}

// sortRows orders by assessed_at ASC with mint as tiebreak for stability.
func sortRows(rows []*domain.TokenRiskRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].AssessedAt.Equal(rows[j].AssessedAt) {
			return rows[i].AssessedAt.Before(rows[j].AssessedAt)
		}
		return rows[i].Mint < rows[j].Mint
	})
}
