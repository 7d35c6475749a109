package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/storage"
)

// AssessmentStore is an in-memory implementation of storage.AssessmentStore.
type AssessmentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletRiskAssessment // keyed by assessment_id
}

// NewAssessmentStore creates a new in-memory assessment store.
func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{
		data: make(map[string]*domain.WalletRiskAssessment),
	}
}

// Verify interface compliance at compile time.
var _ storage.AssessmentStore = (*AssessmentStore)(nil)

// Insert adds a new assessment. Returns ErrDuplicateKey if assessment_id exists.
func (s *AssessmentStore) Insert(_ context.Context, a *domain.WalletRiskAssessment) error {
	if a == nil || a.AssessmentID == "" || a.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AssessmentID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[a.AssessmentID] = copyAssessment(a)
	return nil
}

// GetByID retrieves an assessment by its ID. Returns ErrNotFound if not exists.
func (s *AssessmentStore) GetByID(_ context.Context, assessmentID string) (*domain.WalletRiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[assessmentID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAssessment(a), nil
}

// GetLatestByWallet retrieves the most recent assessment for a wallet.
func (s *AssessmentStore) GetLatestByWallet(_ context.Context, walletAddress string) (*domain.WalletRiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.WalletRiskAssessment
	for _, a := range s.data {
		if a.WalletAddress != walletAddress {
			continue
		}
		if latest == nil || a.AssessedAt.After(latest.AssessedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyAssessment(latest), nil
}

// ListByWallet retrieves assessments for a wallet, newest first.
func (s *AssessmentStore) ListByWallet(_ context.Context, walletAddress string, limit int) ([]*domain.WalletRiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WalletRiskAssessment
	for _, a := range s.data {
		if a.WalletAddress == walletAddress {
			result = append(result, copyAssessment(a))
		}
	}

	// Sort by assessed_at DESC, assessment_id as tiebreak for stability
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AssessedAt.Equal(result[j].AssessedAt) {
			return result[i].AssessedAt.After(result[j].AssessedAt)
		}
		return result[i].AssessmentID < result[j].AssessmentID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// copyAssessment deep-copies an assessment so callers cannot mutate stored state.
func copyAssessment(a *domain.WalletRiskAssessment) *domain.WalletRiskAssessment {
	out := *a
	out.AtRiskTokens = copyTokens(a.AtRiskTokens)
	out.SafeTokens = copyTokens(a.SafeTokens)
	return &out
}

func copyTokens(tokens []*domain.TokenRiskScore) []*domain.TokenRiskScore {
	if tokens == nil {
		return nil
	}
	out := make([]*domain.TokenRiskScore, len(tokens))
	for i, t := range tokens {
		tokenCopy := *t
		out[i] = &tokenCopy
	}
	return out
}
