package predictor

import (
	"math"
	"testing"

	"solana-wallet-risk/internal/domain"
)

func TestHeuristicScore_WorkedScenario(t *testing.T) {
	// vol=10 (+30 capped), decline -5 (+10), liq=0 (+0), conc=0.9 (+9),
	// age=5 (+12.5): 30 + 30 + 10 + 0 + 9 + 12.5 = 91.5
	v := &domain.FeatureVector{
		Volatility24h:    10,
		PriceChange24h:   -5,
		LiquidityUSD:     0,
		CentralizedScore: 0.9,
		AgeDays:          5,
	}

	got := HeuristicScore(v)
	if math.Abs(got-91.5) > 1e-9 {
		t.Errorf("Expected score 91.5, got %v", got)
	}
}

func TestHeuristicScore_ZeroVector(t *testing.T) {
	// Base 30 plus the full new-token bump (age 0 -> +15)
	got := HeuristicScore(&domain.FeatureVector{})
	if got != 45.0 {
		t.Errorf("Expected score 45 for zero vector, got %v", got)
	}
}

func TestHeuristicScore_MatureLiquidToken(t *testing.T) {
	// liq=5M contributes exactly 1; everything else quiet
	v := &domain.FeatureVector{
		Volatility24h:  0,
		PriceChange24h: 5,
		LiquidityUSD:   5_000_000,
		AgeDays:        365,
	}

	got := HeuristicScore(v)
	if math.Abs(got-31.0) > 1e-9 {
		t.Errorf("Expected score 31, got %v", got)
	}
}

func TestHeuristicScore_AllCapsClamped(t *testing.T) {
	// 30 + 30 + 20 + 20 + 10 + 15 = 125, clamped to 100
	v := &domain.FeatureVector{
		Volatility24h:    100,
		PriceChange24h:   -100,
		LiquidityUSD:     1,
		CentralizedScore: 1,
		AgeDays:          0,
	}

	got := HeuristicScore(v)
	if got != 100.0 {
		t.Errorf("Expected score clamped to 100, got %v", got)
	}
}

func TestHeuristicScore_PositiveChangeNoPenalty(t *testing.T) {
	flat := HeuristicScore(&domain.FeatureVector{AgeDays: 100})
	up := HeuristicScore(&domain.FeatureVector{AgeDays: 100, PriceChange24h: 10})

	if up != flat {
		t.Errorf("Expected rising price to add nothing: flat=%v up=%v", flat, up)
	}
}

func TestHeuristicScore_Deterministic(t *testing.T) {
	v := &domain.FeatureVector{
		Volatility24h:    3.7,
		PriceChange24h:   -1.2,
		LiquidityUSD:     123456,
		CentralizedScore: 0.44,
		AgeDays:          17,
	}

	first := HeuristicScore(v)
	for i := 0; i < 10; i++ {
		if got := HeuristicScore(v); got != first {
			t.Fatalf("Run %d: expected %v, got %v", i, first, got)
		}
	}
}
