package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/engine"
	"solana-wallet-risk/internal/explain"
	"solana-wallet-risk/internal/features"
	"solana-wallet-risk/internal/ingestion"
	"solana-wallet-risk/internal/ingestion/stub"
	"solana-wallet-risk/internal/predictor"
	"solana-wallet-risk/internal/storage/memory"
)

const testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

// A second valid base58 address for batch tests.
const testWallet2 = "So11111111111111111111111111111111111111112"

func init() {
	gin.SetMode(gin.TestMode)
}

// failingBalanceSource always errors.
type failingBalanceSource struct{}

func (failingBalanceSource) Fetch(_ context.Context, walletAddress string) (*domain.WalletBalances, error) {
	return nil, &ingestion.UpstreamError{Source: "balances", Err: errors.New("rpc down")}
}

func newTestRouter(t *testing.T, balances ingestion.BalanceSource) *gin.Engine {
	t.Helper()

	aggregator := ingestion.New(ingestion.Options{
		Balances: balances,
		Prices: stub.NewStubPriceSource(map[string]float64{
			"mint1":              2.0,
			domain.NativeSOLMint: 150.0,
		}),
		Volatility: stub.NewStubVolatilitySource(map[string]domain.VolatilityMetrics{
			"mint1": {Volatility24h: 10, PriceChange24h: -5},
		}),
		Liquidity: stub.NewStubLiquiditySource(map[string]float64{
			"mint1": 50000,
		}),
		Concentration: stub.NewStubConcentrationSource(map[string]float64{
			"mint1": 0.9,
		}),
	})

	eng := engine.New(engine.Options{
		Aggregator:  aggregator,
		Engineer:    features.New(features.Options{}),
		Predictor:   predictor.New(predictor.Options{}),
		Assessments: memory.NewAssessmentStore(),
		History:     memory.NewRiskHistoryStore(),
	})

	return NewRouter(Options{
		Engine:    eng,
		Explainer: explain.NewRuleBasedExplainer(),
	})
}

func stubBalances() ingestion.BalanceSource {
	return stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
		testWallet: {
			WalletAddress: testWallet,
			Tokens:        []domain.TokenHolding{{Mint: "mint1", Amount: 100}},
			SOLBalance:    2,
		},
		testWallet2: {
			WalletAddress: testWallet2,
			SOLBalance:    1,
		},
	})
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

func TestAssess(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	w := postJSON(t, router, "/api/v1/assess", fmt.Sprintf(`{"wallet_address":%q}`, testWallet))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AssessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if resp.WalletAddress != testWallet {
		t.Errorf("Wallet mismatch: %s", resp.WalletAddress)
	}
	if resp.TokenCount != 2 {
		t.Errorf("Expected 2 tokens, got %d", resp.TokenCount)
	}
	if resp.Explanation != nil {
		t.Error("Explanation should be omitted unless requested")
	}
	if w.Header().Get("X-Process-Time") == "" {
		t.Error("Missing X-Process-Time header")
	}
}

func TestAssess_WithExplanation(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	body := fmt.Sprintf(`{"wallet_address":%q,"include_explanation":true}`, testWallet)
	w := postJSON(t, router, "/api/v1/assess", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AssessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if resp.Explanation == nil {
		t.Fatal("Expected an explanation")
	}
	if resp.Explanation.Source != "rules" {
		t.Errorf("Expected rules source, got %s", resp.Explanation.Source)
	}
}

func TestAssess_Validation(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	cases := []struct {
		name string
		body string
	}{
		{"missing address", `{}`},
		{"too short", `{"wallet_address":"abc"}`},
		{"bad base58", `{"wallet_address":"0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/assess", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAssess_BalanceFailure(t *testing.T) {
	router := newTestRouter(t, failingBalanceSource{})

	w := postJSON(t, router, "/api/v1/assess", fmt.Sprintf(`{"wallet_address":%q}`, testWallet))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if resp.Error != "balance_fetch_failed" {
		t.Errorf("Unexpected error code: %s", resp.Error)
	}
}

func TestAssessBatch(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	body := fmt.Sprintf(`{"wallet_addresses":[%q,%q]}`, testWallet, testWallet2)
	w := postJSON(t, router, "/api/v1/assess/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if len(resp.Assessments) != 2 {
		t.Fatalf("Expected 2 assessments, got %d", len(resp.Assessments))
	}
	if len(resp.Errors) != 0 {
		t.Errorf("Unexpected errors: %v", resp.Errors)
	}
}

func TestAssessBatch_Empty(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	w := postJSON(t, router, "/api/v1/assess/batch", `{"wallet_addresses":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty batch, got %d", w.Code)
	}
}

func TestAssessBatch_PartialFailure(t *testing.T) {
	router := newTestRouter(t, failingBalanceSource{})

	body := fmt.Sprintf(`{"wallet_addresses":[%q]}`, testWallet)
	w := postJSON(t, router, "/api/v1/assess/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Batch should succeed with per-wallet errors, got %d", w.Code)
	}

	var resp BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if len(resp.Assessments) != 0 {
		t.Errorf("Expected no assessments, got %d", len(resp.Assessments))
	}
	if _, ok := resp.Errors[testWallet]; !ok {
		t.Errorf("Expected an error entry for %s, got %v", testWallet, resp.Errors)
	}
}

func TestExplain(t *testing.T) {
	router := newTestRouter(t, stubBalances())

	w := postJSON(t, router, "/api/v1/explain", fmt.Sprintf(`{"wallet_address":%q}`, testWallet))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.RiskExplanation
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response JSON: %v", err)
	}
	if resp.WalletAddress != testWallet {
		t.Errorf("Wallet mismatch: %s", resp.WalletAddress)
	}
	if resp.Reason == "" {
		t.Error("Expected a non-empty reason")
	}
}
