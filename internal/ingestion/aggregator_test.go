package ingestion

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/idhash"
	"solana-wallet-risk/internal/ingestion/stub"
)

// errBalanceSource always fails, exercising the fatal path.
type errBalanceSource struct{ err error }

func (s errBalanceSource) Fetch(context.Context, string) (*domain.WalletBalances, error) {
	return nil, s.err
}

type errMetadataSource struct{ err error }

func (s errMetadataSource) Fetch(context.Context, []string) (map[string]domain.TokenMetadata, error) {
	return nil, s.err
}

// errScalarSource fails price, liquidity and concentration fetches.
type errScalarSource struct{ err error }

func (s errScalarSource) Fetch(context.Context, []string) (map[string]float64, error) {
	return nil, s.err
}

type errVolatilitySource struct{ err error }

func (s errVolatilitySource) Fetch(context.Context, []string) (map[string]domain.VolatilityMetrics, error) {
	return nil, s.err
}

type errHistorySource struct{ err error }

func (s errHistorySource) Fetch(context.Context, string, int) ([]domain.SignatureInfo, error) {
	return nil, s.err
}

// testOptions builds an aggregator with every signal populated for a wallet
// holding two SPL tokens plus native SOL.
func testOptions(wallet string) Options {
	return Options{
		Balances: stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
			wallet: {
				WalletAddress: wallet,
				Tokens: []domain.TokenHolding{
					{Mint: "mintA", Amount: 100},
					{Mint: "mintB", Amount: 50},
				},
				SOLBalance: 2,
			},
		}),
		Metadata: stub.NewStubMetadataSource(map[string]domain.TokenMetadata{
			"mintA":              {Symbol: "AAA", Name: "Token A", Decimals: 6},
			domain.NativeSOLMint: {Symbol: "SOL", Name: "Solana", Decimals: 9},
		}),
		Prices: stub.NewStubPriceSource(map[string]float64{
			"mintA":              2.5,
			"mintB":              1.0,
			domain.NativeSOLMint: 150,
		}),
		Volatility: stub.NewStubVolatilitySource(map[string]domain.VolatilityMetrics{
			"mintA": {Volatility1h: 1.5, Volatility24h: 6.0, PriceChange24h: -2.0},
		}),
		Liquidity: stub.NewStubLiquiditySource(map[string]float64{
			"mintA": 500_000,
		}),
		Concentration: stub.NewStubConcentrationSource(map[string]float64{
			"mintA": 0.8,
		}),
		History: stub.NewStubHistorySource(map[string][]domain.SignatureInfo{
			wallet: {{Signature: "sig1", Slot: 100}},
		}),
		Logger: zerolog.Nop(),
	}
}

func TestAggregator_Collect_MergesSignals(t *testing.T) {
	wallet := "wallet1"
	agg := New(testOptions(wallet))

	records, err := agg.Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records (2 tokens + SOL), got %d", len(records))
	}

	// Holdings order is preserved, native SOL appended last
	a, b, sol := records[0], records[1], records[2]

	if a.Holding.Mint != "mintA" || a.Market.Symbol != "AAA" || a.Market.Name != "Token A" {
		t.Errorf("mintA metadata not merged: %+v", a.Market)
	}
	if a.Market.Decimals != 6 {
		t.Errorf("Expected mintA decimals 6, got %d", a.Market.Decimals)
	}
	if a.ValueUSD != 250 {
		t.Errorf("Expected mintA value 250, got %v", a.ValueUSD)
	}
	if a.Market.Volatility24h != 6.0 || a.Market.PriceChange24h != -2.0 {
		t.Errorf("mintA volatility not merged: %+v", a.Market)
	}
	if a.Market.LiquidityUSD != 500_000 || a.Market.CentralizedScore != 0.8 {
		t.Errorf("mintA liquidity/concentration not merged: %+v", a.Market)
	}

	// mintB has no metadata, volatility, liquidity or concentration fixtures
	if b.Market.Symbol != domain.DefaultTokenSymbol || b.Market.Name != domain.DefaultTokenName {
		t.Errorf("Expected metadata defaults for mintB, got %q %q", b.Market.Symbol, b.Market.Name)
	}
	if b.Market.Decimals != domain.DefaultTokenDecimals {
		t.Errorf("Expected default decimals for mintB, got %d", b.Market.Decimals)
	}
	if b.Market.CentralizedScore != domain.DefaultCentralizedScore {
		t.Errorf("Expected default concentration for mintB, got %v", b.Market.CentralizedScore)
	}
	if b.Market.Volatility24h != 0 || b.Market.LiquidityUSD != 0 {
		t.Errorf("Expected zero volatility/liquidity for mintB, got %+v", b.Market)
	}
	if b.ValueUSD != 50 {
		t.Errorf("Expected mintB value 50, got %v", b.ValueUSD)
	}

	if sol.Holding.Mint != domain.NativeSOLMint || sol.Holding.Amount != 2 {
		t.Errorf("Native SOL not folded in: %+v", sol.Holding)
	}
	if sol.ValueUSD != 300 {
		t.Errorf("Expected SOL value 300, got %v", sol.ValueUSD)
	}

	// Percentages sum to 100 and ages are the deterministic estimates
	sum := 0.0
	for _, r := range records {
		sum += r.PortfolioPercent
		want := idhash.TokenAgeDays(wallet, r.Holding.Mint)
		if r.Market.AgeDays != want {
			t.Errorf("Expected age %v for %s, got %v", want, r.Holding.Mint, r.Market.AgeDays)
		}
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("Expected percentages to sum to 100, got %v", sum)
	}
	if sol.PortfolioPercent != 50 {
		t.Errorf("Expected SOL at 50%%, got %v", sol.PortfolioPercent)
	}
}

func TestAggregator_Collect_EmptyWallet(t *testing.T) {
	agg := New(Options{
		Balances: stub.NewStubBalanceSource(nil),
		Logger:   zerolog.Nop(),
	})

	records, err := agg.Collect(context.Background(), "emptywallet")
	if err != nil {
		t.Fatalf("Empty wallet must not error: %v", err)
	}
	if records != nil {
		t.Errorf("Expected no records for empty wallet, got %d", len(records))
	}
}

func TestAggregator_Collect_BalanceFailure(t *testing.T) {
	cause := &UpstreamError{Source: "balances", Err: errors.New("rpc down")}
	agg := New(Options{
		Balances: errBalanceSource{err: cause},
		Logger:   zerolog.Nop(),
	})

	records, err := agg.Collect(context.Background(), "wallet1")
	if records != nil {
		t.Errorf("Expected no records on balance failure, got %d", len(records))
	}
	if !errors.Is(err, ErrBalanceFetch) {
		t.Errorf("Expected ErrBalanceFetch, got %v", err)
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Source != "balances" {
		t.Errorf("Expected wrapped UpstreamError, got %v", err)
	}
}

func TestAggregator_Collect_SignalFailuresDegrade(t *testing.T) {
	wallet := "wallet1"
	cause := errors.New("upstream down")

	opts := testOptions(wallet)
	opts.Metadata = errMetadataSource{err: cause}
	opts.Prices = errScalarSource{err: cause}
	opts.Volatility = errVolatilitySource{err: cause}
	opts.Liquidity = errScalarSource{err: cause}
	opts.Concentration = errScalarSource{err: cause}
	opts.History = errHistorySource{err: cause}

	records, err := New(opts).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Signal failures must not fail collection: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	for _, r := range records {
		if r.Market.Symbol != domain.DefaultTokenSymbol {
			t.Errorf("Expected default symbol for %s, got %q", r.Holding.Mint, r.Market.Symbol)
		}
		if r.Market.CentralizedScore != domain.DefaultCentralizedScore {
			t.Errorf("Expected default concentration for %s, got %v", r.Holding.Mint, r.Market.CentralizedScore)
		}
		if r.Market.PriceUSD != 0 || r.ValueUSD != 0 {
			t.Errorf("Expected zero price/value for %s, got %v/%v", r.Holding.Mint, r.Market.PriceUSD, r.ValueUSD)
		}
		// Total value is zero, so percentages stay zero
		if r.PortfolioPercent != 0 {
			t.Errorf("Expected zero percentage for %s, got %v", r.Holding.Mint, r.PortfolioPercent)
		}
		if r.Market.AgeDays < 1 || r.Market.AgeDays > 365 {
			t.Errorf("Age out of range for %s: %v", r.Holding.Mint, r.Market.AgeDays)
		}
	}
}

func TestAggregator_Collect_NilOptionalSources(t *testing.T) {
	wallet := "wallet1"
	agg := New(Options{
		Balances: stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
			wallet: {
				WalletAddress: wallet,
				Tokens:        []domain.TokenHolding{{Mint: "mintA", Amount: 10}},
			},
		}),
		Logger: zerolog.Nop(),
	})

	records, err := agg.Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect with nil sources failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Market.Symbol != domain.DefaultTokenSymbol {
		t.Errorf("Expected default symbol, got %q", records[0].Market.Symbol)
	}
}

func TestAggregator_Collect_WrappedSOLNotDuplicated(t *testing.T) {
	wallet := "wallet1"
	opts := testOptions(wallet)
	opts.Balances = stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
		wallet: {
			WalletAddress: wallet,
			Tokens: []domain.TokenHolding{
				{Mint: domain.NativeSOLMint, Amount: 5},
			},
			SOLBalance: 2,
		},
	})

	records, err := New(opts).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected single SOL record, got %d", len(records))
	}
	// Token account amount wins over the native balance
	if records[0].Holding.Amount != 5 {
		t.Errorf("Expected amount 5, got %v", records[0].Holding.Amount)
	}
}

func TestAggregator_Collect_NoSOLRecordWhenZeroBalance(t *testing.T) {
	wallet := "wallet1"
	opts := testOptions(wallet)
	opts.Balances = stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
		wallet: {
			WalletAddress: wallet,
			Tokens:        []domain.TokenHolding{{Mint: "mintA", Amount: 10}},
			SOLBalance:    0,
		},
	})

	records, err := New(opts).Collect(context.Background(), wallet)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	for _, r := range records {
		if r.Holding.Mint == domain.NativeSOLMint {
			t.Errorf("Unexpected SOL record for zero native balance")
		}
	}
}

func TestAggregator_Collect_Deterministic(t *testing.T) {
	wallet := "wallet1"
	agg := New(testOptions(wallet))
	ctx := context.Background()

	first, err := agg.Collect(ctx, wallet)
	if err != nil {
		t.Fatalf("First collect failed: %v", err)
	}
	second, err := agg.Collect(ctx, wallet)
	if err != nil {
		t.Fatalf("Second collect failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated collection diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
