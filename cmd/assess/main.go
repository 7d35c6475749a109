// Package main is a one-shot CLI: assess a single wallet and print the
// result as JSON or Markdown, optionally writing a CSV alongside.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/engine"
	"solana-wallet-risk/internal/features"
	"solana-wallet-risk/internal/ingestion"
	"solana-wallet-risk/internal/ingestion/stub"
	"solana-wallet-risk/internal/predictor"
	"solana-wallet-risk/internal/reporting"
	"solana-wallet-risk/internal/solana"
)

func main() {
	wallet := flag.String("wallet", "", "Wallet address to assess")
	rpcURL := flag.String("rpc-url", os.Getenv("RPC_URL"), "Solana JSON-RPC endpoint")
	useStub := flag.Bool("stub", false, "Use built-in demo data instead of live RPC")
	format := flag.String("format", "json", "Output format: json or markdown")
	csvPath := flag.String("csv", "", "Also write token rows as CSV to this path")
	modelPath := flag.String("model", os.Getenv("MODEL_PATH"), "Saved model file (heuristic scoring when unset)")
	scalerPath := flag.String("scaler", os.Getenv("SCALER_PATH"), "Saved scaler bounds (raw features when unset)")
	timeout := flag.Duration("timeout", 30*time.Second, "Upstream fetch timeout")
	flag.Parse()

	if *wallet == "" {
		fmt.Fprintln(os.Stderr, "Error: --wallet is required")
		flag.Usage()
		os.Exit(1)
	}
	if !*useStub && *rpcURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-url (or RPC_URL) is required without --stub")
		os.Exit(1)
	}
	if *format != "json" && *format != "markdown" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	ctx := context.Background()

	var aggregator *ingestion.Aggregator
	if *useStub {
		aggregator = demoAggregator(*wallet, logger)
	} else {
		rpc := solana.NewHTTPClient(*rpcURL, solana.WithTimeout(*timeout))
		ttl := time.Minute
		aggregator = ingestion.New(ingestion.Options{
			Balances:      ingestion.NewRPCBalanceSource(rpc, cache.New[*domain.WalletBalances](ttl)),
			Metadata:      ingestion.NewRPCMetadataSource(rpc, cache.New[map[string]domain.TokenMetadata](ttl)),
			Prices:        ingestion.NewJupiterPriceSource("", cache.New[map[string]float64](ttl)),
			Volatility:    ingestion.NewStatisticalVolatilitySource(cache.New[map[string]domain.VolatilityMetrics](ttl)),
			Liquidity:     ingestion.NewStatisticalLiquiditySource(cache.New[map[string]float64](ttl)),
			Concentration: ingestion.NewStatisticalConcentrationSource(cache.New[map[string]float64](ttl)),
			History:       ingestion.NewRPCHistorySource(rpc, cache.New[[]domain.SignatureInfo](ttl)),
			FetchTimeout:  *timeout,
			Logger:        logger,
		})
	}

	eng := engine.New(engine.Options{
		Aggregator: aggregator,
		Engineer:   features.New(features.Options{ScalerPath: *scalerPath, Logger: logger}),
		Predictor:  predictor.New(predictor.Options{ModelPath: *modelPath, Logger: logger}),
		Logger:     logger,
	})

	assessment, err := eng.Assess(ctx, *wallet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: assessment failed: %v\n", err)
		os.Exit(1)
	}

	report, err := reporting.NewGenerator(nil).Generate(ctx, assessment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: report generation failed: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(assessment); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "markdown":
		fmt.Print(reporting.RenderMarkdown(report))
	}

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *csvPath)
	}
}

// demoAggregator serves fixed signals for any wallet: a small memecoin
// position next to SOL, risky enough to exercise every scoring branch.
func demoAggregator(wallet string, logger zerolog.Logger) *ingestion.Aggregator {
	const memeMint = "DemoMeme111111111111111111111111111111111111"

	return ingestion.New(ingestion.Options{
		Balances: stub.NewStubBalanceSource(map[string]*domain.WalletBalances{
			wallet: {
				WalletAddress: wallet,
				Tokens:        []domain.TokenHolding{{Mint: memeMint, Amount: 25000}},
				SOLBalance:    3.5,
			},
		}),
		Metadata: stub.NewStubMetadataSource(map[string]domain.TokenMetadata{
			memeMint:             {Symbol: "MEME", Name: "Demo Meme"},
			domain.NativeSOLMint: {Symbol: "SOL", Name: "Solana"},
		}),
		Prices: stub.NewStubPriceSource(map[string]float64{
			memeMint:             0.012,
			domain.NativeSOLMint: 150.0,
		}),
		Volatility: stub.NewStubVolatilitySource(map[string]domain.VolatilityMetrics{
			memeMint:             {Volatility24h: 18, PriceChange24h: -12},
			domain.NativeSOLMint: {Volatility24h: 3, PriceChange24h: 1.2},
		}),
		Liquidity: stub.NewStubLiquiditySource(map[string]float64{
			memeMint:             80000,
			domain.NativeSOLMint: 250000000,
		}),
		Concentration: stub.NewStubConcentrationSource(map[string]float64{
			memeMint:             0.85,
			domain.NativeSOLMint: 0.05,
		}),
		Logger: logger,
	})
}
