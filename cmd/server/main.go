// Package main runs the wallet risk assessment service: the HTTP API, the
// WebSocket stream, and optional Postgres/ClickHouse persistence behind the
// assessment engine.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/api"
	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/config"
	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/engine"
	"solana-wallet-risk/internal/explain"
	"solana-wallet-risk/internal/features"
	"solana-wallet-risk/internal/ingestion"
	"solana-wallet-risk/internal/predictor"
	"solana-wallet-risk/internal/realtime"
	"solana-wallet-risk/internal/solana"
	"solana-wallet-risk/internal/storage"
	chstore "solana-wallet-risk/internal/storage/clickhouse"
	"solana-wallet-risk/internal/storage/memory"
	"solana-wallet-risk/internal/storage/migrations"
	pgstore "solana-wallet-risk/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("rpc_url", cfg.RPCURL).
		Bool("postgres", cfg.PostgresDSN != "").
		Bool("clickhouse", cfg.ClickhouseDSN != "").
		Msg("starting wallet risk service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: in-memory unless DSNs are configured
	assessments, history, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stores")
	}
	defer cleanup()

	// Upstream data sources, each behind its own TTL cache
	rpc := solana.NewHTTPClient(cfg.RPCURL, solana.WithTimeout(cfg.RequestTimeout))

	aggregator := ingestion.New(ingestion.Options{
		Balances:      ingestion.NewRPCBalanceSource(rpc, cache.New[*domain.WalletBalances](cfg.CacheTTL)),
		Metadata:      ingestion.NewRPCMetadataSource(rpc, cache.New[map[string]domain.TokenMetadata](cfg.CacheTTL)),
		Prices:        ingestion.NewJupiterPriceSource(cfg.JupiterPriceURL, cache.New[map[string]float64](cfg.CacheTTL)),
		Volatility:    ingestion.NewStatisticalVolatilitySource(cache.New[map[string]domain.VolatilityMetrics](cfg.CacheTTL)),
		Liquidity:     ingestion.NewStatisticalLiquiditySource(cache.New[map[string]float64](cfg.CacheTTL)),
		Concentration: ingestion.NewStatisticalConcentrationSource(cache.New[map[string]float64](cfg.CacheTTL)),
		History:       ingestion.NewRPCHistorySource(rpc, cache.New[[]domain.SignatureInfo](cfg.CacheTTL)),
		FetchTimeout:  cfg.RequestTimeout,
		HistoryLimit:  cfg.HistoryLimit,
		Logger:        logger.With().Str("component", "ingestion").Logger(),
	})

	engineer := features.New(features.Options{
		ScalerPath: cfg.ScalerPath,
		Logger:     logger.With().Str("component", "features").Logger(),
	})

	scorer := predictor.New(predictor.Options{
		ModelPath:           cfg.ModelPath,
		HighRiskThreshold:   cfg.HighRiskThreshold,
		MediumRiskThreshold: cfg.MediumRiskThreshold,
		Logger:              logger.With().Str("component", "predictor").Logger(),
	})

	hub := realtime.NewHub(logger.With().Str("component", "realtime").Logger())
	go hub.Run(ctx)

	eng := engine.New(engine.Options{
		Aggregator:  aggregator,
		Engineer:    engineer,
		Predictor:   scorer,
		Assessments: assessments,
		History:     history,
		Broadcaster: hub,
		Logger:      logger.With().Str("component", "engine").Logger(),
	})

	router := api.NewRouter(api.Options{
		Engine:    eng,
		Explainer: newExplainer(cfg, logger),
		Hub:       hub,
		Logger:    logger.With().Str("component", "api").Logger(),
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	// A second signal forces immediate exit
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel() // stops the hub and disconnects stream clients

	logger.Info().Msg("shutdown complete")
}

// newLogger builds the root logger. Invalid levels fall back to info.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// createStores wires persistence. Postgres holds assessments and ClickHouse
// the per-token history; either DSN being empty selects the in-memory store.
func createStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.AssessmentStore, storage.RiskHistoryStore, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var assessments storage.AssessmentStore = memory.NewAssessmentStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, nil, cleanup, err
		}
		assessments = pgstore.NewAssessmentStore(pool)
		logger.Info().Msg("postgres assessment store ready")
	}

	var history storage.RiskHistoryStore = memory.NewRiskHistoryStore()
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, cleanup, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		history = chstore.NewRiskHistoryStore(conn)
		logger.Info().Msg("clickhouse history store ready")
	}

	return assessments, history, cleanup, nil
}

// newExplainer selects rule-based or LLM-backed explanations.
func newExplainer(cfg *config.Config, logger zerolog.Logger) explain.Explainer {
	if !cfg.UseLLM {
		return explain.NewRuleBasedExplainer()
	}
	return explain.NewLLMExplainer(explain.Options{
		Provider: cfg.LLMProvider,
		Endpoint: cfg.LlamaEndpoint,
		APIKey:   cfg.OpenAIAPIKey,
		Model:    cfg.OpenAIModel,
		Cache:    cache.New[*domain.RiskExplanation](cfg.CacheTTL),
		Logger:   logger.With().Str("component", "explain").Logger(),
	})
}
