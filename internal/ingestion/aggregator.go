package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/idhash"
)

// DefaultFetchTimeout bounds each upstream signal fetch.
const DefaultFetchTimeout = 30 * time.Second

// DefaultHistoryLimit is the number of recent signatures fetched per wallet.
const DefaultHistoryLimit = 100

// Aggregator combines the independent data sources into unified token
// records for one wallet. Only the balance fetch is load-bearing; every
// other signal degrades to its documented default when its source fails.
type Aggregator struct {
	balances      BalanceSource
	metadata      MetadataSource
	prices        PriceSource
	volatility    VolatilitySource
	liquidity     LiquiditySource
	concentration ConcentrationSource
	history       HistorySource

	fetchTimeout time.Duration
	historyLimit int
	logger       zerolog.Logger
}

// Options for creating an Aggregator.
type Options struct {
	// Required source
	Balances BalanceSource

	// Optional sources; a nil source leaves its signal at the default
	Metadata      MetadataSource
	Prices        PriceSource
	Volatility    VolatilitySource
	Liquidity     LiquiditySource
	Concentration ConcentrationSource
	History       HistorySource

	// FetchTimeout bounds each signal fetch. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration
	// HistoryLimit caps the signature fetch. Zero means DefaultHistoryLimit.
	HistoryLimit int

	Logger zerolog.Logger
}

// New creates a new Aggregator.
func New(opts Options) *Aggregator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	return &Aggregator{
		balances:      opts.Balances,
		metadata:      opts.Metadata,
		prices:        opts.Prices,
		volatility:    opts.Volatility,
		liquidity:     opts.Liquidity,
		concentration: opts.Concentration,
		history:       opts.History,
		fetchTimeout:  opts.FetchTimeout,
		historyLimit:  opts.HistoryLimit,
		logger:        opts.Logger,
	}
}

// Collect gathers every signal for a wallet and merges them into unified
// token records. A failed balance fetch aborts collection with
// ErrBalanceFetch; a wallet holding nothing yields no records and no error.
func (a *Aggregator) Collect(ctx context.Context, walletAddress string) ([]*domain.UnifiedTokenRecord, error) {
	if a.balances == nil {
		return nil, fmt.Errorf("%w: no balance source configured", ErrBalanceFetch)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	balances, err := a.balances.Fetch(fetchCtx, walletAddress)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBalanceFetch, err)
	}

	holdings := make([]domain.TokenHolding, len(balances.Tokens))
	copy(holdings, balances.Tokens)

	// Fold native SOL into the token set under its canonical pseudo-mint.
	// A wallet already holding wrapped SOL keeps the token account amount.
	if balances.SOLBalance > 0 && !containsMint(holdings, domain.NativeSOLMint) {
		holdings = append(holdings, domain.TokenHolding{
			Mint:   domain.NativeSOLMint,
			Amount: balances.SOLBalance,
		})
	}

	if len(holdings) == 0 {
		a.logger.Debug().Str("wallet", walletAddress).Msg("wallet holds no tokens")
		return nil, nil
	}

	mints := make([]string, len(holdings))
	for i, h := range holdings {
		mints[i] = h.Mint
	}

	sig := a.fanOut(ctx, walletAddress, mints)
	return a.merge(walletAddress, holdings, sig), nil
}

// signals holds the fan-out results. Each field is written by exactly one
// goroutine before the WaitGroup releases the merge.
type signals struct {
	metadata      map[string]domain.TokenMetadata
	prices        map[string]float64
	volatility    map[string]domain.VolatilityMetrics
	liquidity     map[string]float64
	concentration map[string]float64
	history       []domain.SignatureInfo
}

// fanOut fetches the non-fatal signals concurrently. A failed or timed-out
// fetch is logged and leaves its signal empty.
func (a *Aggregator) fanOut(ctx context.Context, walletAddress string, mints []string) *signals {
	sig := &signals{}
	var wg sync.WaitGroup

	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()
			if err := fn(fetchCtx); err != nil {
				a.logger.Warn().
					Err(err).
					Str("signal", name).
					Str("wallet", walletAddress).
					Msg("signal fetch failed, falling back to defaults")
			}
		}()
	}

	if a.metadata != nil {
		run("metadata", func(ctx context.Context) error {
			m, err := a.metadata.Fetch(ctx, mints)
			if err != nil {
				return err
			}
			sig.metadata = m
			return nil
		})
	}
	if a.prices != nil {
		run("prices", func(ctx context.Context) error {
			p, err := a.prices.Fetch(ctx, mints)
			if err != nil {
				return err
			}
			sig.prices = p
			return nil
		})
	}
	if a.volatility != nil {
		run("volatility", func(ctx context.Context) error {
			v, err := a.volatility.Fetch(ctx, mints)
			if err != nil {
				return err
			}
			sig.volatility = v
			return nil
		})
	}
	if a.liquidity != nil {
		run("liquidity", func(ctx context.Context) error {
			l, err := a.liquidity.Fetch(ctx, mints)
			if err != nil {
				return err
			}
			sig.liquidity = l
			return nil
		})
	}
	if a.concentration != nil {
		run("whale", func(ctx context.Context) error {
			c, err := a.concentration.Fetch(ctx, mints)
			if err != nil {
				return err
			}
			sig.concentration = c
			return nil
		})
	}
	if a.history != nil {
		run("history", func(ctx context.Context) error {
			h, err := a.history.Fetch(ctx, walletAddress, a.historyLimit)
			if err != nil {
				return err
			}
			sig.history = h
			return nil
		})
	}

	wg.Wait()
	return sig
}

// merge joins holdings with their signals. Missing per-mint values take the
// documented defaults; portfolio percentages are computed once the wallet
// total is known.
func (a *Aggregator) merge(walletAddress string, holdings []domain.TokenHolding, sig *signals) []*domain.UnifiedTokenRecord {
	ages := a.computeTokenAges(walletAddress, sig.history, holdings)

	records := make([]*domain.UnifiedTokenRecord, 0, len(holdings))
	totalValue := 0.0

	for _, holding := range holdings {
		mint := holding.Mint

		market := domain.TokenMarketData{
			Symbol:           domain.DefaultTokenSymbol,
			Name:             domain.DefaultTokenName,
			Decimals:         domain.DefaultTokenDecimals,
			CentralizedScore: domain.DefaultCentralizedScore,
			AgeDays:          ages[mint],
		}
		if meta, ok := sig.metadata[mint]; ok {
			market.Symbol = meta.Symbol
			market.Name = meta.Name
			market.Decimals = meta.Decimals
		}
		if price, ok := sig.prices[mint]; ok {
			market.PriceUSD = price
		}
		if vol, ok := sig.volatility[mint]; ok {
			market.Volatility1h = vol.Volatility1h
			market.Volatility24h = vol.Volatility24h
			market.PriceChange24h = vol.PriceChange24h
		}
		if liq, ok := sig.liquidity[mint]; ok {
			market.LiquidityUSD = liq
		}
		if conc, ok := sig.concentration[mint]; ok {
			market.CentralizedScore = conc
		}

		record := &domain.UnifiedTokenRecord{
			Holding:  holding,
			Market:   market,
			ValueUSD: holding.Amount * market.PriceUSD,
		}
		records = append(records, record)
		totalValue += record.ValueUSD
	}

	if totalValue > 0 {
		for _, record := range records {
			record.PortfolioPercent = record.ValueUSD / totalValue * 100
		}
	}

	return records
}

// computeTokenAges estimates how long each mint has been held. The signature
// history is carried for first-deposit analysis; until that lands, ages come
// from a deterministic per-wallet hash in [1, 365].
func (a *Aggregator) computeTokenAges(walletAddress string, history []domain.SignatureInfo, holdings []domain.TokenHolding) map[string]float64 {
	ages := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		ages[h.Mint] = idhash.TokenAgeDays(walletAddress, h.Mint)
	}
	return ages
}

func containsMint(holdings []domain.TokenHolding, mint string) bool {
	for _, h := range holdings {
		if h.Mint == mint {
			return true
		}
	}
	return false
}
