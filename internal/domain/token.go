package domain

// NativeSOLMint is the canonical pseudo-mint for native SOL balances.
// Native holdings are folded into the token set under this identifier so the
// rest of the pipeline treats SOL like any other position.
const NativeSOLMint = "So11111111111111111111111111111111111111112"

// LamportsPerSOL converts raw native balances to SOL.
const LamportsPerSOL = 1_000_000_000

// TokenHolding is a single positive balance owned by a wallet.
// Produced by a balances fetch; immutable once created.
type TokenHolding struct {
	Mint   string  // token mint address (NativeSOLMint for native SOL)
	Amount float64 // UI amount, never negative
}

// TokenMarketData carries the per-mint market and on-chain signals.
// Every field is sourced independently and may be missing; the aggregator
// fills the documented defaults before records leave the merge step.
type TokenMarketData struct {
	Symbol           string
	Name             string
	Decimals         int
	PriceUSD         float64 // spot price, USD per unit
	Volatility1h     float64 // percent
	Volatility24h    float64 // percent
	PriceChange24h   float64 // percent, signed
	LiquidityUSD     float64 // pool TVL in USD
	CentralizedScore float64 // whale concentration, 0..1, 0.5 = unknown
	AgeDays          float64 // days since first activity, >= 0
}

// DefaultCentralizedScore is the neutral-unknown whale concentration used
// when the concentration source returns nothing for a mint.
const DefaultCentralizedScore = 0.5

// Metadata defaults applied when the metadata source has nothing for a mint.
const (
	DefaultTokenSymbol   = "UNKNOWN"
	DefaultTokenName     = "Unknown Token"
	DefaultTokenDecimals = 9
)

// UnifiedTokenRecord joins a holding with its market data plus the two
// wallet-relative computed fields. PortfolioPercent values across a wallet
// sum to 100 (within rounding) whenever the wallet's total value is positive.
type UnifiedTokenRecord struct {
	Holding          TokenHolding
	Market           TokenMarketData
	ValueUSD         float64 // Holding.Amount * Market.PriceUSD
	PortfolioPercent float64 // ValueUSD / wallet total * 100, 0 if total is 0
}
