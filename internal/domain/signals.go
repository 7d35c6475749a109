package domain

// WalletBalances is the result of a balances fetch: every positive SPL token
// holding plus the native SOL balance.
type WalletBalances struct {
	WalletAddress string
	Tokens        []TokenHolding
	SOLBalance    float64 // native balance in SOL
}

// TokenMetadata carries symbol, name and decimals for one mint.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals int
}

// VolatilityMetrics groups the volatility signals for one mint.
type VolatilityMetrics struct {
	Volatility1h   float64 // percent
	Volatility24h  float64 // percent
	PriceChange24h float64 // percent, signed
}
