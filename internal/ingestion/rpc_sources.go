package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
	"solana-wallet-risk/internal/solana"
)

// RPCBalanceSource fetches wallet holdings from Solana RPC.
type RPCBalanceSource struct {
	rpc   solana.RPCClient
	cache *cache.Cache[*domain.WalletBalances]
}

var _ BalanceSource = (*RPCBalanceSource)(nil)

// NewRPCBalanceSource creates a new RPC-based balance source.
// A nil cache disables caching.
func NewRPCBalanceSource(rpc solana.RPCClient, c *cache.Cache[*domain.WalletBalances]) *RPCBalanceSource {
	return &RPCBalanceSource{rpc: rpc, cache: c}
}

// Fetch returns the SPL token holdings and native SOL balance of a wallet.
func (s *RPCBalanceSource) Fetch(ctx context.Context, walletAddress string) (*domain.WalletBalances, error) {
	key := cache.Key("balance", walletAddress)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("balances")
			return hit, nil
		}
		observability.RecordCacheMiss("balances")
	}

	start := time.Now()
	balances, err := s.fetch(ctx, walletAddress)
	observability.RecordFetch("balances", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, balances)
	}
	return balances, nil
}

func (s *RPCBalanceSource) fetch(ctx context.Context, walletAddress string) (*domain.WalletBalances, error) {
	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, walletAddress)
	if err != nil {
		return nil, &UpstreamError{Source: "balances", Err: fmt.Errorf("get token accounts: %w", err)}
	}

	tokens := make([]domain.TokenHolding, 0, len(accounts))
	for _, acct := range accounts {
		if acct.Amount <= 0 {
			continue
		}
		tokens = append(tokens, domain.TokenHolding{Mint: acct.Mint, Amount: acct.Amount})
	}

	lamports, err := s.rpc.GetBalance(ctx, walletAddress)
	if err != nil {
		return nil, &UpstreamError{Source: "balances", Err: fmt.Errorf("get balance: %w", err)}
	}

	return &domain.WalletBalances{
		WalletAddress: walletAddress,
		Tokens:        tokens,
		SOLBalance:    float64(lamports) / domain.LamportsPerSOL,
	}, nil
}

// Metaplex Token Metadata program ID
const metaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// knownTokenMetadata short-circuits chain lookups for ubiquitous mints.
var knownTokenMetadata = map[string]domain.TokenMetadata{
	domain.NativeSOLMint: {Symbol: "SOL", Name: "Solana", Decimals: 9},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Name: "Tether USD", Decimals: 6},
}

// RPCMetadataSource fetches token metadata from Solana RPC.
// Decimals come from the SPL mint account, name and symbol from the
// Metaplex metadata PDA.
type RPCMetadataSource struct {
	rpc   solana.RPCClient
	cache *cache.Cache[map[string]domain.TokenMetadata]
}

var _ MetadataSource = (*RPCMetadataSource)(nil)

// NewRPCMetadataSource creates a new RPC-based metadata source.
// A nil cache disables caching.
func NewRPCMetadataSource(rpc solana.RPCClient, c *cache.Cache[map[string]domain.TokenMetadata]) *RPCMetadataSource {
	return &RPCMetadataSource{rpc: rpc, cache: c}
}

// Fetch returns metadata for the given mints. Mints whose accounts do not
// exist are absent from the result.
func (s *RPCMetadataSource) Fetch(ctx context.Context, mints []string) (map[string]domain.TokenMetadata, error) {
	key := mintSetKey("metadata", mints)
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("metadata")
			return hit, nil
		}
		observability.RecordCacheMiss("metadata")
	}

	start := time.Now()
	result, err := s.fetch(ctx, mints)
	observability.RecordFetch("metadata", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result, nil
}

func (s *RPCMetadataSource) fetch(ctx context.Context, mints []string) (map[string]domain.TokenMetadata, error) {
	result := make(map[string]domain.TokenMetadata, len(mints))
	for _, mint := range mints {
		if meta, ok := knownTokenMetadata[mint]; ok {
			result[mint] = meta
			continue
		}

		meta, found, err := s.fetchOne(ctx, mint)
		if err != nil {
			return nil, &UpstreamError{Source: "metadata", Err: err}
		}
		if found {
			result[mint] = meta
		}
	}
	return result, nil
}

// fetchOne reads the mint account and, when available, the Metaplex metadata
// account for a single mint. Fields the chain cannot provide keep the
// documented defaults.
func (s *RPCMetadataSource) fetchOne(ctx context.Context, mint string) (domain.TokenMetadata, bool, error) {
	info, err := s.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return domain.TokenMetadata{}, false, fmt.Errorf("get mint account %s: %w", mint, err)
	}
	if info == nil {
		return domain.TokenMetadata{}, false, nil // mint not found
	}

	meta := domain.TokenMetadata{
		Symbol:   domain.DefaultTokenSymbol,
		Name:     domain.DefaultTokenName,
		Decimals: domain.DefaultTokenDecimals,
	}
	if decimals, err := parseMintDecimals(info.Data); err == nil {
		meta.Decimals = decimals
	}

	pda := deriveMetadataPDA(mint)
	if pda != "" {
		metaInfo, err := s.rpc.GetAccountInfo(ctx, pda)
		if err == nil && metaInfo != nil {
			parseMetaplexData(metaInfo.Data, &meta)
		}
	}

	return meta, true, nil
}

// parseMintDecimals extracts the decimals field from SPL Token Mint data.
// SPL Token Mint layout (82 bytes):
// - mintAuthority: Option<Pubkey> (36 bytes: 4 + 32)
// - supply: u64 (8 bytes)
// - decimals: u8 (1 byte)
// - isInitialized: bool (1 byte)
// - freezeAuthority: Option<Pubkey> (36 bytes: 4 + 32)
func parseMintDecimals(data string) (int, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return 0, fmt.Errorf("decode mint data: %w", err)
	}

	if len(decoded) < 82 {
		return 0, fmt.Errorf("mint data too short: %d", len(decoded))
	}

	// decimals at offset 44, after mintAuthority option and supply
	return int(decoded[44]), nil
}

// deriveMetadataPDA derives the Metaplex metadata PDA for a given mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func deriveMetadataPDA(mint string) string {
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return ""
	}
	programBytes, err := base58.Decode(metaplexProgramID)
	if err != nil {
		return ""
	}

	if len(mintBytes) != 32 || len(programBytes) != 32 {
		return ""
	}

	seeds := [][]byte{
		[]byte("metadata"),
		programBytes,
		mintBytes,
	}

	return derivePDA(seeds, programBytes)
}

// parseMetaplexData parses Metaplex Token Metadata account data.
// Metaplex Metadata layout:
// - key: u8 (1 byte, should be 4 for MetadataV1)
// - updateAuthority: Pubkey (32 bytes)
// - mint: Pubkey (32 bytes)
// - name: String (4 + length bytes, max 32 chars)
// - symbol: String (4 + length bytes, max 10 chars)
// - uri: String (4 + length bytes, max 200 chars)
// ...and more fields
func parseMetaplexData(data string, meta *domain.TokenMetadata) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}

	if len(decoded) < 100 {
		return
	}

	if decoded[0] != 4 { // MetadataV1 key
		return
	}

	// Skip: key(1) + updateAuthority(32) + mint(32) = 65 bytes
	offset := 65

	// Parse name (borsh string: 4-byte length + data)
	if offset+4 > len(decoded) {
		return
	}
	nameLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4

	if nameLen > 100 || offset+int(nameLen) > len(decoded) {
		return
	}
	name := strings.TrimRight(string(decoded[offset:offset+int(nameLen)]), "\x00")
	offset += int(nameLen)
	if name != "" {
		meta.Name = name
	}

	// Parse symbol
	if offset+4 > len(decoded) {
		return
	}
	symbolLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4

	if symbolLen > 20 || offset+int(symbolLen) > len(decoded) {
		return
	}
	symbol := strings.TrimRight(string(decoded[offset:offset+int(symbolLen)]), "\x00")
	if symbol != "" {
		meta.Symbol = symbol
	}
}

// derivePDA derives a Program Derived Address using the Solana algorithm.
func derivePDA(seeds [][]byte, programID []byte) string {
	// PDA derivation algorithm:
	// 1. Concatenate all seeds with bump
	// 2. Append program ID and "ProgramDerivedAddress" marker
	// 3. SHA256 hash
	// 4. Find bump seed that results in off-curve point
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		// Check if point is off the ed25519 curve
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}

	return ""
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// RPCHistorySource fetches wallet transaction history from Solana RPC.
type RPCHistorySource struct {
	rpc   solana.RPCClient
	cache *cache.Cache[[]domain.SignatureInfo]
}

var _ HistorySource = (*RPCHistorySource)(nil)

// NewRPCHistorySource creates a new RPC-based history source.
// A nil cache disables caching.
func NewRPCHistorySource(rpc solana.RPCClient, c *cache.Cache[[]domain.SignatureInfo]) *RPCHistorySource {
	return &RPCHistorySource{rpc: rpc, cache: c}
}

// Fetch returns up to limit recent transaction signatures for a wallet,
// newest first.
func (s *RPCHistorySource) Fetch(ctx context.Context, walletAddress string, limit int) ([]domain.SignatureInfo, error) {
	key := cache.Key("txn", walletAddress, strconv.Itoa(limit))
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			observability.RecordCacheHit("history")
			return hit, nil
		}
		observability.RecordCacheMiss("history")
	}

	start := time.Now()
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, walletAddress, &solana.SignaturesOpts{Limit: limit})
	observability.RecordFetch("history", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, &UpstreamError{Source: "history", Err: err}
	}

	history := make([]domain.SignatureInfo, 0, len(sigs))
	for _, sig := range sigs {
		history = append(history, domain.SignatureInfo{
			Signature: sig.Signature,
			Slot:      sig.Slot,
			BlockTime: sig.BlockTime,
			Err:       sig.Err != nil,
		})
	}

	if s.cache != nil {
		s.cache.Set(key, history)
	}
	return history, nil
}
