package solana

import "context"

// TokenProgramID is the SPL token program. Token accounts owned by a wallet
// are fetched filtered to this program.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// RPCClient defines the Solana RPC HTTP interface the fetchers depend on.
type RPCClient interface {
	// GetTokenAccountsByOwner retrieves the SPL token accounts of a wallet.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// GetBalance retrieves the native balance of an address in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetAccountInfo retrieves account info by public key, nil if absent.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}
