package stub

import (
	"context"

	"solana-wallet-risk/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Fixture maps are keyed
// by wallet or account address; Errs forces a failure for a given address.
type RPCClient struct {
	TokenAccounts map[string][]solana.TokenAccount
	Balances      map[string]uint64
	Signatures    map[string][]solana.SignatureInfo
	Accounts      map[string]*solana.AccountInfo
	Errs          map[string]error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Balances:      make(map[string]uint64),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Accounts:      make(map[string]*solana.AccountInfo),
		Errs:          make(map[string]error),
	}
}

// GetTokenAccountsByOwner retrieves fixture token accounts for a wallet.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenAccount, error) {
	if err := c.Errs[owner]; err != nil {
		return nil, err
	}
	return c.TokenAccounts[owner], nil
}

// GetBalance retrieves the fixture lamport balance for an address.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	if err := c.Errs[address]; err != nil {
		return 0, err
	}
	return c.Balances[address], nil
}

// GetSignaturesForAddress retrieves fixture signatures for an address.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.Errs[address]; err != nil {
		return nil, err
	}

	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetAccountInfo retrieves fixture account info, nil if absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.Errs[pubkey]; err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
