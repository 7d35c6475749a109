package domain

// SignatureInfo is one confirmed transaction signature from a wallet's
// history, as returned by getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64 // Unix seconds, nil when the node has no timestamp
	Err       bool   // true when the transaction failed on chain
}
