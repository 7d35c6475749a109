package idhash

import (
	"crypto/sha256"
	"encoding/binary"
)

// TokenAgeDays derives a stable pseudo-age in days for a (wallet, mint) pair.
// Formula: 1 + uint64(first 8 bytes of SHA256("wallet_mint"), big-endian) mod 365.
// The result is always in [1, 365].
//
// This is a documented stand-in for first-deposit analysis of the wallet's
// transaction history: same inputs always produce the same age, which is all
// downstream feature derivation requires of the signal.
func TokenAgeDays(walletAddress, mint string) float64 {
	hash := sha256.Sum256([]byte(walletAddress + "_" + mint))
	h := binary.BigEndian.Uint64(hash[:8])
	return float64(1 + h%365)
}

// SignalMod hashes a seed string and reduces it modulo mod, using the same
// SHA256 truncation as TokenAgeDays. Statistical placeholder sources use it
// to synthesize stable per-mint market signals.
func SignalMod(seed string, mod uint64) uint64 {
	hash := sha256.Sum256([]byte(seed))
	return binary.BigEndian.Uint64(hash[:8]) % mod
}
