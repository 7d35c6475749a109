package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeAssessmentID computes a deterministic assessment_id using SHA256.
// Formula: SHA256(wallet_address|assessed_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeAssessmentID(walletAddress string, assessedAtMs int64) string {
	data := fmt.Sprintf("%s|%d", walletAddress, assessedAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
