package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/iminoaru/zaphft/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|seq|side|timestamp_us)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(runID string, seq int, side domain.Side, timestampUs int64) string {
	data := fmt.Sprintf("%s|%d|%s|%d", runID, seq, string(side), timestampUs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
