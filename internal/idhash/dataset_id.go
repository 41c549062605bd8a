package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeDatasetID derives a dataset id from its source name and extent, so
// re-ingesting the same file yields the same id.
// Formula: SHA256(source|count|first_timestamp_us|last_timestamp_us), first 16 hex chars.
func ComputeDatasetID(source string, count int, firstUs, lastUs int64) string {
	data := fmt.Sprintf("%s|%d|%d|%d", source, count, firstUs, lastUs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
