package reconcile

import (
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"
)

// Token derives the idempotency token for a draft from the store instance
// id and the draft's ephemeral id. The derivation is deterministic, so a
// retried submission after a partial failure carries the same token and
// collapses to a single remote order. The instance id namespaces tokens
// across store files, whose counters both start at 1.
func Token(instanceID string, ephemeralID int64) string {
	sum := blake3.Sum256([]byte(instanceID + ":" + strconv.FormatInt(ephemeralID, 10)))
	return hex.EncodeToString(sum[:])
}
