package electrum

import (
	"crypto/sha256"
	"encoding/hex"
)

// ScripthashFromScript returns the Electrum index key for an output script,
// the sha256 of the script serialized in reverse byte order.
func ScripthashFromScript(script []byte) string {
	hash := sha256.Sum256(script)
	for i, j := 0, len(hash)-1; i < j; i, j = i+1, j-1 {
		hash[i], hash[j] = hash[j], hash[i]
	}
	return hex.EncodeToString(hash[:])
}
