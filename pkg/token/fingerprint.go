package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintBytes is how many digest bytes a fingerprint keeps.
const fingerprintBytes = 6

// Fingerprint returns a short hex digest of an identifier for logging.
//
// An empty identifier yields an empty fingerprint.
func Fingerprint(id string) string {
	if id == "" {
		return ""
	}
	h := sha256.Sum256([]byte(id))
	return hex.EncodeToString(h[:fingerprintBytes])
}
