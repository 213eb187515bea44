package epub

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns a stable content identity for an archive: the hex
// BLAKE3-256 digest of its bytes. Hosts use it as a key for saved reading
// positions.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
