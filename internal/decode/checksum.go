package decode

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns the hex xxhash64 digest of an uploaded file.
func Checksum(data []byte) string {
	hasher := xxhash.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
