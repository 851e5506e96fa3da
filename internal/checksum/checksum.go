package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// DocumentID derives the identity of a file from its absolute path and
// modification time. Any edit bumps mtime and therefore yields a new id.
func DocumentID(absPath string, modTime time.Time) string {
	key := absPath + "_" + strconv.FormatInt(modTime.UnixNano(), 10)
	return Sum([]byte(key))[:32]
}
