package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Hasher accumulates a SHA-256 digest over everything written to it.
// Tee it next to the destination with io.MultiWriter.
type Hasher struct {
	h hash.Hash
}

// New returns an empty Hasher.
func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (c *Hasher) Write(p []byte) (int, error) {
	return c.h.Write(p)
}

// Hex returns the lowercase hex digest of the bytes written so far.
func (c *Hasher) Hex() string {
	return hex.EncodeToString(c.h.Sum(nil))
}

// SHA256Hex hashes an in-memory buffer.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
