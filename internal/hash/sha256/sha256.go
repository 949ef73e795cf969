// Package sha256 derives content validators for exported review tables.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher digests export payloads.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ETag returns a quoted strong entity tag for data, built from the first
// 16 bytes of its digest.
func (h *Hasher) ETag(data []byte) string {
	return `"` + h.Hash(data)[:32] + `"`
}
