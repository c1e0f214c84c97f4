package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// partSeparator cannot appear in analyzed text coming from a text surface
const partSeparator = "\x00"

// Hasher provides digest helpers for cache keys and fingerprints
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hex digest of the input data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// HashString computes a digest of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashParts computes a digest of ordered parts.
// Unlike a plain join, ("ab","c") and ("a","bc") produce different digests.
func (h *Hasher) HashParts(parts ...string) string {
	return h.HashString(strings.Join(parts, partSeparator))
}

// ShortHash returns the first 8 characters of a digest for display
func ShortHash(fullHash string) string {
	if len(fullHash) < 8 {
		return fullHash
	}
	return fullHash[:8]
}
