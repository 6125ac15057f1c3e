package walker

import (
	"crypto/sha256"

	"github.com/cespare/xxhash/v2"
)

// CanonicalHash is the SHA-256 of a file's raw bytes, stored in the
// Metadata Store as the authoritative freshness key.
func CanonicalHash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// FastFingerprint is an xxhash over the same bytes. Walk stores it in
// Candidate.Fast; the Indexer does not consult it and computes
// CanonicalHash for every candidate.
func FastFingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}
