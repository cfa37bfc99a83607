package kzg

import (
	"crypto/sha256"
	"hash"

	"github.com/ethereum/go-ethereum/common"
)

// CalcVersionedHash returns sha256(commitment) with the first byte replaced by
// VersionedHashVersionKZG.
func CalcVersionedHash(c *Commitment) common.Hash {
	return calcVersionedHash(sha256.New(), c)
}

func calcVersionedHash(hasher hash.Hash, c *Commitment) (vh common.Hash) {
	hasher.Write(c[:])
	hasher.Sum(vh[:0])
	vh[0] = VersionedHashVersionKZG
	return vh
}

// IsValidVersionedHash reports whether h has the versioned hash length and
// carries the KZG version byte.
func IsValidVersionedHash(h []byte) bool {
	return len(h) == common.HashLength && h[0] == VersionedHashVersionKZG
}
