package blobcache

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg4844"
)

// Verifier decides whether a cached entry may still be served.
type Verifier interface {
	VerifyBlob(entry *Entry) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(entry *Entry) bool

func (f VerifierFunc) VerifyBlob(entry *Entry) bool { return f(entry) }

// EngineVerifier recomputes the coefficient-form commitment of an entry with a
// kzg.Engine. It suits entries whose commitment came from the same engine.
type EngineVerifier struct {
	engine *kzg.Engine
}

// NewEngineVerifier returns a verifier backed by engine.
func NewEngineVerifier(engine *kzg.Engine) *EngineVerifier {
	return &EngineVerifier{engine: engine}
}

func (v *EngineVerifier) VerifyBlob(entry *Entry) bool {
	if entry == nil || entry.Blob == nil {
		return false
	}
	ok, err := v.engine.VerifyBlob(entry.Blob[:], entry.Commitment[:])
	if err != nil {
		log.Warn("Failed to reverify cached blob", "versionedHash", entry.VersionedHash, "err", err)
		return false
	}
	return ok && kzg.CalcVersionedHash(&entry.Commitment) == entry.VersionedHash
}

// BlobProofVerifier checks the canonical EIP-4844 blob proof of an entry and
// that its commitment hashes to its versioned hash.
type BlobProofVerifier struct {
	backend kzg4844.Backend
}

// NewBlobProofVerifier returns a verifier backed by a canonical EIP-4844 backend.
func NewBlobProofVerifier(backend kzg4844.Backend) *BlobProofVerifier {
	return &BlobProofVerifier{backend: backend}
}

func (v *BlobProofVerifier) VerifyBlob(entry *Entry) bool {
	if entry == nil || entry.Blob == nil {
		return false
	}
	if kzg.CalcVersionedHash(&entry.Commitment) != entry.VersionedHash {
		return false
	}
	if err := v.backend.VerifyBlobProof(entry.Blob, entry.Commitment, entry.Proof); err != nil {
		log.Debug("Cached blob proof rejected", "versionedHash", entry.VersionedHash, "err", err)
		return false
	}
	return true
}
