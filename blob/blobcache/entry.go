package blobcache

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ETHCF/blobkit-sub002/blob/blob_client"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

// EntrySize is the accounted cost of one resident entry: the blob plus its
// commitment and proof.
const EntrySize = kzg.BytesPerBlob + kzg.BytesPerCommitment + kzg.BytesPerProof

// Entry is a retrieved blob together with its on-chain position and the KZG
// data it was checked against. Entries are never mutated once cached.
type Entry struct {
	VersionedHash common.Hash
	Slot          uint64
	Index         uint64
	Commitment    kzg.Commitment
	Proof         kzg.Proof
	Blob          *kzg.Blob
	Source        blob_client.BlobSource
}

// Config bounds the cache.
type Config struct {
	MaxEntries     int    // count bound
	MaxBytes       uint64 // byte bound, a multiple of EntrySize is exact
	StrictReverify bool   // check entries on GetWithReverify
}

// DefaultConfig holds 64 blobs, about 8 MiB.
var DefaultConfig = Config{
	MaxEntries: 64,
	MaxBytes:   64 * EntrySize,
}

func (cfg Config) normalize() Config {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig.MaxEntries
	}
	if cfg.MaxEntries > maxNodes {
		cfg.MaxEntries = maxNodes
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = uint64(cfg.MaxEntries) * EntrySize
	}
	return cfg
}
