package blobcache

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ETHCF/blobkit-sub002/blob/blob_client"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg4844"
)

var ErrVersionedHashMismatch = errors.New("blob does not match versioned hash")

// CachedClient serves blobs from a Cache and falls back to a BlobClient on a
// miss. Fetched blobs are only cached once their canonical commitment hashes
// to the requested versioned hash.
type CachedClient struct {
	cache    *Cache
	client   blob_client.BlobClient
	backend  kzg4844.Backend
	verifier Verifier
}

func NewCachedClient(cache *Cache, client blob_client.BlobClient, backend kzg4844.Backend) *CachedClient {
	return &CachedClient{
		cache:    cache,
		client:   client,
		backend:  backend,
		verifier: NewBlobProofVerifier(backend),
	}
}

// WithVerifier replaces the verifier used on cache hits.
func (c *CachedClient) WithVerifier(v Verifier) *CachedClient {
	c.verifier = v
	return c
}

func (c *CachedClient) GetBlobByVersionedHash(ctx context.Context, versionedHash common.Hash) (*kzg.Blob, error) {
	entry, err := c.GetEntry(ctx, versionedHash)
	if err != nil {
		return nil, err
	}
	return entry.Blob, nil
}

func (c *CachedClient) GetBlobSidecar(ctx context.Context, versionedHash common.Hash) (*blob_client.Sidecar, error) {
	entry, err := c.GetEntry(ctx, versionedHash)
	if err != nil {
		return nil, err
	}
	return &blob_client.Sidecar{Blob: entry.Blob, Slot: entry.Slot, Index: entry.Index, Source: entry.Source}, nil
}

// GetEntry returns the cached entry for versionedHash, fetching and checking
// it first on a miss.
func (c *CachedClient) GetEntry(ctx context.Context, versionedHash common.Hash) (*Entry, error) {
	if entry, ok := c.cache.GetWithReverify(versionedHash, c.verifier); ok {
		return entry, nil
	}

	fetchCounter.Inc(1)
	sidecar, err := c.fetch(ctx, versionedHash)
	if err != nil {
		fetchFailCounter.Inc(1)
		return nil, errors.Wrapf(err, "failed to fetch blob %s", versionedHash.Hex())
	}

	commitment, err := c.backend.BlobToCommitment(sidecar.Blob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create blob commitment")
	}
	if got := kzg.CalcVersionedHash(&commitment); got != versionedHash {
		return nil, errors.Wrapf(ErrVersionedHashMismatch, "blob versioned hash %s, expected %s", got.Hex(), versionedHash.Hex())
	}
	proof, err := c.backend.ComputeBlobProof(sidecar.Blob, commitment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute blob proof")
	}

	entry := &Entry{
		VersionedHash: versionedHash,
		Slot:          sidecar.Slot,
		Index:         sidecar.Index,
		Commitment:    commitment,
		Proof:         proof,
		Blob:          sidecar.Blob,
		Source:        sidecar.Source,
	}
	if !c.cache.Put(versionedHash, entry) {
		log.Warn("Blob not cached, entry exceeds cache budget", "versionedHash", versionedHash)
	}
	return entry, nil
}

func (c *CachedClient) fetch(ctx context.Context, versionedHash common.Hash) (*blob_client.Sidecar, error) {
	if sc, ok := c.client.(blob_client.SidecarClient); ok {
		sidecar, err := sc.GetBlobSidecar(ctx, versionedHash)
		if err != nil {
			return nil, err
		}
		if sidecar == nil || sidecar.Blob == nil {
			return nil, blob_client.ErrBlobNotFound
		}
		return sidecar, nil
	}
	blob, err := c.client.GetBlobByVersionedHash(ctx, versionedHash)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, blob_client.ErrBlobNotFound
	}
	return &blob_client.Sidecar{Blob: blob}, nil
}
