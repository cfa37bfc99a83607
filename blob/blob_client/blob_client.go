// Package blob_client defines the suppliers of blobs looked up by versioned
// hash, and a failover list over several of them.
package blob_client

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var ErrBlobNotFound = errors.New("blob not found")

type BlobClient interface {
	GetBlobByVersionedHash(ctx context.Context, versionedHash common.Hash) (*kzg.Blob, error)
}

// Sidecar is a blob together with where it was included on chain.
type Sidecar struct {
	Blob   *kzg.Blob
	Slot   uint64
	Index  uint64
	Source BlobSource
}

// SidecarClient is implemented by clients that know the inclusion position
// of the blobs they return.
type SidecarClient interface {
	BlobClient
	GetBlobSidecar(ctx context.Context, versionedHash common.Hash) (*Sidecar, error)
}

type BlobSource int

const (
	// AnyBlobSource
	AnyBlobSource BlobSource = iota
	// BeaconNode
	BeaconNode
	// BlobScan
	BlobScan
	// BlockNative
	BlockNative
	// LocalDir is a directory of blob files.
	LocalDir
)

func (src BlobSource) IsValid() bool {
	return src >= AnyBlobSource && src <= LocalDir
}

// String implements the stringer interface.
func (src BlobSource) String() string {
	switch src {
	case AnyBlobSource:
		return "any"
	case BeaconNode:
		return "beacon"
	case BlobScan:
		return "blobscan"
	case BlockNative:
		return "blocknative"
	case LocalDir:
		return "dir"
	default:
		return "unknown"
	}
}

func (src BlobSource) MarshalText() ([]byte, error) {
	if !src.IsValid() {
		return nil, errors.Newf("unknown blob source %d", int(src))
	}
	return []byte(src.String()), nil
}

func (src *BlobSource) UnmarshalText(text []byte) error {
	switch string(text) {
	case "any":
		*src = AnyBlobSource
	case "beacon":
		*src = BeaconNode
	case "blobscan":
		*src = BlobScan
	case "blocknative":
		*src = BlockNative
	case "dir":
		*src = LocalDir
	default:
		return errors.Newf(`unknown blob source %q, want "any", "beacon", "blobscan", "blocknative" or "dir"`, text)
	}
	return nil
}
