package blob_client

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/snappy"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

const (
	rawBlobExt        = ".blob"
	compressedBlobExt = ".blob.sz"
)

// DirClient serves blobs stored as <versioned hash>.blob files in a directory,
// or as snappy-compressed <versioned hash>.blob.sz files.
type DirClient struct {
	dir      string
	compress bool
}

func NewDirClient(dir string) *DirClient {
	return &DirClient{dir: dir}
}

// WithCompression makes Store write snappy-compressed files. Reads accept
// both layouts regardless.
func (c *DirClient) WithCompression(compress bool) *DirClient {
	c.compress = compress
	return c
}

// Path returns the file Store writes a blob with versionedHash to.
func (c *DirClient) Path(versionedHash common.Hash) string {
	if c.compress {
		return c.path(versionedHash, compressedBlobExt)
	}
	return c.path(versionedHash, rawBlobExt)
}

func (c *DirClient) path(versionedHash common.Hash, ext string) string {
	return filepath.Join(c.dir, versionedHash.Hex()+ext)
}

func (c *DirClient) GetBlobByVersionedHash(ctx context.Context, versionedHash common.Hash) (*kzg.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := c.path(versionedHash, rawBlobExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		path = c.path(versionedHash, compressedBlobExt)
		data, err = os.ReadFile(path)
		if err == nil {
			if data, err = snappy.Decode(nil, data); err != nil {
				return nil, errors.Wrapf(err, "blob file %s", path)
			}
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrBlobNotFound, "versioned hash %s", versionedHash.Hex())
	}
	if err != nil {
		return nil, err
	}
	if len(data) != kzg.BytesPerBlob {
		return nil, errors.Wrapf(kzg.ErrInvalidBlobSize, "blob file %s is %d bytes", path, len(data))
	}
	var blob kzg.Blob
	copy(blob[:], data)
	return &blob, nil
}

func (c *DirClient) GetBlobSidecar(ctx context.Context, versionedHash common.Hash) (*Sidecar, error) {
	blob, err := c.GetBlobByVersionedHash(ctx, versionedHash)
	if err != nil {
		return nil, err
	}
	return &Sidecar{Blob: blob, Source: LocalDir}, nil
}

// Store writes blob under versionedHash.
func (c *DirClient) Store(versionedHash common.Hash, blob *kzg.Blob) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data := blob[:]
	if c.compress {
		data = snappy.Encode(nil, data)
	}
	return os.WriteFile(c.Path(versionedHash), data, 0o644)
}
