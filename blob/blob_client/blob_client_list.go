package blob_client

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

const (
	defaultListRounds     = 3
	listOverSleepDuration = 100 * time.Millisecond
)

var ErrEmptyClientList = errors.New("list of BlobClients is empty")

// BlobClientList tries its clients in turn, starting from the one that last
// succeeded. After every client has failed it waits briefly and starts another
// round, giving up after a fixed number of rounds or when ctx is done.
type BlobClientList struct {
	mu     sync.Mutex
	list   []BlobClient
	curPos int
	rounds int
}

func NewBlobClientList(blobClients ...BlobClient) *BlobClientList {
	return &BlobClientList{
		list:   blobClients,
		rounds: defaultListRounds,
	}
}

// SetRounds sets how many full passes over the list are attempted.
func (c *BlobClientList) SetRounds(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.rounds = n
	c.mu.Unlock()
}

func (c *BlobClientList) GetBlobByVersionedHash(ctx context.Context, versionedHash common.Hash) (*kzg.Blob, error) {
	var blob *kzg.Blob
	err := c.each(ctx, func(client BlobClient) error {
		var err error
		blob, err = client.GetBlobByVersionedHash(ctx, versionedHash)
		return err
	})
	return blob, err
}

// GetBlobSidecar asks clients that implement SidecarClient for the sidecar;
// plain clients contribute the blob without a position.
func (c *BlobClientList) GetBlobSidecar(ctx context.Context, versionedHash common.Hash) (*Sidecar, error) {
	var sidecar *Sidecar
	err := c.each(ctx, func(client BlobClient) error {
		if sc, ok := client.(SidecarClient); ok {
			var err error
			sidecar, err = sc.GetBlobSidecar(ctx, versionedHash)
			return err
		}
		blob, err := client.GetBlobByVersionedHash(ctx, versionedHash)
		if err != nil {
			return err
		}
		sidecar = &Sidecar{Blob: blob, Source: AnyBlobSource}
		return nil
	})
	return sidecar, err
}

func (c *BlobClientList) each(ctx context.Context, fetch func(BlobClient) error) error {
	c.mu.Lock()
	list := append([]BlobClient(nil), c.list...)
	start, rounds := c.curPos, c.rounds
	c.mu.Unlock()

	if len(list) == 0 {
		return ErrEmptyClientList
	}

	var lastErr error
	for round := 0; round < rounds; round++ {
		for i := 0; i < len(list); i++ {
			pos := (start + i) % len(list)
			err := fetch(list[pos])
			if err == nil {
				c.mu.Lock()
				if len(c.list) > 0 {
					c.curPos = pos % len(c.list)
				}
				c.mu.Unlock()
				return nil
			}
			lastErr = err
			log.Warn("BlobClientList: failed to get blob by versioned hash from BlobClient", "err", err, "blob client pos in BlobClientList", pos)
		}
		if round == rounds-1 {
			break
		}
		// if we iterated over entire list, wait before starting again
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), lastErr.Error())
		case <-time.After(listOverSleepDuration):
		}
	}
	return errors.Wrapf(lastErr, "all %d blob clients failed", len(list))
}

func (c *BlobClientList) AddBlobClient(blobClient BlobClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, blobClient)
}

func (c *BlobClientList) RemoveBlobClient(blobClient BlobClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pos, client := range c.list {
		if client == blobClient {
			c.list = append(c.list[:pos], c.list[pos+1:]...)
			if len(c.list) == 0 {
				c.curPos = 0
			} else {
				c.curPos %= len(c.list)
			}
			return
		}
	}
}

// Len returns the number of clients in the list.
func (c *BlobClientList) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}
