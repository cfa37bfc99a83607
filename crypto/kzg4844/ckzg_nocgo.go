//go:build !ckzg || !cgo || js || wasip1

package kzg4844

import "github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"

// NewCKZGBackend always fails in builds without c-kzg-4844.
func NewCKZGBackend(setup *loader.Setup) (Backend, error) {
	return nil, ErrCKZGUnavailable
}
