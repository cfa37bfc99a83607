// Package kzg4844 wraps the canonical EIP-4844 KZG libraries, which read a
// blob in evaluation form over the roots of unity and use the ceremony's
// Lagrange-basis setup. Their commitments are the ones consensus clients
// accept, unlike the coefficient-form commitments of package kzg.
package kzg4844

import (
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
)

var (
	ErrCKZGUnavailable = errors.New("kzg4844: c-kzg-4844 backend not compiled in (build with cgo and -tags ckzg)")
	ErrMissingLagrange = errors.New("kzg4844: trusted setup has no G1 lagrange points")
	ErrInvalidProof    = errors.New("kzg4844: invalid proof")
)

// Point is the big-endian encoding of an evaluation point.
type Point [32]byte

// Claim is the big-endian encoding of a claimed evaluation.
type Claim [32]byte

// PointFromBig encodes a canonical scalar as a Point.
func PointFromBig(z *big.Int) (Point, error) {
	b, err := kzg.ScalarBytes(z)
	return Point(b), err
}

// Big returns c as an integer.
func (c Claim) Big() *big.Int {
	return new(big.Int).SetBytes(c[:])
}

// Backend is a canonical EIP-4844 KZG implementation.
type Backend interface {
	Name() string

	// BlobToCommitment creates a small commitment out of a data blob.
	BlobToCommitment(blob *kzg.Blob) (kzg.Commitment, error)

	// ComputeProof computes the KZG proof at the given point for the
	// polynomial represented by the blob.
	ComputeProof(blob *kzg.Blob, point Point) (kzg.Proof, Claim, error)

	// VerifyProof verifies that the polynomial committed to evaluates to
	// claim at point.
	VerifyProof(commitment kzg.Commitment, point Point, claim Claim, proof kzg.Proof) error

	// ComputeBlobProof returns the proof used to verify the blob against the
	// commitment. It does not check that the commitment matches the blob.
	ComputeBlobProof(blob *kzg.Blob, commitment kzg.Commitment) (kzg.Proof, error)

	// VerifyBlobProof verifies that the blob data corresponds to the commitment.
	VerifyBlobProof(blob *kzg.Blob, commitment kzg.Commitment, proof kzg.Proof) error
}

type holder struct{ Backend }

var (
	active      atomic.Pointer[holder]
	defaultOnce sync.Once
	defaultErr  error
)

// Default returns the process-wide backend, initialising the go-kzg-4844
// backend on first use.
func Default() (Backend, error) {
	if h := active.Load(); h != nil {
		return h.Backend, nil
	}
	defaultOnce.Do(func() {
		b, err := NewGoKZGBackend()
		if err != nil {
			defaultErr = err
			return
		}
		active.CompareAndSwap(nil, &holder{b})
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return active.Load().Backend, nil
}

// UseCKZG switches the process-wide backend between c-kzg-4844 and
// go-kzg-4844. setup is only consulted when enabling c-kzg. On error the
// active backend is left unchanged.
func UseCKZG(use bool, setup *loader.Setup) error {
	var (
		b   Backend
		err error
	)
	if use {
		b, err = NewCKZGBackend(setup)
	} else {
		b, err = NewGoKZGBackend()
	}
	if err != nil {
		return err
	}
	active.Store(&holder{b})
	log.Info("Selected KZG backend", "backend", b.Name())
	return nil
}
