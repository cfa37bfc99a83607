//go:build ckzg && cgo && !js && !wasip1

package kzg4844

import (
	"sync"

	"github.com/cockroachdb/errors"
	ckzg4844 "github.com/ethereum/c-kzg-4844/bindings/go"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
)

// c-kzg keeps a single global setup, so it can only be loaded once.
var (
	ckzgOnce sync.Once
	ckzgErr  error
)

// CKZGBackend is backed by the ethereum/c-kzg-4844 Go bindings.
type CKZGBackend struct{}

// NewCKZGBackend loads setup into c-kzg-4844. Only the first call loads; later
// calls reuse the already installed setup.
func NewCKZGBackend(setup *loader.Setup) (*CKZGBackend, error) {
	ckzgOnce.Do(func() {
		if setup == nil || len(setup.G1Lagrange) == 0 {
			ckzgErr = ErrMissingLagrange
			return
		}
		ckzgErr = ckzg4844.LoadTrustedSetup(setup.G1Lagrange, setup.G2Monomial)
	})
	if ckzgErr != nil {
		return nil, ckzgErr
	}
	return &CKZGBackend{}, nil
}

func (b *CKZGBackend) Name() string { return "c-kzg-4844" }

func (b *CKZGBackend) BlobToCommitment(blob *kzg.Blob) (kzg.Commitment, error) {
	commitment, err := ckzg4844.BlobToKZGCommitment((*ckzg4844.Blob)(blob))
	if err != nil {
		return kzg.Commitment{}, err
	}
	return (kzg.Commitment)(commitment), nil
}

func (b *CKZGBackend) ComputeProof(blob *kzg.Blob, point Point) (kzg.Proof, Claim, error) {
	proof, claim, err := ckzg4844.ComputeKZGProof((*ckzg4844.Blob)(blob), (ckzg4844.Bytes32)(point))
	if err != nil {
		return kzg.Proof{}, Claim{}, err
	}
	return (kzg.Proof)(proof), (Claim)(claim), nil
}

func (b *CKZGBackend) VerifyProof(commitment kzg.Commitment, point Point, claim Claim, proof kzg.Proof) error {
	valid, err := ckzg4844.VerifyKZGProof((ckzg4844.Bytes48)(commitment), (ckzg4844.Bytes32)(point), (ckzg4844.Bytes32)(claim), (ckzg4844.Bytes48)(proof))
	if err != nil {
		return err
	}
	if !valid {
		return ErrInvalidProof
	}
	return nil
}

func (b *CKZGBackend) ComputeBlobProof(blob *kzg.Blob, commitment kzg.Commitment) (kzg.Proof, error) {
	proof, err := ckzg4844.ComputeBlobKZGProof((*ckzg4844.Blob)(blob), (ckzg4844.Bytes48)(commitment))
	if err != nil {
		return kzg.Proof{}, err
	}
	return (kzg.Proof)(proof), nil
}

func (b *CKZGBackend) VerifyBlobProof(blob *kzg.Blob, commitment kzg.Commitment, proof kzg.Proof) error {
	valid, err := ckzg4844.VerifyBlobKZGProof((*ckzg4844.Blob)(blob), (ckzg4844.Bytes48)(commitment), (ckzg4844.Bytes48)(proof))
	if err != nil {
		return errors.Wrap(err, "c-kzg")
	}
	if !valid {
		return ErrInvalidProof
	}
	return nil
}
