package kzg4844

import (
	"sync"

	gokzg4844 "github.com/crate-crypto/go-kzg-4844"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var (
	gokzgOnce    sync.Once
	gokzgContext *gokzg4844.Context
	gokzgErr     error
)

// GoKZGBackend is backed by crate-crypto/go-kzg-4844 and the mainnet
// ceremony output embedded in it.
type GoKZGBackend struct {
	ctx *gokzg4844.Context
}

// NewGoKZGBackend returns the go-kzg-4844 backend. The context is built once
// per process.
func NewGoKZGBackend() (*GoKZGBackend, error) {
	gokzgOnce.Do(func() {
		gokzgContext, gokzgErr = gokzg4844.NewContext4096Secure()
	})
	if gokzgErr != nil {
		return nil, gokzgErr
	}
	return &GoKZGBackend{ctx: gokzgContext}, nil
}

func (b *GoKZGBackend) Name() string { return "go-kzg-4844" }

func (b *GoKZGBackend) BlobToCommitment(blob *kzg.Blob) (kzg.Commitment, error) {
	commitment, err := b.ctx.BlobToKZGCommitment((*gokzg4844.Blob)(blob), 0)
	if err != nil {
		return kzg.Commitment{}, err
	}
	return (kzg.Commitment)(commitment), nil
}

func (b *GoKZGBackend) ComputeProof(blob *kzg.Blob, point Point) (kzg.Proof, Claim, error) {
	proof, claim, err := b.ctx.ComputeKZGProof((*gokzg4844.Blob)(blob), (gokzg4844.Scalar)(point), 0)
	if err != nil {
		return kzg.Proof{}, Claim{}, err
	}
	return (kzg.Proof)(proof), (Claim)(claim), nil
}

func (b *GoKZGBackend) VerifyProof(commitment kzg.Commitment, point Point, claim Claim, proof kzg.Proof) error {
	return b.ctx.VerifyKZGProof((gokzg4844.KZGCommitment)(commitment), (gokzg4844.Scalar)(point), (gokzg4844.Scalar)(claim), (gokzg4844.KZGProof)(proof))
}

func (b *GoKZGBackend) ComputeBlobProof(blob *kzg.Blob, commitment kzg.Commitment) (kzg.Proof, error) {
	proof, err := b.ctx.ComputeBlobKZGProof((*gokzg4844.Blob)(blob), (gokzg4844.KZGCommitment)(commitment), 0)
	if err != nil {
		return kzg.Proof{}, err
	}
	return (kzg.Proof)(proof), nil
}

func (b *GoKZGBackend) VerifyBlobProof(blob *kzg.Blob, commitment kzg.Commitment, proof kzg.Proof) error {
	return b.ctx.VerifyBlobKZGProof((*gokzg4844.Blob)(blob), (gokzg4844.KZGCommitment)(commitment), (gokzg4844.KZGProof)(proof))
}
