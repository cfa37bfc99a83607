// Package kzg implements KZG polynomial commitments over BLS12-381 for
// EIP-4844 blobs.
//
// A blob is read as 4096 big-endian scalars which are used directly as the
// coefficients of a polynomial of degree < 4096. Commitments and opening
// proofs are multi-scalar multiplications against a monomial trusted setup
// (powers of tau in G1), and openings are checked with a single pairing
// product. Curve and pairing arithmetic is delegated to gnark-crypto.
package kzg

import (
	"reflect"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	FieldElementsPerBlob = 4096
	BytesPerFieldElement = 32
	BytesPerBlob         = FieldElementsPerBlob * BytesPerFieldElement

	BytesPerCommitment = 48
	BytesPerProof      = 48

	// Sizes of compressed curve points in the trusted setup.
	BytesPerG1Point = 48
	BytesPerG2Point = 96

	// NumG2Points is the number of G2 powers needed for verification: H and tau*H.
	NumG2Points = 2

	// VersionedHashVersionKZG is the version byte of EIP-4844 blob hashes.
	VersionedHashVersionKZG = byte(0x01)
)

var (
	blobT       = reflect.TypeOf(Blob{})
	commitmentT = reflect.TypeOf(Commitment{})
	proofT      = reflect.TypeOf(Proof{})
)

// Blob represents a 4844 data blob.
type Blob [BytesPerBlob]byte

// UnmarshalJSON parses a blob in hex syntax.
func (b *Blob) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(blobT, input, b[:])
}

// MarshalText returns the hex representation of b.
func (b *Blob) MarshalText() ([]byte, error) {
	return hexutil.Bytes(b[:]).MarshalText()
}

// Commitment is a compressed G1 commitment to a blob polynomial.
type Commitment [BytesPerCommitment]byte

// UnmarshalJSON parses a commitment in hex syntax.
func (c *Commitment) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(commitmentT, input, c[:])
}

// MarshalText returns the hex representation of c.
func (c Commitment) MarshalText() ([]byte, error) {
	return hexutil.Bytes(c[:]).MarshalText()
}

// Proof is a compressed G1 commitment to the quotient polynomial of an opening.
type Proof [BytesPerProof]byte

// UnmarshalJSON parses a proof in hex syntax.
func (p *Proof) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(proofT, input, p[:])
}

// MarshalText returns the hex representation of p.
func (p Proof) MarshalText() ([]byte, error) {
	return hexutil.Bytes(p[:]).MarshalText()
}
