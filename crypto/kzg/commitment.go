package kzg

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// msmConfig runs each MSM as a single task. Callers that want
// throughput run independent operations concurrently instead.
var msmConfig = ecc.MultiExpConfig{NbTasks: 1}

// Commit validates blob and returns Σ aᵢ·τⁱG over its 4096 coefficients in
// compressed form. The all-zero blob commits to the identity, 0xc0 followed by
// 47 zero bytes.
func (e *Engine) Commit(blob []byte) (Commitment, error) {
	setup, err := e.Setup()
	if err != nil {
		return Commitment{}, err
	}
	poly, err := BlobToPolynomial(blob)
	if err != nil {
		return Commitment{}, err
	}
	point, err := setup.commit(poly)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment(point.Bytes()), nil
}

// VerifyBlob recomputes the commitment of blob and compares it with
// commitment. Invalid blobs report false; the only error is ErrSetupNotLoaded.
func (e *Engine) VerifyBlob(blob []byte, commitment []byte) (bool, error) {
	c, err := e.Commit(blob)
	if err != nil {
		if errors.Is(err, ErrSetupNotLoaded) {
			return false, err
		}
		return false, nil
	}
	return bytes.Equal(c[:], commitment), nil
}

// commit is the MSM of poly against the first len(poly) G1 powers.
func (s *TrustedSetup) commit(poly Polynomial) (*bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if _, err := p.MultiExp(s.g1[:len(poly)], poly, msmConfig); err != nil {
		return nil, err
	}
	return &p, nil
}
