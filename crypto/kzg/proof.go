package kzg

import (
	"math/big"

	"github.com/cockroachdb/errors"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Open evaluates the blob polynomial at z and returns the opening proof
// together with the value p(z). z must lie in [0, r).
func (e *Engine) Open(blob []byte, z *big.Int) (Proof, *big.Int, error) {
	setup, err := e.Setup()
	if err != nil {
		return Proof{}, nil, err
	}
	poly, err := BlobToPolynomial(blob)
	if err != nil {
		return Proof{}, nil, err
	}
	point, err := ScalarFromBig(z)
	if err != nil {
		return Proof{}, nil, errors.Wrap(err, "evaluation point")
	}

	value := poly.Evaluate(&point)
	quotient := poly.DivideByLinear(&point)
	pi, err := setup.commit(quotient)
	if err != nil {
		return Proof{}, nil, err
	}
	return Proof(pi.Bytes()), value.BigInt(new(big.Int)), nil
}

// Verify checks that proof opens commitment to value at z:
//
//	e(C - value·G, H) == e(π, τH - z·H)
//
// Malformed points, non-canonical scalars and failed pairings all return
// false. The only error is ErrSetupNotLoaded.
func (e *Engine) Verify(commitment []byte, z, value *big.Int, proof []byte) (bool, error) {
	setup, err := e.Setup()
	if err != nil {
		return false, err
	}
	var c, pi bls12381.G1Affine
	if !decodeG1(&c, commitment) || !decodeG1(&pi, proof) {
		return false, nil
	}
	zf, err := ScalarFromBig(z)
	if err != nil {
		return false, nil
	}
	yf, err := ScalarFromBig(value)
	if err != nil {
		return false, nil
	}
	return setup.verify(&c, &zf, &yf, &pi), nil
}

func (s *TrustedSetup) verify(c *bls12381.G1Affine, z, y *fr.Element, pi *bls12381.G1Affine) bool {
	var yBig, zBig big.Int
	y.BigInt(&yBig)
	z.BigInt(&zBig)

	var yG, lhs, negPi bls12381.G1Affine
	yG.ScalarMultiplication(&s.g1[0], &yBig)
	lhs.Sub(c, &yG)
	negPi.Neg(pi)

	var zH, rhs bls12381.G2Affine
	zH.ScalarMultiplication(&s.g2[0], &zBig)
	rhs.Sub(&s.g2[1], &zH)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{lhs, negPi},
		[]bls12381.G2Affine{s.g2[0], rhs},
	)
	return err == nil && ok
}

// decodeG1 parses a 48-byte compressed point, rejecting bad flags, points off
// the curve and points outside the subgroup.
func decodeG1(p *bls12381.G1Affine, buf []byte) bool {
	if len(buf) != BytesPerG1Point {
		return false
	}
	n, err := p.SetBytes(buf)
	return err == nil && n == BytesPerG1Point
}
