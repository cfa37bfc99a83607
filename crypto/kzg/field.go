package kzg

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// modulus is the BLS12-381 scalar field order r.
var modulus = fr.Modulus()

// Polynomial is a blob polynomial in coefficient form, p(x) = Σ p[i]·xⁱ.
type Polynomial []fr.Element

// ValidateBlob checks that blob has the exact blob size and that every 32-byte
// chunk, read as a big-endian integer, is strictly less than r.
func ValidateBlob(blob []byte) error {
	if len(blob) != BytesPerBlob {
		return errors.Wrapf(ErrInvalidBlobSize, "got %d bytes", len(blob))
	}
	for i := 0; i < FieldElementsPerBlob; i++ {
		if _, err := scalarFromChunk(blob, i); err != nil {
			return err
		}
	}
	return nil
}

// BlobToPolynomial validates blob and interprets chunk i as coefficient i.
func BlobToPolynomial(blob []byte) (Polynomial, error) {
	if len(blob) != BytesPerBlob {
		return nil, errors.Wrapf(ErrInvalidBlobSize, "got %d bytes", len(blob))
	}
	poly := make(Polynomial, FieldElementsPerBlob)
	for i := range poly {
		e, err := scalarFromChunk(blob, i)
		if err != nil {
			return nil, err
		}
		poly[i] = e
	}
	return poly, nil
}

func scalarFromChunk(blob []byte, i int) (fr.Element, error) {
	var chunk [BytesPerFieldElement]byte
	copy(chunk[:], blob[i*BytesPerFieldElement:(i+1)*BytesPerFieldElement])

	// Element compares the full 256-bit value against r and never reduces.
	e, err := fr.BigEndian.Element(&chunk)
	if err != nil {
		return fr.Element{}, errors.Wrapf(ErrInvalidFieldElement, "field element %d", i)
	}
	return e, nil
}

// Evaluate returns p(z) using Horner's rule.
func (p Polynomial) Evaluate(z *fr.Element) fr.Element {
	var res fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		res.Mul(&res, z).Add(&res, &p[i])
	}
	return res
}

// DivideByLinear returns q such that p(x) - p(z) = q(x)·(x - z).
// Subtracting p(z) only changes the constant term, which lands entirely in
// the (zero) remainder, so q does not depend on the claimed value.
func (p Polynomial) DivideByLinear(z *fr.Element) Polynomial {
	n := len(p)
	if n < 2 {
		return Polynomial{}
	}
	q := make(Polynomial, n-1)
	q[n-2] = p[n-1]
	for i := n - 2; i > 0; i-- {
		q[i-1].Mul(&q[i], z).Add(&q[i-1], &p[i])
	}
	return q
}

// ScalarFromBig converts v to a field element. Values outside [0, r) are
// rejected rather than reduced.
func ScalarFromBig(v *big.Int) (fr.Element, error) {
	var e fr.Element
	if v == nil || v.Sign() < 0 || v.Cmp(modulus) >= 0 {
		return e, ErrInvalidFieldElement
	}
	e.SetBigInt(v)
	return e, nil
}

// ScalarBytes returns the 32-byte big-endian encoding of v, which must be a
// canonical scalar.
func ScalarBytes(v *big.Int) ([BytesPerFieldElement]byte, error) {
	e, err := ScalarFromBig(v)
	if err != nil {
		return [BytesPerFieldElement]byte{}, err
	}
	return e.Bytes(), nil
}

// Modulus returns a copy of the scalar field order r.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}
