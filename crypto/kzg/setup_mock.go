package kzg

import (
	"math/big"
	"sync"

	gnarkkzg "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/kzg"
)

// MockSecret is the publicly known τ of the mock setup.
const MockSecret = 1337

var (
	mockOnce  sync.Once
	mockSetup *TrustedSetup
	mockErr   error
)

// NewMockTrustedSetup returns a structurally valid setup generated from the
// public secret MockSecret.
//
// INSECURE: anyone can forge openings against it. It exists for tests and
// must never be loaded by a production process.
func NewMockTrustedSetup() (*TrustedSetup, error) {
	mockOnce.Do(func() {
		srs, err := gnarkkzg.NewSRS(FieldElementsPerBlob, big.NewInt(MockSecret))
		if err != nil {
			mockErr = err
			return
		}
		mockSetup = &TrustedSetup{g1: srs.Pk.G1, g2: srs.Vk.G2}
	})
	return mockSetup, mockErr
}
