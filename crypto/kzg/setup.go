package kzg

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/ethereum/go-ethereum/log"
)

// TrustedSetup is a monomial structured reference string: the G1 powers
// τ⁰G..τ⁴⁰⁹⁵G and the G2 powers H, τH. It is never mutated once built.
type TrustedSetup struct {
	g1 []bls12381.G1Affine
	g2 [NumG2Points]bls12381.G2Affine
}

// NewTrustedSetup builds a setup from decoded points. g1 is copied.
func NewTrustedSetup(g1 []bls12381.G1Affine, g2 [NumG2Points]bls12381.G2Affine) (*TrustedSetup, error) {
	if len(g1) != FieldElementsPerBlob {
		return nil, errors.Wrapf(ErrInvalidSetupSize, "want %d G1 points, have %d", FieldElementsPerBlob, len(g1))
	}
	s := &TrustedSetup{g1: make([]bls12381.G1Affine, len(g1)), g2: g2}
	copy(s.g1, g1)
	return s, nil
}

// ParseTrustedSetup decodes concatenated compressed points. The buffer sizes
// are checked before any point is decoded, and every point is checked to be
// on the curve and in the prime-order subgroup.
func ParseTrustedSetup(g1Bytes, g2Bytes []byte) (*TrustedSetup, error) {
	if len(g1Bytes) != FieldElementsPerBlob*BytesPerG1Point || len(g2Bytes) != NumG2Points*BytesPerG2Point {
		return nil, errors.Wrapf(ErrInvalidSetupSize, "g1 %d bytes, g2 %d bytes", len(g1Bytes), len(g2Bytes))
	}
	s := &TrustedSetup{g1: make([]bls12381.G1Affine, FieldElementsPerBlob)}
	for i := range s.g1 {
		if _, err := s.g1[i].SetBytes(g1Bytes[i*BytesPerG1Point : (i+1)*BytesPerG1Point]); err != nil {
			return nil, errors.Wrapf(err, "decode g1 point %d", i)
		}
	}
	for i := range s.g2 {
		if _, err := s.g2[i].SetBytes(g2Bytes[i*BytesPerG2Point : (i+1)*BytesPerG2Point]); err != nil {
			return nil, errors.Wrapf(err, "decode g2 point %d", i)
		}
	}
	return s, nil
}

// Bytes returns the compressed G1 and G2 segments of the setup in the layout
// accepted by ParseTrustedSetup.
func (s *TrustedSetup) Bytes() (g1Bytes, g2Bytes []byte) {
	g1Bytes = make([]byte, 0, len(s.g1)*BytesPerG1Point)
	for i := range s.g1 {
		b := s.g1[i].Bytes()
		g1Bytes = append(g1Bytes, b[:]...)
	}
	g2Bytes = make([]byte, 0, NumG2Points*BytesPerG2Point)
	for i := range s.g2 {
		b := s.g2[i].Bytes()
		g2Bytes = append(g2Bytes, b[:]...)
	}
	return g1Bytes, g2Bytes
}

// Generator returns the first G1 power, the group generator for any valid setup.
func (s *TrustedSetup) Generator() bls12381.G1Affine {
	return s.g1[0]
}

// Engine computes commitments and opening proofs against a trusted setup it
// owns. The setup may be replaced at any time: every operation reads it once,
// so an in-flight call always sees a single consistent setup.
type Engine struct {
	setup atomic.Pointer[TrustedSetup]
}

// NewEngine returns an engine with no setup loaded.
func NewEngine() *Engine {
	return new(Engine)
}

// Load replaces the active setup. Loading nil unloads the engine.
func (e *Engine) Load(s *TrustedSetup) {
	e.setup.Store(s)
	if s != nil {
		log.Info("Loaded KZG trusted setup", "g1", len(s.g1), "g2", len(s.g2))
	}
}

// LoadFromBytes parses and installs a setup. On failure the previously loaded
// setup is discarded, so nothing keeps running against a setup the caller
// meant to replace.
func (e *Engine) LoadFromBytes(g1Bytes, g2Bytes []byte) error {
	s, err := ParseTrustedSetup(g1Bytes, g2Bytes)
	if err != nil {
		e.setup.Store(nil)
		log.Warn("Failed to load KZG trusted setup", "err", err)
		return err
	}
	e.Load(s)
	return nil
}

// LoadFromMock installs the insecure deterministic setup from
// NewMockTrustedSetup. Tests only.
func (e *Engine) LoadFromMock() error {
	s, err := NewMockTrustedSetup()
	if err != nil {
		return err
	}
	e.setup.Store(s)
	log.Warn("Loaded INSECURE mock KZG trusted setup")
	return nil
}

// Loaded reports whether a setup is installed.
func (e *Engine) Loaded() bool {
	return e.setup.Load() != nil
}

// Setup returns the active setup or ErrSetupNotLoaded.
func (e *Engine) Setup() (*TrustedSetup, error) {
	s := e.setup.Load()
	if s == nil {
		return nil, ErrSetupNotLoaded
	}
	return s, nil
}
