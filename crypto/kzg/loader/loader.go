// Package loader resolves trusted setup files into the flat byte buffers
// accepted by the kzg engine. The engine itself never touches the filesystem.
package loader

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var (
	ErrEnvironmentUnsupported = errors.New("loader: loading a trusted setup by path is not supported on this platform")
	ErrMissingMonomial        = errors.New("loader: trusted setup has no G1 monomial points")
	ErrMalformedSetup         = errors.New("loader: malformed trusted setup")
)

// Format is the on-disk layout of a trusted setup.
type Format int

const (
	// FormatRaw is g1 monomial (4096*48 bytes) followed by g2 monomial (2*96 bytes).
	FormatRaw Format = iota
	// FormatJSON is the trusted_setup.json layout published with the KZG ceremony.
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatRaw
}

// Setup holds the concatenated compressed points of a trusted setup.
// G1Lagrange is only present in JSON setups and is used by the canonical
// EIP-4844 backends.
type Setup struct {
	G1Monomial []byte
	G1Lagrange []byte
	G2Monomial []byte
}

type jsonSetup struct {
	G1Monomial []string `json:"g1_monomial,omitempty"`
	G1Lagrange []string `json:"g1_lagrange,omitempty"`
	G2Monomial []string `json:"g2_monomial"`
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (*Setup, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatRaw:
		return ParseRaw(data)
	default:
		return nil, errors.Newf("loader: unknown format %d", format)
	}
}

// ParseJSON parses a trusted_setup.json document. Points may be written with
// or without the 0x prefix.
func ParseJSON(data []byte) (*Setup, error) {
	var js jsonSetup
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, errors.Wrap(ErrMalformedSetup, err.Error())
	}
	g1m, err := concatPoints("g1_monomial", js.G1Monomial, kzg.BytesPerG1Point)
	if err != nil {
		return nil, err
	}
	g1l, err := concatPoints("g1_lagrange", js.G1Lagrange, kzg.BytesPerG1Point)
	if err != nil {
		return nil, err
	}
	g2m, err := concatPoints("g2_monomial", js.G2Monomial, kzg.BytesPerG2Point)
	if err != nil {
		return nil, err
	}
	s := &Setup{G1Monomial: g1m, G1Lagrange: g1l, G2Monomial: g2m}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseRaw splits a raw monomial setup.
func ParseRaw(data []byte) (*Setup, error) {
	const g1Len = kzg.FieldElementsPerBlob * kzg.BytesPerG1Point
	if len(data) != g1Len+kzg.NumG2Points*kzg.BytesPerG2Point {
		return nil, errors.Wrapf(kzg.ErrInvalidSetupSize, "raw setup is %d bytes", len(data))
	}
	return &Setup{
		G1Monomial: append([]byte(nil), data[:g1Len]...),
		G2Monomial: append([]byte(nil), data[g1Len:]...),
	}, nil
}

func concatPoints(field string, points []string, size int) ([]byte, error) {
	out := make([]byte, 0, len(points)*size)
	for i, p := range points {
		if !strings.HasPrefix(p, "0x") && !strings.HasPrefix(p, "0X") {
			p = "0x" + p
		}
		b, err := hexutil.Decode(p)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedSetup, "%s[%d]: %v", field, i, err)
		}
		if len(b) != size {
			return nil, errors.Wrapf(ErrMalformedSetup, "%s[%d]: %d bytes, want %d", field, i, len(b), size)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (s *Setup) validate() error {
	const g1Len = kzg.FieldElementsPerBlob * kzg.BytesPerG1Point
	if n := len(s.G1Monomial); n != 0 && n != g1Len {
		return errors.Wrapf(kzg.ErrInvalidSetupSize, "g1 monomial is %d bytes", n)
	}
	if n := len(s.G1Lagrange); n != 0 && n != g1Len {
		return errors.Wrapf(kzg.ErrInvalidSetupSize, "g1 lagrange is %d bytes", n)
	}
	if len(s.G2Monomial) < kzg.NumG2Points*kzg.BytesPerG2Point {
		return errors.Wrapf(kzg.ErrInvalidSetupSize, "g2 monomial is %d bytes", len(s.G2Monomial))
	}
	return nil
}

// EngineBuffers returns the G1 monomial segment and the first two G2 powers,
// the exact inputs of kzg.Engine.LoadFromBytes.
func (s *Setup) EngineBuffers() (g1, g2 []byte, err error) {
	if len(s.G1Monomial) == 0 {
		return nil, nil, ErrMissingMonomial
	}
	if len(s.G2Monomial) < kzg.NumG2Points*kzg.BytesPerG2Point {
		return nil, nil, errors.Wrapf(kzg.ErrInvalidSetupSize, "g2 monomial is %d bytes", len(s.G2Monomial))
	}
	return s.G1Monomial, s.G2Monomial[:kzg.NumG2Points*kzg.BytesPerG2Point], nil
}

// LoadInto installs the setup into e.
func (s *Setup) LoadInto(e *kzg.Engine) error {
	g1, g2, err := s.EngineBuffers()
	if err != nil {
		return err
	}
	return e.LoadFromBytes(g1, g2)
}

// MarshalRaw encodes the monomial part of the setup in the raw layout.
func (s *Setup) MarshalRaw() ([]byte, error) {
	g1, g2, err := s.EngineBuffers()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(g1)+len(g2))
	out = append(out, g1...)
	return append(out, g2...), nil
}

// MarshalJSON encodes the setup in the trusted_setup.json layout.
func (s *Setup) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSetup{
		G1Monomial: splitPoints(s.G1Monomial, kzg.BytesPerG1Point),
		G1Lagrange: splitPoints(s.G1Lagrange, kzg.BytesPerG1Point),
		G2Monomial: splitPoints(s.G2Monomial, kzg.BytesPerG2Point),
	})
}

func splitPoints(buf []byte, size int) []string {
	if len(buf) == 0 {
		return nil
	}
	out := make([]string, 0, len(buf)/size)
	for i := 0; i+size <= len(buf); i += size {
		out = append(out, hexutil.Encode(buf[i:i+size]))
	}
	return out
}

// FromTrustedSetup converts a decoded monomial setup back into buffers.
func FromTrustedSetup(ts *kzg.TrustedSetup) *Setup {
	g1, g2 := ts.Bytes()
	return &Setup{G1Monomial: g1, G2Monomial: g2}
}
