package kzg

import "github.com/cockroachdb/errors"

var (
	ErrInvalidBlobSize     = errors.New("kzg: blob size must be 131072 bytes")
	ErrInvalidFieldElement = errors.New("kzg: field element not canonical")
	ErrSetupNotLoaded      = errors.New("kzg: trusted setup not loaded")
	ErrInvalidSetupSize    = errors.New("kzg: invalid trusted setup size")
)
