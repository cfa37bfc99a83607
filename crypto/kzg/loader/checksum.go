package loader

import (
	"crypto/sha256"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrChecksumMismatch = errors.New("loader: checksum mismatch")

type SHA256Checksum [sha256.Size]byte

// SHA256ChecksumFromHex parses a 32-byte hex checksum, with or without the
// 0x prefix.
func SHA256ChecksumFromHex(s string) (SHA256Checksum, error) {
	var sum SHA256Checksum
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	err := sum.UnmarshalText([]byte(s))
	return sum, err
}

// Checksum returns the SHA-256 digest of data.
func Checksum(data []byte) SHA256Checksum {
	return sha256.Sum256(data)
}

// VerifyChecksum fails with ErrChecksumMismatch unless data hashes to sum.
func VerifyChecksum(data []byte, sum SHA256Checksum) error {
	if have := Checksum(data); have != sum {
		return errors.Wrapf(ErrChecksumMismatch, "have %s, want %s", have.Hex(), sum.Hex())
	}
	return nil
}

func (s SHA256Checksum) Hex() string {
	return hexutil.Encode(s[:])
}

// UnmarshalText parses a checksum in hex syntax.
func (s *SHA256Checksum) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("SHA256Checksum", input, s[:])
}

// UnmarshalJSON parses a checksum in hex syntax.
func (s *SHA256Checksum) UnmarshalJSON(input []byte) error {
	return hexutil.UnmarshalFixedJSON(reflect.TypeOf(SHA256Checksum{}), input, s[:])
}

// MarshalText returns the hex representation of s.
func (s SHA256Checksum) MarshalText() ([]byte, error) {
	return hexutil.Bytes(s[:]).MarshalText()
}
