//go:build !js && !wasip1

package loader

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/log"
)

// LoadFile reads a trusted setup from path, choosing the format by extension.
func LoadFile(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read trusted setup %s", path)
	}
	return decodeFile(path, data)
}

// LoadFileWithChecksum is LoadFile that first checks the file digest.
func LoadFileWithChecksum(path string, sum SHA256Checksum) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read trusted setup %s", path)
	}
	if err := VerifyChecksum(data, sum); err != nil {
		return nil, errors.Wrapf(err, "trusted setup %s", path)
	}
	return decodeFile(path, data)
}

func decodeFile(path string, data []byte) (*Setup, error) {
	format := FormatFromPath(path)
	s, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "decode trusted setup %s", path)
	}
	log.Debug("Read trusted setup file", "path", path, "format", format, "bytes", len(data))
	return s, nil
}
