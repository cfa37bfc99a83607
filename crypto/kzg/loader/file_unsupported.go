//go:build js || wasip1

package loader

// LoadFile is unavailable without a filesystem. Callers on these platforms
// obtain the setup bytes themselves and use Decode.
func LoadFile(path string) (*Setup, error) {
	return nil, ErrEnvironmentUnsupported
}

// LoadFileWithChecksum is unavailable without a filesystem.
func LoadFileWithChecksum(path string, sum SHA256Checksum) (*Setup, error) {
	return nil, ErrEnvironmentUnsupported
}
