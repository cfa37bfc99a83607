package main

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/naoina/toml"

	"github.com/ETHCF/blobkit-sub002/blob/blobcache"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type SetupConfig struct {
	Path     string // trusted setup file, .json or raw
	Checksum string `toml:",omitempty"` // optional hex sha256 of the file
	CKZG     bool   // use c-kzg-4844 for canonical EIP-4844 operations
}

type LogConfig struct {
	Verbosity int // 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace
	Color     bool
	File      string `toml:",omitempty"` // rotated log file, stderr if empty
	MaxSize   int    `toml:",omitempty"` // megabytes before the file is rotated
}

type blobkitConfig struct {
	TrustedSetup SetupConfig
	Cache        blobcache.Config
	Log          LogConfig
	Workers      int
}

var defaultConfig = blobkitConfig{
	Cache:   blobcache.DefaultConfig,
	Log:     LogConfig{Verbosity: 3},
	Workers: 4,
}

func loadConfig(file string, cfg *blobkitConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// checksum parses the configured setup checksum, if any.
func (c SetupConfig) checksum() (*loader.SHA256Checksum, error) {
	if c.Checksum == "" {
		return nil, nil
	}
	sum, err := loader.SHA256ChecksumFromHex(c.Checksum)
	if err != nil {
		return nil, errors.Wrap(err, "invalid trusted setup checksum")
	}
	return &sum, nil
}
