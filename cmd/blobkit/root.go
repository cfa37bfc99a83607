package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
)

var errNoTrustedSetup = errors.New("no trusted setup configured, pass --setup or set TrustedSetup.Path")

// cfg is the effective configuration, resolved before any subcommand runs.
var cfg = defaultConfig

var rootCmd = &cobra.Command{
	Use:   "blobkit",
	Short: "Commit to, open and verify EIP-4844 blobs with KZG",
	Long: `blobkit computes KZG commitments and evaluation proofs for 131072-byte
blobs, verifies proofs and derives versioned hashes. A trusted setup file is
required for every cryptographic command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg.Log)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "TOML configuration file")
	flags.String("setup", "", "trusted setup file (.json or raw monomial)")
	flags.String("setup.checksum", "", "expected sha256 of the trusted setup file")
	flags.Int("verbosity", defaultConfig.Log.Verbosity, "log level: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	flags.String("log.file", "", "write logs to this file, rotating it by size")
	flags.Bool("json", false, "print results as JSON")
}

// resolveConfig layers defaults, the config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (blobkitConfig, error) {
	c := defaultConfig
	flags := cmd.Flags()

	file, err := flags.GetString("config")
	if err != nil {
		return c, err
	}
	if file != "" {
		if err := loadConfig(file, &c); err != nil {
			return c, err
		}
	}
	if flags.Changed("setup") {
		if c.TrustedSetup.Path, err = flags.GetString("setup"); err != nil {
			return c, err
		}
	}
	if flags.Changed("setup.checksum") {
		if c.TrustedSetup.Checksum, err = flags.GetString("setup.checksum"); err != nil {
			return c, err
		}
	}
	if flags.Changed("verbosity") {
		if c.Log.Verbosity, err = flags.GetInt("verbosity"); err != nil {
			return c, err
		}
	}
	if flags.Changed("log.file") {
		if c.Log.File, err = flags.GetString("log.file"); err != nil {
			return c, err
		}
	}
	return c, nil
}

func setupLogging(lc LogConfig) {
	var (
		output   io.Writer = os.Stderr
		useColor           = lc.Color && isatty.IsTerminal(os.Stderr.Fd())
	)
	if lc.File != "" {
		output = &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSize,
			MaxBackups: 3,
			Compress:   true,
		}
		useColor = false
	}
	handler := log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(lc.Verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

// loadSetup reads the configured trusted setup file.
func loadSetup(sc SetupConfig) (*loader.Setup, error) {
	if sc.Path == "" {
		return nil, errNoTrustedSetup
	}
	sum, err := sc.checksum()
	if err != nil {
		return nil, err
	}
	if sum != nil {
		return loader.LoadFileWithChecksum(sc.Path, *sum)
	}
	return loader.LoadFile(sc.Path)
}

// loadEngine returns an engine with the configured trusted setup installed.
func loadEngine(sc SetupConfig) (*kzg.Engine, error) {
	setup, err := loadSetup(sc)
	if err != nil {
		return nil, err
	}
	engine := kzg.NewEngine()
	if err := setup.LoadInto(engine); err != nil {
		return nil, err
	}
	return engine, nil
}

// readBlob reads a blob file holding either the raw 131072 bytes or their
// 0x-prefixed hex encoding.
func readBlob(path string) (*kzg.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if text := strings.TrimSpace(string(data)); strings.HasPrefix(text, "0x") {
		if data, err = hexutil.Decode(text); err != nil {
			return nil, errors.Wrapf(err, "blob file %s", path)
		}
	}
	if len(data) != kzg.BytesPerBlob {
		return nil, errors.Wrapf(kzg.ErrInvalidBlobSize, "blob file %s has %d bytes", path, len(data))
	}
	var blob kzg.Blob
	copy(blob[:], data)
	return &blob, nil
}

// parseScalar accepts a decimal or 0x-prefixed hex integer below 2^256.
func parseScalar(s string) (*big.Int, error) {
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			digits = "0"
		}
		v, err = uint256.FromHex("0x" + digits)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "invalid scalar %q", s)
	}
	return v.ToBig(), nil
}

// printResult writes v as indented JSON, or text produced by the caller.
func printResult(w io.Writer, asJSON bool, v interface{}, text func(io.Writer)) error {
	if !asJSON {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scalarHex(v *big.Int) string {
	b, err := kzg.ScalarBytes(v)
	if err != nil {
		return fmt.Sprintf("%#x", v)
	}
	return hexutil.Encode(b[:])
}
