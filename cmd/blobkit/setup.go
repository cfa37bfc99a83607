package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Inspect and convert trusted setup files",
}

var setupConvertCmd = &cobra.Command{
	Use:   "convert SRC DST",
	Short: "Convert a trusted setup between the JSON and raw layouts",
	Long: `Convert a trusted setup. The layout of each file is taken from its extension:
.json selects the ceremony JSON layout, anything else the raw monomial layout.
Converting to raw drops the Lagrange points.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetupConvert(cmd.OutOrStdout(), args[0], args[1])
	},
}

var setupChecksumCmd = &cobra.Command{
	Use:   "checksum FILE",
	Short: "Print the sha256 checksum of a trusted setup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetupChecksum(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	setupCmd.AddCommand(setupConvertCmd, setupChecksumCmd)
	rootCmd.AddCommand(setupCmd)
}

func runSetupConvert(w io.Writer, src, dst string) error {
	setup, err := loader.LoadFile(src)
	if err != nil {
		return err
	}
	var data []byte
	switch loader.FormatFromPath(dst) {
	case loader.FormatJSON:
		data, err = setup.MarshalJSON()
	default:
		data, err = setup.MarshalRaw()
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", dst)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %s\n", loader.Checksum(data).Hex(), dst)
	return err
}

func runSetupChecksum(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := loader.Decode(data, loader.FormatFromPath(path)); err != nil {
		return errors.Wrapf(err, "trusted setup %s", path)
	}
	_, err = fmt.Fprintf(w, "%s %s\n", loader.Checksum(data).Hex(), path)
	return err
}
