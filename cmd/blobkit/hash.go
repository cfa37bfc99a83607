package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var hashCmd = &cobra.Command{
	Use:   "hash COMMITMENT",
	Short: "Derive the versioned hash of a commitment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHash(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func runHash(w io.Writer, input string) error {
	var c kzg.Commitment
	if err := hexutil.UnmarshalFixedText("Commitment", []byte(input), c[:]); err != nil {
		return errors.Wrap(err, "commitment")
	}
	_, err := fmt.Fprintln(w, kzg.CalcVersionedHash(&c).Hex())
	return err
}
