package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var openCmd = &cobra.Command{
	Use:   "open BLOB POINT",
	Short: "Evaluate a blob at a point and produce the opening proof",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		z, err := parseScalar(args[1])
		if err != nil {
			return err
		}
		engine, err := loadEngine(cfg.TrustedSetup)
		if err != nil {
			return err
		}
		return runOpen(cmd.OutOrStdout(), engine, args[0], z, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

type openOutput struct {
	Commitment kzg.Commitment `json:"commitment"`
	Point      *hexutil.Big   `json:"point"`
	Value      *hexutil.Big   `json:"value"`
	Proof      kzg.Proof      `json:"proof"`
}

func runOpen(w io.Writer, engine *kzg.Engine, path string, z *big.Int, asJSON bool) error {
	blob, err := readBlob(path)
	if err != nil {
		return err
	}
	commitment, err := engine.Commit(blob[:])
	if err != nil {
		return err
	}
	proof, value, err := engine.Open(blob[:], z)
	if err != nil {
		return err
	}
	out := openOutput{
		Commitment: commitment,
		Point:      (*hexutil.Big)(z),
		Value:      (*hexutil.Big)(value),
		Proof:      proof,
	}
	return printResult(w, asJSON, out, func(w io.Writer) {
		fmt.Fprintf(w, "commitment %s\n", hexutil.Encode(commitment[:]))
		fmt.Fprintf(w, "point      %s\n", scalarHex(z))
		fmt.Fprintf(w, "value      %s\n", scalarHex(value))
		fmt.Fprintf(w, "proof      %s\n", hexutil.Encode(proof[:]))
	})
}
