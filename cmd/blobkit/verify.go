package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var errProofRejected = errors.New("proof rejected")

var verifyCmd = &cobra.Command{
	Use:   "verify COMMITMENT POINT VALUE PROOF",
	Short: "Check an opening proof against a commitment",
	Long: `Check that PROOF opens COMMITMENT to VALUE at POINT. COMMITMENT and PROOF are
0x-prefixed 48-byte compressed G1 points, POINT and VALUE are decimal or 0x
hex scalars. The command exits non-zero if the proof is rejected.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		engine, err := loadEngine(cfg.TrustedSetup)
		if err != nil {
			return err
		}
		return runVerify(cmd.OutOrStdout(), engine, args, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

type verifyOutput struct {
	Valid bool `json:"valid"`
}

func runVerify(w io.Writer, engine *kzg.Engine, args []string, asJSON bool) error {
	commitment, err := hexutil.Decode(args[0])
	if err != nil {
		return errors.Wrap(err, "commitment")
	}
	var z, value *big.Int
	if z, err = parseScalar(args[1]); err != nil {
		return err
	}
	if value, err = parseScalar(args[2]); err != nil {
		return err
	}
	proof, err := hexutil.Decode(args[3])
	if err != nil {
		return errors.Wrap(err, "proof")
	}

	ok, err := engine.Verify(commitment, z, value, proof)
	if err != nil {
		return err
	}
	if err := printResult(w, asJSON, verifyOutput{Valid: ok}, func(w io.Writer) {
		fmt.Fprintf(w, "valid %t\n", ok)
	}); err != nil {
		return err
	}
	if !ok {
		return errProofRejected
	}
	return nil
}
