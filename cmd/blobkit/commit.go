package main

import (
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/blob/prover"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var commitCmd = &cobra.Command{
	Use:   "commit BLOB...",
	Short: "Compute the commitment and versioned hash of blob files",
	Long: `Compute the KZG commitment and versioned hash of each blob file. Files hold
either the raw 131072 bytes or their 0x-prefixed hex encoding. With --point
every blob is also opened at the given evaluation point.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		var point *big.Int
		if s, _ := cmd.Flags().GetString("point"); s != "" {
			var err error
			if point, err = parseScalar(s); err != nil {
				return err
			}
		}
		engine, err := loadEngine(cfg.TrustedSetup)
		if err != nil {
			return err
		}
		return runCommit(cmd.OutOrStdout(), engine, args, point, cfg.Workers, asJSON)
	},
}

func init() {
	commitCmd.Flags().String("point", "", "also open every blob at this point (decimal or 0x hex)")
	rootCmd.AddCommand(commitCmd)
}

type commitOutput struct {
	File          string         `json:"file"`
	Commitment    kzg.Commitment `json:"commitment"`
	VersionedHash common.Hash    `json:"versionedHash"`
	Proof         *kzg.Proof     `json:"proof,omitempty"`
	Value         *hexutil.Big   `json:"value,omitempty"`
}

func runCommit(w io.Writer, engine *kzg.Engine, paths []string, point *big.Int, workers int, asJSON bool) error {
	outputs := make([]commitOutput, 0, len(paths))
	var failed error

	p := prover.NewAsyncProver(engine, workers).
		WithOnResult(func(res *prover.Result) {
			out := commitOutput{
				File:          paths[res.Request.Index],
				Commitment:    res.Commitment,
				VersionedHash: res.VersionedHash,
			}
			if res.Value != nil {
				proof := res.Proof
				out.Proof = &proof
				out.Value = (*hexutil.Big)(res.Value)
			}
			outputs = append(outputs, out)
		}).
		WithOnFailure(func(req *prover.Request, err error) {
			if failed == nil {
				failed = errors.Wrapf(err, "blob file %s", paths[req.Index])
			}
		})

	for i, path := range paths {
		blob, err := readBlob(path)
		if err != nil {
			p.Wait()
			return err
		}
		p.Prove(&prover.Request{Blob: blob, Point: point, Index: uint64(i)})
	}
	p.Wait()
	if failed != nil {
		return failed
	}

	if asJSON {
		return printResult(w, true, outputs, nil)
	}
	table := tablewriter.NewWriter(w)
	header := []string{"File", "Commitment", "Versioned hash"}
	if point != nil {
		header = append(header, "Value", "Proof")
	}
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	for _, out := range outputs {
		row := []string{out.File, hexutil.Encode(out.Commitment[:]), out.VersionedHash.Hex()}
		if out.Proof != nil {
			row = append(row, scalarHex(out.Value.ToInt()), hexutil.Encode(out.Proof[:]))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}
