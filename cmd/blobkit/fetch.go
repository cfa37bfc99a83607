package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/ETHCF/blobkit-sub002/blob/blob_client"
	"github.com/ETHCF/blobkit-sub002/blob/blobcache"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg4844"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch VERSIONED_HASH...",
	Short: "Retrieve blobs by versioned hash and check them against their commitment",
	Long: `Retrieve blobs by versioned hash from one or more directories of
<versioned hash>.blob files, check each one with the canonical EIP-4844
commitment and optionally write it to --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		asJSON, _ := cmd.Flags().GetBool("json")
		sources, err := blobSources(cmd)
		if err != nil {
			return err
		}
		backend, err := selectBackend(cfg.TrustedSetup)
		if err != nil {
			return err
		}
		client := blobcache.NewCachedClient(blobcache.New(cfg.Cache), sources, backend)
		return runFetch(cmd.Context(), cmd.OutOrStdout(), client, args, out, asJSON)
	},
}

var storeCmd = &cobra.Command{
	Use:   "store BLOB...",
	Short: "Store blob files under their canonical versioned hash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			return errors.New("--dir is required")
		}
		backend, err := selectBackend(cfg.TrustedSetup)
		if err != nil {
			return err
		}
		compress, _ := cmd.Flags().GetBool("compress")
		return runStore(cmd.OutOrStdout(), blob_client.NewDirClient(dir).WithCompression(compress), backend, args)
	},
}

func init() {
	fetchCmd.Flags().StringSlice("dir", nil, "directories holding <versioned hash>.blob files, tried in order")
	fetchCmd.Flags().String("out", "", "write each retrieved blob to this directory")
	storeCmd.Flags().String("dir", "", "directory to store <versioned hash>.blob files in")
	storeCmd.Flags().Bool("compress", false, "store blobs snappy-compressed as <versioned hash>.blob.sz")
	rootCmd.AddCommand(fetchCmd, storeCmd)
}

// blobSources builds the failover list of the local blob directories named
// on the command line.
func blobSources(cmd *cobra.Command) (*blob_client.BlobClientList, error) {
	dirs, _ := cmd.Flags().GetStringSlice("dir")
	if len(dirs) == 0 {
		return nil, errors.New("--dir is required")
	}
	list := blob_client.NewBlobClientList()
	for _, dir := range dirs {
		list.AddBlobClient(blob_client.NewDirClient(dir))
	}
	list.SetRounds(1)
	return list, nil
}

// selectBackend returns the canonical EIP-4844 backend named by the config.
func selectBackend(sc SetupConfig) (kzg4844.Backend, error) {
	if sc.CKZG {
		setup, err := loadSetup(sc)
		if err != nil {
			return nil, err
		}
		if err := kzg4844.UseCKZG(true, setup); err != nil {
			return nil, err
		}
	}
	return kzg4844.Default()
}

type fetchOutput struct {
	VersionedHash common.Hash            `json:"versionedHash"`
	Commitment    kzg.Commitment         `json:"commitment"`
	Proof         kzg.Proof              `json:"proof"`
	Source        blob_client.BlobSource `json:"source"`
	File          string                 `json:"file,omitempty"`
}

func runFetch(ctx context.Context, w io.Writer, client *blobcache.CachedClient, hashes []string, outDir string, asJSON bool) error {
	outputs := make([]fetchOutput, 0, len(hashes))
	for _, s := range hashes {
		var vh common.Hash
		if err := hexutil.UnmarshalFixedText("VersionedHash", []byte(s), vh[:]); err != nil {
			return errors.Wrapf(err, "versioned hash %q", s)
		}
		if !kzg.IsValidVersionedHash(vh[:]) {
			return errors.Newf("versioned hash %s has version %#x", vh.Hex(), vh[0])
		}
		entry, err := client.GetEntry(ctx, vh)
		if err != nil {
			return err
		}
		out := fetchOutput{
			VersionedHash: vh,
			Commitment:    entry.Commitment,
			Proof:         entry.Proof,
			Source:        entry.Source,
		}
		if outDir != "" {
			out.File = filepath.Join(outDir, vh.Hex()+".blob")
			if err := os.WriteFile(out.File, entry.Blob[:], 0o644); err != nil {
				return err
			}
		}
		outputs = append(outputs, out)
	}
	return printResult(w, asJSON, outputs, func(w io.Writer) {
		for _, out := range outputs {
			fmt.Fprintf(w, "%s\n", out.VersionedHash.Hex())
			fmt.Fprintf(w, "  commitment %s\n", hexutil.Encode(out.Commitment[:]))
			fmt.Fprintf(w, "  proof      %s\n", hexutil.Encode(out.Proof[:]))
			fmt.Fprintf(w, "  source     %s\n", out.Source)
			if out.File != "" {
				fmt.Fprintf(w, "  file       %s\n", out.File)
			}
		}
	})
}

func runStore(w io.Writer, dir *blob_client.DirClient, backend kzg4844.Backend, paths []string) error {
	for _, path := range paths {
		blob, err := readBlob(path)
		if err != nil {
			return err
		}
		commitment, err := backend.BlobToCommitment(blob)
		if err != nil {
			return errors.Wrapf(err, "blob file %s", path)
		}
		vh := kzg.CalcVersionedHash(&commitment)
		if err := dir.Store(vh, blob); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", vh.Hex(), path)
	}
	return nil
}
