package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETHCF/blobkit-sub002/blob/blob_client"
	"github.com/ETHCF/blobkit-sub002/blob/blobcache"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg/loader"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg4844"
)

// writeMockSetup writes the insecure test setup in the raw layout.
func writeMockSetup(t *testing.T) string {
	t.Helper()
	ts, err := kzg.NewMockTrustedSetup()
	require.NoError(t, err)
	data, err := loader.FromTrustedSetup(ts).MarshalRaw()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "setup.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testBlob(seed byte) *kzg.Blob {
	var blob kzg.Blob
	for i := 0; i < kzg.FieldElementsPerBlob; i += 7 {
		blob[i*kzg.BytesPerFieldElement+31] = seed + byte(i)
	}
	return &blob
}

func writeBlob(t *testing.T, blob *kzg.Blob, asHex bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob")
	data := blob[:]
	if asHex {
		data = []byte(hexutil.Encode(blob[:]) + "\n")
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"0x2a", 42, false},
		{"0x002a", 42, false},
		{"0x0", 0, false},
		{"0x", 0, false},
		{"-1", 0, true},
		{"0xzz", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseScalar(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, 0, got.Cmp(big.NewInt(tt.want)), tt.in)
	}
}

func TestReadBlob(t *testing.T) {
	blob := testBlob(1)

	got, err := readBlob(writeBlob(t, blob, false))
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	got, err = readBlob(writeBlob(t, blob, true))
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	short := filepath.Join(t.TempDir(), "short")
	require.NoError(t, os.WriteFile(short, make([]byte, 100), 0o644))
	_, err = readBlob(short)
	assert.ErrorIs(t, err, kzg.ErrInvalidBlobSize)
}

func TestLoadEngine(t *testing.T) {
	_, err := loadEngine(SetupConfig{})
	assert.ErrorIs(t, err, errNoTrustedSetup)

	path := writeMockSetup(t)
	engine, err := loadEngine(SetupConfig{Path: path})
	require.NoError(t, err)
	assert.True(t, engine.Loaded())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = loadEngine(SetupConfig{Path: path, Checksum: loader.Checksum(data).Hex()})
	require.NoError(t, err)

	_, err = loadEngine(SetupConfig{Path: path, Checksum: loader.Checksum(nil).Hex()})
	assert.ErrorIs(t, err, loader.ErrChecksumMismatch)

	_, err = loadEngine(SetupConfig{Path: path, Checksum: "nothex"})
	assert.Error(t, err)
}

func TestCommitOpenVerify(t *testing.T) {
	engine, err := loadEngine(SetupConfig{Path: writeMockSetup(t)})
	require.NoError(t, err)

	blobs := []*kzg.Blob{testBlob(1), testBlob(2), testBlob(3)}
	paths := make([]string, len(blobs))
	for i, b := range blobs {
		paths[i] = writeBlob(t, b, i%2 == 1)
	}

	var buf bytes.Buffer
	require.NoError(t, runCommit(&buf, engine, paths, big.NewInt(10), 2, true))

	var outputs []commitOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &outputs))
	require.Len(t, outputs, len(blobs))
	for i, out := range outputs {
		assert.Equal(t, paths[i], out.File)
		want, err := engine.Commit(blobs[i][:])
		require.NoError(t, err)
		assert.Equal(t, want, out.Commitment)
		assert.Equal(t, kzg.CalcVersionedHash(&want), out.VersionedHash)
		require.NotNil(t, out.Proof)
		require.NotNil(t, out.Value)

		buf.Reset()
		args := []string{
			hexutil.Encode(out.Commitment[:]),
			"10",
			out.Value.String(),
			hexutil.Encode(out.Proof[:]),
		}
		require.NoError(t, runVerify(&buf, engine, args, false))
		assert.Equal(t, "valid true\n", buf.String())

		buf.Reset()
		wrong := new(big.Int).Add(out.Value.ToInt(), big.NewInt(1))
		args[2] = wrong.String()
		assert.ErrorIs(t, runVerify(&buf, engine, args, true), errProofRejected)
		assert.JSONEq(t, `{"valid":false}`, buf.String())
	}
}

func TestCommitReportsBadBlob(t *testing.T) {
	engine, err := loadEngine(SetupConfig{Path: writeMockSetup(t)})
	require.NoError(t, err)

	var bad kzg.Blob
	for i := range bad[:kzg.BytesPerFieldElement] {
		bad[i] = 0xff
	}
	path := writeBlob(t, &bad, false)
	err = runCommit(new(bytes.Buffer), engine, []string{path}, nil, 1, false)
	assert.ErrorIs(t, err, kzg.ErrInvalidFieldElement)
	assert.Contains(t, err.Error(), path)
}

func TestOpenText(t *testing.T) {
	engine, err := loadEngine(SetupConfig{Path: writeMockSetup(t)})
	require.NoError(t, err)
	blob := testBlob(5)

	var buf bytes.Buffer
	require.NoError(t, runOpen(&buf, engine, writeBlob(t, blob, false), big.NewInt(0), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	// p(0) is the first coefficient.
	assert.Equal(t, "value      "+hexutil.Encode(blob[:kzg.BytesPerFieldElement]), lines[2])
}

func TestHash(t *testing.T) {
	ts, err := kzg.NewMockTrustedSetup()
	require.NoError(t, err)
	g := ts.Generator()
	c := kzg.Commitment(g.Bytes())

	var buf bytes.Buffer
	require.NoError(t, runHash(&buf, hexutil.Encode(c[:])))
	assert.Equal(t, kzg.CalcVersionedHash(&c).Hex()+"\n", buf.String())

	assert.Error(t, runHash(&buf, "0x1234"))
}

func TestSetupConvert(t *testing.T) {
	raw := writeMockSetup(t)
	dir := t.TempDir()

	var buf bytes.Buffer
	jsonPath := filepath.Join(dir, "setup.json")
	require.NoError(t, runSetupConvert(&buf, raw, jsonPath))

	rawBack := filepath.Join(dir, "setup.bin")
	require.NoError(t, runSetupConvert(&buf, jsonPath, rawBack))

	want, err := os.ReadFile(raw)
	require.NoError(t, err)
	got, err := os.ReadFile(rawBack)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	buf.Reset()
	require.NoError(t, runSetupChecksum(&buf, raw))
	assert.Equal(t, loader.Checksum(want).Hex()+" "+raw+"\n", buf.String())
}

func TestStoreFetch(t *testing.T) {
	backend, err := kzg4844.NewGoKZGBackend()
	require.NoError(t, err)

	dirPath := t.TempDir()
	dir := blob_client.NewDirClient(dirPath)
	blob := testBlob(9)
	var buf bytes.Buffer
	store := blob_client.NewDirClient(dirPath).WithCompression(true)
	require.NoError(t, runStore(&buf, store, backend, []string{writeBlob(t, blob, false)}))

	commitment, err := backend.BlobToCommitment(blob)
	require.NoError(t, err)
	vh := kzg.CalcVersionedHash(&commitment)
	assert.True(t, strings.HasPrefix(buf.String(), vh.Hex()))

	cache := blobcache.New(blobcache.DefaultConfig)
	client := blobcache.NewCachedClient(cache, dir, backend)
	outDir := t.TempDir()

	buf.Reset()
	require.NoError(t, runFetch(context.Background(), &buf, client, []string{vh.Hex()}, outDir, true))
	var outputs []fetchOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &outputs))
	require.Len(t, outputs, 1)
	assert.Equal(t, commitment, outputs[0].Commitment)
	assert.Equal(t, blob_client.LocalDir, outputs[0].Source)
	assert.True(t, cache.Contains(vh))

	written, err := os.ReadFile(outputs[0].File)
	require.NoError(t, err)
	assert.Equal(t, blob[:], written)

	missing := common.Hash{kzg.VersionedHashVersionKZG, 1}
	err = runFetch(context.Background(), &buf, client, []string{missing.Hex()}, "", false)
	assert.ErrorIs(t, err, blob_client.ErrBlobNotFound)

	err = runFetch(context.Background(), &buf, client, []string{common.Hash{0x02}.Hex()}, "", false)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
Workers = 8

[TrustedSetup]
Path = "/tmp/setup.json"
CKZG = true

[Cache]
MaxEntries = 16
StrictReverify = true
`), 0o644))

	c := defaultConfig
	require.NoError(t, loadConfig(path, &c))
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, "/tmp/setup.json", c.TrustedSetup.Path)
	assert.True(t, c.TrustedSetup.CKZG)
	assert.Equal(t, 16, c.Cache.MaxEntries)
	assert.True(t, c.Cache.StrictReverify)
	assert.Equal(t, defaultConfig.Log, c.Log)

	require.NoError(t, os.WriteFile(path, []byte("Bogus = 1\n"), 0o644))
	err := loadConfig(path, &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bogus")
}

func TestDumpConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("Workers = 3\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", path, "--setup", "/srv/setup.bin", "--verbosity", "0", "dumpconfig"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		cfg = defaultConfig
	})
	require.NoError(t, rootCmd.Execute())

	var dumped blobkitConfig
	require.NoError(t, tomlSettings.Unmarshal(buf.Bytes(), &dumped))
	assert.Equal(t, 3, dumped.Workers)
	assert.Equal(t, "/srv/setup.bin", dumped.TrustedSetup.Path)
	assert.Equal(t, 0, dumped.Log.Verbosity)
	assert.Equal(t, defaultConfig.Cache, dumped.Cache)
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "Version:")
}

func TestCommitTable(t *testing.T) {
	engine, err := loadEngine(SetupConfig{Path: writeMockSetup(t)})
	require.NoError(t, err)
	blob := testBlob(4)
	want, err := engine.Commit(blob[:])
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runCommit(&buf, engine, []string{writeBlob(t, blob, false)}, nil, 1, false))
	assert.Contains(t, buf.String(), hexutil.Encode(want[:]))
	assert.Contains(t, buf.String(), kzg.CalcVersionedHash(&want).Hex())
	assert.NotContains(t, buf.String(), "PROOF")
}
