package forge

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
)

const ownerABI = `[{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}]`

func writeArtifact(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestRepository(t *testing.T) (*ArtifactRepository, string) {
	t.Helper()
	root := t.TempDir()

	writeArtifact(t, filepath.Join(root, "out", "DappnodeSmoothingPool.sol", "DappnodeSmoothingPool.json"), `{
		"abi": `+ownerABI+`,
		"bytecode": {"object": "0x6080604052"},
		"metadata": {"settings": {"compilationTarget": {"contracts/DappnodeSmoothingPool.sol": "DappnodeSmoothingPool"}}}
	}`)
	writeArtifact(t, filepath.Join(root, "out", "Linked.sol", "Linked.json"), `{
		"abi": [],
		"bytecode": {"object": "0x73__$abc$__6080"}
	}`)
	writeArtifact(t, filepath.Join(root, "out", "build-info", "Ignored.sol", "Ignored.json"), `not json`)
	writeArtifact(t, filepath.Join(root, "artifacts", "contracts", "TimelockController.sol", "TimelockController.json"), `{
		"contractName": "TimelockController",
		"sourceName": "contracts/TimelockController.sol",
		"abi": `+ownerABI+`,
		"bytecode": "0x6001"
	}`)
	writeArtifact(t, filepath.Join(root, "artifacts", "contracts", "TimelockController.sol", "TimelockController.dbg.json"), `{}`)

	cfg := &config.RuntimeConfig{ProjectRoot: root}
	return NewArtifactRepository(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), root
}

func TestArtifactRepository_GetArtifact(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		contract     string
		wantFQN      string
		wantBytecode []byte
		wantErr      string
	}{
		{
			name:         "foundry layout",
			contract:     "DappnodeSmoothingPool",
			wantFQN:      "contracts/DappnodeSmoothingPool.sol:DappnodeSmoothingPool",
			wantBytecode: []byte{0x60, 0x80, 0x60, 0x40, 0x52},
		},
		{
			name:         "hardhat layout",
			contract:     "TimelockController",
			wantFQN:      "contracts/TimelockController.sol:TimelockController",
			wantBytecode: []byte{0x60, 0x01},
		},
		{
			name:     "unlinked libraries",
			contract: "Linked",
			wantErr:  "unlinked libraries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := repo.GetArtifact(ctx, tt.contract)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFQN, artifact.FullyQualifiedName())
			assert.Equal(t, tt.wantBytecode, artifact.Bytecode)
			_, ok := artifact.ABI.Methods["owner"]
			assert.True(t, ok)
		})
	}
}

func TestArtifactRepository_NotFoundSuggestsNames(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetArtifact(context.Background(), "SmoothingPool")
	require.ErrorIs(t, err, domain.ErrArtifactNotFound)

	var notFound domain.ArtifactNotFoundErr
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"DappnodeSmoothingPool"}, notFound.Suggestions)
	assert.Contains(t, err.Error(), "did you mean: DappnodeSmoothingPool?")
}

func TestArtifactRepository_CustomOutDir(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, filepath.Join(root, "build", "Pool.sol", "Pool.json"), `{"abi": [], "bytecode": {"object": "0x00"}}`)

	cfg := &config.RuntimeConfig{
		ProjectRoot: root,
		FoundryConfig: &config.FoundryConfig{
			Profile: map[string]config.ProfileConfig{"default": {OutPath: "build"}},
		},
	}
	repo := NewArtifactRepository(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	artifact, err := repo.GetArtifact(context.Background(), "Pool")
	require.NoError(t, err)
	assert.Equal(t, "Pool", artifact.FullyQualifiedName())
}

func TestParseBytecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []byte
	}{
		{name: "missing", raw: ``, want: nil},
		{name: "empty string", raw: `"0x"`, want: nil},
		{name: "hex without prefix", raw: `"6001"`, want: []byte{0x60, 0x01}},
		{name: "foundry object", raw: `{"object": "0x6001"}`, want: []byte{0x60, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBytecode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
