package fs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

func newTestLoader() *ParametersLoader {
	return NewParametersLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadUpgradeParameters_JSON(t *testing.T) {
	path := writeFile(t, "upgrade_parameters.json", `{
		"upgrades": [
			{
				"contractName": "DappnodeSmoothingPool",
				"address": "0x2222222222222222222222222222222222222222",
				"constructorArgs": [123456789012345678901234567890],
				"callAfterUpgrade": {"functionName": "initializeV2", "arguments": ["0x01"]}
			}
		],
		"timelockMinDelay": 3600,
		"timelockSalt": "0x0000000000000000000000000000000000000000000000000000000000000001",
		"multiplierGas": "1200"
	}`)

	params, err := newTestLoader().LoadUpgradeParameters(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, params.Upgrades, 1)
	entry := params.Upgrades[0]
	assert.Equal(t, "DappnodeSmoothingPool", entry.ContractName)
	assert.Equal(t, []any{json.Number("123456789012345678901234567890")}, entry.ConstructorArgs)
	require.NotNil(t, entry.CallAfterUpgrade)
	assert.Equal(t, "initializeV2", entry.CallAfterUpgrade.FunctionName)

	assert.Equal(t, uint64(3600), params.TimelockMinDelay)
	assert.Equal(t, models.FeeOverride{Mode: models.FeeOverrideMultiplier, MultiplierPerMille: 1200}, params.Fees)
}

func TestLoadUpgradeParameters_YAML(t *testing.T) {
	path := writeFile(t, "upgrade_parameters.yaml", `
upgrades:
  - contractName: DappnodeSmoothingPool
    address: "0x2222222222222222222222222222222222222222"
maxFeePerGas: "30.5"
maxPriorityFeePerGas: "1"
`)

	params, err := newTestLoader().LoadUpgradeParameters(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, models.FeeOverrideFixed, params.Fees.Mode)
	assert.Equal(t, big.NewInt(30_500_000_000), params.Fees.MaxFeePerGas)
	assert.Equal(t, big.NewInt(1_000_000_000), params.Fees.MaxPriorityFeePerGas)
}

func TestLoadUpgradeParameters_MinDelayForms(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    uint64
	}{
		{name: "json number", file: "p.json", content: `{"upgrades": [], "timelockMinDelay": 3600}`, want: 3600},
		{name: "json string", file: "p.json", content: `{"upgrades": [], "timelockMinDelay": "3600"}`, want: 3600},
		{name: "yaml number", file: "p.yaml", content: "upgrades: []\ntimelockMinDelay: 604800\n", want: 604800},
		{name: "yaml string", file: "p.yaml", content: "upgrades: []\ntimelockMinDelay: \"60\"\n", want: 60},
		{name: "absent", file: "p.json", content: `{"upgrades": []}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := newTestLoader().LoadUpgradeParameters(context.Background(), writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, params.TimelockMinDelay)
		})
	}
}

func TestLoadUpgradeParameters_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad proxy address",
			content: `{"upgrades": [{"contractName": "Pool", "address": "0x1234"}]}`,
			wantErr: "Address",
		},
		{
			name:    "missing contract name",
			content: `{"upgrades": [{"address": "0x2222222222222222222222222222222222222222"}]}`,
			wantErr: "ContractName",
		},
		{
			name:    "short salt",
			content: `{"upgrades": [], "timelockSalt": "0x01"}`,
			wantErr: "TimelockSalt",
		},
		{
			name:    "unknown id encoding",
			content: `{"upgrades": [], "timelockIdEncoding": "rlp"}`,
			wantErr: "TimelockIDEncoding",
		},
		{
			name:    "max fee without tip",
			content: `{"upgrades": [], "maxFeePerGas": "10"}`,
			wantErr: "needs maxPriorityFeePerGas",
		},
		{
			name:    "sub-wei gwei amount",
			content: `{"upgrades": [], "maxFeePerGas": "0.0000000001", "maxPriorityFeePerGas": "1"}`,
			wantErr: "not a whole number of wei",
		},
		{
			name:    "non numeric multiplier",
			content: `{"upgrades": [], "multiplierGas": "fast"}`,
			wantErr: "multiplierGas",
		},
		{
			name:    "zero multiplier",
			content: `{"upgrades": [], "multiplierGas": 0}`,
			wantErr: "must be positive",
		},
		{
			name:    "negative min delay",
			content: `{"upgrades": [], "timelockMinDelay": "-60"}`,
			wantErr: "timelockMinDelay",
		},
		{
			name:    "non numeric min delay",
			content: `{"upgrades": [], "timelockMinDelay": "one week"}`,
			wantErr: "timelockMinDelay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "params.json", tt.content)
			_, err := newTestLoader().LoadUpgradeParameters(context.Background(), path)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadUpgradeParameters_Unreadable(t *testing.T) {
	_, err := newTestLoader().LoadUpgradeParameters(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")

	path := writeFile(t, "broken.json", `{"upgrades": [`)
	_, err = newTestLoader().LoadUpgradeParameters(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoadDeployOutput(t *testing.T) {
	path := writeFile(t, "deploy_output.json", `{
		"dappnodeSmoothingPool": "0x1111111111111111111111111111111111111111",
		"timelockContract": "0x4444444444444444444444444444444444444444"
	}`)

	out, err := newTestLoader().LoadDeployOutput(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", out.DappnodeSmoothingPool)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", out.TimelockContract)

	missing := writeFile(t, "deploy_output.json", `{"dappnodeSmoothingPool": "0x1111111111111111111111111111111111111111"}`)
	_, err = newTestLoader().LoadDeployOutput(context.Background(), missing)
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestParseGwei(t *testing.T) {
	tests := []struct {
		in      string
		want    *big.Int
		wantErr bool
	}{
		{in: "1", want: big.NewInt(1_000_000_000)},
		{in: "0.000000001", want: big.NewInt(1)},
		{in: " 2.25 ", want: big.NewInt(2_250_000_000)},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseGwei(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
