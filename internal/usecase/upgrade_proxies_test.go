package usecase

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/pkg/timelock"
)

const poolABI = `[
	{"type":"constructor","inputs":[{"name":"fee","type":"uint256"}]},
	{"type":"function","name":"initialize","inputs":[{"name":"governor","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}
]`

var (
	testProxyAdmin = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testProxyA     = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testProxyB     = common.HexToAddress("0x2323232323232323232323232323232323232323")
	testImpl       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testTimelock   = common.HexToAddress("0x4444444444444444444444444444444444444444")
	testDeployed   = common.HexToAddress("0x9000000000000000000000000000000000000000")
	testGovernor   = common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")

	upgradeSelector        = common.FromHex("0x99a88ec4")
	upgradeAndCallSelector = common.FromHex("0x9623609d")
)

type upgradeFixture struct {
	uc        *UpgradeProxies
	params    *models.UpgradeParameters
	chain     *mockChain
	builder   *mockBuilder
	signers   *mockSigners
	decoder   *mockDecoder
	writer    *mockWriter
	confirmer *mockConfirmer
	artifact  *models.Artifact
}

func newUpgradeFixture(t *testing.T) *upgradeFixture {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(poolABI))
	require.NoError(t, err)

	f := &upgradeFixture{
		params: &models.UpgradeParameters{
			TimelockMinDelay: 3600,
			Upgrades: []models.UpgradeEntry{
				{ContractName: "DappnodeSmoothingPool", Address: testProxyA.Hex(), Implementation: testImpl.Hex()},
				{
					ContractName:     "DappnodeSmoothingPool",
					Address:          testProxyB.Hex(),
					ConstructorArgs:  []any{big.NewInt(5)},
					CallAfterUpgrade: &models.CallAfterUpgrade{FunctionName: "initialize", Arguments: []any{testGovernor}},
				},
			},
		},
		chain: &mockChain{
			admins: map[common.Address]common.Address{testProxyA: testProxyAdmin, testProxyB: testProxyAdmin},
			owners: map[common.Address]common.Address{testProxyAdmin: testTimelock},
			fees: &models.FeeData{
				MaxFeePerGas:         big.NewInt(30_000_000_000),
				MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
			},
			minDelay:   big.NewInt(86400),
			nextDeploy: testDeployed,
		},
		builder:   &mockBuilder{},
		signers:   &mockSigners{signer: &models.Signer{Address: common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), Source: "MNEMONIC"}},
		decoder:   &mockDecoder{},
		writer:    &mockWriter{},
		confirmer: &mockConfirmer{answer: true},
		artifact: &models.Artifact{
			Name:       "DappnodeSmoothingPool",
			SourcePath: "contracts/DappnodeSmoothingPool.sol",
			ABI:        &parsed,
			Bytecode:   []byte{0x60, 0x80, 0x60, 0x40},
		},
	}

	cfg := &config.RuntimeConfig{Network: &config.Network{Name: "mainnet", ChainID: 1}}
	f.uc = NewUpgradeProxies(
		cfg,
		&mockLoader{params: f.params},
		f.builder,
		&mockArtifacts{artifacts: map[string]*models.Artifact{"DappnodeSmoothingPool": f.artifact}},
		f.chain,
		f.signers,
		mockEncoder{},
		f.decoder,
		f.writer,
		f.confirmer,
		NopProgress{},
		discardLogger(),
	)
	return f
}

func (f *upgradeFixture) run(t *testing.T, opts UpgradeProxiesOptions) (*UpgradeProxiesResult, error) {
	t.Helper()
	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Unix(1700000000, 0)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "upgrade"
	}
	return f.uc.Run(context.Background(), opts)
}

func TestUpgradeProxies_TwoEntriesProduceTwoOutputs(t *testing.T) {
	f := newUpgradeFixture(t)

	result, err := f.run(t, UpgradeProxiesOptions{})
	require.NoError(t, err)
	require.Len(t, result.Outputs, 2)

	assert.Equal(t, testProxyAdmin, result.ProxyAdmin)
	assert.Equal(t, testTimelock, result.Timelock)
	assert.Equal(t, 1, f.builder.calls)
	assert.Equal(t, []string{
		"upgrade/upgrade_output_1700000000_0_DappnodeSmoothingPool.json",
		"upgrade/upgrade_output_1700000000_1_DappnodeSmoothingPool.json",
	}, f.writer.order)

	first, second := result.Outputs[0], result.Outputs[1]
	assert.Equal(t, testProxyA, first.Proxy)
	assert.Equal(t, testImpl, first.Implementation)
	assert.False(t, first.Deployed)
	assert.Equal(t, testProxyB, second.Proxy)
	assert.Equal(t, testDeployed, second.Implementation)
	assert.True(t, second.Deployed)
	assert.NotEqual(t, first.Payload.OperationID, second.Payload.OperationID)

	for _, out := range result.Outputs {
		assert.Equal(t, testProxyAdmin, out.Payload.Target)
		assert.Equal(t, testTimelock, out.Payload.Timelock)
		assert.Equal(t, big.NewInt(3600), out.Payload.Delay)
		assert.Equal(t, "contracts/DappnodeSmoothingPool.sol:DappnodeSmoothingPool", out.ContractPath)

		doc := f.writer.written[out.Path]
		assert.Equal(t, []string{
			"contractName", "implementation", "operationId", "scheduleData",
			"executeData", "timelockContractAdress", "decodedScheduleData",
		}, doc.Keys())
	}
}

func TestUpgradeProxies_UpgradeAndCall(t *testing.T) {
	f := newUpgradeFixture(t)

	result, err := f.run(t, UpgradeProxiesOptions{})
	require.NoError(t, err)

	plain := result.Outputs[0].Payload
	assert.Equal(t, upgradeSelector, plain.Data[:4])
	wantPlain := bindings.NewProxyAdmin().PackUpgrade(testProxyA, testImpl)
	assert.Equal(t, wantPlain, plain.Data)

	composite := result.Outputs[1].Payload
	assert.Equal(t, upgradeAndCallSelector, composite.Data[:4])
	initData, err := f.artifact.ABI.Pack("initialize", testGovernor)
	require.NoError(t, err)
	wantComposite := bindings.NewProxyAdmin().PackUpgradeAndCall(testProxyB, testDeployed, initData)
	assert.Equal(t, wantComposite, composite.Data)

	// the composite call is decoded one level deeper
	require.Len(t, f.decoder.chains, 2)
	assert.Len(t, f.decoder.chains[0], 2)
	require.Len(t, f.decoder.chains[1], 3)
	assert.Same(t, f.artifact.ABI, f.decoder.chains[1][2])
}

func TestUpgradeProxies_PayloadEncoding(t *testing.T) {
	f := newUpgradeFixture(t)
	f.params.TimelockSalt = "0x0000000000000000000000000000000000000000000000000000000000000001"

	result, err := f.run(t, UpgradeProxiesOptions{})
	require.NoError(t, err)

	payload := result.Outputs[0].Payload
	salt := common.BigToHash(big.NewInt(1))
	assert.Equal(t, timelock.HashOperation(testProxyAdmin, big.NewInt(0), payload.Data, common.Hash{}, salt), payload.OperationID)

	op, err := timelock.NewOperation(testProxyAdmin, nil, payload.Data, common.Hash{}, salt, timelock.EncodingPacked)
	require.NoError(t, err)
	schedule, err := timelock.EncodeSchedule(op, big.NewInt(3600))
	require.NoError(t, err)
	execute, err := timelock.EncodeExecute(op)
	require.NoError(t, err)
	assert.Equal(t, schedule, payload.ScheduleData)
	assert.Equal(t, execute, payload.ExecuteData)
	assert.Equal(t, "schedule", payload.Decoded.Method)
}

func TestUpgradeProxies_Deployment(t *testing.T) {
	f := newUpgradeFixture(t)

	_, err := f.run(t, UpgradeProxiesOptions{})
	require.NoError(t, err)

	require.Len(t, f.chain.deployed, 1)
	args, err := f.artifact.ABI.Pack("", big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x60, 0x80, 0x60, 0x40}, args...), f.chain.deployed[0])
	assert.Equal(t, f.chain.fees, f.chain.deployFees[0])
	assert.Equal(t, 1, f.signers.calls)
	assert.Len(t, f.confirmer.asked, 1)
}

func TestUpgradeProxies_Options(t *testing.T) {
	t.Run("skip build", func(t *testing.T) {
		f := newUpgradeFixture(t)
		_, err := f.run(t, UpgradeProxiesOptions{SkipBuild: true})
		require.NoError(t, err)
		assert.Zero(t, f.builder.calls)
	})

	t.Run("min delay from chain", func(t *testing.T) {
		f := newUpgradeFixture(t)
		result, err := f.run(t, UpgradeProxiesOptions{MinDelaySource: MinDelayFromChain})
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(86400), result.Outputs[0].Payload.Delay)
	})

	t.Run("non interactive skips confirmation", func(t *testing.T) {
		f := newUpgradeFixture(t)
		f.uc.config.NonInteractive = true
		_, err := f.run(t, UpgradeProxiesOptions{})
		require.NoError(t, err)
		assert.Empty(t, f.confirmer.asked)
	})

	t.Run("explicit addresses skip discovery", func(t *testing.T) {
		f := newUpgradeFixture(t)
		other := common.HexToAddress("0x4545454545454545454545454545454545454545")
		f.params.TimelockAddress = other.Hex()
		result, err := f.run(t, UpgradeProxiesOptions{})
		require.NoError(t, err)
		assert.Equal(t, other, result.Timelock)
	})
}

func TestUpgradeProxies_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *upgradeFixture)
		wantErr error
	}{
		{
			name:    "no upgrades",
			setup:   func(f *upgradeFixture) { f.params.Upgrades = nil },
			wantErr: domain.ErrInvalidParameters,
		},
		{
			name:    "no network",
			setup:   func(f *upgradeFixture) { f.uc.config.Network = nil },
			wantErr: domain.ErrNetworkRequired,
		},
		{
			name: "unknown contract",
			setup: func(f *upgradeFixture) {
				f.params.Upgrades[0].ContractName = "Missing"
			},
			wantErr: domain.ErrArtifactNotFound,
		},
		{
			name: "proxies with different admins",
			setup: func(f *upgradeFixture) {
				f.chain.admins[testProxyB] = common.HexToAddress("0x1212121212121212121212121212121212121212")
			},
			wantErr: domain.ErrAdminMismatch,
		},
		{
			name: "configured admin does not match",
			setup: func(f *upgradeFixture) {
				f.params.ProxyAdmin = "0x1212121212121212121212121212121212121212"
			},
			wantErr: domain.ErrAdminMismatch,
		},
		{
			name: "predecessor not done",
			setup: func(f *upgradeFixture) {
				f.params.TimelockPredecessor = "0x00000000000000000000000000000000000000000000000000000000000000aa"
			},
			wantErr: domain.ErrPredecessorNotDone,
		},
		{
			name:    "deployment declined",
			setup:   func(f *upgradeFixture) { f.confirmer.answer = false },
			wantErr: domain.ErrDeploymentDeclined,
		},
		{
			name:    "no signer",
			setup:   func(f *upgradeFixture) { f.signers.signer, f.signers.err = nil, domain.ErrNoSigner },
			wantErr: domain.ErrNoSigner,
		},
		{
			name:    "malformed salt",
			setup:   func(f *upgradeFixture) { f.params.TimelockSalt = "0x1234" },
			wantErr: domain.ErrInvalidParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUpgradeFixture(t)
			tt.setup(f)
			_, err := f.run(t, UpgradeProxiesOptions{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpgradeProxies_PredecessorDone(t *testing.T) {
	f := newUpgradeFixture(t)
	predecessor := common.HexToHash("0xaa")
	f.params.TimelockPredecessor = predecessor.Hex()
	f.chain.doneOperations = map[common.Hash]bool{predecessor: true}

	result, err := f.run(t, UpgradeProxiesOptions{})
	require.NoError(t, err)
	assert.Equal(t, predecessor, result.Outputs[0].Payload.Predecessor)
}
