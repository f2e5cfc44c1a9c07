package usecase

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/pkg/timelock"
)

func newUpdateDelayFixture(params *models.UpgradeParameters) (*UpdateDelay, *mockChain, *mockDecoder, *mockWriter) {
	chain := &mockChain{
		admins:   map[common.Address]common.Address{testProxyA: testProxyAdmin},
		owners:   map[common.Address]common.Address{testProxyAdmin: testTimelock},
		minDelay: big.NewInt(604800),
	}
	decoder := &mockDecoder{}
	writer := &mockWriter{}
	cfg := &config.RuntimeConfig{Network: &config.Network{Name: "hoodi", ChainID: 560048}}
	uc := NewUpdateDelay(cfg, &mockLoader{params: params}, chain, decoder, writer, NopProgress{}, discardLogger())
	return uc, chain, decoder, writer
}

func TestUpdateDelay_Run(t *testing.T) {
	params := &models.UpgradeParameters{
		Upgrades: []models.UpgradeEntry{{ContractName: "DappnodeSmoothingPool", Address: testProxyA.Hex()}},
	}
	uc, chain, decoder, writer := newUpdateDelayFixture(params)

	result, err := uc.Run(context.Background(), UpdateDelayOptions{OutputDir: "upgrade"})
	require.NoError(t, err)
	assert.True(t, chain.closed)

	payload := result.Output.Payload
	assert.Equal(t, big.NewInt(DefaultNewMinDelay), result.NewDelay)
	assert.Equal(t, testTimelock, payload.Target)
	assert.Equal(t, testTimelock, payload.Timelock)
	assert.Equal(t, big.NewInt(604800), payload.Delay)
	assert.Equal(t, bindings.NewTimelockController().PackUpdateDelay(big.NewInt(300)), payload.Data)
	assert.Equal(t, timelock.HashOperation(testTimelock, big.NewInt(0), payload.Data, common.Hash{}, common.Hash{}), payload.OperationID)

	// outer and inner calls are both timelock calls
	require.Len(t, decoder.chains, 1)
	require.Len(t, decoder.chains[0], 2)
	assert.Equal(t, decoder.chains[0][0].Methods, decoder.chains[0][1].Methods)

	doc, ok := writer.written["upgrade/upgradeMinDelay.json"]
	require.True(t, ok)
	assert.Equal(t, []string{
		"operationId", "scheduleData", "executeData", "timelockContractAdress", "decodedScheduleData",
	}, doc.Keys())
}

func TestUpdateDelay_Options(t *testing.T) {
	t.Run("custom delay and params source", func(t *testing.T) {
		params := &models.UpgradeParameters{TimelockAddress: testTimelock.Hex(), TimelockMinDelay: 60}
		uc, _, _, _ := newUpdateDelayFixture(params)

		result, err := uc.Run(context.Background(), UpdateDelayOptions{
			NewDelay:       big.NewInt(86400),
			MinDelaySource: MinDelayFromParameters,
		})
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(60), result.Output.Payload.Delay)
		assert.Equal(t, bindings.NewTimelockController().PackUpdateDelay(big.NewInt(86400)), result.Output.Payload.Data)
	})

	t.Run("proxy admin from parameters", func(t *testing.T) {
		params := &models.UpgradeParameters{ProxyAdmin: testProxyAdmin.Hex()}
		uc, _, _, _ := newUpdateDelayFixture(params)

		result, err := uc.Run(context.Background(), UpdateDelayOptions{})
		require.NoError(t, err)
		assert.Equal(t, testTimelock, result.Output.Payload.Timelock)
	})
}

func TestUpdateDelay_Errors(t *testing.T) {
	t.Run("no way to find the timelock", func(t *testing.T) {
		uc, _, _, _ := newUpdateDelayFixture(&models.UpgradeParameters{})
		_, err := uc.Run(context.Background(), UpdateDelayOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	})

	t.Run("negative delay", func(t *testing.T) {
		uc, _, _, _ := newUpdateDelayFixture(&models.UpgradeParameters{TimelockAddress: testTimelock.Hex()})
		_, err := uc.Run(context.Background(), UpdateDelayOptions{NewDelay: big.NewInt(-1)})
		assert.ErrorIs(t, err, domain.ErrInvalidParameters)
	})

	t.Run("no network", func(t *testing.T) {
		uc, _, _, _ := newUpdateDelayFixture(&models.UpgradeParameters{TimelockAddress: testTimelock.Hex()})
		uc.config.Network = nil
		_, err := uc.Run(context.Background(), UpdateDelayOptions{})
		assert.ErrorIs(t, err, domain.ErrNetworkRequired)
	})
}
