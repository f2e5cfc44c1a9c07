package blockchain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

type fakeBackend struct {
	chainID  int64
	storage  map[common.Address]map[common.Hash]common.Hash
	calls    map[common.Address]func(data []byte) []byte
	baseFee  *big.Int
	tip      *big.Int
	sent     []*types.Transaction
	receipt  *types.Receipt
	closed   bool
	nonce    uint64
	gasLimit uint64
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeBackend) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	v := f.storage[account][key]
	return v.Bytes(), nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	handler, ok := f.calls[*call.To]
	if !ok {
		return nil, nil
	}
	return handler(call.Data), nil
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return f.gasLimit, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) Close() { f.closed = true }

func connectedClient(t *testing.T, backend *fakeBackend) *ClientAdapter {
	t.Helper()
	dial := func(ctx context.Context, rpcURL string) (Backend, error) { return backend, nil }
	client := NewClientAdapterWithDialer(dial, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, client.Connect(context.Background(), &config.Network{Name: "hoodi", ChainID: uint64(backend.chainID)}))
	return client
}

var (
	proxy      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	proxyAdmin = common.HexToAddress("0x1111111111111111111111111111111111111111")
	impl       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	timelock   = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func TestClientAdapter_Connect(t *testing.T) {
	backend := &fakeBackend{chainID: 560048}
	dial := func(ctx context.Context, rpcURL string) (Backend, error) { return backend, nil }
	client := NewClientAdapterWithDialer(dial, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := client.Connect(context.Background(), &config.Network{Name: "mainnet", ChainID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain ID mismatch: expected 1, got 560048")
	assert.True(t, backend.closed)

	failing := NewClientAdapterWithDialer(func(ctx context.Context, rpcURL string) (Backend, error) {
		return nil, errors.New("connection refused")
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err = failing.Connect(context.Background(), &config.Network{Name: "localhost"})
	assert.ErrorContains(t, err, "connection refused")

	_, err = failing.ProxyAdminOf(context.Background(), proxy)
	assert.ErrorContains(t, err, "not connected")
}

func TestClientAdapter_ProxySlots(t *testing.T) {
	backend := &fakeBackend{
		chainID: 1,
		storage: map[common.Address]map[common.Hash]common.Hash{
			proxy: {
				adminSlot:          common.BytesToHash(proxyAdmin.Bytes()),
				implementationSlot: common.BytesToHash(impl.Bytes()),
			},
		},
	}
	client := connectedClient(t, backend)

	admin, err := client.ProxyAdminOf(context.Background(), proxy)
	require.NoError(t, err)
	assert.Equal(t, proxyAdmin, admin)

	got, err := client.ImplementationOf(context.Background(), proxy)
	require.NoError(t, err)
	assert.Equal(t, impl, got)

	none, err := client.ImplementationOf(context.Background(), impl)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, none)
}

func TestClientAdapter_Calls(t *testing.T) {
	timelockContract := bindings.NewTimelockController()
	doneID := common.HexToHash("0xaa")

	backend := &fakeBackend{
		chainID: 1,
		calls: map[common.Address]func([]byte) []byte{
			proxyAdmin: func(data []byte) []byte {
				return common.LeftPadBytes(timelock.Bytes(), 32)
			},
			timelock: func(data []byte) []byte {
				switch {
				case string(data[:4]) == string(timelockContract.PackGetMinDelay()[:4]):
					return common.LeftPadBytes(big.NewInt(604800).Bytes(), 32)
				case string(data) == string(timelockContract.PackIsOperationDone(doneID)):
					return common.LeftPadBytes([]byte{1}, 32)
				default:
					return make([]byte, 32)
				}
			},
		},
	}
	client := connectedClient(t, backend)
	ctx := context.Background()

	owner, err := client.Owner(ctx, proxyAdmin)
	require.NoError(t, err)
	assert.Equal(t, timelock, owner)

	delay, err := client.MinDelay(ctx, timelock)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(604800), delay)

	done, err := client.IsOperationDone(ctx, timelock, doneID)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = client.IsOperationDone(ctx, timelock, common.HexToHash("0xbb"))
	require.NoError(t, err)
	assert.False(t, done)

	_, err = client.Owner(ctx, impl)
	assert.ErrorContains(t, err, "no contract code")
}

func TestClientAdapter_SuggestFees(t *testing.T) {
	client := connectedClient(t, &fakeBackend{
		chainID: 1,
		baseFee: big.NewInt(10_000_000_000),
		tip:     big.NewInt(1_500_000_000),
	})

	fees, err := client.SuggestFees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(21_500_000_000), fees.MaxFeePerGas)
	assert.Equal(t, big.NewInt(1_500_000_000), fees.MaxPriorityFeePerGas)
}

func TestClientAdapter_Deploy(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := &models.Signer{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}
	deployed := common.HexToAddress("0x9000000000000000000000000000000000000000")

	backend := &fakeBackend{
		chainID:  1,
		nonce:    7,
		gasLimit: 1_000_000,
		receipt:  &types.Receipt{Status: types.ReceiptStatusSuccessful, ContractAddress: deployed},
	}
	client := connectedClient(t, backend)

	fees := &models.FeeData{MaxFeePerGas: big.NewInt(30), MaxPriorityFeePerGas: big.NewInt(2)}
	addr, hash, err := client.Deploy(context.Background(), signer, []byte{0x60, 0x80}, fees)
	require.NoError(t, err)
	assert.Equal(t, deployed, addr)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Nil(t, tx.To())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(1_000_000), tx.Gas())
	assert.Equal(t, big.NewInt(30), tx.GasFeeCap())
	assert.Equal(t, big.NewInt(2), tx.GasTipCap())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, signer.Address, sender)

	backend.receipt.Status = types.ReceiptStatusFailed
	_, _, err = client.Deploy(context.Background(), signer, []byte{0x60, 0x80}, fees)
	assert.ErrorContains(t, err, "reverted")
}
