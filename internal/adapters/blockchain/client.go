package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// ERC-1967 storage slots
var (
	adminSlot          = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
	implementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
)

const readTimeout = 5 * time.Second

// Backend is the part of ethclient the adapter needs
type Backend interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	Close()
}

// Dialer opens a backend for an RPC URL
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// ClientAdapter implements usecase.ChainClient over JSON-RPC
type ClientAdapter struct {
	dial    Dialer
	backend Backend
	chainID *big.Int
	log     *slog.Logger

	proxyAdmin *bindings.ProxyAdmin
	timelock   *bindings.TimelockController
}

// NewClientAdapter creates a new chain client adapter
func NewClientAdapter(log *slog.Logger) *ClientAdapter {
	return NewClientAdapterWithDialer(dialEthclient, log)
}

// NewClientAdapterWithDialer creates a chain client that dials through dial
func NewClientAdapterWithDialer(dial Dialer, log *slog.Logger) *ClientAdapter {
	return &ClientAdapter{
		dial:       dial,
		log:        log.With("component", "ChainClient"),
		proxyAdmin: bindings.NewProxyAdmin(),
		timelock:   bindings.NewTimelockController(),
	}
}

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Connect establishes connection to the network and checks its chain id
func (c *ClientAdapter) Connect(ctx context.Context, network *config.Network) error {
	backend, err := c.dial(ctx, network.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}

	networkChainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	// A zero chain id takes whatever the node reports
	if network.ChainID != 0 && networkChainID.Uint64() != network.ChainID {
		backend.Close()
		return fmt.Errorf("chain ID mismatch: expected %d, got %d", network.ChainID, networkChainID.Uint64())
	}

	c.backend = backend
	c.chainID = networkChainID
	c.log.Debug("connected", "network", network.Name, "chainId", networkChainID)
	return nil
}

// Close closes the connection
func (c *ClientAdapter) Close() {
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
}

// ProxyAdminOf reads the ERC-1967 admin slot
func (c *ClientAdapter) ProxyAdminOf(ctx context.Context, proxy common.Address) (common.Address, error) {
	return c.readAddressSlot(ctx, proxy, adminSlot)
}

// ImplementationOf reads the ERC-1967 implementation slot
func (c *ClientAdapter) ImplementationOf(ctx context.Context, proxy common.Address) (common.Address, error) {
	return c.readAddressSlot(ctx, proxy, implementationSlot)
}

func (c *ClientAdapter) readAddressSlot(ctx context.Context, contract common.Address, slot common.Hash) (common.Address, error) {
	if c.backend == nil {
		return common.Address{}, fmt.Errorf("not connected to blockchain")
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	value, err := c.backend.StorageAt(ctx, contract, slot, nil)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(value), nil
}

// Owner calls owner() on an Ownable contract
func (c *ClientAdapter) Owner(ctx context.Context, contract common.Address) (common.Address, error) {
	out, err := c.call(ctx, contract, c.proxyAdmin.PackOwner())
	if err != nil {
		return common.Address{}, err
	}
	return c.proxyAdmin.UnpackOwner(out)
}

// MinDelay calls getMinDelay() on a timelock
func (c *ClientAdapter) MinDelay(ctx context.Context, timelock common.Address) (*big.Int, error) {
	out, err := c.call(ctx, timelock, c.timelock.PackGetMinDelay())
	if err != nil {
		return nil, err
	}
	return c.timelock.UnpackGetMinDelay(out)
}

// IsOperationDone calls isOperationDone(id) on a timelock
func (c *ClientAdapter) IsOperationDone(ctx context.Context, timelock common.Address, id common.Hash) (bool, error) {
	out, err := c.call(ctx, timelock, c.timelock.PackIsOperationDone(id))
	if err != nil {
		return false, err
	}
	return c.timelock.UnpackIsOperationDone(out)
}

func (c *ClientAdapter) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if c.backend == nil {
		return nil, fmt.Errorf("not connected to blockchain")
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no contract code at %s", to.Hex())
	}
	return out, nil
}

// SuggestFees returns the node's tip suggestion and a fee cap of twice the
// latest base fee plus the tip
func (c *ClientAdapter) SuggestFees(ctx context.Context) (*models.FeeData, error) {
	if c.backend == nil {
		return nil, fmt.Errorf("not connected to blockchain")
	}

	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	maxFee := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		maxFee.Add(maxFee, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}
	return &models.FeeData{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: tip}, nil
}

// Deploy sends a contract creation transaction and waits for its receipt
func (c *ClientAdapter) Deploy(ctx context.Context, signer *models.Signer, code []byte, fees *models.FeeData) (common.Address, common.Hash, error) {
	if c.backend == nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("not connected to blockchain")
	}

	nonce, err := c.backend.PendingNonceAt(ctx, signer.Address)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      signer.Address,
		GasFeeCap: fees.MaxFeePerGas,
		GasTipCap: fees.MaxPriorityFeePerGas,
		Data:      code,
	})
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx, err := types.SignNewTx(signer.Key, types.LatestSignerForChainID(c.chainID), &types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: fees.MaxPriorityFeePerGas,
		GasFeeCap: fees.MaxFeePerGas,
		Gas:       gas,
		Data:      code,
	})
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return common.Address{}, tx.Hash(), fmt.Errorf("failed to send transaction: %w", err)
	}
	c.log.Debug("deployment sent", "tx", tx.Hash(), "nonce", nonce, "gas", gas)

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return common.Address{}, tx.Hash(), fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, tx.Hash(), fmt.Errorf("deployment transaction %s reverted", tx.Hash().Hex())
	}

	return receipt.ContractAddress, tx.Hash(), nil
}

// Ensure the adapter implements the interface
var _ usecase.ChainClient = (*ClientAdapter)(nil)
