package usecase

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockLoader struct {
	params       *models.UpgradeParameters
	deployOutput *models.DeployOutput
	err          error
}

func (m *mockLoader) LoadUpgradeParameters(ctx context.Context, path string) (*models.UpgradeParameters, error) {
	return m.params, m.err
}

func (m *mockLoader) LoadDeployOutput(ctx context.Context, path string) (*models.DeployOutput, error) {
	return m.deployOutput, m.err
}

// MockVerifier records verification calls
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, target models.VerificationTarget, network *config.Network) error {
	args := m.Called(ctx, target, network)
	return args.Error(0)
}

type mockArtifacts struct {
	artifacts map[string]*models.Artifact
}

func (m *mockArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if a, ok := m.artifacts[name]; ok {
		return a, nil
	}
	return nil, domain.ArtifactNotFoundErr{Name: name}
}

type mockBuilder struct {
	calls int
	err   error
}

func (m *mockBuilder) Build(ctx context.Context) error {
	m.calls++
	return m.err
}

// mockChain serves fixed chain state
type mockChain struct {
	admins          map[common.Address]common.Address
	implementations map[common.Address]common.Address
	owners          map[common.Address]common.Address
	minDelay        *big.Int
	doneOperations  map[common.Hash]bool
	fees            *models.FeeData

	connectErr error
	deployed   [][]byte
	deployFees []*models.FeeData
	nextDeploy common.Address
	closed     bool
}

func (m *mockChain) Connect(ctx context.Context, network *config.Network) error {
	return m.connectErr
}

func (m *mockChain) Close() { m.closed = true }

func (m *mockChain) ProxyAdminOf(ctx context.Context, proxy common.Address) (common.Address, error) {
	return m.admins[proxy], nil
}

func (m *mockChain) ImplementationOf(ctx context.Context, proxy common.Address) (common.Address, error) {
	return m.implementations[proxy], nil
}

func (m *mockChain) Owner(ctx context.Context, contract common.Address) (common.Address, error) {
	return m.owners[contract], nil
}

func (m *mockChain) MinDelay(ctx context.Context, timelock common.Address) (*big.Int, error) {
	return m.minDelay, nil
}

func (m *mockChain) IsOperationDone(ctx context.Context, timelock common.Address, id common.Hash) (bool, error) {
	return m.doneOperations[id], nil
}

func (m *mockChain) SuggestFees(ctx context.Context) (*models.FeeData, error) {
	return m.fees, nil
}

func (m *mockChain) Deploy(ctx context.Context, signer *models.Signer, code []byte, fees *models.FeeData) (common.Address, common.Hash, error) {
	m.deployed = append(m.deployed, code)
	m.deployFees = append(m.deployFees, fees)
	addr := m.nextDeploy
	m.nextDeploy = common.BigToAddress(new(big.Int).Add(addr.Big(), big.NewInt(1)))
	return addr, common.BytesToHash(code[:1]), nil
}

type mockSigners struct {
	signer *models.Signer
	err    error
	calls  int
}

func (m *mockSigners) Resolve(ctx context.Context, params *models.UpgradeParameters) (*models.Signer, error) {
	m.calls++
	return m.signer, m.err
}

// mockEncoder packs arguments with the go-ethereum ABI as they come
type mockEncoder struct{}

func (mockEncoder) EncodeConstructor(contract *abi.ABI, args []any) ([]byte, error) {
	return contract.Pack("", args...)
}

func (mockEncoder) EncodeCall(contract *abi.ABI, method string, args []any) ([]byte, error) {
	return contract.Pack(method, args...)
}

// mockDecoder returns the selector of the outer call and remembers the
// interface chain it was asked to use
type mockDecoder struct {
	chains [][]*abi.ABI
}

func (m *mockDecoder) Decode(data []byte, interfaces ...*abi.ABI) (*models.DecodedCall, error) {
	m.chains = append(m.chains, interfaces)
	method, err := interfaces[0].MethodById(data)
	if err != nil {
		return nil, err
	}
	var selector [4]byte
	copy(selector[:], data[:4])
	return &models.DecodedCall{Method: method.Name, Signature: method.Sig, Selector: selector}, nil
}

type mockWriter struct {
	written map[string]models.Document
	order   []string
}

func (m *mockWriter) WriteDocument(ctx context.Context, path string, doc models.Document) error {
	if m.written == nil {
		m.written = map[string]models.Document{}
	}
	m.written[path] = doc
	m.order = append(m.order, path)
	return nil
}

type mockConfirmer struct {
	answer bool
	asked  []string
}

func (m *mockConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	m.asked = append(m.asked, message)
	return m.answer, nil
}
