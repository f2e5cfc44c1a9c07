package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Current int
	Total   int
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// ParametersLoader reads the records that drive the commands
type ParametersLoader interface {
	LoadUpgradeParameters(ctx context.Context, path string) (*models.UpgradeParameters, error)
	LoadDeployOutput(ctx context.Context, path string) (*models.DeployOutput, error)
}

// OutputWriter persists output records
type OutputWriter interface {
	WriteDocument(ctx context.Context, path string, doc models.Document) error
}

// ContractBuilder compiles the project
type ContractBuilder interface {
	Build(ctx context.Context) error
}

// ArtifactRepository looks up compiled contracts by name
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// ContractVerifier submits a contract's source to the block explorer.
// An "already verified" answer is reported as an error matching
// domain.IsAlreadyVerified.
type ContractVerifier interface {
	Verify(ctx context.Context, target models.VerificationTarget, network *config.Network) error
}

// ChainClient reads chain state and deploys contracts
type ChainClient interface {
	Connect(ctx context.Context, network *config.Network) error
	Close()

	// ProxyAdminOf reads the ERC-1967 admin slot of a proxy
	ProxyAdminOf(ctx context.Context, proxy common.Address) (common.Address, error)
	// ImplementationOf reads the ERC-1967 implementation slot of a proxy.
	// It returns the zero address for non-proxies.
	ImplementationOf(ctx context.Context, proxy common.Address) (common.Address, error)
	Owner(ctx context.Context, contract common.Address) (common.Address, error)
	MinDelay(ctx context.Context, timelock common.Address) (*big.Int, error)
	IsOperationDone(ctx context.Context, timelock common.Address, id common.Hash) (bool, error)

	SuggestFees(ctx context.Context) (*models.FeeData, error)
	Deploy(ctx context.Context, signer *models.Signer, code []byte, fees *models.FeeData) (common.Address, common.Hash, error)
}

// SignerResolver finds the account used for deployments
type SignerResolver interface {
	Resolve(ctx context.Context, params *models.UpgradeParameters) (*models.Signer, error)
}

// CallDecoder decodes calldata. Each further interface is used to decode the
// bytes argument named "data" of the previous level.
type CallDecoder interface {
	Decode(data []byte, interfaces ...*abi.ABI) (*models.DecodedCall, error)
}

// ABIEncoder encodes loosely typed values read from parameter files
type ABIEncoder interface {
	EncodeConstructor(contract *abi.ABI, args []any) ([]byte, error)
	EncodeCall(contract *abi.ABI, method string, args []any) ([]byte, error)
}

// Confirmer asks the operator before irreversible actions
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}
