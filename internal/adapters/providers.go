package adapters

import (
	"github.com/google/wire"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters/abi"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/blockchain"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/forge"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/fs"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/interactive"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/signer"
	"github.com/dappnode/smoothing-pool-ops/internal/adapters/verification"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewParametersLoader,
	wire.Bind(new(usecase.ParametersLoader), new(*fs.ParametersLoader)),

	fs.NewFileWriterAdapter,
	wire.Bind(new(usecase.OutputWriter), new(*fs.FileWriterAdapter)),
)

// ForgeSet provides forge-based implementations
var ForgeSet = wire.NewSet(
	forge.NewForgeAdapter,
	wire.Bind(new(usecase.ContractBuilder), new(*forge.ForgeAdapter)),

	forge.NewArtifactRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*forge.ArtifactRepository)),
)

// ABISet provides calldata encoding and decoding
var ABISet = wire.NewSet(
	abi.NewEncoder,
	wire.Bind(new(usecase.ABIEncoder), new(*abi.Encoder)),

	abi.NewCallDecoder,
	wire.Bind(new(usecase.CallDecoder), new(*abi.CallDecoder)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewClientAdapter,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.ClientAdapter)),

	signer.NewResolver,
	wire.Bind(new(usecase.SignerResolver), new(*signer.Resolver)),
)

// VerificationSet provides block explorer verification
var VerificationSet = wire.NewSet(
	verification.NewVerifierAdapter,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.VerifierAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ForgeSet,
	ABISet,
	InteractiveSet,
	BlockchainSet,
	VerificationSet,
)
