package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// UpgradeProxies prepares timelock operations that upgrade proxies to new
// implementations. Implementations are deployed when not given.
type UpgradeProxies struct {
	config    *config.RuntimeConfig
	loader    ParametersLoader
	builder   ContractBuilder
	artifacts ArtifactRepository
	chain     ChainClient
	signers   SignerResolver
	encoder   ABIEncoder
	decoder   CallDecoder
	writer    OutputWriter
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewUpgradeProxies creates a new upgrade use case
func NewUpgradeProxies(
	cfg *config.RuntimeConfig,
	loader ParametersLoader,
	builder ContractBuilder,
	artifacts ArtifactRepository,
	chain ChainClient,
	signers SignerResolver,
	encoder ABIEncoder,
	decoder CallDecoder,
	writer OutputWriter,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *UpgradeProxies {
	return &UpgradeProxies{
		config:    cfg,
		loader:    loader,
		builder:   builder,
		artifacts: artifacts,
		chain:     chain,
		signers:   signers,
		encoder:   encoder,
		decoder:   decoder,
		writer:    writer,
		confirmer: confirmer,
		progress:  progress,
		log:       log.With("component", "UpgradeProxies"),
	}
}

// UpgradeProxiesOptions contains options for an upgrade run
type UpgradeProxiesOptions struct {
	ParametersPath string
	OutputDir      string
	SkipBuild      bool
	MinDelaySource MinDelaySource // defaults to MinDelayFromParameters
	Timestamp      time.Time      // used in output file names, zero means now
}

// UpgradeProxiesResult contains one output per upgraded proxy
type UpgradeProxiesResult struct {
	Network    *config.Network
	ProxyAdmin common.Address
	Timelock   common.Address
	Outputs    []*models.UpgradeOutput
}

// Run executes the upgrade preparation
func (uc *UpgradeProxies) Run(ctx context.Context, opts UpgradeProxiesOptions) (*UpgradeProxiesResult, error) {
	params, err := uc.loader.LoadUpgradeParameters(ctx, opts.ParametersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load upgrade parameters: %w", err)
	}
	if len(params.Upgrades) == 0 {
		return nil, fmt.Errorf("%w: no upgrades listed", domain.ErrInvalidParameters)
	}
	if uc.config.Network == nil {
		return nil, domain.ErrNetworkRequired
	}

	settings, err := parseTimelockSettings(params)
	if err != nil {
		return nil, err
	}

	if !opts.SkipBuild {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: "building", Message: "Compiling contracts", Spinner: true})
		if err := uc.builder.Build(ctx); err != nil {
			return nil, fmt.Errorf("failed to build contracts: %w", err)
		}
	}

	artifacts := make([]*models.Artifact, len(params.Upgrades))
	for i, entry := range params.Upgrades {
		artifacts[i], err = uc.artifacts.GetArtifact(ctx, entry.ContractName)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.chain.Connect(ctx, uc.config.Network); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uc.config.Network.Name, err)
	}
	defer uc.chain.Close()

	proxyAdmin, err := uc.resolveProxyAdmin(ctx, params)
	if err != nil {
		return nil, err
	}

	settings.Timelock, err = uc.resolveTimelock(ctx, params, proxyAdmin)
	if err != nil {
		return nil, err
	}

	source := opts.MinDelaySource
	if source == "" {
		source = MinDelayFromParameters
	}
	settings.Delay, err = resolveMinDelay(ctx, uc.chain, source, params, settings.Timelock)
	if err != nil {
		return nil, err
	}

	if err := checkPredecessor(ctx, uc.chain, settings); err != nil {
		return nil, err
	}

	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result := &UpgradeProxiesResult{
		Network:    uc.config.Network,
		ProxyAdmin: proxyAdmin,
		Timelock:   settings.Timelock,
	}

	run := &upgradeRun{UpgradeProxies: uc, params: params}
	for i, entry := range params.Upgrades {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "upgrading",
			Current: i + 1,
			Total:   len(params.Upgrades),
			Message: fmt.Sprintf("Preparing upgrade of %s", entry.ContractName),
			Spinner: true,
		})

		output, err := run.upgradeOne(ctx, entry, artifacts[i], proxyAdmin, settings)
		if err != nil {
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: "failed"})
			return result, fmt.Errorf("failed to upgrade %s: %w", entry.ContractName, err)
		}

		output.Path = filepath.Join(opts.OutputDir, fmt.Sprintf("upgrade_output_%d_%d_%s.json", timestamp.Unix(), i, entry.ContractName))
		if err := uc.writer.WriteDocument(ctx, output.Path, output.Document()); err != nil {
			return result, fmt.Errorf("failed to write upgrade output: %w", err)
		}
		uc.log.Info("upgrade output written", "contract", entry.ContractName, "path", output.Path)

		result.Outputs = append(result.Outputs, output)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "completed"})
	return result, nil
}

// resolveProxyAdmin returns the proxy admin shared by every listed proxy
func (uc *UpgradeProxies) resolveProxyAdmin(ctx context.Context, params *models.UpgradeParameters) (common.Address, error) {
	var proxyAdmin common.Address
	if params.ProxyAdmin != "" {
		proxyAdmin = common.HexToAddress(params.ProxyAdmin)
	}

	for _, entry := range params.Upgrades {
		proxy := common.HexToAddress(entry.Address)
		admin, err := uc.chain.ProxyAdminOf(ctx, proxy)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to read proxy admin of %s: %w", proxy.Hex(), err)
		}
		if proxyAdmin == (common.Address{}) {
			proxyAdmin = admin
			continue
		}
		if admin != proxyAdmin {
			return common.Address{}, fmt.Errorf("%w: %s is administered by %s, expected %s",
				domain.ErrAdminMismatch, proxy.Hex(), admin.Hex(), proxyAdmin.Hex())
		}
	}

	if proxyAdmin == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: could not resolve proxy admin", domain.ErrInvalidParameters)
	}
	return proxyAdmin, nil
}

func (uc *UpgradeProxies) resolveTimelock(ctx context.Context, params *models.UpgradeParameters, proxyAdmin common.Address) (common.Address, error) {
	if params.TimelockAddress != "" {
		return common.HexToAddress(params.TimelockAddress), nil
	}
	owner, err := uc.chain.Owner(ctx, proxyAdmin)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read owner of proxy admin %s: %w", proxyAdmin.Hex(), err)
	}
	return owner, nil
}

// upgradeRun holds state shared across the entries of one run
type upgradeRun struct {
	*UpgradeProxies
	params *models.UpgradeParameters
	signer *models.Signer
}

func (r *upgradeRun) upgradeOne(ctx context.Context, entry models.UpgradeEntry, artifact *models.Artifact, proxyAdmin common.Address, settings *timelockSettings) (*models.UpgradeOutput, error) {
	output := &models.UpgradeOutput{
		ContractName: entry.ContractName,
		ContractPath: artifact.FullyQualifiedName(),
		Proxy:        common.HexToAddress(entry.Address),
	}

	if entry.Implementation != "" {
		output.Implementation = common.HexToAddress(entry.Implementation)
		r.log.Debug("using existing implementation", "contract", entry.ContractName, "implementation", output.Implementation)
	} else if err := r.deployImplementation(ctx, entry, artifact, output); err != nil {
		return nil, err
	}

	proxyAdminContract := bindings.NewProxyAdmin()
	nested := []*abi.ABI{proxyAdminContract.ABI()}

	var upgradeData []byte
	var err error
	if entry.CallAfterUpgrade != nil {
		callData, encErr := r.encoder.EncodeCall(artifact.ABI, entry.CallAfterUpgrade.FunctionName, entry.CallAfterUpgrade.Arguments)
		if encErr != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", entry.CallAfterUpgrade.FunctionName, encErr)
		}
		upgradeData, err = proxyAdminContract.TryPackUpgradeAndCall(output.Proxy, output.Implementation, callData)
		nested = append(nested, artifact.ABI)
	} else {
		upgradeData, err = proxyAdminContract.TryPackUpgrade(output.Proxy, output.Implementation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode upgrade call: %w", err)
	}

	output.Payload, err = buildTimelockPayload(r.decoder, settings, proxyAdmin, upgradeData, nested...)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (r *upgradeRun) deployImplementation(ctx context.Context, entry models.UpgradeEntry, artifact *models.Artifact, output *models.UpgradeOutput) error {
	if len(artifact.Bytecode) == 0 {
		return fmt.Errorf("%s has no creation bytecode (abstract contract or interface?)", artifact.Name)
	}

	if r.signer == nil {
		signer, err := r.signers.Resolve(ctx, r.params)
		if err != nil {
			return err
		}
		r.signer = signer
		r.log.Debug("resolved deployer", "address", signer.Address, "source", signer.Source)
	}

	if !r.config.NonInteractive {
		ok, err := r.confirmer.Confirm(ctx, fmt.Sprintf("Deploy new %s implementation on %s from %s?",
			entry.ContractName, r.config.Network.Name, r.signer.Address.Hex()))
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrDeploymentDeclined
		}
	}

	args, err := r.encoder.EncodeConstructor(artifact.ABI, entry.ConstructorArgs)
	if err != nil {
		return fmt.Errorf("failed to encode constructor arguments: %w", err)
	}

	fees, err := resolveFees(ctx, r.chain, r.config.Network, r.params.Fees)
	if err != nil {
		return err
	}

	code := lo.Flatten([][]byte{artifact.Bytecode, args})
	address, tx, err := r.chain.Deploy(ctx, r.signer, code, fees)
	if err != nil {
		return fmt.Errorf("failed to deploy implementation: %w", err)
	}
	r.log.Info("implementation deployed", "contract", entry.ContractName, "address", address, "tx", tx)

	output.Implementation = address
	output.ConstructorArgs = args
	output.Deployed = true
	output.DeployTx = tx
	return nil
}
