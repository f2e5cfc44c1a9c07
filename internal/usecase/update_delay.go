package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

const (
	// DefaultNewMinDelay is the delay proposed when none is given (five minutes)
	DefaultNewMinDelay = 300

	updateDelayOutputFile = "upgradeMinDelay.json"
)

// UpdateDelay prepares a timelock operation that changes the timelock's own
// minimum delay
type UpdateDelay struct {
	config   *config.RuntimeConfig
	loader   ParametersLoader
	chain    ChainClient
	decoder  CallDecoder
	writer   OutputWriter
	progress ProgressSink
	log      *slog.Logger
}

// NewUpdateDelay creates a new update delay use case
func NewUpdateDelay(
	cfg *config.RuntimeConfig,
	loader ParametersLoader,
	chain ChainClient,
	decoder CallDecoder,
	writer OutputWriter,
	progress ProgressSink,
	log *slog.Logger,
) *UpdateDelay {
	return &UpdateDelay{
		config:   cfg,
		loader:   loader,
		chain:    chain,
		decoder:  decoder,
		writer:   writer,
		progress: progress,
		log:      log.With("component", "UpdateDelay"),
	}
}

// UpdateDelayOptions contains options for a delay update
type UpdateDelayOptions struct {
	ParametersPath string
	OutputDir      string
	NewDelay       *big.Int       // nil means DefaultNewMinDelay
	MinDelaySource MinDelaySource // defaults to MinDelayFromChain
}

// UpdateDelayResult contains the prepared operation
type UpdateDelayResult struct {
	Network  *config.Network
	NewDelay *big.Int
	Output   *models.UpgradeOutput
}

// Run executes the delay update preparation
func (uc *UpdateDelay) Run(ctx context.Context, opts UpdateDelayOptions) (*UpdateDelayResult, error) {
	params, err := uc.loader.LoadUpgradeParameters(ctx, opts.ParametersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load upgrade parameters: %w", err)
	}
	if uc.config.Network == nil {
		return nil, domain.ErrNetworkRequired
	}

	settings, err := parseTimelockSettings(params)
	if err != nil {
		return nil, err
	}

	newDelay := opts.NewDelay
	if newDelay == nil {
		newDelay = big.NewInt(DefaultNewMinDelay)
	}
	if newDelay.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative delay %s", domain.ErrInvalidParameters, newDelay)
	}

	if err := uc.chain.Connect(ctx, uc.config.Network); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uc.config.Network.Name, err)
	}
	defer uc.chain.Close()

	settings.Timelock, err = uc.resolveTimelock(ctx, params)
	if err != nil {
		return nil, err
	}

	source := opts.MinDelaySource
	if source == "" {
		source = MinDelayFromChain
	}
	settings.Delay, err = resolveMinDelay(ctx, uc.chain, source, params, settings.Timelock)
	if err != nil {
		return nil, err
	}

	if err := checkPredecessor(ctx, uc.chain, settings); err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "encoding", Message: "Encoding delay update", Spinner: true})

	timelockContract := bindings.NewTimelockController()
	data, err := timelockContract.TryPackUpdateDelay(newDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to encode updateDelay: %w", err)
	}

	// The operation targets the timelock itself, so the inner call is
	// decoded against the timelock interface too
	payload, err := buildTimelockPayload(uc.decoder, settings, settings.Timelock, data, timelockContract.ABI())
	if err != nil {
		return nil, err
	}

	output := &models.UpgradeOutput{
		Payload: payload,
		Path:    filepath.Join(opts.OutputDir, updateDelayOutputFile),
	}
	if err := uc.writer.WriteDocument(ctx, output.Path, output.Document()); err != nil {
		return nil, fmt.Errorf("failed to write delay update output: %w", err)
	}
	uc.log.Info("delay update output written", "path", output.Path, "newDelay", newDelay)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "completed"})
	return &UpdateDelayResult{
		Network:  uc.config.Network,
		NewDelay: newDelay,
		Output:   output,
	}, nil
}

// resolveTimelock uses the configured timelock, or the owner of the proxy
// admin of the first listed proxy
func (uc *UpdateDelay) resolveTimelock(ctx context.Context, params *models.UpgradeParameters) (common.Address, error) {
	if params.TimelockAddress != "" {
		return common.HexToAddress(params.TimelockAddress), nil
	}

	var proxyAdmin common.Address
	switch {
	case params.ProxyAdmin != "":
		proxyAdmin = common.HexToAddress(params.ProxyAdmin)
	case len(params.Upgrades) > 0:
		proxy := common.HexToAddress(params.Upgrades[0].Address)
		admin, err := uc.chain.ProxyAdminOf(ctx, proxy)
		if err != nil {
			return common.Address{}, fmt.Errorf("failed to read proxy admin of %s: %w", proxy.Hex(), err)
		}
		proxyAdmin = admin
	default:
		return common.Address{}, fmt.Errorf("%w: set timelockAddress, proxyAdmin or list a proxy in upgrades", domain.ErrInvalidParameters)
	}

	owner, err := uc.chain.Owner(ctx, proxyAdmin)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read owner of proxy admin %s: %w", proxyAdmin.Hex(), err)
	}
	return owner, nil
}
