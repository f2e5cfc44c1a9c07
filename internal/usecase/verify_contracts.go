package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

const (
	// DefaultTimelockMinDelay is the delay the timelock was deployed with (one week)
	DefaultTimelockMinDelay = 604800
	// DefaultTimelockAdmin is the proposer, executor and admin the timelock was deployed with
	DefaultTimelockAdmin = "0x67C1A3e1Ce35c31Cd4fC27F987821b48cA928d57"
)

// VerifyContracts verifies the deployed smoothing pool and its timelock
type VerifyContracts struct {
	config    *config.RuntimeConfig
	loader    ParametersLoader
	verifier  ContractVerifier
	artifacts ArtifactRepository
	chain     ChainClient
	progress  ProgressSink
	log       *slog.Logger
}

// NewVerifyContracts creates a new verify contracts use case
func NewVerifyContracts(
	cfg *config.RuntimeConfig,
	loader ParametersLoader,
	verifier ContractVerifier,
	artifacts ArtifactRepository,
	chain ChainClient,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyContracts {
	return &VerifyContracts{
		config:    cfg,
		loader:    loader,
		verifier:  verifier,
		artifacts: artifacts,
		chain:     chain,
		progress:  progress,
		log:       log.With("component", "VerifyContracts"),
	}
}

// VerifyContractsOptions contains options for verification
type VerifyContractsOptions struct {
	DeployOutputPath string
	TimelockMinDelay *big.Int       // nil means DefaultTimelockMinDelay
	TimelockAdmin    common.Address // zero means DefaultTimelockAdmin
}

// VerifyContractsResult contains one result per verified contract
type VerifyContractsResult struct {
	Network *config.Network
	Results []*models.VerificationResult
}

// Run verifies every target in order and stops at the first real failure.
// An "already verified" answer counts as success.
func (v *VerifyContracts) Run(ctx context.Context, opts VerifyContractsOptions) (*VerifyContractsResult, error) {
	if v.config.EtherscanAPIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if v.config.Network == nil {
		return nil, domain.ErrNetworkRequired
	}

	deployOutput, err := v.loader.LoadDeployOutput(ctx, opts.DeployOutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load deploy output: %w", err)
	}

	targets, err := v.targets(ctx, deployOutput, opts)
	if err != nil {
		return nil, err
	}

	result := &VerifyContractsResult{Network: v.config.Network}
	for i, target := range targets {
		v.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "verifying",
			Current: i + 1,
			Total:   len(targets),
			Message: fmt.Sprintf("Verifying %s at %s", target.ContractName, target.Address.Hex()),
			Spinner: true,
		})

		res, err := v.verifyOne(ctx, target)
		if err != nil {
			v.progress.OnProgress(ctx, ProgressEvent{Stage: "failed"})
			return result, err
		}
		result.Results = append(result.Results, res)
	}

	v.progress.OnProgress(ctx, ProgressEvent{Stage: "completed"})
	return result, nil
}

func (v *VerifyContracts) verifyOne(ctx context.Context, target models.VerificationTarget) (*models.VerificationResult, error) {
	res := &models.VerificationResult{
		Target: target,
		URL:    explorerAddressURL(v.config.Network, target.Address),
	}

	err := v.verifier.Verify(ctx, target, v.config.Network)
	switch {
	case err == nil:
		res.Status = models.VerificationStatusVerified
	case domain.IsAlreadyVerified(err):
		v.log.Debug("contract already verified", "contract", target.ContractName, "address", target.Address)
		res.Status = models.VerificationStatusAlreadyVerified
	default:
		return nil, fmt.Errorf("failed to verify %s: %w", target.ContractName, err)
	}
	return res, nil
}

// targets builds the fixed verification list. The smoothing pool sits behind a
// proxy, so its implementation is what gets verified when one is found.
func (v *VerifyContracts) targets(ctx context.Context, out *models.DeployOutput, opts VerifyContractsOptions) ([]models.VerificationTarget, error) {
	poolAddress := common.HexToAddress(out.DappnodeSmoothingPool)
	if err := v.chain.Connect(ctx, v.config.Network); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", v.config.Network.Name, err)
	}
	defer v.chain.Close()

	impl, err := v.chain.ImplementationOf(ctx, poolAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", poolAddress.Hex(), err)
	}
	if impl != (common.Address{}) {
		v.log.Debug("smoothing pool is a proxy", "proxy", poolAddress, "implementation", impl)
		poolAddress = impl
	}

	minDelay := opts.TimelockMinDelay
	if minDelay == nil {
		minDelay = big.NewInt(DefaultTimelockMinDelay)
	}
	admin := opts.TimelockAdmin
	if admin == (common.Address{}) {
		admin = common.HexToAddress(DefaultTimelockAdmin)
	}
	timelockArgs := bindings.NewTimelockController().PackConstructor(minDelay, []common.Address{admin}, []common.Address{admin}, admin)

	targets := []models.VerificationTarget{
		{ContractName: "DappnodeSmoothingPool", Address: poolAddress},
		{ContractName: "TimelockController", Address: common.HexToAddress(out.TimelockContract), ConstructorArgs: timelockArgs},
	}

	for i := range targets {
		artifact, err := v.artifacts.GetArtifact(ctx, targets[i].ContractName)
		if err != nil {
			if errors.Is(err, domain.ErrArtifactNotFound) {
				// forge resolves bare contract names itself
				continue
			}
			return nil, err
		}
		targets[i].ContractPath = artifact.FullyQualifiedName()
	}

	return targets, nil
}

// explorerAddressURL returns the explorer page of an address
func explorerAddressURL(network *config.Network, address common.Address) string {
	if network == nil || network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", network.ExplorerURL, address.Hex())
}
