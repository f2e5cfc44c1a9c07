package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters/etherscan"
	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// StatusChecker reports whether an explorer already holds a contract's source
type StatusChecker interface {
	IsVerified(ctx context.Context, chainID uint64, address common.Address) (bool, error)
}

// VerifierAdapter asks the explorer first and only submits unverified contracts
type VerifierAdapter struct {
	status StatusChecker
	forge  usecase.ContractVerifier
	log    *slog.Logger
}

// NewVerifierAdapter creates a new adapter over the Etherscan API and forge
func NewVerifierAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *VerifierAdapter {
	client := etherscan.NewClient(cfg.EtherscanAPIKey, cfg.EtherscanURL, nil).SetDebug(cfg.Debug)
	return NewVerifierAdapterWith(client, NewForgeVerifier(cfg, log), log)
}

// NewVerifierAdapterWith creates a verifier from its parts
func NewVerifierAdapterWith(status StatusChecker, forge usecase.ContractVerifier, log *slog.Logger) *VerifierAdapter {
	return &VerifierAdapter{
		status: status,
		forge:  forge,
		log:    log.With("component", "Verifier"),
	}
}

// Verify performs contract verification
func (v *VerifierAdapter) Verify(ctx context.Context, target models.VerificationTarget, network *config.Network) error {
	verified, err := v.status.IsVerified(ctx, network.ChainID, target.Address)
	switch {
	case err != nil:
		// forge reports the real problem if the explorer is unreachable
		v.log.Debug("explorer status check failed", "address", target.Address, "error", err)
	case verified:
		return fmt.Errorf("%s: %w", target.ContractName, domain.ErrAlreadyVerified)
	}

	return v.forge.Verify(ctx, target, network)
}

// Ensure the adapter implements the interface
var _ usecase.ContractVerifier = (*VerifierAdapter)(nil)
