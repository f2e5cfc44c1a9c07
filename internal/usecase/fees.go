package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// resolveFees returns the fee caps for a deployment. Overrides are ignored on
// local development networks.
func resolveFees(ctx context.Context, chain ChainClient, network *config.Network, override models.FeeOverride) (*models.FeeData, error) {
	if network != nil && network.IsLocal() {
		override.Mode = models.FeeOverrideNone
	}

	if override.Mode == models.FeeOverrideFixed {
		if override.MaxFeePerGas == nil || override.MaxPriorityFeePerGas == nil {
			return nil, fmt.Errorf("fixed fee override needs maxFeePerGas and maxPriorityFeePerGas")
		}
		return &models.FeeData{
			MaxFeePerGas:         new(big.Int).Set(override.MaxFeePerGas),
			MaxPriorityFeePerGas: new(big.Int).Set(override.MaxPriorityFeePerGas),
		}, nil
	}

	suggested, err := chain.SuggestFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fee data: %w", err)
	}

	if override.Mode != models.FeeOverrideMultiplier {
		return suggested, nil
	}
	return &models.FeeData{
		MaxFeePerGas:         perMille(suggested.MaxFeePerGas, override.MultiplierPerMille),
		MaxPriorityFeePerGas: perMille(suggested.MaxPriorityFeePerGas, override.MultiplierPerMille),
	}, nil
}

// perMille returns v * m / 1000, truncated
func perMille(v *big.Int, m int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(m))
	return out.Quo(out, big.NewInt(1000))
}
