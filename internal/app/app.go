package app

import (
	"log/slog"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	VerifyContracts  *usecase.VerifyContracts
	UpgradeProxies   *usecase.UpgradeProxies
	UpdateDelay      *usecase.UpdateDelay
	InspectOperation *usecase.InspectOperation
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	verifyContracts *usecase.VerifyContracts,
	upgradeProxies *usecase.UpgradeProxies,
	updateDelay *usecase.UpdateDelay,
	inspectOperation *usecase.InspectOperation,
) (*App, error) {
	return &App{
		Config:           cfg,
		Log:              log,
		VerifyContracts:  verifyContracts,
		UpgradeProxies:   upgradeProxies,
		UpdateDelay:      updateDelay,
		InspectOperation: inspectOperation,
	}, nil
}
