//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/dappnode/smoothing-pool-ops/internal/adapters"
	"github.com/dappnode/smoothing-pool-ops/internal/config"
	"github.com/dappnode/smoothing-pool-ops/internal/logging"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewVerifyContracts,
		usecase.NewUpgradeProxies,
		usecase.NewUpdateDelay,
		usecase.NewInspectOperation,

		// App
		NewApp,
	)
	return nil, nil
}
