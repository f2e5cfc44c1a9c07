package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	// Get project root from viper
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			// Offline commands work outside a Foundry project
			projectRoot, _ = os.Getwd()
		}
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	// .env files must be loaded before any env-backed key is read
	loadDotEnv(absRoot)

	foundryConfig, err := loadFoundryConfig(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:     absRoot,
		DataDir:         filepath.Join(absRoot, ".spops"),
		Debug:           v.GetBool("debug"),
		NonInteractive:  NonInteractive(v),
		Timeout:         v.GetDuration("timeout"),
		EtherscanAPIKey: v.GetString("etherscan_api_key"),
		EtherscanURL:    v.GetString("etherscan_url"),
		FoundryConfig:   foundryConfig,
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), chainIDTimeout)
		defer cancel()

		network, err := NewNetworkResolver(foundryConfig).Resolve(ctx, networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network

		// foundry.toml [etherscan] entries fill in what the environment left out
		if es, ok := foundryConfig.Etherscan[networkName]; ok {
			if cfg.EtherscanAPIKey == "" {
				cfg.EtherscanAPIKey = es.Key
			}
			if cfg.EtherscanURL == "" {
				cfg.EtherscanURL = es.URL
			}
		}
	}

	return cfg, nil
}

// NonInteractive reports whether prompts and spinners are off, either from
// the flag or SPOPS_NON_INTERACTIVE, or because CI or NO_COLOR is set
func NonInteractive(v *viper.Viper) bool {
	return v.GetBool("non_interactive") ||
		os.Getenv("CI") == "true" ||
		os.Getenv("NO_COLOR") != ""
}

// FindProjectRoot walks up from current directory to find foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		foundryToml := filepath.Join(dir, "foundry.toml")
		if _, err := os.Stat(foundryToml); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding foundry.toml
			return "", fmt.Errorf("not in a Foundry project (foundry.toml not found)")
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".spops"))

	// Set up environment variables
	v.SetEnvPrefix("SPOPS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// The explorer key keeps its conventional unprefixed name
	_ = v.BindEnv("etherscan_api_key", "SPOPS_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY")
	_ = v.BindEnv("etherscan_url", "SPOPS_ETHERSCAN_URL", "ETHERSCAN_API_URL")

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	return v
}
