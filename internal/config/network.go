package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
)

const chainIDTimeout = 10 * time.Second

// localRPCURL is used for local development nodes without an explicit endpoint
const localRPCURL = "http://127.0.0.1:8545"

// knownChainIDs avoids an RPC round trip for common networks
var knownChainIDs = map[string]uint64{
	"mainnet":   1,
	"goerli":    5,
	"sepolia":   11155111,
	"holesky":   17000,
	"hoodi":     560048,
	"gnosis":    100,
	"chiado":    10200,
	"localhost": 31337,
	"anvil":     31337,
	"hardhat":   31337,
}

// ChainIDFetcher returns the chain id served at an RPC URL
type ChainIDFetcher func(ctx context.Context, rpcURL string) (uint64, error)

// NetworkResolver resolves network names to configurations
type NetworkResolver struct {
	foundryConfig *config.FoundryConfig
	lookupEnv     func(string) (string, bool)
	fetchChainID  ChainIDFetcher
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundryConfig *config.FoundryConfig) *NetworkResolver {
	return &NetworkResolver{
		foundryConfig: foundryConfig,
		lookupEnv:     os.LookupEnv,
		fetchChainID:  fetchChainID,
	}
}

// WithChainIDFetcher replaces the RPC chain id lookup
func (r *NetworkResolver) WithChainIDFetcher(f ChainIDFetcher) *NetworkResolver {
	r.fetchChainID = f
	return r
}

// WithEnvLookup replaces the environment lookup
func (r *NetworkResolver) WithEnvLookup(f func(string) (string, bool)) *NetworkResolver {
	r.lookupEnv = f
	return r
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(ctx context.Context, networkName string) (*config.Network, error) {
	rpcURL, err := r.RPCURL(networkName)
	if err != nil {
		return nil, err
	}

	chainID, known := knownChainIDs[networkName]
	if !known {
		chainID, err = r.fetchChainID(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
		}
	}

	return &config.Network{
		Name:        networkName,
		RPCURL:      rpcURL,
		ChainID:     chainID,
		ExplorerURL: r.explorerURL(networkName, chainID),
	}, nil
}

// RPCURL finds the RPC endpoint of a network. Lookup order: foundry.toml
// [rpc_endpoints], <NAME>_RPC_URL, local node for local names, then Infura
// when INFURA_PROJECT_ID is set.
func (r *NetworkResolver) RPCURL(networkName string) (string, error) {
	if r.foundryConfig != nil {
		if url, ok := r.foundryConfig.RpcEndpoints[networkName]; ok && url != "" {
			return url, nil
		}
	}

	if url, ok := r.lookupEnv(GenerateEnvVarName(networkName)); ok && url != "" {
		return url, nil
	}

	if (&config.Network{Name: networkName}).IsLocal() {
		return localRPCURL, nil
	}

	if projectID, ok := r.lookupEnv("INFURA_PROJECT_ID"); ok && projectID != "" {
		return fmt.Sprintf("https://%s.infura.io/v3/%s", networkName, projectID), nil
	}

	return "", fmt.Errorf("no RPC URL for network '%s': add it to foundry.toml [rpc_endpoints], set %s or INFURA_PROJECT_ID",
		networkName, GenerateEnvVarName(networkName))
}

// explorerURL returns the explorer URL for a network
func (r *NetworkResolver) explorerURL(networkName string, chainID uint64) string {
	// Check if configured in foundry.toml
	if r.foundryConfig != nil {
		if etherscan, exists := r.foundryConfig.Etherscan[networkName]; exists && etherscan.URL != "" {
			return strings.TrimSuffix(etherscan.URL, "/api")
		}
	}

	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 5:
		return "https://goerli.etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 17000:
		return "https://holesky.etherscan.io"
	case 560048:
		return "https://hoodi.etherscan.io"
	case 100:
		return "https://gnosisscan.io"
	default:
		return ""
	}
}

// fetchChainID asks the node for its chain id
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID.Uint64(), nil
}
