package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Explorer settings
	EtherscanAPIKey string
	EtherscanURL    string // overrides the Etherscan v2 endpoint when set

	// Resolved configurations
	FoundryConfig *FoundryConfig
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// IsLocal reports whether the network is a local development node
func (n *Network) IsLocal() bool {
	if n == nil {
		return false
	}
	switch n.Name {
	case "localhost", "anvil", "hardhat":
		return true
	}
	return n.ChainID == 31337
}
