package models

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Signer is the account that deploys new implementations
type Signer struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
	Source  string // "deployerPvtKey" or "MNEMONIC"
}

// FeeData holds EIP-1559 fee caps in wei
type FeeData struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// FeeOverrideMode selects how fee caps are produced
type FeeOverrideMode string

const (
	FeeOverrideNone       FeeOverrideMode = ""
	FeeOverrideFixed      FeeOverrideMode = "fixed"
	FeeOverrideMultiplier FeeOverrideMode = "multiplier"
)

// FeeOverride is the fee strategy requested by the parameters record
type FeeOverride struct {
	Mode                 FeeOverrideMode
	MaxFeePerGas         *big.Int // wei, fixed mode
	MaxPriorityFeePerGas *big.Int // wei, fixed mode
	MultiplierPerMille   int64    // multiplier mode
}

// Artifact is a compiled contract
type Artifact struct {
	Name       string
	SourcePath string // e.g. "src/DappnodeSmoothingPool.sol"
	ABI        *abi.ABI
	Bytecode   []byte
}

// FullyQualifiedName returns "path:Name" as forge expects it
func (a *Artifact) FullyQualifiedName() string {
	if a.SourcePath == "" {
		return a.Name
	}
	return a.SourcePath + ":" + a.Name
}
