package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// DeployOutput is the record written by the smoothing-pool deployment
type DeployOutput struct {
	DappnodeSmoothingPool string `json:"dappnodeSmoothingPool" yaml:"dappnodeSmoothingPool" validate:"required,eth_addr"`
	TimelockContract      string `json:"timelockContract" yaml:"timelockContract" validate:"required,eth_addr"`
}

// VerificationStatus represents the outcome of a verification request
type VerificationStatus string

const (
	VerificationStatusVerified        VerificationStatus = "VERIFIED"
	VerificationStatusAlreadyVerified VerificationStatus = "ALREADY_VERIFIED"
	VerificationStatusFailed          VerificationStatus = "FAILED"
)

// VerificationTarget is one contract submitted to the explorer
type VerificationTarget struct {
	ContractName    string         // e.g. "DappnodeSmoothingPool"
	ContractPath    string         // optional "src/File.sol:Name", resolved from artifacts when empty
	Address         common.Address
	ConstructorArgs []byte // ABI-encoded, without selector
}

// VerificationResult is the outcome for one target
type VerificationResult struct {
	Target VerificationTarget
	Status VerificationStatus
	URL    string
	Reason string
}
