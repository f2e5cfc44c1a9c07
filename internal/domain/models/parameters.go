package models

// UpgradeParameters is the upgrade-parameters record consumed by the upgrade
// and update-delay commands
type UpgradeParameters struct {
	Upgrades []UpgradeEntry `json:"upgrades" yaml:"upgrades" validate:"omitempty,dive"`

	// RawTimelockMinDelay is seconds, given as a number or a numeric string
	RawTimelockMinDelay any    `json:"timelockMinDelay,omitempty" yaml:"timelockMinDelay,omitempty"`
	TimelockSalt        string `json:"timelockSalt,omitempty" yaml:"timelockSalt,omitempty" validate:"omitempty,len=66,hexadecimal"`
	TimelockPredecessor string `json:"timelockPredecessor,omitempty" yaml:"timelockPredecessor,omitempty" validate:"omitempty,len=66,hexadecimal"`
	TimelockIDEncoding  string `json:"timelockIdEncoding,omitempty" yaml:"timelockIdEncoding,omitempty" validate:"omitempty,oneof=packed abi"`

	DeployerPvtKey string `json:"deployerPvtKey,omitempty" yaml:"deployerPvtKey,omitempty" validate:"omitempty,hexadecimal"` //nolint:gosec // key material is read from a local file

	// MultiplierGas is per-mille and may be given as a number or a string
	MultiplierGas        any    `json:"multiplierGas,omitempty" yaml:"multiplierGas,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty" yaml:"maxFeePerGas,omitempty" validate:"omitempty,numeric"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty" yaml:"maxPriorityFeePerGas,omitempty" validate:"omitempty,numeric"`

	ProxyAdmin      string `json:"proxyAdmin,omitempty" yaml:"proxyAdmin,omitempty" validate:"omitempty,eth_addr"`
	TimelockAddress string `json:"timelockAddress,omitempty" yaml:"timelockAddress,omitempty" validate:"omitempty,eth_addr"`

	// TimelockMinDelay and Fees are normalized by the loader
	TimelockMinDelay uint64      `json:"-" yaml:"-"`
	Fees             FeeOverride `json:"-" yaml:"-"`
}

// UpgradeEntry describes one proxy to upgrade
type UpgradeEntry struct {
	ContractName     string            `json:"contractName" yaml:"contractName" validate:"required"`
	Address          string            `json:"address" yaml:"address" validate:"required,eth_addr"`
	ConstructorArgs  []any             `json:"constructorArgs,omitempty" yaml:"constructorArgs,omitempty"`
	CallAfterUpgrade *CallAfterUpgrade `json:"callAfterUpgrade,omitempty" yaml:"callAfterUpgrade,omitempty"`
	Implementation   string            `json:"implementation,omitempty" yaml:"implementation,omitempty" validate:"omitempty,eth_addr"`
}

// CallAfterUpgrade is a function invoked on the proxy together with the upgrade
type CallAfterUpgrade struct {
	FunctionName string `json:"functionName" yaml:"functionName" validate:"required"`
	Arguments    []any  `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// HasFeeOverride reports whether the record asks to override fee estimation
func (p *UpgradeParameters) HasFeeOverride() bool {
	return p.MultiplierGas != nil || p.MaxFeePerGas != ""
}
