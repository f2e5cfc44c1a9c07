package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TimelockPayload is an operation ready to be proposed to the timelock
type TimelockPayload struct {
	OperationID  common.Hash
	Target       common.Address
	Data         []byte
	Predecessor  common.Hash
	Salt         common.Hash
	Delay        *big.Int
	ScheduleData []byte
	ExecuteData  []byte
	Timelock     common.Address
	Decoded      *DecodedCall
}

// UpgradeOutput is the record written for one upgraded proxy, or for a delay
// update when ContractName is empty
type UpgradeOutput struct {
	ContractName    string
	ContractPath    string // fully qualified artifact name
	Proxy           common.Address
	Implementation  common.Address
	ConstructorArgs []byte
	Deployed        bool // implementation was deployed by this run
	DeployTx        common.Hash
	Payload         *TimelockPayload
	Path            string // where the record was written
}

// Document renders the record with its keys in the published order.
// The timelockContractAdress spelling is kept for existing consumers.
func (o *UpgradeOutput) Document() Document {
	var doc Document
	if o.ContractName != "" {
		doc = append(doc,
			Field{Key: "contractName", Value: o.ContractName},
			Field{Key: "implementation", Value: o.Implementation},
		)
	}
	doc = append(doc,
		Field{Key: "operationId", Value: o.Payload.OperationID},
		Field{Key: "scheduleData", Value: o.Payload.ScheduleData},
		Field{Key: "executeData", Value: o.Payload.ExecuteData},
		Field{Key: "timelockContractAdress", Value: o.Payload.Timelock},
		Field{Key: "decodedScheduleData", Value: o.Payload.Decoded.Document(false)},
	)
	return doc
}
