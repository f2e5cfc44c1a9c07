package abi

import (
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// nestedCallParams are the bytes arguments that carry calldata for the next
// interface. OpenZeppelin names it data in schedule and payload in execute.
var nestedCallParams = map[string]bool{
	"data":    true,
	"payload": true,
}

// CallDecoder decodes calldata into ordered, named arguments
type CallDecoder struct {
	log *slog.Logger
}

// NewCallDecoder creates a new call decoder
func NewCallDecoder(log *slog.Logger) *CallDecoder {
	return &CallDecoder{log: log.With("component", "CallDecoder")}
}

// Decode decodes data against interfaces[0]. A nested calldata argument is
// decoded against interfaces[1], and so on down the chain. An unknown
// selector or malformed arguments fail the whole decode.
func (d *CallDecoder) Decode(data []byte, interfaces ...*abi.ABI) (*models.DecodedCall, error) {
	if len(interfaces) == 0 || interfaces[0] == nil {
		return nil, fmt.Errorf("no interface to decode %s with", shortHex(data))
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}

	method, err := interfaces[0].MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown selector %s: %w", hexutil.Encode(data[:4]), err)
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Sig, err)
	}

	decoded := &models.DecodedCall{
		Method:    method.RawName,
		Signature: method.Sig,
		Params:    make([]models.DecodedParam, 0, len(method.Inputs)),
	}
	copy(decoded.Selector[:], method.ID)

	for i, input := range method.Inputs {
		param := models.DecodedParam{
			Name:  input.Name,
			Type:  input.Type.String(),
			Value: values[i],
		}
		if param.Name == "" {
			param.Name = fmt.Sprintf("arg%d", i)
		}

		if nested, ok := values[i].([]byte); ok && nestedCallParams[input.Name] && len(interfaces) > 1 {
			if len(nested) == 0 {
				d.log.Debug("empty nested calldata left undecoded", "method", method.Sig, "param", input.Name)
			} else {
				param.Decoded, err = d.Decode(nested, interfaces[1:]...)
				if err != nil {
					return nil, fmt.Errorf("failed to decode %s.%s: %w", method.RawName, input.Name, err)
				}
			}
		}

		decoded.Params = append(decoded.Params, param)
	}

	return decoded, nil
}

func shortHex(data []byte) string {
	if len(data) <= 4 {
		return hexutil.Encode(data)
	}
	return hexutil.Encode(data[:4]) + "..."
}
