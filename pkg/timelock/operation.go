// Package timelock builds TimelockController operations and the calldata that
// schedules and executes them.
package timelock

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/bindings"
)

// IDEncoding selects how the operation id is derived from its fields.
type IDEncoding string

const (
	// EncodingPacked hashes the tightly packed fields.
	EncodingPacked IDEncoding = "packed"
	// EncodingABI hashes the standard ABI encoding, matching
	// TimelockController.hashOperation.
	EncodingABI IDEncoding = "abi"
)

// ParseIDEncoding parses an encoding name. An empty name selects EncodingPacked.
func ParseIDEncoding(s string) (IDEncoding, error) {
	switch IDEncoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingPacked:
		return EncodingPacked, nil
	case EncodingABI:
		return EncodingABI, nil
	default:
		return "", fmt.Errorf("unknown operation id encoding %q (expected packed or abi)", s)
	}
}

// Operation is a single timelock call and its id.
type Operation struct {
	ID          common.Hash
	Target      common.Address
	Value       *big.Int
	Data        []byte
	Predecessor common.Hash
	Salt        common.Hash
}

var operationArgs abi.Arguments

func init() {
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	bytesType, _ := abi.NewType("bytes", "", nil)
	bytes32Type, _ := abi.NewType("bytes32", "", nil)

	operationArgs = abi.Arguments{
		{Name: "target", Type: addressType},
		{Name: "value", Type: uint256Type},
		{Name: "data", Type: bytesType},
		{Name: "predecessor", Type: bytes32Type},
		{Name: "salt", Type: bytes32Type},
	}
}

// HashOperation returns keccak256(target ‖ value ‖ data ‖ predecessor ‖ salt)
// over the tightly packed fields. A nil value is treated as zero.
func HashOperation(target common.Address, value *big.Int, data []byte, predecessor, salt common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		target.Bytes(),
		math.U256Bytes(valueOrZero(value)),
		data,
		predecessor.Bytes(),
		salt.Bytes(),
	)
}

// HashOperationEncoded returns the keccak256 of abi.encode(target, value,
// data, predecessor, salt).
func HashOperationEncoded(target common.Address, value *big.Int, data []byte, predecessor, salt common.Hash) (common.Hash, error) {
	enc, err := operationArgs.Pack(target, valueOrZero(value), data, [32]byte(predecessor), [32]byte(salt))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode operation: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// NewOperation builds an operation and derives its id with the given encoding.
func NewOperation(target common.Address, value *big.Int, data []byte, predecessor, salt common.Hash, encoding IDEncoding) (*Operation, error) {
	op := &Operation{
		Target:      target,
		Value:       valueOrZero(value),
		Data:        common.CopyBytes(data),
		Predecessor: predecessor,
		Salt:        salt,
	}

	switch encoding {
	case "", EncodingPacked:
		op.ID = HashOperation(op.Target, op.Value, op.Data, op.Predecessor, op.Salt)
	case EncodingABI:
		id, err := HashOperationEncoded(op.Target, op.Value, op.Data, op.Predecessor, op.Salt)
		if err != nil {
			return nil, err
		}
		op.ID = id
	default:
		return nil, fmt.Errorf("unknown operation id encoding %q", encoding)
	}

	return op, nil
}

// ParseHash parses a 0x-prefixed bytes32 value. An empty string yields the
// zero hash.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Hash{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: expected %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

var timelockController = bindings.NewTimelockController()

// EncodeSchedule returns the calldata of
// schedule(target, value, data, predecessor, salt, delay).
func EncodeSchedule(op *Operation, delay *big.Int) ([]byte, error) {
	if op == nil {
		return nil, fmt.Errorf("nil operation")
	}
	data, err := timelockController.TryPackSchedule(op.Target, valueOrZero(op.Value), op.Data, op.Predecessor, op.Salt, valueOrZero(delay))
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}
	return data, nil
}

// EncodeExecute returns the calldata of
// execute(target, value, data, predecessor, salt).
func EncodeExecute(op *Operation) ([]byte, error) {
	if op == nil {
		return nil, fmt.Errorf("nil operation")
	}
	data, err := timelockController.TryPackExecute(op.Target, valueOrZero(op.Value), op.Data, op.Predecessor, op.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execute: %w", err)
	}
	return data, nil
}
