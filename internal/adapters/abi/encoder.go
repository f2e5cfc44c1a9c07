package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cast"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// Encoder packs loosely typed values, as read from JSON or YAML parameter
// files, into ABI calldata
type Encoder struct{}

// NewEncoder creates a new encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeConstructor encodes constructor arguments without selector
func (e *Encoder) EncodeConstructor(contract *abi.ABI, args []any) ([]byte, error) {
	if contract == nil {
		return nil, fmt.Errorf("no ABI to encode constructor arguments with")
	}
	converted, err := ConvertArgs(contract.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("constructor: %w", err)
	}
	return contract.Pack("", converted...)
}

// EncodeCall encodes a call to method, selector included
func (e *Encoder) EncodeCall(contract *abi.ABI, method string, args []any) ([]byte, error) {
	if contract == nil {
		return nil, fmt.Errorf("no ABI to encode %s with", method)
	}
	m, ok := contract.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %s not found in ABI", method)
	}
	converted, err := ConvertArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Sig, err)
	}
	return contract.Pack(method, converted...)
}

// ConvertArgs converts each value to the Go type go-ethereum packs for the
// matching input
func ConvertArgs(inputs abi.Arguments, args []any) ([]any, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(args))
	}
	out := make([]any, len(args))
	for i, input := range inputs {
		v, err := ConvertValue(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type, err)
		}
		out[i] = v
	}
	return out, nil
}

// ConvertValue converts v to the Go representation of t
func ConvertValue(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	case abi.BoolTy:
		return cast.ToBoolE(v)
	case abi.StringTy:
		return cast.ToStringE(v)
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	case abi.TupleTy:
		return toTuple(t, v)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

func toAddress(v any) (common.Address, error) {
	if addr, ok := v.(common.Address); ok {
		return addr, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, t)
	}
	bits := t.Size
	magnitude := n
	if t.T == abi.IntTy {
		bits--
		// two's complement reaches one further below zero than above
		if n.Sign() < 0 {
			magnitude = new(big.Int).Sub(new(big.Int).Neg(n), big.NewInt(1))
		}
	}
	if magnitude.BitLen() > bits {
		return nil, fmt.Errorf("value %s overflows %s", n, t)
	}

	goType := t.GetType()
	if goType == bigIntType {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case float64:
		f := big.NewFloat(n)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", n)
		}
		i, _ := f.Int(nil)
		return i, nil
	case json.Number:
		return parseBigInt(n.String())
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	return parseBigInt(s)
}

func parseBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case common.Hash:
		return b.Bytes(), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

func toList(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list for %s, got %T", t, v)
	}
	n := rv.Len()
	if t.T == abi.ArrayTy && n != t.Size {
		return nil, fmt.Errorf("expected %d elements for %s, got %d", t.Size, t, n)
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), n, n)
	}
	for i := 0; i < n; i++ {
		elem, err := ConvertValue(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

// toTuple accepts either a list in declaration order or an object keyed by
// component name
func toTuple(t abi.Type, v any) (any, error) {
	out := reflect.New(t.GetType()).Elem()

	var get func(i int) (any, bool)
	switch fields := v.(type) {
	case map[string]any:
		get = func(i int) (any, bool) {
			f, ok := fields[t.TupleRawNames[i]]
			return f, ok
		}
	case []any:
		if len(fields) != len(t.TupleElems) {
			return nil, fmt.Errorf("expected %d tuple components, got %d", len(t.TupleElems), len(fields))
		}
		get = func(i int) (any, bool) { return fields[i], true }
	default:
		return nil, fmt.Errorf("expected an object or list for %s, got %T", t, v)
	}

	for i, elem := range t.TupleElems {
		raw, ok := get(i)
		if !ok {
			return nil, fmt.Errorf("missing tuple component %s", t.TupleRawNames[i])
		}
		conv, err := ConvertValue(*elem, raw)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", t.TupleRawNames[i], err)
		}
		out.Field(i).Set(reflect.ValueOf(conv))
	}
	return out.Interface(), nil
}
