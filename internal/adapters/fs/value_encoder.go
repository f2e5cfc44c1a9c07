package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// ValueEncoder turns a domain value into something encoding/json renders the
// way output consumers expect. ok is false when the value is left as is.
type ValueEncoder interface {
	EncodeValue(v any) (out any, ok bool)
}

// HexValueEncoder renders integers as decimal strings, byte values as 0x-hex
// and addresses checksummed
type HexValueEncoder struct{}

func (HexValueEncoder) EncodeValue(v any) (any, bool) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, true
		}
		return x.String(), true
	case common.Address:
		return x.Hex(), true
	case *common.Address:
		if x == nil {
			return nil, true
		}
		return x.Hex(), true
	case common.Hash:
		return x.Hex(), true
	case []byte:
		return hexutil.Encode(x), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return nil, false
		}
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return hexutil.Encode(b), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", rv.Uint()), true
	}
	return nil, false
}

// MarshalDocument renders doc as JSON with its keys in order and the given
// indent per level
func MarshalDocument(doc models.Document, enc ValueEncoder, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, enc, doc); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, enc ValueEncoder, v any) error {
	if out, ok := enc.EncodeValue(v); ok {
		v = out
	}

	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case models.Document:
		return encodeDocument(buf, enc, x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, enc, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", v, err)
	}
	buf.Write(data)
	return nil
}

func encodeDocument(buf *bytes.Buffer, enc ValueEncoder, doc models.Document) error {
	buf.WriteByte('{')
	for i, f := range doc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := encodeValue(buf, enc, f.Value); err != nil {
			return fmt.Errorf("%s: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
