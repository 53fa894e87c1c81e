package smartcontract

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/casperlabs/casper-go/pkg/io"
)

// ValueType is the type of an argument or stored value.
type ValueType byte

// Supported value types.
const (
	Int32Type      ValueType = 0x01
	Int64Type      ValueType = 0x02
	BigIntType     ValueType = 0x03
	StringType     ValueType = 0x04
	BytesType      ValueType = 0x05
	KeyValueType   ValueType = 0x06
	Int32ListType  ValueType = 0x07
	StringListType ValueType = 0x08
)

// Valid big integer widths.
const (
	BitWidth128 = 128
	BitWidth256 = 256
	BitWidth512 = 512
)

// maxListLen limits decoded list values.
const maxListLen = 0x10000

// String implements the Stringer interface.
func (t ValueType) String() string {
	switch t {
	case Int32Type:
		return "int_value"
	case Int64Type:
		return "long_value"
	case BigIntType:
		return "big_int"
	case StringType:
		return "string_value"
	case BytesType:
		return "bytes_value"
	case KeyValueType:
		return "key"
	case Int32ListType:
		return "int_list"
	case StringListType:
		return "string_list"
	}
	return fmt.Sprintf("ValueType(%d)", byte(t))
}

// Value is a typed value. The Go type of Value depends on Type: int32,
// int64, *big.Int, string, []byte, Key, []int32 or []string. BitWidth is
// only used for BigIntType.
type Value struct {
	Type     ValueType
	Value    any
	BitWidth int
}

// NewInt32Value creates an int32 value.
func NewInt32Value(i int32) Value { return Value{Type: Int32Type, Value: i} }

// NewInt64Value creates an int64 value.
func NewInt64Value(i int64) Value { return Value{Type: Int64Type, Value: i} }

// NewBigIntValue creates an unsigned big integer value of the given width.
func NewBigIntValue(i *big.Int, bitWidth int) Value {
	return Value{Type: BigIntType, Value: i, BitWidth: bitWidth}
}

// NewStringValue creates a string value.
func NewStringValue(s string) Value { return Value{Type: StringType, Value: s} }

// NewBytesValue creates a byte string value.
func NewBytesValue(b []byte) Value { return Value{Type: BytesType, Value: b} }

// NewKeyValue creates a global state key value.
func NewKeyValue(k Key) Value { return Value{Type: KeyValueType, Value: k} }

// NewInt32ListValue creates a list of int32 values.
func NewInt32ListValue(l []int32) Value { return Value{Type: Int32ListType, Value: l} }

// NewStringListValue creates a list of strings.
func NewStringListValue(l []string) Value { return Value{Type: StringListType, Value: l} }

// TryBigInt returns the value as a big integer, int32 and int64 values are
// converted.
func (v Value) TryBigInt() (*big.Int, error) {
	switch val := v.Value.(type) {
	case *big.Int:
		return new(big.Int).Set(val), nil
	case int64:
		return big.NewInt(val), nil
	case int32:
		return big.NewInt(int64(val)), nil
	}
	return nil, fmt.Errorf("%s is not an integer", v.Type)
}

// TryKey returns the value as a global state key.
func (v Value) TryKey() (Key, error) {
	k, ok := v.Value.(Key)
	if !ok {
		return Key{}, fmt.Errorf("%s is not a key", v.Type)
	}
	return k, nil
}

// Validate checks that the Go type of Value matches Type and that big
// integers fit into their width.
func (v Value) Validate() error {
	var ok bool
	switch v.Type {
	case Int32Type:
		_, ok = v.Value.(int32)
	case Int64Type:
		_, ok = v.Value.(int64)
	case BigIntType:
		var i *big.Int
		i, ok = v.Value.(*big.Int)
		if ok {
			return checkBigInt(i, v.BitWidth)
		}
	case StringType:
		_, ok = v.Value.(string)
	case BytesType:
		_, ok = v.Value.([]byte)
	case KeyValueType:
		_, ok = v.Value.(Key)
	case Int32ListType:
		_, ok = v.Value.([]int32)
	case StringListType:
		_, ok = v.Value.([]string)
	default:
		return fmt.Errorf("unknown value type %d", v.Type)
	}
	if !ok {
		return fmt.Errorf("invalid %s value of type %T", v.Type, v.Value)
	}
	return nil
}

func checkBigInt(i *big.Int, width int) error {
	switch width {
	case BitWidth128, BitWidth256, BitWidth512:
	default:
		return fmt.Errorf("invalid big integer width %d", width)
	}
	if i == nil {
		return errors.New("nil big integer")
	}
	if i.Sign() < 0 {
		return errors.New("negative big integer")
	}
	if i.BitLen() > width {
		return fmt.Errorf("big integer doesn't fit into %d bits", width)
	}
	return nil
}

// EncodeBinary implements the io.Serializable interface. Invalid values
// set w.Err.
func (v *Value) EncodeBinary(w *io.BinWriter) {
	if w.Err != nil {
		return
	}
	if err := v.Validate(); err != nil {
		w.Err = err
		return
	}
	w.WriteB(byte(v.Type))
	switch val := v.Value.(type) {
	case int32:
		w.WriteU32LE(uint32(val))
	case int64:
		w.WriteU64LE(uint64(val))
	case *big.Int:
		w.WriteU32LE(uint32(v.BitWidth))
		w.WriteVarBytes(val.Bytes())
	case string:
		w.WriteString(val)
	case []byte:
		w.WriteVarBytes(val)
	case Key:
		val.EncodeBinary(w)
	case []int32:
		w.WriteVarUint(uint64(len(val)))
		for _, i := range val {
			w.WriteU32LE(uint32(i))
		}
	case []string:
		w.WriteVarUint(uint64(len(val)))
		for _, s := range val {
			w.WriteString(s)
		}
	}
}

// DecodeBinary implements the io.Serializable interface.
func (v *Value) DecodeBinary(r *io.BinReader) {
	v.Type = ValueType(r.ReadB())
	v.BitWidth = 0
	if r.Err != nil {
		return
	}
	switch v.Type {
	case Int32Type:
		v.Value = int32(r.ReadU32LE())
	case Int64Type:
		v.Value = int64(r.ReadU64LE())
	case BigIntType:
		v.BitWidth = int(r.ReadU32LE())
		b := r.ReadVarBytes(BitWidth512 / 8)
		if r.Err != nil {
			return
		}
		i := new(big.Int).SetBytes(b)
		if err := checkBigInt(i, v.BitWidth); err != nil {
			r.Err = err
			return
		}
		v.Value = i
	case StringType:
		v.Value = r.ReadString()
	case BytesType:
		v.Value = r.ReadVarBytes()
	case KeyValueType:
		var k Key
		k.DecodeBinary(r)
		v.Value = k
	case Int32ListType:
		v.Value = io.ReadArray(r, func(r *io.BinReader) int32 {
			return int32(r.ReadU32LE())
		}, maxListLen)
	case StringListType:
		v.Value = io.ReadArray(r, func(r *io.BinReader) string {
			return r.ReadString()
		}, maxListLen)
	default:
		r.Err = fmt.Errorf("unknown value type %d", v.Type)
	}
}

type (
	bigIntAux struct {
		Value    string `json:"value"`
		BitWidth int    `json:"bit_width"`
	}
	int32ListAux struct {
		Values []int32 `json:"values"`
	}
	stringListAux struct {
		Values []string `json:"values"`
	}
	valueAux struct {
		Int32      *int32         `json:"int_value,omitempty"`
		Int64      *int64         `json:"long_value,omitempty"`
		BigInt     *bigIntAux     `json:"big_int,omitempty"`
		String     *string        `json:"string_value,omitempty"`
		Bytes      *string        `json:"bytes_value,omitempty"`
		Key        *Key           `json:"key,omitempty"`
		Int32List  *int32ListAux  `json:"int_list,omitempty"`
		StringList *stringListAux `json:"string_list,omitempty"`
	}
)

// MarshalJSON implements the json.Marshaler interface. The format is an
// object with a single field named after the value type, big integers are
// encoded as decimal strings with their bit width, byte strings as base16.
func (v Value) MarshalJSON() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	var aux valueAux
	switch val := v.Value.(type) {
	case int32:
		aux.Int32 = &val
	case int64:
		aux.Int64 = &val
	case *big.Int:
		aux.BigInt = &bigIntAux{Value: val.String(), BitWidth: v.BitWidth}
	case string:
		aux.String = &val
	case []byte:
		s := hex.EncodeToString(val)
		aux.Bytes = &s
	case Key:
		aux.Key = &val
	case []int32:
		aux.Int32List = &int32ListAux{Values: val}
	case []string:
		aux.StringList = &stringListAux{Values: val}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (v *Value) UnmarshalJSON(data []byte) error {
	var (
		aux valueAux
		n   int
	)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Int32 != nil {
		*v = NewInt32Value(*aux.Int32)
		n++
	}
	if aux.Int64 != nil {
		*v = NewInt64Value(*aux.Int64)
		n++
	}
	if aux.BigInt != nil {
		i, ok := new(big.Int).SetString(aux.BigInt.Value, 10)
		if !ok {
			return fmt.Errorf("invalid big integer %q", aux.BigInt.Value)
		}
		if err := checkBigInt(i, aux.BigInt.BitWidth); err != nil {
			return err
		}
		*v = NewBigIntValue(i, aux.BigInt.BitWidth)
		n++
	}
	if aux.String != nil {
		*v = NewStringValue(*aux.String)
		n++
	}
	if aux.Bytes != nil {
		b, err := hex.DecodeString(*aux.Bytes)
		if err != nil {
			return fmt.Errorf("invalid bytes value: %w", err)
		}
		*v = NewBytesValue(b)
		n++
	}
	if aux.Key != nil {
		*v = NewKeyValue(*aux.Key)
		n++
	}
	if aux.Int32List != nil {
		*v = NewInt32ListValue(aux.Int32List.Values)
		n++
	}
	if aux.StringList != nil {
		*v = NewStringListValue(aux.StringList.Values)
		n++
	}
	if n != 1 {
		return errors.New("value must have exactly one type set")
	}
	return nil
}
