package smartcontract

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/casperlabs/casper-go/pkg/util"
)

// maxArgs is the maximum number of arguments accepted from the binary
// representation.
const maxArgs = 1024

// Arg is a named argument passed to session or payment code.
type Arg struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Args is an ordered argument list, the order is a part of the canonical
// encoding.
type Args []Arg

// NewInt32Arg creates a named int32 argument.
func NewInt32Arg(name string, i int32) Arg {
	return Arg{Name: name, Value: NewInt32Value(i)}
}

// NewInt64Arg creates a named int64 argument.
func NewInt64Arg(name string, i int64) Arg {
	return Arg{Name: name, Value: NewInt64Value(i)}
}

// NewBigIntArg creates a named big integer argument.
func NewBigIntArg(name string, i *big.Int, bitWidth int) Arg {
	return Arg{Name: name, Value: NewBigIntValue(i, bitWidth)}
}

// NewStringArg creates a named string argument.
func NewStringArg(name string, s string) Arg {
	return Arg{Name: name, Value: NewStringValue(s)}
}

// NewBytesArg creates a named byte string argument.
func NewBytesArg(name string, b []byte) Arg {
	return Arg{Name: name, Value: NewBytesValue(b)}
}

// NewAccountArg creates a named account key argument.
func NewAccountArg(name string, account util.Uint256) Arg {
	return Arg{Name: name, Value: NewKeyValue(NewAccountKey(account))}
}

// NewKeyArg creates a named key argument.
func NewKeyArg(name string, k Key) Arg {
	return Arg{Name: name, Value: NewKeyValue(k)}
}

// EncodeBinary implements the io.Serializable interface.
func (a *Arg) EncodeBinary(w *io.BinWriter) {
	w.WriteString(a.Name)
	a.Value.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (a *Arg) DecodeBinary(r *io.BinReader) {
	a.Name = r.ReadString()
	a.Value.DecodeBinary(r)
}

// EncodeBinary implements the io.Serializable interface.
func (args Args) EncodeBinary(w *io.BinWriter) {
	io.WriteArray(w, args)
}

// DecodeBinary implements the io.Serializable interface.
func (args *Args) DecodeBinary(r *io.BinReader) {
	res := io.ReadArray(r, func(r *io.BinReader) Arg {
		var a Arg
		a.DecodeBinary(r)
		return a
	}, maxArgs)
	if r.Err != nil {
		return
	}
	*args = res
}

// Bytes returns the canonical binary representation of the argument list.
func (args Args) Bytes() ([]byte, error) {
	return io.GetBytes(args)
}

// Get returns an argument by name.
func (args Args) Get(name string) (Arg, bool) {
	for _, a := range args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// ParseArgsJSON parses argument list in its JSON form, e.g.
// [{"name":"amount","value":{"long_value":10}}].
func ParseArgsJSON(data []byte) (Args, error) {
	var args Args
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	for i := range args {
		if args[i].Name == "" {
			return nil, fmt.Errorf("argument #%d has no name", i)
		}
	}
	return args, nil
}
