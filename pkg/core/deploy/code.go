package deploy

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/casperlabs/casper-go/pkg/smartcontract"
)

// CodeType is the way deploy code is referenced.
type CodeType byte

// Code reference variants.
const (
	WasmCode CodeType = iota
	StoredContractName
	StoredContractHash
	StoredContractURef
)

// maxWasmSize is the maximum accepted size of a wasm module.
const maxWasmSize = 16 * 1024 * 1024

// Code is a session or payment part of the deploy: a piece of code to run
// and the arguments passed to it. Ref holds wasm bytes, a contract name,
// a contract hash or a contract URef depending on the Type.
type Code struct {
	Type CodeType
	Ref  []byte
	Args smartcontract.Args
}

// Name returns the contract name of a StoredContractName code.
func (c *Code) Name() string {
	if c.Type != StoredContractName {
		return ""
	}
	return string(c.Ref)
}

// EncodeBinary implements the io.Serializable interface.
func (c *Code) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(c.Type))
	w.WriteVarBytes(c.Ref)
	c.Args.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (c *Code) DecodeBinary(r *io.BinReader) {
	c.Type = CodeType(r.ReadB())
	if r.Err == nil && c.Type > StoredContractURef {
		r.Err = fmt.Errorf("unknown code type %d", c.Type)
		return
	}
	c.Ref = r.ReadVarBytes(maxWasmSize)
	c.Args.DecodeBinary(r)
}

type codeAux struct {
	Wasm               *string            `json:"wasm,omitempty"`
	StoredContractName *string            `json:"stored_contract_name,omitempty"`
	StoredContractHash *string            `json:"stored_contract_hash,omitempty"`
	StoredContractURef *string            `json:"stored_contract_uref,omitempty"`
	Args               smartcontract.Args `json:"args"`
}

// MarshalJSON implements the json.Marshaler interface.
func (c Code) MarshalJSON() ([]byte, error) {
	aux := codeAux{Args: c.Args}
	if aux.Args == nil {
		aux.Args = smartcontract.Args{}
	}
	h := hex.EncodeToString(c.Ref)
	switch c.Type {
	case WasmCode:
		aux.Wasm = &h
	case StoredContractName:
		name := string(c.Ref)
		aux.StoredContractName = &name
	case StoredContractHash:
		aux.StoredContractHash = &h
	case StoredContractURef:
		aux.StoredContractURef = &h
	default:
		return nil, fmt.Errorf("unknown code type %d", c.Type)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Code) UnmarshalJSON(data []byte) error {
	var (
		aux codeAux
		n   int
		h   *string
	)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Wasm != nil {
		c.Type, h = WasmCode, aux.Wasm
		n++
	}
	if aux.StoredContractName != nil {
		c.Type = StoredContractName
		c.Ref = []byte(*aux.StoredContractName)
		n++
	}
	if aux.StoredContractHash != nil {
		c.Type, h = StoredContractHash, aux.StoredContractHash
		n++
	}
	if aux.StoredContractURef != nil {
		c.Type, h = StoredContractURef, aux.StoredContractURef
		n++
	}
	if n != 1 {
		return errors.New("code must have exactly one variant set")
	}
	if h != nil {
		b, err := hex.DecodeString(*h)
		if err != nil {
			return fmt.Errorf("invalid code reference: %w", err)
		}
		c.Ref = b
	}
	c.Args = aux.Args
	return nil
}
