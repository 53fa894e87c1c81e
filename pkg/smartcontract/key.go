package smartcontract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/casperlabs/casper-go/pkg/util"
)

// KeyType is the variant of a global state key.
type KeyType byte

// Global state key variants.
const (
	AccountKey KeyType = 0x00
	HashKey    KeyType = 0x01
	URefKey    KeyType = 0x02
	LocalKey   KeyType = 0x03
)

// String implements the Stringer interface.
func (t KeyType) String() string {
	switch t {
	case AccountKey:
		return "address"
	case HashKey:
		return "hash"
	case URefKey:
		return "uref"
	case LocalKey:
		return "local"
	}
	return fmt.Sprintf("KeyType(%d)", byte(t))
}

// AccessRights is a bit set of rights granted by an unforgeable reference.
type AccessRights byte

// Access rights bits and their combinations.
const (
	AccessNone         AccessRights = 0
	AccessRead         AccessRights = 1
	AccessWrite        AccessRights = 2
	AccessAdd          AccessRights = 4
	AccessReadWrite                 = AccessRead | AccessWrite
	AccessReadAdd                   = AccessRead | AccessAdd
	AccessAddWrite                  = AccessAdd | AccessWrite
	AccessReadAddWrite              = AccessRead | AccessAdd | AccessWrite
)

// URef is an unforgeable reference: an address in the global state plus the
// rights it grants.
type URef struct {
	Address      util.Uint256 `json:"uref"`
	AccessRights AccessRights `json:"access_rights,omitempty"`
}

// Key is a global state key. Address holds the account hash, the contract
// hash, the uref address or the local key hash depending on Type,
// AccessRights is only meaningful for URefKey.
type Key struct {
	Type         KeyType
	Address      util.Uint256
	AccessRights AccessRights
}

// NewAccountKey creates an account key.
func NewAccountKey(account util.Uint256) Key {
	return Key{Type: AccountKey, Address: account}
}

// NewHashKey creates a contract hash key.
func NewHashKey(h util.Uint256) Key {
	return Key{Type: HashKey, Address: h}
}

// NewURefKey creates an unforgeable reference key.
func NewURefKey(u URef) Key {
	return Key{Type: URefKey, Address: u.Address, AccessRights: u.AccessRights}
}

// NewLocalKey creates a local key.
func NewLocalKey(h util.Uint256) Key {
	return Key{Type: LocalKey, Address: h}
}

// URef returns the key as an unforgeable reference if it is one.
func (k Key) URef() (URef, bool) {
	if k.Type != URefKey {
		return URef{}, false
	}
	return URef{Address: k.Address, AccessRights: k.AccessRights}, true
}

// String returns a human-readable form of the key: its variant name followed
// by base16 address.
func (k Key) String() string {
	return k.Type.String() + "-" + k.Address.StringBE()
}

// EncodeBinary implements the io.Serializable interface.
func (k *Key) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(k.Type))
	k.Address.EncodeBinary(w)
	if k.Type == URefKey {
		w.WriteB(byte(k.AccessRights))
	}
}

// DecodeBinary implements the io.Serializable interface.
func (k *Key) DecodeBinary(r *io.BinReader) {
	k.Type = KeyType(r.ReadB())
	if r.Err == nil && k.Type > LocalKey {
		r.Err = fmt.Errorf("unknown key type %d", k.Type)
		return
	}
	k.Address.DecodeBinary(r)
	k.AccessRights = AccessNone
	if k.Type == URefKey {
		k.AccessRights = AccessRights(r.ReadB())
	}
}

type (
	accountKeyAux struct {
		Account util.Uint256 `json:"account"`
	}
	hashKeyAux struct {
		Hash util.Uint256 `json:"hash"`
	}
	keyAux struct {
		Address *accountKeyAux `json:"address,omitempty"`
		Hash    *hashKeyAux    `json:"hash,omitempty"`
		URef    *URef          `json:"uref,omitempty"`
		Local   *hashKeyAux    `json:"local,omitempty"`
	}
)

// MarshalJSON implements the json.Marshaler interface.
func (k Key) MarshalJSON() ([]byte, error) {
	var aux keyAux
	switch k.Type {
	case AccountKey:
		aux.Address = &accountKeyAux{Account: k.Address}
	case HashKey:
		aux.Hash = &hashKeyAux{Hash: k.Address}
	case URefKey:
		aux.URef = &URef{Address: k.Address, AccessRights: k.AccessRights}
	case LocalKey:
		aux.Local = &hashKeyAux{Hash: k.Address}
	default:
		return nil, fmt.Errorf("can't marshal key type %d", k.Type)
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (k *Key) UnmarshalJSON(data []byte) error {
	var aux keyAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var n int
	if aux.Address != nil {
		*k = NewAccountKey(aux.Address.Account)
		n++
	}
	if aux.Hash != nil {
		*k = NewHashKey(aux.Hash.Hash)
		n++
	}
	if aux.URef != nil {
		*k = NewURefKey(*aux.URef)
		n++
	}
	if aux.Local != nil {
		*k = NewLocalKey(aux.Local.Hash)
		n++
	}
	if n != 1 {
		return errors.New("key must have exactly one variant set")
	}
	return nil
}

// ParseKey parses "<variant>-<hex>" representation produced by Key.String.
func ParseKey(s string) (Key, error) {
	name, h, ok := strings.Cut(s, "-")
	if !ok {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	addr, err := util.Uint256DecodeStringBE(h)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key address: %w", err)
	}
	switch name {
	case "address", "account":
		return NewAccountKey(addr), nil
	case "hash":
		return NewHashKey(addr), nil
	case "uref":
		return NewURefKey(URef{Address: addr}), nil
	case "local":
		return NewLocalKey(addr), nil
	}
	return Key{}, fmt.Errorf("unknown key variant %q", name)
}
