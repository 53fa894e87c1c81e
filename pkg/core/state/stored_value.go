/*
Package state contains the values stored in the node's global state as they
are returned by block state queries.
*/
package state

import (
	"encoding/json"
	"errors"

	"github.com/casperlabs/casper-go/pkg/smartcontract"
	"github.com/casperlabs/casper-go/pkg/util"
)

// NamedKey is an entry of the account's or contract's named key table.
type NamedKey struct {
	Name string            `json:"name"`
	Key  smartcontract.Key `json:"key"`
}

// NamedKeys is a named key table.
type NamedKeys []NamedKey

// Get returns the first key with the given name.
func (nk NamedKeys) Get(name string) (smartcontract.Key, bool) {
	for _, k := range nk {
		if k.Name == name {
			return k.Key, true
		}
	}
	return smartcontract.Key{}, false
}

// AssociatedKey is a key allowed to sign deploys on behalf of an account.
type AssociatedKey struct {
	PublicKey util.Uint256 `json:"public_key"`
	Weight    uint32       `json:"weight"`
}

// Account is an account record.
type Account struct {
	PublicKey      util.Uint256       `json:"public_key"`
	PurseID        smartcontract.URef `json:"purse_id"`
	NamedKeys      NamedKeys          `json:"named_keys"`
	AssociatedKeys []AssociatedKey    `json:"associated_keys,omitempty"`
}

// Contract is a stored contract record.
type Contract struct {
	Body            []byte    `json:"body"`
	NamedKeys       NamedKeys `json:"named_keys"`
	ProtocolVersion uint32    `json:"protocol_version,omitempty"`
}

// StoredValue is a value found in the global state: either a plain typed
// value, an account or a contract. Exactly one field is set.
type StoredValue struct {
	Value    *smartcontract.Value
	Account  *Account
	Contract *Contract
}

type storedValueAux struct {
	Account  *Account  `json:"account,omitempty"`
	Contract *Contract `json:"contract,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface. Plain values are
// inlined, accounts and contracts are wrapped into an object with a single
// "account" or "contract" field.
func (v StoredValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Value != nil:
		return json.Marshal(v.Value)
	case v.Account != nil:
		return json.Marshal(storedValueAux{Account: v.Account})
	case v.Contract != nil:
		return json.Marshal(storedValueAux{Contract: v.Contract})
	}
	return nil, errors.New("empty stored value")
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (v *StoredValue) UnmarshalJSON(data []byte) error {
	var aux storedValueAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.Account != nil && aux.Contract != nil:
		return errors.New("stored value is both an account and a contract")
	case aux.Account != nil:
		*v = StoredValue{Account: aux.Account}
		return nil
	case aux.Contract != nil:
		*v = StoredValue{Contract: aux.Contract}
		return nil
	}
	val := new(smartcontract.Value)
	if err := json.Unmarshal(data, val); err != nil {
		return err
	}
	*v = StoredValue{Value: val}
	return nil
}

// IsAccount returns true if the value is an account record.
func (v *StoredValue) IsAccount() bool {
	return v != nil && v.Account != nil
}
