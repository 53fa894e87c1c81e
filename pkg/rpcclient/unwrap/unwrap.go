/*
Package unwrap provides a set of proxy methods to process state query
results.

Functions implemented there are intended to be used as wrappers for other
functions that return (*state.StoredValue, error) pair. These functions will
check for error, check the type of the stored value, cast it to appropriate
type (if everything is OK) and then return a result or error. They're mostly
useful for higher-level packages like querier.
*/
package unwrap

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/casperlabs/casper-go/pkg/core/state"
	"github.com/casperlabs/casper-go/pkg/smartcontract"
)

// ErrUnexpectedType is returned when the stored value is not of the type
// expected.
var ErrUnexpectedType = errors.New("unexpected stored value type")

// Value expects a plain typed value (not an account or a contract) and
// returns it.
func Value(v *state.StoredValue, err error) (*smartcontract.Value, error) {
	if err != nil {
		return nil, err
	}
	if v == nil || v.Value == nil {
		return nil, fmt.Errorf("%w: %s instead of a value", ErrUnexpectedType, kind(v))
	}
	return v.Value, nil
}

// Account expects an account record and returns it.
func Account(v *state.StoredValue, err error) (*state.Account, error) {
	if err != nil {
		return nil, err
	}
	if !v.IsAccount() {
		return nil, fmt.Errorf("%w: %s instead of an account", ErrUnexpectedType, kind(v))
	}
	return v.Account, nil
}

// Contract expects a contract record and returns it.
func Contract(v *state.StoredValue, err error) (*state.Contract, error) {
	if err != nil {
		return nil, err
	}
	if v == nil || v.Contract == nil {
		return nil, fmt.Errorf("%w: %s instead of a contract", ErrUnexpectedType, kind(v))
	}
	return v.Contract, nil
}

// Key expects a key value and returns it.
func Key(v *state.StoredValue, err error) (smartcontract.Key, error) {
	val, err := Value(v, err)
	if err != nil {
		return smartcontract.Key{}, err
	}
	k, err := val.TryKey()
	if err != nil {
		return smartcontract.Key{}, fmt.Errorf("%w: %w", ErrUnexpectedType, err)
	}
	return k, nil
}

// URef expects a URef key value and returns it.
func URef(v *state.StoredValue, err error) (smartcontract.URef, error) {
	k, err := Key(v, err)
	if err != nil {
		return smartcontract.URef{}, err
	}
	u, ok := k.URef()
	if !ok {
		return smartcontract.URef{}, fmt.Errorf("%w: %s key instead of uref", ErrUnexpectedType, k.Type)
	}
	return u, nil
}

// BigInt expects a big integer value and returns it.
func BigInt(v *state.StoredValue, err error) (*big.Int, error) {
	val, err := Value(v, err)
	if err != nil {
		return nil, err
	}
	i, err := val.TryBigInt()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedType, err)
	}
	return i, nil
}

// Int64 expects an integer value (int32, int64 or a big integer fitting
// into int64) and returns it.
func Int64(v *state.StoredValue, err error) (int64, error) {
	b, err := BigInt(v, err)
	if err != nil {
		return 0, err
	}
	if !b.IsInt64() {
		return 0, errors.New("int64 overflow")
	}
	return b.Int64(), nil
}

// PrintableString expects a string value and returns it.
func PrintableString(v *state.StoredValue, err error) (string, error) {
	val, err := Value(v, err)
	if err != nil {
		return "", err
	}
	s, ok := val.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s instead of a string", ErrUnexpectedType, val.Type)
	}
	return s, nil
}

func kind(v *state.StoredValue) string {
	switch {
	case v == nil:
		return "nothing"
	case v.Account != nil:
		return "account"
	case v.Contract != nil:
		return "contract"
	case v.Value != nil:
		return v.Value.Type.String()
	}
	return "empty value"
}
