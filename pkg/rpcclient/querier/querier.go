/*
Package querier provides structured access to the global state: plain state
queries and the account balance resolution built on top of them.
*/
package querier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/core/state"
	"github.com/casperlabs/casper-go/pkg/rpcclient/unwrap"
)

// MintKeyName is the name of the account's named key referencing the mint
// contract.
const MintKeyName = "mint"

var (
	// ErrNotAnAccount is returned when the value stored under the account
	// address is not an account.
	ErrNotAnAccount = errors.New("not an account")
	// ErrMintReferenceMissing is returned when the account has no usable
	// reference to the mint contract.
	ErrMintReferenceMissing = errors.New("account has no mint reference")
)

// RPCQuery is an interface required from the RPC client to query the
// global state.
type RPCQuery interface {
	GetBlockState(blockHash string, q casperrpc.StateQuery) (*state.StoredValue, error)
}

// Querier performs global state queries as of some block.
type Querier struct {
	client RPCQuery
}

// New creates a Querier using the given RPC interface.
func New(client RPCQuery) *Querier {
	return &Querier{client: client}
}

// QueryState returns the value found at the given path starting from the
// given base16 key of the given type (hash, uref, address or local). Path
// segments are separated by "/".
func (q *Querier) QueryState(blockHash, key, path, keyType string) (*state.StoredValue, error) {
	sq, err := casperrpc.NewStateQuery(key, path, keyType)
	if err != nil {
		return nil, err
	}
	return q.client.GetBlockState(blockHash, sq)
}

// GetAccount returns the account stored under the given base16 address.
func (q *Querier) GetAccount(blockHash, accountAddress string) (*state.Account, error) {
	acc, err := unwrap.Account(q.QueryState(blockHash, accountAddress, "", "address"))
	if errors.Is(err, unwrap.ErrUnexpectedType) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAnAccount, accountAddress, err)
	}
	return acc, err
}

// GetBalance returns the balance of the account with the given base16
// address as of the given block. It takes three dependent queries: the
// account (to get its mint reference and main purse), the local key of
// the mint contract for the purse (to get the balance reference) and the
// balance itself.
func (q *Querier) GetBalance(blockHash, accountAddress string) (*big.Int, error) {
	acc, err := q.GetAccount(blockHash, accountAddress)
	if err != nil {
		return nil, err
	}
	mintKey, ok := acc.NamedKeys.Get(MintKeyName)
	if !ok {
		return nil, fmt.Errorf("%w: no %q named key", ErrMintReferenceMissing, MintKeyName)
	}
	mint, ok := mintKey.URef()
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s key", ErrMintReferenceMissing, MintKeyName, mintKey.Type)
	}

	local := mint.Address.StringBE() + ":" + acc.PurseID.Address.StringBE()
	balanceRef, err := unwrap.URef(q.QueryState(blockHash, local, "", "local"))
	if err != nil {
		return nil, fmt.Errorf("failed to get balance reference: %w", err)
	}
	balance, err := unwrap.BigInt(q.QueryState(blockHash, balanceRef.Address.StringBE(), "", "uref"))
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}
