package querier

import (
	"errors"
	"math/big"
	"testing"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/core/state"
	"github.com/casperlabs/casper-go/pkg/rpcclient/unwrap"
	"github.com/casperlabs/casper-go/pkg/smartcontract"
	"github.com/casperlabs/casper-go/pkg/util"
	"github.com/stretchr/testify/require"
)

type call struct {
	block string
	query casperrpc.StateQuery
}

// RPCClient returns queued results for subsequent calls.
type RPCClient struct {
	results []*state.StoredValue
	err     error
	calls   []call
}

func (r *RPCClient) GetBlockState(blockHash string, q casperrpc.StateQuery) (*state.StoredValue, error) {
	r.calls = append(r.calls, call{block: blockHash, query: q})
	if r.err != nil {
		return nil, r.err
	}
	if len(r.calls) > len(r.results) {
		return nil, errors.New("unexpected call")
	}
	return r.results[len(r.calls)-1], nil
}

var (
	accountAddr = util.Uint256{0xac}
	mintAddr    = util.Uint256{0x31}
	purseAddr   = util.Uint256{0x9e}
	balanceAddr = util.Uint256{0xba}
)

func value(v smartcontract.Value) *state.StoredValue {
	return &state.StoredValue{Value: &v}
}

func testAccount(named state.NamedKeys) *state.StoredValue {
	return &state.StoredValue{Account: &state.Account{
		PublicKey: accountAddr,
		PurseID:   smartcontract.URef{Address: purseAddr, AccessRights: smartcontract.AccessReadAddWrite},
		NamedKeys: named,
	}}
}

func mintNamedKeys() state.NamedKeys {
	return state.NamedKeys{
		{Name: "pos", Key: smartcontract.NewHashKey(util.Uint256{1})},
		{Name: MintKeyName, Key: smartcontract.NewURefKey(smartcontract.URef{Address: mintAddr, AccessRights: smartcontract.AccessRead})},
	}
}

func TestQueryState(t *testing.T) {
	c := &RPCClient{results: []*state.StoredValue{value(smartcontract.NewInt32Value(3))}}
	q := New(c)

	v, err := q.QueryState("b10c", "aa", "counter/count/", "hash")
	require.NoError(t, err)
	require.Equal(t, int32(3), v.Value.Value)
	require.Equal(t, "b10c", c.calls[0].block)
	require.Equal(t, casperrpc.StateQuery{
		KeyVariant:   casperrpc.HashKeyVariant,
		KeyBase16:    "aa",
		PathSegments: []string{"counter", "count"},
	}, c.calls[0].query)

	_, err = q.QueryState("b10c", "aa", "", "contract")
	require.ErrorIs(t, err, casperrpc.ErrUnknownKeyVariant)
	require.Len(t, c.calls, 1)
}

func TestGetBalance(t *testing.T) {
	c := &RPCClient{results: []*state.StoredValue{
		testAccount(mintNamedKeys()),
		value(smartcontract.NewKeyValue(smartcontract.NewURefKey(smartcontract.URef{Address: balanceAddr}))),
		value(smartcontract.NewBigIntValue(big.NewInt(1000000), smartcontract.BitWidth512)),
	}}
	q := New(c)

	b, err := q.GetBalance("b10c", accountAddr.StringBE())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000000), b)

	require.Len(t, c.calls, 3)
	for _, cl := range c.calls {
		require.Equal(t, "b10c", cl.block)
		require.Empty(t, cl.query.PathSegments)
	}
	require.Equal(t, casperrpc.AddressKeyVariant, c.calls[0].query.KeyVariant)
	require.Equal(t, accountAddr.StringBE(), c.calls[0].query.KeyBase16)
	require.Equal(t, casperrpc.LocalKeyVariant, c.calls[1].query.KeyVariant)
	require.Equal(t, mintAddr.StringBE()+":"+purseAddr.StringBE(), c.calls[1].query.KeyBase16)
	require.Equal(t, casperrpc.URefKeyVariant, c.calls[2].query.KeyVariant)
	require.Equal(t, balanceAddr.StringBE(), c.calls[2].query.KeyBase16)
}

func TestGetBalanceErrors(t *testing.T) {
	t.Run("not an account", func(t *testing.T) {
		c := &RPCClient{results: []*state.StoredValue{value(smartcontract.NewInt64Value(1))}}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, ErrNotAnAccount)
		require.ErrorIs(t, err, unwrap.ErrUnexpectedType)
		require.Len(t, c.calls, 1)
	})
	t.Run("no mint", func(t *testing.T) {
		c := &RPCClient{results: []*state.StoredValue{testAccount(state.NamedKeys{
			{Name: "pos", Key: smartcontract.NewHashKey(util.Uint256{1})},
		})}}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, ErrMintReferenceMissing)
		require.Len(t, c.calls, 1)
	})
	t.Run("mint is not uref", func(t *testing.T) {
		c := &RPCClient{results: []*state.StoredValue{testAccount(state.NamedKeys{
			{Name: MintKeyName, Key: smartcontract.NewHashKey(mintAddr)},
		})}}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, ErrMintReferenceMissing)
		require.Len(t, c.calls, 1)
	})
	t.Run("balance reference is not uref", func(t *testing.T) {
		c := &RPCClient{results: []*state.StoredValue{
			testAccount(mintNamedKeys()),
			value(smartcontract.NewKeyValue(smartcontract.NewHashKey(balanceAddr))),
		}}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, unwrap.ErrUnexpectedType)
		require.Len(t, c.calls, 2)
	})
	t.Run("balance is not a number", func(t *testing.T) {
		c := &RPCClient{results: []*state.StoredValue{
			testAccount(mintNamedKeys()),
			value(smartcontract.NewKeyValue(smartcontract.NewURefKey(smartcontract.URef{Address: balanceAddr}))),
			value(smartcontract.NewStringValue("1000")),
		}}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, unwrap.ErrUnexpectedType)
		require.Len(t, c.calls, 3)
	})
	t.Run("rpc error", func(t *testing.T) {
		rpcErr := casperrpc.NewError(-1, "unknown block", "")
		c := &RPCClient{err: rpcErr}
		_, err := New(c).GetBalance("b10c", "aa")
		require.ErrorIs(t, err, rpcErr)
		require.NotErrorIs(t, err, ErrNotAnAccount)
		require.Len(t, c.calls, 1)
	})
}
