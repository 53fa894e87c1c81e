package actor

import (
	"errors"
	"fmt"

	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/smartcontract"
	"github.com/casperlabs/casper-go/pkg/util"
)

// TransferContract is the name of the bundled wasm contract used for
// transfers.
const TransferContract = "transfer_to_account.wasm"

var errNoContracts = errors.New("no contracts file system configured")

// MakeDeploy creates a signed deploy from the given parameters. Sender,
// chain name and gas price are taken from the Actor options unless set in
// p. Actor-configured DeployModifier is called before signing.
func (a *Actor) MakeDeploy(p deploy.Params) (*deploy.Deploy, error) {
	if len(p.From) == 0 {
		p.From = a.opts.From
	}
	if p.ChainName == "" {
		p.ChainName = a.opts.ChainName
	}
	if p.GasPrice == 0 {
		p.GasPrice = a.opts.GasPrice
	}
	d, err := deploy.Build(p)
	if err != nil {
		return nil, err
	}
	if a.opts.Modifier != nil {
		if err := a.opts.Modifier(d); err != nil {
			return nil, err
		}
	}
	if err := a.Sign(d); err != nil {
		return nil, err
	}
	return d, nil
}

// MakeTransfer creates a signed deploy transferring the given amount to the
// target account with the bundled transfer contract, session code and
// arguments in p are replaced.
func (a *Actor) MakeTransfer(targetAccountHex string, amount int64, p deploy.Params) (*deploy.Deploy, error) {
	if a.opts.Contracts == nil {
		return nil, errNoContracts
	}
	target, err := util.Uint256DecodeStringBE(targetAccountHex)
	if err != nil {
		return nil, fmt.Errorf("%w: target account: %w", deploy.ErrInvalidParameters, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %d", deploy.ErrInvalidParameters, amount)
	}
	wasm, err := deploy.ReadWasm(a.opts.Contracts, TransferContract)
	if err != nil {
		return nil, err
	}
	p.Session = deploy.CodeRef{Wasm: wasm}
	p.SessionArgs = smartcontract.Args{
		smartcontract.NewAccountArg("account", target),
		smartcontract.NewInt64Arg("amount", amount),
	}
	return a.MakeDeploy(p)
}
