/*
Package actor provides a way to change the global state via RPC client.

This layer builds on top of the basic RPC client and [waiter] package, it
simplifies creating, signing and sending deploys to the node and asking the
node to propose blocks with them. Every deploy is built with Actor defaults
(sender, chain name, gas price) and signed with the Actor key.
*/
package actor

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/crypto/keys"
	"github.com/casperlabs/casper-go/pkg/rpcclient/waiter"
	"github.com/casperlabs/casper-go/pkg/util"
	"go.uber.org/zap"
)

// RPCActor is an interface required from the RPC client to successfully
// create and send deploys.
type RPCActor interface {
	waiter.RPCPolling

	SubmitDeploy(d *deploy.Deploy) (*result.DeployAck, error)
	Propose() (string, error)
}

// Options are used to create Actor. Signer is mandatory, everything else is
// optional.
type Options struct {
	// Signer is the key used to sign every deploy.
	Signer keys.PrivateKey
	// PublicKey is the key put into approvals, it's derived from Signer
	// when not set and must match it otherwise.
	PublicKey *keys.PublicKey
	// From is the default account hash deploys run under (signer's account
	// is used when empty).
	From []byte
	// ChainName is the default chain name.
	ChainName string
	// GasPrice is the default gas price, deploy.DefaultGasPrice is used when
	// not set.
	GasPrice int64
	// Waiter configures deploy awaiting.
	Waiter waiter.Config
	// Contracts is the file system bundled wasm contracts are read from.
	Contracts fs.FS
	// Modifier is called for every deploy before it's signed.
	Modifier DeployModifier
	// Logger is used to log proposals, nop logger is used if not set.
	Logger *zap.Logger
}

// DeployModifier is a callback that receives the deploy before it's signed.
// It can check or modify the deploy and return an error if there is anything
// wrong there which will abort the creation process.
type DeployModifier func(d *deploy.Deploy) error

// Actor keeps a connection to the RPC endpoint and allows to create, sign
// and send deploys on behalf of a single key. It also provides a Waiter to
// wait until the deploy is processed.
type Actor struct {
	*waiter.Waiter

	client RPCActor
	opts   Options
	log    *zap.Logger
	// sleep is used between propose attempts.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Actor instance using the specified RPC interface and options.
func New(ra RPCActor, opts Options) (*Actor, error) {
	if opts.Signer == nil {
		return nil, fmt.Errorf("%w: no signer", keys.ErrKeyResolution)
	}
	if opts.PublicKey == nil {
		opts.PublicKey = opts.Signer.PublicKey()
	} else if !opts.PublicKey.Equal(opts.Signer.PublicKey()) {
		return nil, fmt.Errorf("%w: public key doesn't match the signer", keys.ErrKeyResolution)
	}
	if opts.GasPrice < 0 {
		return nil, fmt.Errorf("%w: negative gas price", deploy.ErrInvalidParameters)
	}
	if len(opts.From) != 0 && len(opts.From) != util.Uint256Size {
		return nil, fmt.Errorf("%w: bad sender length %d", deploy.ErrInvalidParameters, len(opts.From))
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Actor{
		Waiter: waiter.New(ra, opts.Waiter),
		client: ra,
		opts:   opts,
		log:    log,
		sleep:  sleep,
	}, nil
}

// sleep blocks for d, it returns early with an error if ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublicKey returns the key deploys are approved with.
func (a *Actor) PublicKey() *keys.PublicKey {
	return a.opts.PublicKey
}

// Sender returns the account hash deploys are sent from by default.
func (a *Actor) Sender() util.Uint256 {
	if len(a.opts.From) != 0 {
		u, _ := util.Uint256DecodeBytesBE(a.opts.From)
		return u
	}
	return a.opts.PublicKey.AccountHash()
}

// Send allows to send an arbitrary signed deploy to the node. It returns
// the deploy hash and the node acknowledgement.
func (a *Actor) Send(d *deploy.Deploy) (util.Uint256, *result.DeployAck, error) {
	ack, err := a.client.SubmitDeploy(d)
	if err != nil {
		return util.Uint256{}, nil, err
	}
	return d.DeployHash, ack, nil
}

// Sign signs an arbitrary unsigned deploy with the Actor key.
func (a *Actor) Sign(d *deploy.Deploy) error {
	return deploy.Sign(d, a.opts.PublicKey, a.opts.Signer)
}

// sendWrapper simplifies wrapping methods that create deploys.
func (a *Actor) sendWrapper(d *deploy.Deploy, err error) (util.Uint256, *result.DeployAck, error) {
	if err != nil {
		return util.Uint256{}, nil, err
	}
	return a.Send(d)
}

// Deploy creates a deploy from the given parameters (see MakeDeploy) and
// sends it to the node returning its hash. Any error aborts the process
// immediately, nothing is sent if the deploy can't be built or signed.
func (a *Actor) Deploy(p deploy.Params) (util.Uint256, error) {
	h, _, err := a.DeployWithAck(p)
	return h, err
}

// DeployWithAck is the same as Deploy, but it also returns the node
// acknowledgement.
func (a *Actor) DeployWithAck(p deploy.Params) (util.Uint256, *result.DeployAck, error) {
	return a.sendWrapper(a.MakeDeploy(p))
}

// Transfer sends the given amount of tokens to the target account (given
// as base16 account hash) using the bundled transfer contract.
func (a *Actor) Transfer(targetAccountHex string, amount int64, p deploy.Params) (util.Uint256, error) {
	return a.sendOnly(a.MakeTransfer(targetAccountHex, amount, p))
}

func (a *Actor) sendOnly(d *deploy.Deploy, err error) (util.Uint256, error) {
	h, _, err := a.sendWrapper(d, err)
	return h, err
}
