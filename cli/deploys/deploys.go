/*
Package deploys contains the commands creating deploys and proposing blocks.
*/
package deploys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/casperlabs/casper-go/cli/options"
	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/rpcclient/actor"
	"github.com/casperlabs/casper-go/pkg/smartcontract"
	"github.com/casperlabs/casper-go/pkg/util"
	"github.com/urfave/cli"
)

var (
	commonDeployFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "from",
			Usage: "hex-encoded account hash the deploy runs under (signer's account by default)",
		},
		cli.StringFlag{
			Name:  "chain-name",
			Usage: "chain name (overrides Client.ChainName)",
		},
		cli.Int64Flag{
			Name:  "gas-price",
			Usage: "gas price (overrides Client.GasPrice)",
		},
		cli.StringFlag{
			Name:  "payment",
			Usage: "path to the payment wasm (standard payment is used if no payment code is given)",
		},
		cli.StringFlag{
			Name:  "payment-name",
			Usage: "name of the stored payment contract",
		},
		cli.StringFlag{
			Name:  "payment-hash",
			Usage: "hex-encoded hash of the stored payment contract",
		},
		cli.StringFlag{
			Name:  "payment-uref",
			Usage: "hex-encoded uref of the stored payment contract",
		},
		cli.StringFlag{
			Name:  "payment-args",
			Usage: "JSON-encoded payment arguments",
		},
		cli.StringFlag{
			Name:  "payment-amount",
			Usage: "standard payment amount",
		},
		cli.Uint64Flag{
			Name:  "ttl-millis",
			Usage: "deploy time to live in milliseconds",
		},
		cli.StringSliceFlag{
			Name:  "dependency",
			Usage: "hex-encoded hash of the deploy this one depends on (can be repeated)",
		},
		cli.BoolFlag{
			Name:  "wait",
			Usage: "wait for the deploy to be processed",
		},
		cli.BoolFlag{
			Name:  "propose",
			Usage: "propose a block after sending the deploy (retried as configured)",
		},
	}
	sessionFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "session",
			Usage: "path to the session wasm",
		},
		cli.StringFlag{
			Name:  "session-name",
			Usage: "name of the stored session contract",
		},
		cli.StringFlag{
			Name:  "session-hash",
			Usage: "hex-encoded hash of the stored session contract",
		},
		cli.StringFlag{
			Name:  "session-uref",
			Usage: "hex-encoded uref of the stored session contract",
		},
		cli.StringFlag{
			Name:  "session-args",
			Usage: "JSON-encoded session arguments, e.g. '[{\"name\":\"amount\",\"value\":{\"long_value\":10}}]'",
		},
	}
	transferFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "target",
			Usage: "hex-encoded account hash of the recipient",
		},
		cli.Int64Flag{
			Name:  "amount",
			Usage: "amount of motes to transfer",
		},
	}
	proposeFlags = []cli.Flag{
		cli.IntFlag{
			Name:  "attempts",
			Usage: "number of additional attempts if proposal fails (overrides Client.ProposeAttempts)",
			Value: -1,
		},
		cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "delay between proposal attempts (overrides Client.ProposeRetryDelay)",
		},
	}
)

// NewCommands returns 'deploy', 'transfer' and 'propose' commands.
func NewCommands() []cli.Command {
	deployFlags := concat(options.Common, options.Keys, sessionFlags, commonDeployFlags, proposeFlags)
	return []cli.Command{
		{
			Name:      "deploy",
			Usage:     "create, sign and send a deploy",
			UsageText: "casper-client deploy -r endpoint --private-key key.pem --session code.wasm [--session-args json] [--wait] [--propose]",
			Action:    sendDeploy,
			Flags:     deployFlags,
		},
		{
			Name:      "transfer",
			Usage:     "transfer motes to another account",
			UsageText: "casper-client transfer -r endpoint --private-key key.pem --target hash --amount value [--wait] [--propose]",
			Action:    transfer,
			Flags:     concat(options.Common, options.Keys, transferFlags, commonDeployFlags, proposeFlags),
		},
		{
			Name:      "propose",
			Usage:     "ask the node to propose a block",
			UsageText: "casper-client propose -r endpoint --private-key key.pem [--attempts n] [--retry-delay d]",
			Action:    propose,
			Flags:     concat(options.Common, options.Keys, proposeFlags),
		},
	}
}

func concat(sets ...[]cli.Flag) []cli.Flag {
	var res []cli.Flag
	for _, s := range sets {
		res = append(res, s...)
	}
	return res
}

func sendDeploy(ctx *cli.Context) error {
	p, err := paramsFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	p.Session, err = codeRefFromContext(ctx, "session")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if p.Session.IsEmpty() {
		return cli.NewExitError(errors.New("no session code given, use one of the '--session*' options"), 1)
	}
	p.SessionArgs, err = argsFromContext(ctx, "session-args")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return run(ctx, func(a *actor.Actor) (*deploy.Deploy, error) {
		return a.MakeDeploy(p)
	})
}

func transfer(ctx *cli.Context) error {
	target := ctx.String("target")
	if target == "" {
		return cli.NewExitError(errors.New("no target account given"), 1)
	}
	p, err := paramsFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	amount := ctx.Int64("amount")
	return run(ctx, func(a *actor.Actor) (*deploy.Deploy, error) {
		return a.MakeTransfer(target, amount, p)
	})
}

// run creates the deploy with the given maker, sends it and optionally
// proposes a block and waits for the deploy to be processed.
func run(ctx *cli.Context, mk func(a *actor.Actor) (*deploy.Deploy, error)) error {
	cfg, log, cleanup, exitErr := options.Init(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer cleanup()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, a, exitErr := options.GetRPCWithActor(gctx, ctx, cfg.Client, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	d, err := mk(a)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	h, ack, err := a.Send(d)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to send deploy: %w", err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, h.StringBE())
	if ack.Message != "" {
		fmt.Fprintln(ctx.App.Writer, ack.Message)
	}

	if ctx.Bool("propose") {
		attempts, delay := proposeRetries(ctx, cfg.Client.ProposeAttempts, cfg.Client.ProposeRetryDelay)
		block, err := a.ProposeAfterAck(gctx, h, ack, attempts, delay)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, "Block:", block)
	}
	if ctx.Bool("wait") {
		info, err := a.Wait(gctx, h, nil)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, "State:", info.Status.State)
	}
	return nil
}

func propose(ctx *cli.Context) error {
	cfg, log, cleanup, exitErr := options.Init(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer cleanup()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, a, exitErr := options.GetRPCWithActor(gctx, ctx, cfg.Client, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	attempts, delay := proposeRetries(ctx, cfg.Client.ProposeAttempts, cfg.Client.ProposeRetryDelay)
	block, err := a.ProposeWithRetry(gctx, attempts, delay)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, block)
	return nil
}

func proposeRetries(ctx *cli.Context, attempts int, delay time.Duration) (int, time.Duration) {
	if n := ctx.Int("attempts"); n >= 0 {
		attempts = n
	}
	if ctx.IsSet("retry-delay") {
		delay = ctx.Duration("retry-delay")
	}
	return attempts, delay
}

func paramsFromContext(ctx *cli.Context) (deploy.Params, error) {
	var (
		p   deploy.Params
		err error
	)
	if from := ctx.String("from"); from != "" {
		p.From, err = decodeHash("from", from)
		if err != nil {
			return p, err
		}
	}
	p.ChainName = ctx.String("chain-name")
	p.GasPrice = ctx.Int64("gas-price")
	ttl := ctx.Uint64("ttl-millis")
	if ttl > math.MaxUint32 {
		return p, fmt.Errorf("--ttl-millis: %d is too big, maximum is %d", ttl, uint32(math.MaxUint32))
	}
	p.TTLMillis = uint32(ttl)
	for _, s := range ctx.StringSlice("dependency") {
		h, err := util.Uint256DecodeStringBE(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return p, fmt.Errorf("invalid dependency %q: %w", s, err)
		}
		p.Dependencies = append(p.Dependencies, h)
	}
	p.Payment, err = codeRefFromContext(ctx, "payment")
	if err != nil {
		return p, err
	}
	p.PaymentArgs, err = argsFromContext(ctx, "payment-args")
	if err != nil {
		return p, err
	}
	if s := ctx.String("payment-amount"); s != "" {
		amount, ok := new(big.Int).SetString(s, 10)
		if !ok || amount.Sign() < 0 {
			return p, fmt.Errorf("invalid payment amount %q", s)
		}
		p.PaymentAmount = amount
	}
	return p, nil
}

// codeRefFromContext reads --<prefix>, --<prefix>-name, --<prefix>-hash and
// --<prefix>-uref options. Deploy building rejects references with more than
// one of them set.
func codeRefFromContext(ctx *cli.Context, prefix string) (deploy.CodeRef, error) {
	var (
		ref deploy.CodeRef
		err error
	)
	if path := ctx.String(prefix); path != "" {
		ref.Wasm, err = os.ReadFile(path)
		if err != nil {
			return ref, fmt.Errorf("can't read %s code: %w", prefix, err)
		}
	}
	ref.Name = ctx.String(prefix + "-name")
	if s := ctx.String(prefix + "-hash"); s != "" {
		ref.Hash, err = decodeHash(prefix+"-hash", s)
		if err != nil {
			return ref, err
		}
	}
	if s := ctx.String(prefix + "-uref"); s != "" {
		ref.URef, err = decodeHash(prefix+"-uref", s)
		if err != nil {
			return ref, err
		}
	}
	return ref, nil
}

func argsFromContext(ctx *cli.Context, name string) (smartcontract.Args, error) {
	s := ctx.String(name)
	if s == "" {
		return nil, nil
	}
	args, err := smartcontract.ParseArgsJSON([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return args, nil
}

func decodeHash(name string, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	if len(b) != util.Uint256Size {
		return nil, fmt.Errorf("--%s: expected %d bytes, got %d", name, util.Uint256Size, len(b))
	}
	return b, nil
}
