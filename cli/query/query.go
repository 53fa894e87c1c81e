/*
Package query contains the commands reading deploys, blocks and global state.
*/
package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/casperlabs/casper-go/cli/options"
	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/rpcclient"
	"github.com/casperlabs/casper-go/pkg/rpcclient/querier"
	"github.com/casperlabs/casper-go/pkg/rpcclient/waiter"
	"github.com/urfave/cli"
)

var fullFlag = cli.BoolFlag{
	Name:  "full, f",
	Usage: "request the FULL view instead of the BASIC one",
}

var blockHashFlag = cli.StringFlag{
	Name:  "block-hash, b",
	Usage: "hex-encoded hash of the block to query the state at",
}

// NewCommands returns read-only query commands.
func NewCommands() []cli.Command {
	withCommon := func(flags ...cli.Flag) []cli.Flag {
		return append(flags, options.Common...)
	}
	return []cli.Command{
		{
			Name:      "show-deploy",
			Usage:     "show deploy status",
			UsageText: "casper-client show-deploy -r endpoint [--full] <hash>",
			Action:    showDeploy,
			Flags:     withCommon(fullFlag),
		},
		{
			Name:      "wait-deploy",
			Usage:     "wait until the deploy is processed and show its status",
			UsageText: "casper-client wait-deploy -r endpoint [--raise] <hash>",
			Action:    waitDeploy,
			Flags: withCommon(cli.BoolFlag{
				Name:  "raise",
				Usage: "fail if the deploy execution failed",
			}),
		},
		{
			Name:      "show-block",
			Usage:     "show block info",
			UsageText: "casper-client show-block -r endpoint [--full] <hash>",
			Action:    showBlock,
			Flags:     withCommon(fullFlag),
		},
		{
			Name:      "show-blocks",
			Usage:     "show the latest blocks of the DAG",
			UsageText: "casper-client show-blocks -r endpoint --depth n [--max-rank n] [--full]",
			Action:    showBlocks,
			Flags: withCommon(fullFlag,
				cli.UintFlag{
					Name:  "depth",
					Usage: "number of ranks to show",
					Value: 1,
				},
				cli.UintFlag{
					Name:  "max-rank",
					Usage: "highest rank to start from (latest if 0)",
				},
			),
		},
		{
			Name:      "show-deploys",
			Usage:     "show deploys included into the block",
			UsageText: "casper-client show-deploys -r endpoint [--full] <block hash>",
			Action:    showDeploys,
			Flags:     withCommon(fullFlag),
		},
		{
			Name:      "query-state",
			Usage:     "query the value stored under the key in global state",
			UsageText: "casper-client query-state -r endpoint -b hash --key key --type address|hash|uref|local [--path a/b]",
			Action:    queryState,
			Flags: withCommon(blockHashFlag,
				cli.StringFlag{
					Name:  "key, k",
					Usage: "hex-encoded base key",
				},
				cli.StringFlag{
					Name:  "path, p",
					Usage: "'/'-separated named key path from the base key",
				},
				cli.StringFlag{
					Name:  "type, t",
					Usage: "base key variant: address, hash, uref or local",
					Value: "address",
				},
			),
		},
		{
			Name:      "balance",
			Usage:     "show account balance",
			UsageText: "casper-client balance -r endpoint -b hash --address account",
			Action:    balance,
			Flags: withCommon(blockHashFlag, cli.StringFlag{
				Name:  "address, a",
				Usage: "hex-encoded account address",
			}),
		},
	}
}

// command is the common command prologue, it returns a client and a cleanup
// function for it.
func command(ctx *cli.Context, action func(c *rpcclient.Client, wcfg waiter.Config) error) error {
	cfg, _, cleanup, exitErr := options.Init(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer cleanup()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, cfg.Client)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	err := action(c, waiter.Config{
		PollInterval: cfg.Client.PollInterval,
		MaxWait:      cfg.Client.MaxWait,
	})
	if err != nil {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			return ec
		}
		return cli.NewExitError(err, 1)
	}
	return nil
}

func view(ctx *cli.Context) casperrpc.View {
	if ctx.Bool("full") {
		return casperrpc.FullView
	}
	return casperrpc.BasicView
}

func firstArg(ctx *cli.Context, what string) (string, error) {
	args := ctx.Args()
	if len(args) == 0 {
		return "", cli.NewExitError(what+" is missing", 1)
	}
	return args[0], nil
}

func showDeploy(ctx *cli.Context) error {
	hash, err := firstArg(ctx, "Deploy hash")
	if err != nil {
		return err
	}
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		info, err := c.GetDeployInfo(hash, view(ctx))
		if err != nil {
			return err
		}
		dumpDeployInfo(ctx, hash, info)
		return nil
	})
}

func waitDeploy(ctx *cli.Context) error {
	hash, err := firstArg(ctx, "Deploy hash")
	if err != nil {
		return err
	}
	return command(ctx, func(c *rpcclient.Client, wcfg waiter.Config) error {
		info, err := waiter.New(c, wcfg).WaitForDeployProcessed(c.Context(), hash, ctx.Bool("raise"))
		if err != nil {
			return err
		}
		dumpDeployInfo(ctx, hash, info)
		return nil
	})
}

func dumpDeployInfo(ctx *cli.Context, hash string, info *result.DeployInfo) {
	buf := bytes.NewBuffer(nil)

	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Hash:\t" + hash + "\n"))
	_, _ = tw.Write([]byte("State:\t" + info.Status.State.String() + "\n"))
	if info.Status.Message != "" {
		_, _ = tw.Write([]byte("Message:\t" + info.Status.Message + "\n"))
	}
	for _, r := range info.ProcessingResults {
		_, _ = tw.Write([]byte("BlockHash:\t" + r.BlockHash.StringBE() + "\n"))
		_, _ = tw.Write([]byte("Cost:\t" + strconv.FormatUint(r.Cost, 10) + "\n"))
		_, _ = tw.Write([]byte(fmt.Sprintf("Success:\t%t\n", !r.IsError)))
		if r.IsError {
			_, _ = tw.Write([]byte("Error:\t" + r.ErrorMessage + "\n"))
		}
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
}

func showBlock(ctx *cli.Context) error {
	hash, err := firstArg(ctx, "Block hash")
	if err != nil {
		return err
	}
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		info, err := c.GetBlockInfo(hash, view(ctx))
		if err != nil {
			return err
		}
		return dumpJSON(ctx, info)
	})
}

func showBlocks(ctx *cli.Context) error {
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		infos, err := c.GetBlockInfos(uint32(ctx.Uint("depth")), uint32(ctx.Uint("max-rank")), view(ctx))
		if err != nil {
			return err
		}
		for _, info := range infos {
			if err := dumpJSON(ctx, info); err != nil {
				return err
			}
		}
		return nil
	})
}

func showDeploys(ctx *cli.Context) error {
	hash, err := firstArg(ctx, "Block hash")
	if err != nil {
		return err
	}
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		infos, err := c.GetBlockDeploys(hash, view(ctx))
		if err != nil {
			return err
		}
		for _, info := range infos {
			if err := dumpJSON(ctx, info); err != nil {
				return err
			}
		}
		return nil
	})
}

func queryState(ctx *cli.Context) error {
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		v, err := querier.New(c).QueryState(ctx.String("block-hash"), ctx.String("key"), ctx.String("path"), ctx.String("type"))
		if err != nil {
			return err
		}
		return dumpJSON(ctx, v)
	})
}

func balance(ctx *cli.Context) error {
	address := ctx.String("address")
	if address == "" {
		return cli.NewExitError("Account address is missing", 1)
	}
	return command(ctx, func(c *rpcclient.Client, _ waiter.Config) error {
		b, err := querier.New(c).GetBalance(ctx.String("block-hash"), address)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, b.String())
		return nil
	})
}

func dumpJSON(ctx *cli.Context, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}
