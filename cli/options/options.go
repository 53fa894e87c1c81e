/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/casperlabs/casper-go/pkg/config"
	"github.com/casperlabs/casper-go/pkg/crypto/keys"
	"github.com/casperlabs/casper-go/pkg/rpcclient"
	"github.com/casperlabs/casper-go/pkg/rpcclient/actor"
	"github.com/casperlabs/casper-go/pkg/rpcclient/waiter"
	"github.com/casperlabs/casper-go/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultTimeout is the default timeout used for RPC requests.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is the default timeout used for commands that
	// wait for deploy processing or retry proposals.
	DefaultAwaitableTimeout = time.Minute
)

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides Client.Endpoint from the configuration file)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// ConfigFile is a flag for commands that use the client configuration file.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the client configuration file",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Keys is a set of flags used to locate the signing key pair.
var Keys = []cli.Flag{
	cli.StringFlag{
		Name:  "private-key",
		Usage: "path to the private key file (PEM or hex) used for signing",
	},
	cli.StringFlag{
		Name:  "public-key",
		Usage: "path to the public key file, derived from the private key if omitted",
	},
}

// Common is a set of flags every RPC command accepts.
var Common = append([]cli.Flag{ConfigFile, Debug}, RPC...)

var errNoEndpoint = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or set Client.Endpoint in the configuration file")

// GetConfigFromContext loads the configuration file given with --config-file
// (or returns the default configuration) and applies flag overrides.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	var (
		cfg = config.Default()
		err error
	)
	if path := ctx.String("config-file"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if endpoint := ctx.String(RPCEndpointFlag); endpoint != "" {
		cfg.Client.Endpoint = endpoint
	}
	return cfg, nil
}

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	if !ctx.IsSet("timeout") && (ctx.Bool("wait") || ctx.Bool("propose")) {
		dur = DefaultAwaitableTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetRPCClient returns an RPC client instance for the given configuration.
func GetRPCClient(gctx context.Context, cfg config.ClientConfiguration) (*rpcclient.Client, cli.ExitCoder) {
	if len(cfg.Endpoint) == 0 {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	c, err := rpcclient.New(gctx, cfg.Endpoint, rpcclient.Options{
		DialTimeout:     cfg.DialTimeout,
		RequestTimeout:  cfg.RequestTimeout,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		WSEndpoint:      cfg.WSEndpoint,
		CacheSize:       cfg.CacheSize,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetRPCWithActor returns an RPC client instance and Actor instance for the
// given context. Keys are taken from the --private-key and --public-key flags.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context, cfg config.ClientConfiguration, log *zap.Logger) (*rpcclient.Client, *actor.Actor, cli.ExitCoder) {
	pub, priv, err := keys.Resolve(ctx.String("public-key"), ctx.String("private-key"))
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	c, exitErr := GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return nil, nil, exitErr
	}
	a, err := actor.New(c, actor.Options{
		Signer:    priv,
		PublicKey: pub,
		ChainName: cfg.ChainName,
		GasPrice:  cfg.GasPrice,
		Waiter: waiter.Config{
			PollInterval: cfg.PollInterval,
			MaxWait:      cfg.MaxWait,
		},
		Contracts: os.DirFS(cfg.ContractsPath),
		Logger:    log,
	})
	if err != nil {
		c.Close()
		return nil, nil, cli.NewExitError(fmt.Errorf("failed to create Actor: %w", err), 1)
	}
	return c, a, nil
}

// Init is the common command prologue: it loads the configuration, creates
// the logger and starts the Prometheus service if it's enabled. The returned
// function must be called when the command is done.
func Init(ctx *cli.Context) (config.Config, *zap.Logger, func(), cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return config.Config{}, nil, nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Logging)
	if err != nil {
		return config.Config{}, nil, nil, cli.NewExitError(err, 1)
	}
	prom := metrics.NewPrometheusService(cfg.Prometheus, log)
	if err := prom.Start(); err != nil {
		_ = log.Sync()
		return config.Config{}, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	return cfg, log, func() {
		prom.ShutDown()
		_ = log.Sync()
	}, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.Logging) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	// Command output goes to stdout, so logs don't mix with it.
	cc.OutputPaths = []string{"stderr"}

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}
