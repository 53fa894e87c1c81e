package options

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casperlabs/casper-go/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, flags := range [][]cli.Flag{Common, Keys} {
		for _, f := range flags {
			f.Apply(set)
		}
	}
	set.Bool("wait", false, "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestGetConfigFromContext(t *testing.T) {
	cfg, err := GetConfigFromContext(newContext(t))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "client.yml")
	require.NoError(t, os.WriteFile(path, []byte("Client:\n  Endpoint: http://node:1\n  ChainName: test\n"), 0o644))

	cfg, err = GetConfigFromContext(newContext(t, "--config-file", path))
	require.NoError(t, err)
	require.Equal(t, "http://node:1", cfg.Client.Endpoint)
	require.Equal(t, "test", cfg.Client.ChainName)

	cfg, err = GetConfigFromContext(newContext(t, "--config-file", path, "-r", "http://other:2"))
	require.NoError(t, err)
	require.Equal(t, "http://other:2", cfg.Client.Endpoint)

	_, err = GetConfigFromContext(newContext(t, "--config-file", filepath.Join(t.TempDir(), "none.yml")))
	require.Error(t, err)
}

func TestGetTimeoutContext(t *testing.T) {
	check := func(ctx *cli.Context, expected time.Duration) {
		gctx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		deadline, ok := gctx.Deadline()
		require.True(t, ok)
		require.InDelta(t, float64(expected), float64(time.Until(deadline)), float64(time.Second))
	}
	check(newContext(t), DefaultTimeout)
	check(newContext(t, "--wait"), DefaultAwaitableTimeout)
	check(newContext(t, "--wait", "--timeout", "3s"), 3*time.Second)
}

func TestGetRPCClient(t *testing.T) {
	_, err := GetRPCClient(context.Background(), config.ClientConfiguration{})
	require.ErrorContains(t, err, "no RPC endpoint")

	_, err = GetRPCClient(context.Background(), config.ClientConfiguration{Endpoint: "ftp://node"})
	require.Error(t, err)
}

func TestHandleLoggingParams(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		log, lvl, err := HandleLoggingParams(false, config.Logging{})
		require.NoError(t, err)
		require.NotNil(t, log)
		require.Equal(t, zapcore.InfoLevel, lvl.Level())
	})
	t.Run("debug overrides", func(t *testing.T) {
		_, lvl, err := HandleLoggingParams(true, config.Logging{LogLevel: "warn"})
		require.NoError(t, err)
		require.Equal(t, zapcore.DebugLevel, lvl.Level())
	})
	t.Run("bad level", func(t *testing.T) {
		_, _, err := HandleLoggingParams(false, config.Logging{LogLevel: "loud"})
		require.Error(t, err)
	})
	t.Run("log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "client.log")
		log, _, err := HandleLoggingParams(false, config.Logging{LogPath: path, LogEncoding: "json"})
		require.NoError(t, err)
		log.Info("hello")
		require.NoError(t, log.Sync())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), `"msg":"hello"`)
	})
}
