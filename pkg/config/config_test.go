package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfig = `
Client:
  Endpoint: http://localhost:40403
  ChainName: casper-net-1
  GasPrice: 1
  PollInterval: 250ms
  MaxWait: 1m
  ProposeAttempts: 5
  ContractsPath: /opt/contracts
Logging:
  LogLevel: debug
  LogEncoding: json
Prometheus:
  Enabled: true
  Addresses:
    - ":2112"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:40403", cfg.Client.Endpoint)
	require.Equal(t, "casper-net-1", cfg.Client.ChainName)
	require.EqualValues(t, 1, cfg.Client.GasPrice)
	require.Equal(t, 250*time.Millisecond, cfg.Client.PollInterval)
	require.Equal(t, time.Minute, cfg.Client.MaxWait)
	require.Equal(t, 5, cfg.Client.ProposeAttempts)
	require.Equal(t, "/opt/contracts", cfg.Client.ContractsPath)
	require.Equal(t, "debug", cfg.Logging.LogLevel)
	require.Equal(t, "json", cfg.Logging.LogEncoding)
	require.True(t, cfg.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, cfg.Prometheus.GetAddresses())

	// Untouched values keep their defaults.
	require.Equal(t, DefaultRequestTimeout, cfg.Client.RequestTimeout)
	require.Equal(t, DefaultProposeRetryDelay, cfg.Client.ProposeRetryDelay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.EqualValues(t, DefaultGasPrice, cfg.Client.GasPrice)
	require.Equal(t, DefaultPollInterval, cfg.Client.PollInterval)
	require.Zero(t, cfg.Client.MaxWait)
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Decode([]byte("Client:\n  Endpiont: http://localhost\n"))
	require.Error(t, err)
}

func TestDecodeInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"zero gas price":         "Client:\n  GasPrice: 0\n",
		"negative gas price":     "Client:\n  GasPrice: -1\n",
		"negative timeout":       "Client:\n  RequestTimeout: -1s\n",
		"negative max wait":      "Client:\n  MaxWait: -5s\n",
		"zero poll interval":     "Client:\n  PollInterval: 0s\n",
		"negative attempts":      "Client:\n  ProposeAttempts: -1\n",
		"negative retry delay":   "Client:\n  ProposeRetryDelay: -1ms\n",
		"bad log encoding":       "Logging:\n  LogEncoding: xml\n",
		"prometheus no address":  "Prometheus:\n  Enabled: true\n",
		"prometheus bad address": "Prometheus:\n  Enabled: true\n  Addresses: [\"localhost\"]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
