/*
Package config contains the client configuration file structures along with
the defaults and checks applied to them when loading.
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDialTimeout is the default timeout for establishing node connections.
	DefaultDialTimeout = 4 * time.Second
	// DefaultRequestTimeout is the default timeout for a single RPC request.
	DefaultRequestTimeout = 4 * time.Second
	// DefaultGasPrice is the gas price used for deploys unless configured.
	DefaultGasPrice = 10
	// DefaultPollInterval is the delay between deploy status polls.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultProposeAttempts is the number of extra propose attempts made after
	// the first one fails.
	DefaultProposeAttempts = 3
	// DefaultProposeRetryDelay is the pause between propose attempts.
	DefaultProposeRetryDelay = time.Second
	// DefaultContractsPath is the directory bundled system contracts are read from.
	DefaultContractsPath = "./contracts"
)

// ErrInvalidConfig is returned for configurations that can't be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top level struct representing the client configuration file.
type Config struct {
	Client     ClientConfiguration `yaml:"Client"`
	Logging    Logging             `yaml:"Logging"`
	Prometheus BasicService        `yaml:"Prometheus"`
}

// ClientConfiguration holds node connection and deploy lifecycle settings.
type ClientConfiguration struct {
	Endpoint        string        `yaml:"Endpoint"`
	WSEndpoint      string        `yaml:"WSEndpoint"`
	DialTimeout     time.Duration `yaml:"DialTimeout"`
	RequestTimeout  time.Duration `yaml:"RequestTimeout"`
	MaxConnsPerHost int           `yaml:"MaxConnsPerHost"`
	// CacheSize is the number of finished deploys kept by the client,
	// negative values disable caching.
	CacheSize int    `yaml:"CacheSize"`
	ChainName string `yaml:"ChainName"`
	GasPrice  int64  `yaml:"GasPrice"`
	// PollInterval is the delay between deploy status requests made while
	// waiting for a deploy to be processed.
	PollInterval time.Duration `yaml:"PollInterval"`
	// MaxWait limits the time spent waiting for a deploy, zero means no limit.
	MaxWait           time.Duration `yaml:"MaxWait"`
	ProposeAttempts   int           `yaml:"ProposeAttempts"`
	ProposeRetryDelay time.Duration `yaml:"ProposeRetryDelay"`
	ContractsPath     string        `yaml:"ContractsPath"`
}

// Logging contains logger settings.
type Logging struct {
	LogLevel    string `yaml:"LogLevel"`
	LogPath     string `yaml:"LogPath"`
	LogEncoding string `yaml:"LogEncoding"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Client: ClientConfiguration{
			DialTimeout:       DefaultDialTimeout,
			RequestTimeout:    DefaultRequestTimeout,
			GasPrice:          DefaultGasPrice,
			PollInterval:      DefaultPollInterval,
			ProposeAttempts:   DefaultProposeAttempts,
			ProposeRetryDelay: DefaultProposeRetryDelay,
			ContractsPath:     DefaultContractsPath,
		},
		Logging: Logging{
			LogLevel:    "info",
			LogEncoding: "console",
		},
	}
}

// Load attempts to load the config from the given file. Values missing from
// the file are taken from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(data)
}

// Decode parses YAML configuration data on top of the defaults and checks the
// result.
func Decode(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := c.Client.validate(); err != nil {
		return err
	}
	switch c.Logging.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log encoding %q", ErrInvalidConfig, c.Logging.LogEncoding)
	}
	if err := c.Prometheus.validate(); err != nil {
		return fmt.Errorf("prometheus: %w", err)
	}
	return nil
}

func (c ClientConfiguration) validate() error {
	for name, d := range map[string]time.Duration{
		"DialTimeout":       c.DialTimeout,
		"RequestTimeout":    c.RequestTimeout,
		"MaxWait":           c.MaxWait,
		"ProposeRetryDelay": c.ProposeRetryDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%w: negative %s %s", ErrInvalidConfig, name, d)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: PollInterval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.GasPrice <= 0 {
		return fmt.Errorf("%w: GasPrice must be positive, got %d", ErrInvalidConfig, c.GasPrice)
	}
	if c.ProposeAttempts < 0 {
		return fmt.Errorf("%w: negative ProposeAttempts %d", ErrInvalidConfig, c.ProposeAttempts)
	}
	if c.MaxConnsPerHost < 0 {
		return fmt.Errorf("%w: negative MaxConnsPerHost %d", ErrInvalidConfig, c.MaxConnsPerHost)
	}
	return nil
}
