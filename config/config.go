package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/types"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
var (
	DefaultStarknodeDir = ".starknode"
	defaultConfigDir    = "config"
	defaultDataDir      = "data"

	defaultConfigFileName = "config.toml"
	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)

	// DefaultStateUpdateTimeout bounds the pending state update query. The
	// feeder gateway is known to stall on it while computing the pending root.
	DefaultStateUpdateTimeout = 3 * time.Minute
)

// Config defines the top level configuration for a starknode node
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Gateway         *GatewayConfig         `mapstructure:"gateway"`
	PendingSync     *PendingSyncConfig     `mapstructure:"pending-sync"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a starknode node
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Gateway:         DefaultGatewayConfig(),
		PendingSync:     DefaultPendingSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Gateway:         TestGatewayConfig(),
		PendingSync:     TestPendingSyncConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Gateway.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [gateway] section: %w", err)
	}
	if err := cfg.PendingSync.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [pending-sync] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a starknode node
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Database backend: goleveldb | memdb
	// * goleveldb (github.com/syndtr/goleveldb)
	//   - pure go
	//   - stable
	// * memdb
	//   - in-memory, contents are lost on restart
	//   - useful for testing and short lived pending followers
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`

	// Number of class hashes whose presence in the class store is cached
	ClassCacheSize int `mapstructure:"class-cache-size"`
}

// DefaultBaseConfig returns a default base configuration for a starknode node
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:        "starknode",
		LogLevel:       log.LogLevelInfo,
		LogFormat:      log.LogFormatPlain,
		DBBackend:      "goleveldb",
		DBPath:         defaultDataDir,
		ClassCacheSize: 4096,
	}
}

// TestBaseConfig returns a base configuration for testing a starknode node
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.Moniker = "test"
	cfg.DBBackend = "memdb"
	cfg.ClassCacheSize = 16
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatJSON, log.LogFormatText, log.LogFormatPlain:
	default:
		return errors.New("unknown log format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db-backend %q (must be 'goleveldb' or 'memdb')", cfg.DBBackend)
	}
	if cfg.ClassCacheSize <= 0 {
		return errors.New("class-cache-size must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// GatewayConfig

// GatewayConfig defines how the node reaches the sequencer's feeder gateway.
type GatewayConfig struct {
	// Base URL of the gateway, e.g. https://alpha-mainnet.starknet.io
	URL string `mapstructure:"url"`

	// Name of the chain served by the gateway (SN_MAIN, SN_GOERLI, ...)
	ChainID string `mapstructure:"chain-id"`

	// Timeout of a single HTTP request
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// Number of retries after the first failed attempt
	MaxRetries uint64 `mapstructure:"max-retries"`

	// Initial backoff between retries; doubles on every attempt
	RetryBackoff time.Duration `mapstructure:"retry-backoff"`

	// Upper bound of a single backoff
	MaxRetryBackoff time.Duration `mapstructure:"max-retry-backoff"`
}

// DefaultGatewayConfig returns a default configuration for the gateway client
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		URL:             "https://alpha-mainnet.starknet.io",
		ChainID:         types.Mainnet.String(),
		RequestTimeout:  30 * time.Second,
		MaxRetries:      10,
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 30 * time.Second,
	}
}

// TestGatewayConfig returns a gateway configuration for testing
func TestGatewayConfig() *GatewayConfig {
	cfg := DefaultGatewayConfig()
	cfg.URL = "http://127.0.0.1:9545"
	cfg.ChainID = types.Testnet.String()
	cfg.RequestTimeout = time.Second
	cfg.MaxRetries = 2
	cfg.RetryBackoff = 5 * time.Millisecond
	cfg.MaxRetryBackoff = 20 * time.Millisecond
	return cfg
}

// ChainIdentifier returns the felt encoding of ChainID.
func (cfg *GatewayConfig) ChainIdentifier() types.ChainID {
	return types.ChainIDFromName(cfg.ChainID)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *GatewayConfig) ValidateBasic() error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", cfg.URL)
	}
	if cfg.ChainID == "" {
		return errors.New("chain-id can't be empty")
	}
	if len(cfg.ChainID) >= types.FeltLength {
		return fmt.Errorf("chain-id %q must be shorter than %d bytes", cfg.ChainID, types.FeltLength)
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("request-timeout must be positive")
	}
	if cfg.RetryBackoff <= 0 {
		return errors.New("retry-backoff must be positive")
	}
	if cfg.MaxRetryBackoff < cfg.RetryBackoff {
		return errors.New("max-retry-backoff can't be less than retry-backoff")
	}
	return nil
}

//-----------------------------------------------------------------------------
// PendingSyncConfig

// PendingSyncConfig defines the configuration for following the sequencer's
// pending block.
type PendingSyncConfig struct {
	// Follow the pending block at all
	Enable bool `mapstructure:"enable"`

	// Delay between two polls of the pending block
	PollInterval time.Duration `mapstructure:"poll-interval"`

	// Upper bound on the pending state update query. When it elapses the poll
	// session ends without error.
	StateUpdateTimeout time.Duration `mapstructure:"state-update-timeout"`

	// Capacity of the pending event channel. A full channel blocks polling.
	EventBufferSize int `mapstructure:"event-buffer-size"`

	// Number of classes downloaded concurrently
	ClassFetchers int `mapstructure:"class-fetchers"`
}

// DefaultPendingSyncConfig returns a default configuration for pending sync
func DefaultPendingSyncConfig() *PendingSyncConfig {
	return &PendingSyncConfig{
		Enable:             true,
		PollInterval:       5 * time.Second,
		StateUpdateTimeout: DefaultStateUpdateTimeout,
		EventBufferSize:    1,
		ClassFetchers:      4,
	}
}

// TestPendingSyncConfig returns a pending sync configuration for testing
func TestPendingSyncConfig() *PendingSyncConfig {
	cfg := DefaultPendingSyncConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.StateUpdateTimeout = time.Second
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *PendingSyncConfig) ValidateBasic() error {
	if cfg.PollInterval < 0 {
		return errors.New("poll-interval can't be negative")
	}
	if cfg.StateUpdateTimeout <= 0 {
		return errors.New("state-update-timeout must be positive")
	}
	if cfg.EventBufferSize < 1 {
		return errors.New("event-buffer-size must be at least 1")
	}
	if cfg.ClassFetchers < 1 {
		return errors.New("class-fetchers must be at least 1")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "starknode",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
