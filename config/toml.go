package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/creachadair/atomicfile"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate").Funcs(template.FuncMap{
		"StringsJoin": strings.Join,
	})
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist,
// and returns the first error encountered.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return fmt.Errorf("could not create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConfigFilePath returns the location of config.toml under rootDir.
func ConfigFilePath(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it to
// config/config.toml under rootDir. This function is called by
// cmd/starknode/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFilePath(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all. The file is replaced atomically.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	if _, err := atomicfile.WriteAll(path, &buffer, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// WriteDefaultConfigFileIfNone writes the default configuration unless a
// config file already exists under rootDir.
func WriteDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := ConfigFilePath(rootDir)
	if _, err := os.Stat(configFilePath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return WriteConfigFile(rootDir, DefaultConfig())
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/starknode/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.starknode" by default, but could be changed via $SNHOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Database backend: goleveldb | memdb
# * goleveldb (github.com/syndtr/goleveldb)
#   - pure go
#   - stable
# * memdb
#   - in-memory, contents are lost on restart
db-backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db-dir = "{{ js .BaseConfig.DBPath }}"

# Output level for logging, including package level options
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

# Number of class hashes whose presence in the class store is cached
class-cache-size = {{ .BaseConfig.ClassCacheSize }}

#######################################################################
###                 Advanced Configuration Options                  ###
#######################################################################

#######################################################
###            Gateway Configuration Options        ###
#######################################################
[gateway]

# Base URL of the sequencer's feeder gateway
url = "{{ .Gateway.URL }}"

# Name of the chain served by the gateway (SN_MAIN, SN_GOERLI, ...)
chain-id = "{{ .Gateway.ChainID }}"

# Timeout of a single HTTP request
request-timeout = "{{ .Gateway.RequestTimeout }}"

# Number of retries after the first failed attempt. Only transport errors,
# 429 and 5xx responses are retried.
max-retries = {{ .Gateway.MaxRetries }}

# Initial backoff between retries; doubles on every attempt
retry-backoff = "{{ .Gateway.RetryBackoff }}"

# Upper bound of a single backoff
max-retry-backoff = "{{ .Gateway.MaxRetryBackoff }}"

#######################################################
###          Pending Sync Configuration Options     ###
#######################################################
[pending-sync]

# Follow the sequencer's pending block
enable = {{ .PendingSync.Enable }}

# Delay between two polls of the pending block
poll-interval = "{{ .PendingSync.PollInterval }}"

# Upper bound on the pending state update query. The gateway may stall on this
# query while it computes the pending state root; when the timeout elapses the
# node falls back to regular sync.
state-update-timeout = "{{ .PendingSync.StateUpdateTimeout }}"

# Capacity of the pending event channel. A slow consumer blocks polling once
# the channel is full.
event-buffer-size = {{ .PendingSync.EventBufferSize }}

# Number of classes downloaded concurrently
class-fetchers = {{ .PendingSync.ClassFetchers }}

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
