package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oldConfig = `# written by an older release
moniker = "old-node"
log_level = "debug"

[gateway]
# our own sequencer
url = "https://gateway.example"

[pending-sync]
poll_interval = "2s"
class_fetchers = 8
`

func TestUpgradeConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(oldConfig), 0600))

	require.NoError(t, UpgradeConfigFile(context.Background(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# our own sequencer")

	var upgraded struct {
		Moniker        string `toml:"moniker"`
		LogLevel       string `toml:"log-level"`
		ClassCacheSize int    `toml:"class-cache-size"`
		Gateway        struct {
			URL string `toml:"url"`
		} `toml:"gateway"`
		PendingSync struct {
			Enable             bool   `toml:"enable"`
			PollInterval       string `toml:"poll-interval"`
			StateUpdateTimeout string `toml:"state-update-timeout"`
			EventBufferSize    int    `toml:"event-buffer-size"`
			ClassFetchers      int    `toml:"class-fetchers"`
		} `toml:"pending-sync"`
	}
	_, err = toml.DecodeFile(path, &upgraded)
	require.NoError(t, err)

	// existing settings are kept
	assert.Equal(t, "old-node", upgraded.Moniker)
	assert.Equal(t, "debug", upgraded.LogLevel)
	assert.Equal(t, "https://gateway.example", upgraded.Gateway.URL)
	assert.Equal(t, "2s", upgraded.PendingSync.PollInterval)
	assert.Equal(t, 8, upgraded.PendingSync.ClassFetchers)

	// missing settings get their defaults
	defaults := DefaultConfig()
	assert.Equal(t, defaults.ClassCacheSize, upgraded.ClassCacheSize)
	assert.True(t, upgraded.PendingSync.Enable)
	assert.Equal(t, "3m0s", upgraded.PendingSync.StateUpdateTimeout)
	assert.Equal(t, defaults.PendingSync.EventBufferSize, upgraded.PendingSync.EventBufferSize)

	// upgrading twice changes nothing
	require.NoError(t, UpgradeConfigFile(context.Background(), path))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(again))
}

func TestUpgradeConfigFileAddsPendingSyncTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("moniker = \"old-node\"\n\n[gateway]\nchain-id = \"SN_GOERLI\"\n"), 0600))

	require.NoError(t, UpgradeConfigFile(context.Background(), path))

	var upgraded map[string]interface{}
	_, err := toml.DecodeFile(path, &upgraded)
	require.NoError(t, err)
	require.Contains(t, upgraded, "pending-sync")
	pending := upgraded["pending-sync"].(map[string]interface{})
	assert.Equal(t, "3m0s", pending["state-update-timeout"])
	assert.EqualValues(t, DefaultPendingSyncConfig().ClassFetchers, pending["class-fetchers"])
}

func TestUpgradeConfigFileRejectsInvalidResult(t *testing.T) {
	const invalid = "[pending-sync]\nclass_fetchers = 0\n"
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0600))

	err := UpgradeConfigFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending-sync")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, invalid, string(raw))
}
