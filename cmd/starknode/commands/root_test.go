package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/libs/cli"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/version"
)

// writeConfigVals writes a toml file with the given values.
// It returns an error if writing was impossible.
func writeConfigVals(dir string, vals map[string]string) error {
	data := ""
	for k, v := range vals {
		data += fmt.Sprintf("%s = \"%s\"\n", k, v)
	}
	cfile := filepath.Join(dir, "config.toml")
	return os.WriteFile(cfile, []byte(data), 0600)
}

// clearConfig clears env vars, the given root dir, and resets viper.
func clearConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	require.NoError(t, os.Unsetenv("SNHOME"))
	require.NoError(t, os.Unsetenv("SN_HOME"))
	require.NoError(t, os.RemoveAll(dir))

	viper.Reset()
	conf := config.DefaultConfig()
	conf.SetRoot(dir)

	return conf
}

// testRootCmd returns a root command with a subcommand doing nothing, so
// that the persistent pre-run of the root command is executed.
func testRootCmd(conf *config.Config) *cobra.Command {
	cmd := RootCommand(conf, log.NewNopLogger())
	cmd.AddCommand(&cobra.Command{
		Use:  "noop",
		RunE: func(*cobra.Command, []string) error { return nil },
	})
	return cmd
}

func testSetup(ctx context.Context, t *testing.T, conf *config.Config, args []string, env map[string]string) error {
	t.Helper()

	cmd := testRootCmd(conf)
	args = append([]string{cmd.Use, "noop"}, args...)
	return cli.RunWithArgs(ctx, cmd, args, env)
}

func TestRootHome(t *testing.T) {
	root := t.TempDir()
	flagRoot := filepath.Join(root, "flag")
	envRoot := filepath.Join(root, "env")

	cases := []struct {
		args []string
		env  map[string]string
		root string
	}{
		{[]string{"--home", flagRoot}, nil, flagRoot},
		{nil, map[string]string{"SNHOME": envRoot}, envRoot},
		{nil, map[string]string{"SN_HOME": envRoot}, envRoot},
		{[]string{"--home", flagRoot}, map[string]string{"SN_HOME": envRoot}, flagRoot},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			conf := clearConfig(t, tc.root)

			err := testSetup(ctx, t, conf, tc.args, tc.env)
			require.NoError(t, err)

			require.Equal(t, tc.root, conf.RootDir)
			assert.DirExists(t, filepath.Join(tc.root, "config"))
			assert.DirExists(t, filepath.Join(tc.root, "data"))
		})
	}
}

func TestRootFlagsEnv(t *testing.T) {
	defaults := config.DefaultConfig()
	defaultDir := t.TempDir()

	cases := []struct {
		args     []string
		env      map[string]string
		logLevel string
	}{
		{[]string{"--home", defaultDir}, nil, defaults.LogLevel},
		{[]string{"--home", defaultDir, "--log-level", "debug"}, nil, "debug"},
		{[]string{"--home", defaultDir}, map[string]string{"SN_LOG_LEVEL": "error"}, "error"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			conf := clearConfig(t, defaultDir)

			err := testSetup(ctx, t, conf, tc.args, tc.env)
			require.NoError(t, err)

			assert.Equal(t, tc.logLevel, conf.LogLevel)
		})
	}
}

func TestRootConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nonDefaultLogLvl := "debug"
	cvals := map[string]string{
		"log-level": nonDefaultLogLvl,
	}

	cases := []struct {
		args   []string
		logLvl string
	}{
		{nil, nonDefaultLogLvl},                // should load config
		{[]string{"--log-level=info"}, "info"}, // flag over rides
	}

	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			root := t.TempDir()
			conf := clearConfig(t, root)

			configDir := filepath.Join(root, "config")
			require.NoError(t, os.MkdirAll(configDir, 0700))
			require.NoError(t, writeConfigVals(configDir, cvals))

			err := testSetup(ctx, t, conf, append([]string{"--home", root}, tc.args...), nil)
			require.NoError(t, err)

			require.Equal(t, tc.logLvl, conf.LogLevel)
		})
	}
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	root := t.TempDir()
	conf := clearConfig(t, root)

	configDir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"),
		[]byte("[pending-sync]\nclass-fetchers = 0\n"), 0600))

	err := testSetup(context.Background(), t, conf, []string{"--home", root}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending-sync")
}

func TestInitWritesConfig(t *testing.T) {
	root := t.TempDir()
	conf := clearConfig(t, root)

	cmd := RootCommand(conf, log.NewNopLogger())
	cmd.AddCommand(MakeInitCommand(conf, log.NewNopLogger()))
	err := cli.RunWithArgs(context.Background(), cmd,
		[]string{cmd.Use, "init", "--home", root, "--log-level", "debug"}, nil)
	require.NoError(t, err)

	var written map[string]interface{}
	_, err = toml.DecodeFile(config.ConfigFilePath(root), &written)
	require.NoError(t, err)
	assert.Equal(t, "debug", written["log-level"])
	assert.Contains(t, written, "pending-sync")
	assert.Contains(t, written, "gateway")
}

func TestInitUpgradesExistingConfig(t *testing.T) {
	root := t.TempDir()
	conf := clearConfig(t, root)

	configDir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	require.NoError(t, os.WriteFile(config.ConfigFilePath(root),
		[]byte("moniker = \"kept\"\n\n[pending-sync]\nclass-fetchers = 9\n"), 0600))

	cmd := RootCommand(conf, log.NewNopLogger())
	cmd.AddCommand(MakeInitCommand(conf, log.NewNopLogger()))
	require.NoError(t, cli.RunWithArgs(context.Background(), cmd,
		[]string{cmd.Use, "init", "--home", root}, nil))

	var written struct {
		Moniker     string `toml:"moniker"`
		PendingSync struct {
			ClassFetchers      int    `toml:"class-fetchers"`
			StateUpdateTimeout string `toml:"state-update-timeout"`
		} `toml:"pending-sync"`
	}
	_, err := toml.DecodeFile(config.ConfigFilePath(root), &written)
	require.NoError(t, err)
	assert.Equal(t, "kept", written.Moniker)
	assert.Equal(t, 9, written.PendingSync.ClassFetchers)
	assert.Equal(t, "3m0s", written.PendingSync.StateUpdateTimeout)
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	VersionCmd.SetOut(&out)
	t.Cleanup(func() { VersionCmd.SetOut(nil) })

	cmd := RootCommand(config.DefaultConfig(), log.NewNopLogger())
	cmd.AddCommand(VersionCmd)
	require.NoError(t, cli.RunWithArgs(context.Background(), cmd, []string{cmd.Use, "version"}, nil))
	assert.Equal(t, version.Version, strings.TrimSpace(out.String()))
}
