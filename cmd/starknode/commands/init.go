package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/libs/log"
)

// MakeInitCommand returns the command writing the default config file. An
// existing config file is upgraded in place instead.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initializes a starknode home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(cmd.Context(), conf, logger)
		},
	}
	return cmd
}

func initFiles(ctx context.Context, conf *config.Config, logger log.Logger) error {
	configFile := config.ConfigFilePath(conf.RootDir)

	if _, err := os.Stat(configFile); err == nil {
		if err := config.UpgradeConfigFile(ctx, configFile); err != nil {
			return err
		}
		logger.Info("upgraded existing config", "path", configFile)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}
	logger.Info("generated config", "path", configFile, "chain", conf.Gateway.ChainID)
	return nil
}
