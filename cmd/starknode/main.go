package main

import (
	"context"
	"os"

	"github.com/starknode/starknode/cmd/starknode/commands"
	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/libs/cli"
	"github.com/starknode/starknode/libs/log"
)

func main() {
	ctx := context.Background()

	conf := config.DefaultConfig()
	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		panic(err)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakePendingCommand(conf, logger),
		commands.VersionCmd,
	)

	if err := cli.RunWithTrace(ctx, rcmd); err != nil {
		os.Exit(1)
	}
}
