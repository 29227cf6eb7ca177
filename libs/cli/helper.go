package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunWithArgs executes cmd with the given command line and environment. The
// process arguments and environment are restored afterwards.
func RunWithArgs(ctx context.Context, cmd *cobra.Command, args []string, env map[string]string) error {
	oargs := os.Args
	oenv := map[string]string{}
	unset := []string{}
	defer func() {
		os.Args = oargs
		for k, v := range oenv {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}()

	os.Args = args
	for k, v := range env {
		if old, ok := os.LookupEnv(k); ok {
			oenv[k] = old
		} else {
			unset = append(unset, k)
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}

	return RunWithTrace(ctx, cmd)
}

// RunWithTrace executes cmd. Errors are printed to stderr, with their full
// chain when the trace flag is set.
func RunWithTrace(ctx context.Context, cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	if err := cmd.ExecuteContext(ctx); err != nil {
		if viper.GetBool(TraceFlag) {
			fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		return err
	}
	return nil
}
