package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/starknode/starknode/config"
	gatewayhttp "github.com/starknode/starknode/gateway/http"
	"github.com/starknode/starknode/internal/pendingsync"
	"github.com/starknode/starknode/internal/store"
	"github.com/starknode/starknode/libs/log"
)

// MakePendingCommand returns the command following the gateway's pending
// block until interrupted.
func MakePendingCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Follow the sequencer's pending block",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runPending(ctx, conf, logger)
		},
	}

	cmd.Flags().String("gateway.url", conf.Gateway.URL, "feeder gateway base url")
	cmd.Flags().String("gateway.chain-id", conf.Gateway.ChainID, "chain id: SN_MAIN | SN_GOERLI | SN_GOERLI2")
	cmd.Flags().Duration("pending-sync.poll-interval", conf.PendingSync.PollInterval, "delay between two polls of the pending block")
	cmd.Flags().Duration("pending-sync.state-update-timeout", conf.PendingSync.StateUpdateTimeout,
		"give up on the pending state update after this long")
	cmd.Flags().String("db-backend", conf.DBBackend, "database backend: goleveldb | memdb")
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve prometheus metrics")
	return cmd
}

func runPending(ctx context.Context, conf *config.Config, logger log.Logger) error {
	if !conf.PendingSync.Enable {
		logger.Info("pending sync is disabled")
		return nil
	}

	var (
		chainID        = conf.Gateway.ChainIdentifier()
		gatewayMetrics = gatewayhttp.NopMetrics()
		pendingMetrics = pendingsync.NopMetrics()
	)
	if conf.Instrumentation.Prometheus {
		gatewayMetrics = gatewayhttp.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.Gateway.ChainID)
		pendingMetrics = pendingsync.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.Gateway.ChainID)

		srv := newMetricsServer(logger.With("module", "metrics"), conf.Instrumentation.PrometheusListenAddr)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if srv.IsRunning() {
				_ = srv.Stop()
			}
		}()
	}

	client, err := gatewayhttp.New(conf.Gateway, logger, gatewayMetrics)
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}

	db, err := config.DefaultDBProvider(&config.DBContext{ID: "classes", Config: conf})
	if err != nil {
		return fmt.Errorf("opening class database: %w", err)
	}
	classes, err := store.NewClassStore(db, conf.ClassCacheSize)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer classes.Close() //nolint:errcheck

	poller := pendingsync.NewPoller(logger, conf.PendingSync, client, classes, chainID, pendingMetrics)
	reactor := pendingsync.NewReactor(logger.With("module", "pending-reactor"), conf.PendingSync, poller, pendingsync.NewGatewayHeadSource(client))
	if err := reactor.Start(ctx); err != nil {
		return fmt.Errorf("starting pending sync: %w", err)
	}
	logger.Info("following pending block", "gateway", client.String(), "chain", chainID)

	for {
		select {
		case handoff := <-reactor.Handoffs():
			logHandoff(logger, handoff)
		case <-ctx.Done():
			reactor.Wait()
			logger.Info("stopped following pending block")
			return nil
		}
	}
}

func logHandoff(logger log.Logger, handoff pendingsync.Handoff) {
	switch {
	case handoff.Err != nil:
		logger.Error("pending session failed", "head", handoff.Head.BlockHash, "err", handoff.Err)
	case handoff.Block != nil:
		logger.Info("finalized block ready for sync",
			"number", handoff.Block.BlockNumber, "hash", handoff.Block.BlockHash)
	case handoff.StateUpdate != nil:
		logger.Info("finalized state update ready for sync",
			"hash", handoff.StateUpdate.BlockHash, "new_root", handoff.StateUpdate.NewRoot)
	default:
		logger.Debug("pending block moved on", "head", handoff.Head.BlockHash)
	}
}
