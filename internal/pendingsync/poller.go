package pendingsync

import (
	"context"
	"errors"
	"time"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/gateway"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/types"
)

// session exit reasons, used as metric label
const (
	exitFinalizedBlock = "finalized_block"
	exitFinalizedState = "finalized_state"
	exitDisconnected   = "disconnected"
	exitTimeout        = "timeout"
	exitFailed         = "failed"
	exitCancelled      = "cancelled"
)

var (
	errNoBlock       = errors.New("gateway returned neither block nor error")
	errNoStateUpdate = errors.New("gateway returned neither state update nor error")
)

// Poller runs poll sessions against the gateway's pending block. A Poller
// holds no session state and may run several sessions, one at a time or
// concurrently.
type Poller struct {
	logger  log.Logger
	cfg     *config.PendingSyncConfig
	client  gateway.Client
	classes *ClassDownloader
	chainID types.ChainID
	metrics *Metrics
}

// NewPoller returns a Poller following the pending block of chainID through
// client. Classes referenced by pending state are persisted in store.
func NewPoller(
	logger log.Logger,
	cfg *config.PendingSyncConfig,
	client gateway.Client,
	store ClassStore,
	chainID types.ChainID,
	metrics *Metrics,
) *Poller {
	logger = logger.With("module", "pending-sync", "chain", chainID)
	return &Poller{
		logger:  logger,
		cfg:     cfg,
		client:  client,
		classes: NewClassDownloader(logger, client, store, cfg.ClassFetchers, metrics),
		chainID: chainID,
		metrics: metrics,
	}
}

// Poll publishes the pending block and its state update on sink for as long
// as they extend head, waiting PollInterval between two cycles.
//
// It returns the finalized block or the finalized state update that ended
// the session, or neither if the pending view disconnected from head or the
// state update query timed out. Any other failure is returned as a
// *PhaseError. When ctx ends, Poll returns ctx.Err() without publishing.
func (p *Poller) Poll(ctx context.Context, sink EventSink, head Head) (*types.Block, *types.StateUpdate, error) {
	logger := p.logger.With("head", head.BlockHash)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, p.cancelled(err)
		}
		p.metrics.Cycles.Add(1)

		maybeBlock, err := p.client.Block(ctx, gateway.Pending)
		if err == nil && maybeBlock == nil {
			err = errNoBlock
		}
		if err != nil {
			return nil, nil, p.fail(ctx, PhaseBlock, err)
		}

		verdict, decided := EvaluateBlock(maybeBlock, head)
		if decided {
			switch verdict {
			case ResumeCurrentHead:
				// the gateway keeps serving the last finalized block as
				// pending for a while after it was finalized
				logger.Debug("found current head in pending slot")
				p.metrics.StaleEchoes.Add(1)
				if err := sleep(ctx, p.cfg.PollInterval); err != nil {
					return nil, nil, p.cancelled(err)
				}
				continue
			case FinalizedBlockFound:
				block := maybeBlock.(*types.Block)
				logger.Debug("found finalized block, leaving pending mode", "hash", block.BlockHash)
				p.exit(exitFinalizedBlock)
				return block, nil, nil
			default:
				logger.Debug("pending block does not extend head, leaving pending mode",
					"parent", maybeBlock.(*types.PendingBlock).ParentHash)
				p.exit(exitDisconnected)
				return nil, nil, nil
			}
		}
		block := maybeBlock.(*types.PendingBlock)

		maybeUpdate, err := p.pendingStateUpdate(ctx)
		if err != nil {
			return nil, nil, p.fail(ctx, PhaseStateUpdate, err)
		}

		switch EvaluateStateUpdate(maybeUpdate, head) {
		case FinalizedStateFound:
			update := maybeUpdate.(*types.StateUpdate)
			logger.Debug("found finalized state update, leaving pending mode", "hash", update.BlockHash)
			p.exit(exitFinalizedState)
			return nil, update, nil
		case Disconnected:
			if maybeUpdate == nil {
				logger.Debug("pending state update timed out, leaving pending mode",
					"timeout", p.cfg.StateUpdateTimeout)
				p.exit(exitTimeout)
				return nil, nil, nil
			}
			logger.Debug("pending state update does not extend head, leaving pending mode",
				"old_root", maybeUpdate.(*types.PendingStateUpdate).OldRoot)
			p.exit(exitDisconnected)
			return nil, nil, nil
		}
		update := maybeUpdate.(*types.PendingStateUpdate)

		if _, err := p.classes.Download(ctx, &update.StateDiff); err != nil {
			return nil, nil, p.fail(ctx, PhaseClasses, err)
		}

		if err := ctx.Err(); err != nil {
			return nil, nil, p.cancelled(err)
		}
		if err := sink.Send(ctx, PendingEvent{Block: block, StateUpdate: update}); err != nil {
			return nil, nil, p.fail(ctx, PhasePublish, err)
		}
		p.metrics.PendingEvents.Add(1)
		p.metrics.PendingTransactions.Set(float64(len(block.Transactions)))

		if err := sleep(ctx, p.cfg.PollInterval); err != nil {
			return nil, nil, p.cancelled(err)
		}
	}
}

// pendingStateUpdate queries the pending state update, giving up after
// StateUpdateTimeout. A nil update without error means the query timed out.
// The query is abandoned on timeout even if the client ignores ctx.
func (p *Poller) pendingStateUpdate(ctx context.Context) (types.MaybePendingStateUpdate, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		update types.MaybePendingStateUpdate
		err    error
	}
	resultCh := make(chan result, 1)
	start := time.Now()

	go func() {
		update, err := p.client.StateUpdate(ctx, gateway.Pending)
		if err == nil && update == nil {
			err = errNoStateUpdate
		}
		resultCh <- result{update, err}
	}()

	timer := time.NewTimer(p.cfg.StateUpdateTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		p.metrics.StateUpdateSeconds.Observe(time.Since(start).Seconds())
		return res.update, res.err
	case <-timer.C:
		p.metrics.StateUpdateSeconds.Observe(time.Since(start).Seconds())
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Poller) exit(reason string) {
	p.metrics.SessionExits.With("reason", reason).Add(1)
}

// fail wraps err into a PhaseError, unless it was caused by ctx ending.
func (p *Poller) fail(ctx context.Context, phase Phase, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return p.cancelled(ctxErr)
	}
	p.exit(exitFailed)
	return &PhaseError{Phase: phase, Err: err}
}

func (p *Poller) cancelled(err error) error {
	p.exit(exitCancelled)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
