package pendingsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/starknode/starknode/config"
	"github.com/starknode/starknode/gateway"
	"github.com/starknode/starknode/libs/log"
	"github.com/starknode/starknode/libs/service"
	"github.com/starknode/starknode/types"
)

var _ service.Service = (*Reactor)(nil)

// HeadSource provides the head a new poll session extends.
type HeadSource interface {
	Head(ctx context.Context) (Head, error)
}

// GatewayHeadSource uses the gateway's latest finalized block as head.
type GatewayHeadSource struct {
	client gateway.Client
}

var _ HeadSource = (*GatewayHeadSource)(nil)

func NewGatewayHeadSource(client gateway.Client) *GatewayHeadSource {
	return &GatewayHeadSource{client: client}
}

func (s *GatewayHeadSource) Head(ctx context.Context) (Head, error) {
	maybeBlock, err := s.client.Block(ctx, gateway.Latest)
	if err != nil {
		return Head{}, fmt.Errorf("fetching latest block: %w", err)
	}
	block, ok := maybeBlock.(*types.Block)
	if !ok {
		return Head{}, fmt.Errorf("latest block is %T, not a finalized block", maybeBlock)
	}
	return Head{BlockHash: block.BlockHash, StateCommitment: block.StateCommitment}, nil
}

// PendingData holds the pending block and state update last published for
// the current head. It is safe for concurrent use.
type PendingData struct {
	mtx         sync.RWMutex
	head        Head
	block       *types.PendingBlock
	stateUpdate *types.PendingStateUpdate
}

// Get returns the current pending block and state update together with the
// head they extend. ok is false if there is no pending data.
func (pd *PendingData) Get() (head Head, block *types.PendingBlock, update *types.PendingStateUpdate, ok bool) {
	pd.mtx.RLock()
	defer pd.mtx.RUnlock()
	return pd.head, pd.block, pd.stateUpdate, pd.block != nil
}

func (pd *PendingData) set(head Head, ev PendingEvent) {
	pd.mtx.Lock()
	defer pd.mtx.Unlock()
	pd.head, pd.block, pd.stateUpdate = head, ev.Block, ev.StateUpdate
}

func (pd *PendingData) clear() {
	pd.mtx.Lock()
	defer pd.mtx.Unlock()
	pd.head, pd.block, pd.stateUpdate = Head{}, nil, nil
}

// Handoff is the outcome of a poll session. Block or StateUpdate is set when
// the session ended on finalized data, Err when it failed.
type Handoff struct {
	Head        Head
	Block       *types.Block
	StateUpdate *types.StateUpdate
	Err         error
}

// Reactor keeps following the pending block. It runs one poll session after
// the other, each against a fresh head, and exposes the pending data of the
// running session. Every session outcome is reported on Handoffs, which must
// be drained.
type Reactor struct {
	service.BaseService
	logger log.Logger

	cfg     *config.PendingSyncConfig
	poller  *Poller
	heads   HeadSource
	pending *PendingData

	handoffs chan Handoff

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReactor returns a new Reactor running sessions of poller against heads
// provided by heads.
func NewReactor(
	logger log.Logger,
	cfg *config.PendingSyncConfig,
	poller *Poller,
	heads HeadSource,
) *Reactor {
	r := &Reactor{
		logger:   logger,
		cfg:      cfg,
		poller:   poller,
		heads:    heads,
		pending:  &PendingData{},
		handoffs: make(chan Handoff, 1),
		done:     make(chan struct{}),
	}
	r.BaseService = *service.NewBaseService(logger, "PendingSync", r)
	return r
}

// OnStart starts the session loop. It stops when ctx ends or the Reactor is
// stopped.
func (r *Reactor) OnStart(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.run(ctx)
	return nil
}

// OnStop stops the session loop and waits for it to exit.
func (r *Reactor) OnStop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Pending returns the pending data of the running session.
func (r *Reactor) Pending() *PendingData {
	return r.pending
}

// Handoffs returns the channel session outcomes are reported on.
func (r *Reactor) Handoffs() <-chan Handoff {
	return r.handoffs
}

func (r *Reactor) run(ctx context.Context) {
	defer close(r.done)

	for {
		head, err := r.heads.Head(ctx)
		if err == nil {
			err = r.session(ctx, head)
		} else if ctx.Err() == nil {
			r.logger.Error("failed to obtain head", "err", err)
			err = r.report(ctx, Handoff{Err: err})
		}
		if err != nil || ctx.Err() != nil {
			return
		}

		if err := sleep(ctx, r.cfg.PollInterval); err != nil {
			return
		}
	}
}

// session runs one poll session against head and reports its outcome. It
// only fails when ctx ends.
func (r *Reactor) session(ctx context.Context, head Head) error {
	logger := r.logger.With("head", head.BlockHash)
	logger.Debug("starting pending session")

	sink := NewEventChannel(r.cfg.EventBufferSize)
	defer sink.Close()

	var (
		handoff  = Handoff{Head: head}
		pollDone = make(chan struct{})
	)
	go func() {
		defer close(pollDone)
		handoff.Block, handoff.StateUpdate, handoff.Err = r.poller.Poll(ctx, sink, head)
	}()

	for {
		select {
		case ev := <-sink.Events():
			if pending, ok := ev.(PendingEvent); ok {
				r.pending.set(head, pending)
				logger.Debug("pending data updated", "txs", len(pending.Block.Transactions))
			}
		case <-pollDone:
			r.pending.clear()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch {
			case handoff.Err != nil:
				logger.Error("pending session failed", "err", handoff.Err)
			case handoff.Block != nil:
				logger.Info("pending session ended on finalized block",
					"hash", handoff.Block.BlockHash, "number", handoff.Block.BlockNumber)
			case handoff.StateUpdate != nil:
				logger.Info("pending session ended on finalized state update", "hash", handoff.StateUpdate.BlockHash)
			default:
				logger.Debug("pending session disconnected")
			}
			return r.report(ctx, handoff)
		}
	}
}

func (r *Reactor) report(ctx context.Context, handoff Handoff) error {
	select {
	case r.handoffs <- handoff:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
