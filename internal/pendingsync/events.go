package pendingsync

import "github.com/starknode/starknode/types"

// SyncEvent is published by the Poller on an EventSink.
type SyncEvent interface {
	syncEvent()
}

// PendingEvent carries a pending block together with its state update. Both
// extend the head of the session that published them.
type PendingEvent struct {
	Block       *types.PendingBlock
	StateUpdate *types.PendingStateUpdate
}

func (PendingEvent) syncEvent() {}
