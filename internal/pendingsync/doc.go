/*
Package pendingsync follows the sequencer's pending block.

The sequencer publishes a tentative next block, the pending block, together
with its state diff long before the block is finalized. A Poller repeatedly
fetches both from the gateway and publishes them as PendingEvents for as long
as they extend a fixed Head:

	pending.ParentHash == head.BlockHash && pendingStateUpdate.OldRoot == head.StateCommitment

Before an event is published every class the state diff references is
downloaded and persisted, so a consumer never observes a pending state whose
classes are unknown locally.

A poll session ends as soon as the pending view no longer extends the head.
Poll then returns either the finalized block or the finalized state update it
observed, which the caller hands to regular block sync, or neither when the
pending view simply moved on. A session also ends without error when the
pending state update cannot be fetched within the configured timeout, since
the gateway is known to stall on this query while it computes the pending
state root.

The head is never advanced within a session. Following a chain of pending
blocks requires a new session per head, which is what the Reactor does.
*/
package pendingsync
