package pendingsync

import (
	"fmt"

	"github.com/starknode/starknode/types"
)

// Head is the last trusted point of the chain a poll session extends.
type Head struct {
	BlockHash       types.BlockHash
	StateCommitment types.StateCommitment
}

func (h Head) String() string {
	return fmt.Sprintf("Head{%v %v}", h.BlockHash, h.StateCommitment)
}

// Verdict classifies a pending block and state update against a Head.
type Verdict uint8

const (
	// ResumeCurrentHead: the gateway echoes the head itself in the pending
	// slot. Nothing happened.
	ResumeCurrentHead Verdict = iota + 1
	// FinalizedBlockFound: a new finalized block replaced the pending block.
	FinalizedBlockFound
	// FinalizedStateFound: the pending block was finalized between the
	// block and the state update query.
	FinalizedStateFound
	// Disconnected: the pending view no longer extends the head, or its
	// state update could not be fetched in time.
	Disconnected
	// PendingExtension: block and state update both extend the head.
	PendingExtension
)

func (v Verdict) String() string {
	switch v {
	case ResumeCurrentHead:
		return "resume-current-head"
	case FinalizedBlockFound:
		return "finalized-block-found"
	case FinalizedStateFound:
		return "finalized-state-found"
	case Disconnected:
		return "disconnected"
	case PendingExtension:
		return "pending-extension"
	default:
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
}

// EvaluateBlock classifies block against head. decided is false only when
// block is pending and its parent is head, in which case the state update
// decides the verdict.
// An echoed head is recognized by its hash alone.
func EvaluateBlock(block types.MaybePendingBlock, head Head) (verdict Verdict, decided bool) {
	switch b := block.(type) {
	case *types.Block:
		if b.BlockHash == head.BlockHash {
			return ResumeCurrentHead, true
		}
		return FinalizedBlockFound, true
	case *types.PendingBlock:
		if b.ParentHash != head.BlockHash {
			return Disconnected, true
		}
		return PendingExtension, false
	default:
		panic(fmt.Sprintf("unexpected block type %T", block))
	}
}

// EvaluateStateUpdate classifies the state update of a pending block that
// extends head. A nil update means the query timed out.
func EvaluateStateUpdate(update types.MaybePendingStateUpdate, head Head) Verdict {
	switch u := update.(type) {
	case nil:
		return Disconnected
	case *types.StateUpdate:
		return FinalizedStateFound
	case *types.PendingStateUpdate:
		if u.OldRoot != head.StateCommitment {
			return Disconnected
		}
		return PendingExtension
	default:
		panic(fmt.Sprintf("unexpected state update type %T", update))
	}
}

// Evaluate classifies a block and the state update fetched after it. The
// update is ignored whenever the block alone decides the verdict.
func Evaluate(block types.MaybePendingBlock, update types.MaybePendingStateUpdate, head Head) Verdict {
	if verdict, decided := EvaluateBlock(block, head); decided {
		return verdict
	}
	return EvaluateStateUpdate(update, head)
}
