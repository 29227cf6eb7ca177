package pendingsync

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/starknode/starknode/types"
)

func TestEvaluate(t *testing.T) {
	otherHash := types.BlockHash{Felt: types.MustFeltFromHex("0xdead")}
	otherRoot := types.StateCommitment{Felt: types.MustFeltFromBytes([]byte("other root"))}

	staleBlock := &types.Block{BlockHash: testHead.BlockHash}
	disconnectedBlock := &types.PendingBlock{ParentHash: otherHash}
	disconnectedUpdate := &types.PendingStateUpdate{OldRoot: otherRoot}

	testCases := map[string]struct {
		block    types.MaybePendingBlock
		update   types.MaybePendingStateUpdate
		expected Verdict
	}{
		"full block is head":              {staleBlock, nil, ResumeCurrentHead},
		"full block is new":               {nextBlock, nil, FinalizedBlockFound},
		"pending block on other parent":   {disconnectedBlock, pendingDiff, Disconnected},
		"finalized state update":          {pendingBlock, nextStateUpdate, FinalizedStateFound},
		"pending state update other root": {pendingBlock, disconnectedUpdate, Disconnected},
		"pending extension":               {pendingBlock, pendingDiff, PendingExtension},
		"state update timed out":          {pendingBlock, nil, Disconnected},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Evaluate(tc.block, tc.update, testHead))
		})
	}
}

func TestEvaluateBlockDecides(t *testing.T) {
	_, decided := EvaluateBlock(pendingBlock, testHead)
	assert.False(t, decided)

	for _, block := range []types.MaybePendingBlock{
		nextBlock,
		&types.Block{BlockHash: testHead.BlockHash},
		&types.PendingBlock{ParentHash: nextBlock.BlockHash},
	} {
		_, decided := EvaluateBlock(block, testHead)
		assert.True(t, decided, "%T", block)
	}

	assert.Panics(t, func() { EvaluateBlock(nil, testHead) })
}

func TestPendingExtensionNeedsBothLinks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		head := Head{
			BlockHash:       types.BlockHash{Felt: drawFelt(t, "head hash")},
			StateCommitment: types.StateCommitment{Felt: drawFelt(t, "head root")},
		}
		block := &types.PendingBlock{ParentHash: types.BlockHash{Felt: drawFelt(t, "parent")}}
		update := &types.PendingStateUpdate{OldRoot: types.StateCommitment{Felt: drawFelt(t, "old root")}}

		extends := block.ParentHash == head.BlockHash && update.OldRoot == head.StateCommitment
		if got := Evaluate(block, update, head); (got == PendingExtension) != extends {
			t.Fatalf("verdict %v for parent linked %v and root linked %v", got,
				block.ParentHash == head.BlockHash, update.OldRoot == head.StateCommitment)
		}
	})
}

func TestFullBlockNeverExtends(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		head := Head{BlockHash: types.BlockHash{Felt: drawFelt(t, "head")}}
		block := &types.Block{BlockHash: types.BlockHash{Felt: drawFelt(t, "hash")}}

		verdict, decided := EvaluateBlock(block, head)
		if !decided {
			t.Fatalf("full block left undecided")
		}
		if (verdict == ResumeCurrentHead) != (block.BlockHash == head.BlockHash) {
			t.Fatalf("verdict %v for hash %v and head %v", verdict, block.BlockHash, head.BlockHash)
		}
	})
}

// drawFelt draws from a small range so that generated values collide often.
func drawFelt(t *rapid.T, label string) types.Felt {
	return feltFromUint64(rapid.Uint64Range(0, 3).Draw(t, label).(uint64))
}

func feltFromUint64(n uint64) types.Felt {
	var f types.Felt
	binary.BigEndian.PutUint64(f[types.FeltLength-8:], n)
	return f
}
