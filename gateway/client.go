package gateway

import (
	"context"
	"strconv"

	"github.com/starknode/starknode/types"
)

//go:generate ../scripts/mockery_generate.sh Client

// Client provides the sequencer's view of the chain. Implementations may
// retry internally; errors they return are final.
type Client interface {
	// Block returns the block at id. For Pending the reply is a
	// *types.PendingBlock, or a *types.Block when the gateway echoes a
	// finalized block in the pending slot.
	Block(ctx context.Context, id BlockID) (types.MaybePendingBlock, error)

	// StateUpdate returns the state update at id, either a *types.StateUpdate
	// or a *types.PendingStateUpdate.
	StateUpdate(ctx context.Context, id BlockID) (types.MaybePendingStateUpdate, error)

	// Class returns the raw definition of the class as known at id.
	// ErrNotFound is returned for undeclared classes.
	Class(ctx context.Context, hash types.ClassHash, id BlockID) ([]byte, error)

	// CompiledClass returns the raw CASM of a Sierra class as known at id.
	CompiledClass(ctx context.Context, hash types.ClassHash, id BlockID) ([]byte, error)
}

type blockIDKind uint8

const (
	blockIDPending blockIDKind = iota
	blockIDLatest
	blockIDNumber
	blockIDHash
)

// BlockID selects a block on the gateway. The zero value is Pending.
type BlockID struct {
	kind   blockIDKind
	number uint64
	hash   types.BlockHash
}

var (
	// Pending is the sequencer's tentative next block.
	Pending = BlockID{kind: blockIDPending}
	// Latest is the most recent finalized block.
	Latest = BlockID{kind: blockIDLatest}
)

// Number selects a block by height.
func Number(n uint64) BlockID { return BlockID{kind: blockIDNumber, number: n} }

// Hash selects a block by hash.
func Hash(h types.BlockHash) BlockID { return BlockID{kind: blockIDHash, hash: h} }

// IsPending reports whether id is Pending.
func (id BlockID) IsPending() bool { return id.kind == blockIDPending }

// QueryParam returns the feeder gateway query parameter selecting id.
func (id BlockID) QueryParam() (key, value string) {
	switch id.kind {
	case blockIDLatest:
		return "blockNumber", "latest"
	case blockIDNumber:
		return "blockNumber", strconv.FormatUint(id.number, 10)
	case blockIDHash:
		return "blockHash", id.hash.Hex()
	default:
		return "blockNumber", "pending"
	}
}

func (id BlockID) String() string {
	_, v := id.QueryParam()
	return v
}
