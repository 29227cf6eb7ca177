package types

import (
	"encoding/json"
	"fmt"
)

// BlockStatus is the gateway's view of a block's finality.
type BlockStatus string

const (
	BlockStatusPending      BlockStatus = "PENDING"
	BlockStatusAcceptedOnL2 BlockStatus = "ACCEPTED_ON_L2"
	BlockStatusAcceptedOnL1 BlockStatus = "ACCEPTED_ON_L1"
	BlockStatusReverted     BlockStatus = "REVERTED"
	BlockStatusAborted      BlockStatus = "ABORTED"
)

// Block is a block the gateway considers final enough to carry a hash.
type Block struct {
	BlockHash           BlockHash         `json:"block_hash"`
	BlockNumber         uint64            `json:"block_number"`
	ParentBlockHash     BlockHash         `json:"parent_block_hash"`
	StateCommitment     StateCommitment   `json:"state_root"`
	Status              BlockStatus       `json:"status"`
	Timestamp           uint64            `json:"timestamp"`
	GasPrice            *GasPrice         `json:"gas_price,omitempty"`
	SequencerAddress    *SequencerAddress `json:"sequencer_address,omitempty"`
	StarknetVersion     string            `json:"starknet_version,omitempty"`
	Transactions        []json.RawMessage `json:"transactions"`
	TransactionReceipts []json.RawMessage `json:"transaction_receipts"`
}

// PendingBlock is the sequencer's tentative next block. It has no hash and is
// identified only by the hash of its parent.
type PendingBlock struct {
	ParentHash          BlockHash         `json:"parent_block_hash"`
	Status              BlockStatus       `json:"status"`
	Timestamp           uint64            `json:"timestamp"`
	GasPrice            GasPrice          `json:"gas_price"`
	SequencerAddress    SequencerAddress  `json:"sequencer_address"`
	StarknetVersion     string            `json:"starknet_version,omitempty"`
	Transactions        []json.RawMessage `json:"transactions"`
	TransactionReceipts []json.RawMessage `json:"transaction_receipts"`
}

// MaybePendingBlock is either a *Block or a *PendingBlock.
type MaybePendingBlock interface {
	maybePendingBlock()
}

func (*Block) maybePendingBlock()        {}
func (*PendingBlock) maybePendingBlock() {}

// DecodeMaybePendingBlock decodes a gateway block reply. Replies without a
// block hash are pending blocks.
func DecodeMaybePendingBlock(data []byte) (MaybePendingBlock, error) {
	var probe struct {
		BlockHash *BlockHash `json:"block_hash"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding block: %w", err)
	}

	if probe.BlockHash == nil {
		pending := new(PendingBlock)
		if err := json.Unmarshal(data, pending); err != nil {
			return nil, fmt.Errorf("decoding pending block: %w", err)
		}
		return pending, nil
	}

	block := new(Block)
	if err := json.Unmarshal(data, block); err != nil {
		return nil, fmt.Errorf("decoding block: %w", err)
	}
	return block, nil
}
