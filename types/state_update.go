package types

import (
	"encoding/json"
	"fmt"
)

// StateUpdate is the state delta of a finalized block.
type StateUpdate struct {
	BlockHash BlockHash       `json:"block_hash"`
	NewRoot   StateCommitment `json:"new_root"`
	OldRoot   StateCommitment `json:"old_root"`
	StateDiff StateDiff       `json:"state_diff"`
}

// PendingStateUpdate is the state delta of the pending block. It only knows
// the commitment it claims to extend.
type PendingStateUpdate struct {
	OldRoot   StateCommitment `json:"old_root"`
	StateDiff StateDiff       `json:"state_diff"`
}

// MaybePendingStateUpdate is either a *StateUpdate or a *PendingStateUpdate.
type MaybePendingStateUpdate interface {
	maybePendingStateUpdate()
}

func (*StateUpdate) maybePendingStateUpdate()        {}
func (*PendingStateUpdate) maybePendingStateUpdate() {}

// StateDiff lists the storage, contract and class changes of a block.
type StateDiff struct {
	StorageDiffs         map[ContractAddress][]StorageDiff `json:"storage_diffs"`
	Nonces               map[ContractAddress]ContractNonce `json:"nonces"`
	DeployedContracts    []DeployedContract                `json:"deployed_contracts"`
	OldDeclaredContracts []ClassHash                       `json:"old_declared_contracts"`
	DeclaredClasses      []DeclaredSierraClass             `json:"declared_classes"`
	ReplacedClasses      []ReplacedClass                   `json:"replaced_classes"`
}

type StorageDiff struct {
	Key   StorageAddress `json:"key"`
	Value StorageValue   `json:"value"`
}

type DeployedContract struct {
	Address   ContractAddress `json:"address"`
	ClassHash ClassHash       `json:"class_hash"`
}

type DeclaredSierraClass struct {
	ClassHash         ClassHash         `json:"class_hash"`
	CompiledClassHash CompiledClassHash `json:"compiled_class_hash"`
}

type ReplacedClass struct {
	Address   ContractAddress `json:"address"`
	ClassHash ClassHash       `json:"class_hash"`
}

// DecodeMaybePendingStateUpdate decodes a gateway state update reply. Replies
// without a block hash are pending state updates.
func DecodeMaybePendingStateUpdate(data []byte) (MaybePendingStateUpdate, error) {
	var probe struct {
		BlockHash *BlockHash `json:"block_hash"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding state update: %w", err)
	}

	if probe.BlockHash == nil {
		pending := new(PendingStateUpdate)
		if err := json.Unmarshal(data, pending); err != nil {
			return nil, fmt.Errorf("decoding pending state update: %w", err)
		}
		return pending, nil
	}

	update := new(StateUpdate)
	if err := json.Unmarshal(data, update); err != nil {
		return nil, fmt.Errorf("decoding state update: %w", err)
	}
	return update, nil
}
