package types

import (
	"bytes"
	"fmt"
)

// The newtypes below embed Felt so that they share its encoding while
// keeping distinct identities in signatures.

// BlockHash identifies a finalized block.
type BlockHash struct{ Felt }

// StateCommitment is the global state root after a block.
type StateCommitment struct{ Felt }

// ClassHash identifies a declared contract class.
type ClassHash struct{ Felt }

// CompiledClassHash identifies the compiled (CASM) form of a Sierra class.
type CompiledClassHash struct{ Felt }

// ContractAddress is the address of a deployed contract.
type ContractAddress struct{ Felt }

// StorageAddress is a key in a contract's storage.
type StorageAddress struct{ Felt }

// StorageValue is a value in a contract's storage.
type StorageValue struct{ Felt }

// ContractNonce is a contract's nonce.
type ContractNonce struct{ Felt }

// SequencerAddress is the address of the block producer.
type SequencerAddress struct{ Felt }

// GasPrice is the L1 gas price quoted in a block, in wei.
type GasPrice struct{ Felt }

// ChainID is the felt encoding of a chain's ASCII name.
type ChainID struct{ Felt }

var (
	Mainnet     = ChainIDFromName("SN_MAIN")
	Testnet     = ChainIDFromName("SN_GOERLI")
	Integration = ChainIDFromName("SN_GOERLI2")
)

// ChainIDFromName encodes name as a felt. Names longer than 31 bytes panic.
func ChainIDFromName(name string) ChainID {
	if len(name) >= FeltLength {
		panic(fmt.Sprintf("chain name %q is too long", name))
	}
	return ChainID{MustFeltFromBytes([]byte(name))}
}

// String returns the ASCII name.
func (c ChainID) String() string {
	return string(bytes.TrimLeft(c.Felt[:], "\x00"))
}
