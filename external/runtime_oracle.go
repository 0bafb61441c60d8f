// Package external declares the narrow Go interfaces the core consensus
// engine consumes but never implements: the runtime-API oracle, the block
// store, and the transaction pool. Concrete implementations (WASM runtime,
// chain database, libp2p transport) live outside this repository's scope.
package external

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yeeco/go-yee/core/chain"
)

// BlockID identifies a header either by hash or by number within a shard.
// Exactly one of Hash/Number is meaningful, selected by HashSet.
type BlockID struct {
	Hash    common.Hash
	Number  uint64
	HashSet bool
}

// BlockIDHash builds a BlockID selecting by hash.
func BlockIDHash(h common.Hash) BlockID { return BlockID{Hash: h, HashSet: true} }

// BlockIDNumber builds a BlockID selecting by number.
func BlockIDNumber(n uint64) BlockID { return BlockID{Number: n} }

// RuntimeOracle is the runtime-API query surface consumed by the difficulty
// engine and the CRFG block-import hook, per spec.md §6.
type RuntimeOracle interface {
	GenesisDifficulty(at BlockID) (*big.Int, error)
	DifficultyAdj(at BlockID) (uint64, error)
	TargetBlockTime(at BlockID) (uint64, error)
	CrfgAuthorities(at BlockID) ([]chain.Authority, error)
}

// ChainInfo summarizes a block store's current view of one shard's chain.
type ChainInfo struct {
	BestHash        common.Hash
	BestNumber      uint64
	FinalizedHash   common.Hash
	FinalizedNumber uint64
	GenesisHash     common.Hash
}

// BlockStore is the backing header/block database consumed by every
// component in this repository. It is never implemented here.
type BlockStore interface {
	Header(id BlockID) (*chain.Header, bool)
	Block(id BlockID) (*chain.Block, bool)
	Info() ChainInfo
	BlockNumberFromID(id BlockID) (uint64, bool)

	// ImportNotifications returns a channel on which every newly imported
	// header is published exactly once, in import order.
	ImportNotifications() <-chan *chain.Header

	// Aux is an atomic key/value store for persisted aux keys (spec §6):
	// "authority_set", "voter_set_state", "consensus_changes", "set_id".
	AuxGet(key []byte) ([]byte, bool)
	AuxPut(key, value []byte) error
}

// TxPool is the inbound/outbound extrinsic queue consumed by the relay
// pipeline and the miner's proposer.
type TxPool interface {
	SubmitOne(shard uint16, extrinsic chain.Extrinsic) error
	Futures(shard uint16) []chain.Extrinsic
	Ready(shard uint16) []chain.Extrinsic
}

// Proposer builds a candidate block body for a given parent header, bounded
// by the caller's context deadline (spec §4.3: "bounded time 10s").
type Proposer interface {
	Propose(ctx context.Context, parent *chain.Header, shard uint16) (*chain.Body, error)
}

// Clock is an injectable time source, per spec.md §9's open question on
// making the verifier's timestamp check deterministic under test.
type Clock interface {
	NowMs() uint64
}
