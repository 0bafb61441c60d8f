// Package yeeparams collects the genesis-loaded, chain-wide configuration
// every component in this repository is constructed from, the same role
// the teacher's params.OasysConfig plays for its engine (toml-tagged
// struct literal, loaded once at chain-spec parse time).
package yeeparams

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/yeeco/go-yee/consensus/crfg"
	"github.com/yeeco/go-yee/consensus/pow"
)

// ChainConfig is the genesis-defined, chain-wide configuration consumed at
// startup to construct the PoW engine, the CRFG gadget and the sharding
// layer. Individual components still take their own narrower Config
// (consensus/pow.Config, consensus/crfg.Config) — ChainConfig is the
// top-level record a chain-spec file deserializes into before those are
// derived from it, mirroring how the teacher's genesis extra-data decodes
// into params.OasysConfig before oasys.New derives engine-internal state.
type ChainConfig struct {
	ChainID *ChainID `toml:",omitempty"`

	// ShardCount is the initial number of shards in the cluster, used by
	// the foreign-network bridge to compute destination shards (spec.md
	// §4.8).
	ShardCount uint16

	// GenesisDifficulty, DifficultyAdj and TargetBlockTime seed the
	// runtime oracle's answers at the genesis block, before any runtime
	// state exists to override them (spec.md §6's RuntimeOracle).
	GenesisDifficulty uint64
	DifficultyAdj     uint64
	TargetBlockTimeMs uint64

	// GenesisCrfgAuthorities lists the initial CRFG authorities by address,
	// before any ScheduledChange/ForcedChange handoff. It carries neither
	// the BLS ids nor the weights of an AuthoritySet, and node.New does not
	// read it; the voter driver and import hook are seeded from
	// Deps.GenesisCrfgAuthorities.
	GenesisCrfgAuthorities []common.Address

	PoW  pow.Config
	Crfg crfg.Config
}

// ChainID names a deployment the way the teacher's params.ChainConfig does,
// without pulling in go-ethereum's EVM fork-schedule fields this chain has
// no use for (no smart-contract execution semantics, per spec.md's
// Non-goals).
type ChainID struct {
	Name    string
	Network uint64
}

// DefaultChainConfig mirrors the teacher's DefaultConfig pattern: sensible
// single-shard, single-authority development defaults, overridden entirely
// by a real chain-spec file in any deployed cluster.
var DefaultChainConfig = ChainConfig{
	ShardCount:        1,
	GenesisDifficulty: 1_000_000,
	DifficultyAdj:     4,
	TargetBlockTimeMs: 10_000,
	PoW:               pow.DefaultConfig,
	Crfg:              crfg.DefaultConfig,
}

// ApplyDefaults fills any zero-valued field of cfg from
// DefaultChainConfig, the same idiom as consensus/pow.ApplyDefaults.
func ApplyDefaults(cfg *ChainConfig) {
	if cfg.ShardCount == 0 {
		cfg.ShardCount = DefaultChainConfig.ShardCount
	}
	if cfg.GenesisDifficulty == 0 {
		cfg.GenesisDifficulty = DefaultChainConfig.GenesisDifficulty
	}
	if cfg.DifficultyAdj == 0 {
		cfg.DifficultyAdj = DefaultChainConfig.DifficultyAdj
	}
	if cfg.TargetBlockTimeMs == 0 {
		cfg.TargetBlockTimeMs = DefaultChainConfig.TargetBlockTimeMs
	}
	pow.ApplyDefaults(&cfg.PoW)
	if cfg.Crfg.GossipDuration == 0 {
		cfg.Crfg.GossipDuration = DefaultChainConfig.Crfg.GossipDuration
	}
	if cfg.Crfg.RoundTolerance == 0 {
		cfg.Crfg.RoundTolerance = DefaultChainConfig.Crfg.RoundTolerance
	}
}
