package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Work is the mining job description of spec.md §3: everything a miner
// needs to search a nonce for one shard of a multi-mining round and fold
// its result back into a Seal. When ShardCount is 1, MerkleRoot equals
// PreHash and MerkleProof is empty — the plain single-shard case.
type Work struct {
	PreHash     common.Hash // this shard's own candidate header pre-hash, the merkle leaf
	Difficulty  *big.Int    // this shard's own recomputed target
	ExtraData   []byte
	MerkleRoot  common.Hash
	MerkleProof []common.Hash
	ShardNum    uint16
	ShardCount  uint16
}

// BuildWorks assembles one Work per leaf, committing every leaf into a
// shared MerkleRoot via MerkleProof. leaves and difficulties must be
// parallel slices indexed by shardNums.
func BuildWorks(leaves []common.Hash, difficulties []*big.Int, shardNums []uint16, extraData []byte) []Work {
	root := MerkleRoot(leaves)
	works := make([]Work, len(leaves))
	for i := range leaves {
		works[i] = Work{
			PreHash:     leaves[i],
			Difficulty:  difficulties[i],
			ExtraData:   extraData,
			MerkleRoot:  root,
			MerkleProof: MerkleProof(leaves, i),
			ShardNum:    shardNums[i],
			ShardCount:  uint16(len(leaves)),
		}
	}
	return works
}

// HardestDifficulty returns the smallest (i.e. hardest-to-satisfy) target
// among difficulties, the single threshold a shared multi-mining nonce
// search must clear so every shard's own, possibly easier, target is
// satisfied too.
func HardestDifficulty(difficulties []*big.Int) *big.Int {
	hardest := difficulties[0]
	for _, d := range difficulties[1:] {
		if d.Cmp(hardest) < 0 {
			hardest = d
		}
	}
	return hardest
}
