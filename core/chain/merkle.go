package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MerkleRoot builds a binary merkle root over leaves, duplicating the final
// leaf at each level when that level has an odd count (bitcoin-style). This
// is the commitment spec.md §3's Work.merkle_root binds a shard's pre-hash
// into, so one nonce search can be shared across every shard mined in a
// round (spec.md §4.3's multi-mining extension).
func MerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		level = merkleLevelUp(level)
	}
	return level[0]
}

// MerkleProof returns the sibling hashes needed to walk leaves[index] up to
// MerkleRoot(leaves), in bottom-up order. The companion to
// Work.merkle_proof.
func MerkleProof(leaves []common.Hash, index int) []common.Hash {
	level := append([]common.Hash(nil), leaves...)
	idx := index
	var proof []common.Hash
	for len(level) > 1 {
		if idx%2 == 0 {
			sibling := idx + 1
			if sibling >= len(level) {
				sibling = idx // odd leaf count: duplicate the lone leaf
			}
			proof = append(proof, level[sibling])
		} else {
			proof = append(proof, level[idx-1])
		}
		level = merkleLevelUp(level)
		idx /= 2
	}
	return proof
}

// VerifyMerkleProof reports whether leaf, at position index among the
// original leaves, reconstructs root when folded with proof.
func VerifyMerkleProof(leaf common.Hash, proof []common.Hash, index int, root common.Hash) bool {
	h := leaf
	idx := index
	for _, sib := range proof {
		if idx%2 == 0 {
			h = hashPair(h, sib)
		} else {
			h = hashPair(sib, h)
		}
		idx /= 2
	}
	return h == root
}

func merkleLevelUp(level []common.Hash) []common.Hash {
	next := make([]common.Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 < len(level) {
			next = append(next, hashPair(level[i], level[i+1]))
		} else {
			next = append(next, hashPair(level[i], level[i]))
		}
	}
	return next
}

func hashPair(a, b common.Hash) common.Hash {
	return crypto.Keccak256Hash(a[:], b[:])
}
