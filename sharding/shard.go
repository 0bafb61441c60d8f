// Package sharding implements the destination-shard primitive used by the
// relay pipeline (spec.md §4.8) and the scale-out restart trigger (§4.10).
package sharding

import "github.com/ethereum/go-ethereum/crypto"

// ComputeShard maps dest onto one of shardCount shards, per spec.md §4.8:
// "destination shard is computed from the first bytes of dest via the
// sharding primitive." Hashing the full address (rather than truncating its
// raw bytes) keeps the distribution uniform across shardCount regardless of
// any structure in dest (e.g. vanity or sequential addresses).
func ComputeShard(dest []byte, shardCount uint16) uint16 {
	if shardCount == 0 {
		return 0
	}
	h := crypto.Keccak256(dest)
	v := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return uint16(v % uint32(shardCount))
}
