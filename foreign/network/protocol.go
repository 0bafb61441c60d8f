// Package network implements the foreign-network bridge: a second P2P
// stack, tagged with its own protocol id, that carries relay extrinsics
// between shards (spec.md §4.9).
package network

import "github.com/ethereum/go-ethereum/common"

// ProtocolID is the foreign protocol's wire identifier, per spec.md §6.
const ProtocolID = "/yee-foreign/1.0.0"

// ProtocolVersion is this node's foreign-wire version.
const ProtocolVersion = 1

// MinSupportedVersion is the oldest foreign-wire version this node accepts
// from a peer's Status message.
const MinSupportedVersion = 1

// Status is exchanged by both sides immediately after a foreign-protocol
// connection is established, per spec.md §4.9/§6.
type Status struct {
	Version             uint32
	MinSupportedVersion uint32
	BestNumber          uint64
	BestHash            common.Hash
	GenesisHash         common.Hash
	ShardNum            uint16
}

// Extrinsics carries a batch of relay-extrinsic wire bytes, per spec.md §6's
// "Extrinsics(Vec<Extrinsic>)".
type Extrinsics struct {
	Items [][]byte
}

// Compatible reports whether a remote Status is speaking a foreign-wire
// version this node can interoperate with.
func (s Status) Compatible(local Status) bool {
	if s.GenesisHash != local.GenesisHash {
		return false
	}
	if s.Version < local.MinSupportedVersion {
		return false
	}
	if local.Version < s.MinSupportedVersion {
		return false
	}
	return true
}
