package relay

import "github.com/ethereum/go-ethereum/common"

// Type distinguishes the two relay extrinsic payload shapes of spec.md §3.
type Type uint8

const (
	TypeBalance Type = iota
	TypeAssets
)

func (t Type) String() string {
	if t == TypeAssets {
		return "Assets"
	}
	return "Balance"
}

// Era is carried verbatim from the origin extrinsic's signed prefix; this
// repository never interprets mortal-era birth/death bounds (that is the
// runtime's job), so it is kept as opaque codec bytes.
type Era []byte

// OriginExtrinsic is the embedded, possibly-signed transfer decoded from a
// relay extrinsic's origin bytes, per spec.md §3/§4.8.
type OriginExtrinsic struct {
	AssetID   *uint32 // set iff the wrapping RelayExtrinsic.RelayType == TypeAssets
	Sender    []byte  // empty when unsigned
	Signature []byte  // 64 bytes, empty when unsigned
	Index     uint64
	Era       Era
	Dest      []byte
	Amount    uint64
}

// RelayExtrinsic is a fully decoded relay transaction, per spec.md §3: "a
// number, origin_hash, block_hash, parent_hash, relay_type, raw origin
// bytes".
type RelayExtrinsic struct {
	Number     uint64
	OriginHash common.Hash
	BlockHash  common.Hash
	ParentHash common.Hash
	RelayType  Type
	Origin     []byte
}
