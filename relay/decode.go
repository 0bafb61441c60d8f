package relay

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// minRelaySize is spec.md §4.8's reject threshold: 2 + 32 + 32 + 64.
const minRelaySize = 2 + 32 + 32 + 64

// DecodeRelayExtrinsic parses the raw bytes of a relay extrinsic per
// spec.md §4.8's wire layout:
//
//	[compact length][version byte][module u8][function u8]
//	[relay_type: {Balance|Assets}][origin: bytes]
//	[number: compact u64][block_hash: Hash][parent_hash: Hash]
//
// It rejects (returns an error, never panics) on any framing violation,
// matching the original source's total-on-well-formed-input /
// None-on-violation decode contract (spec.md §8 invariant 6).
func DecodeRelayExtrinsic(raw []byte) (*RelayExtrinsic, error) {
	if len(raw) < minRelaySize {
		return nil, errors.New("relay: extrinsic shorter than minimum framing size")
	}
	c := &cursor{b: raw}

	if _, err := c.readCompactU64(); err != nil { // outer length prefix
		return nil, errors.Wrap(err, "relay: outer length")
	}

	version, err := c.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "relay: version byte")
	}
	if version&0b1000_0000 != 0 {
		return nil, errors.New("relay: wrapping extrinsic must be unsigned")
	}
	if version&0b0111_1111 != 1 {
		return nil, errors.New("relay: unsupported extrinsic version")
	}

	if _, err := c.readByte(); err != nil { // module
		return nil, errors.Wrap(err, "relay: module byte")
	}
	if _, err := c.readByte(); err != nil { // function
		return nil, errors.Wrap(err, "relay: function byte")
	}

	relayTypeByte, err := c.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "relay: relay_type byte")
	}
	relayType := Type(relayTypeByte)
	if relayType != TypeBalance && relayType != TypeAssets {
		return nil, errors.New("relay: unknown relay_type")
	}

	origin, err := c.readCompactBytes()
	if err != nil {
		return nil, errors.Wrap(err, "relay: origin bytes")
	}

	number, err := c.readCompactU64()
	if err != nil {
		return nil, errors.Wrap(err, "relay: number")
	}
	blockHashBytes, err := c.readN(common.HashLength)
	if err != nil {
		return nil, errors.Wrap(err, "relay: block_hash")
	}
	parentHashBytes, err := c.readN(common.HashLength)
	if err != nil {
		return nil, errors.Wrap(err, "relay: parent_hash")
	}

	return &RelayExtrinsic{
		Number:     number,
		OriginHash: crypto.Keccak256Hash(origin),
		BlockHash:  common.BytesToHash(blockHashBytes),
		ParentHash: common.BytesToHash(parentHashBytes),
		RelayType:  relayType,
		Origin:     origin,
	}, nil
}

// DecodeOriginExtrinsic decodes the embedded origin transfer carried by a
// RelayExtrinsic, per spec.md §4.8/§3's OriginExtrinsic field list. relayType
// selects whether a leading compact asset_id is required.
func DecodeOriginExtrinsic(relayType Type, origin []byte) (*OriginExtrinsic, error) {
	c := &cursor{b: origin}

	if _, err := c.readCompactU64(); err != nil { // inner length prefix
		return nil, errors.Wrap(err, "relay: origin length")
	}

	version, err := c.readByte()
	if err != nil {
		return nil, errors.Wrap(err, "relay: origin version byte")
	}
	isSigned := version&0b1000_0000 != 0
	if version&0b0111_1111 != 1 {
		return nil, errors.New("relay: unsupported origin version")
	}

	out := &OriginExtrinsic{}
	if isSigned {
		if len(origin) < 64+1+1 {
			return nil, errors.New("relay: signed origin shorter than minimum framing size")
		}
		if _, err := c.readByte(); err != nil { // sender address type tag
			return nil, errors.Wrap(err, "relay: sender type byte")
		}
		sender, err := c.readN(common.AddressLength)
		if err != nil {
			return nil, errors.Wrap(err, "relay: sender")
		}
		out.Sender = sender

		sig, err := c.readN(64)
		if err != nil {
			return nil, errors.Wrap(err, "relay: signature")
		}
		out.Signature = sig

		index, err := c.readCompactU64()
		if err != nil {
			return nil, errors.Wrap(err, "relay: index")
		}
		out.Index = index

		eraTag, err := c.readByte()
		if err != nil {
			return nil, errors.Wrap(err, "relay: era tag")
		}
		if eraTag == 0 {
			out.Era = Era{0}
		} else {
			eraByte, err := c.readByte()
			if err != nil {
				return nil, errors.Wrap(err, "relay: mortal era byte")
			}
			out.Era = Era{eraTag, eraByte}
		}
	}

	if _, err := c.readByte(); err != nil { // module
		return nil, errors.Wrap(err, "relay: origin module byte")
	}
	if _, err := c.readByte(); err != nil { // function
		return nil, errors.Wrap(err, "relay: origin function byte")
	}

	if relayType == TypeAssets {
		id, err := c.readCompactU64()
		if err != nil {
			return nil, errors.Wrap(err, "relay: asset_id")
		}
		assetID := uint32(id)
		out.AssetID = &assetID
	}

	if _, err := c.readByte(); err != nil { // dest address type tag
		return nil, errors.Wrap(err, "relay: dest type byte")
	}
	dest, err := c.readN(common.AddressLength)
	if err != nil {
		return nil, errors.Wrap(err, "relay: dest")
	}
	out.Dest = dest

	amount, err := c.readCompactU64()
	if err != nil {
		return nil, errors.Wrap(err, "relay: amount")
	}
	out.Amount = amount

	return out, nil
}
