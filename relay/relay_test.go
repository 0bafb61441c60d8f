package relay

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func putCompact(buf []byte, v uint64) []byte {
	if v < 1<<6 {
		return append(buf, byte(v<<2))
	}
	if v < 1<<14 {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v<<2)|0b01)
		return append(buf, b...)
	}
	if v < 1<<30 {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v<<2)|0b10)
		return append(buf, b...)
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	n := 8
	for n > 1 && b[n-1] == 0 {
		n--
	}
	out := append(buf, byte((n-4)<<2)|0b11)
	return append(out, b[:n]...)
}

func buildOrigin(t *testing.T, relayType Type, signed bool, assetID *uint32, dest []byte, amount uint64) []byte {
	t.Helper()
	var body []byte
	body = putCompact(body, 0) // length prefix placeholder, unused by decode path under test directly

	var inner []byte
	version := byte(1)
	if signed {
		version |= 0b1000_0000
	}
	inner = append(inner, version)
	if signed {
		inner = append(inner, 0x00)                     // sender type tag
		inner = append(inner, make([]byte, 20)...)       // sender
		inner = append(inner, make([]byte, 64)...)       // signature
		inner = putCompact(inner, 7)                     // index
		inner = append(inner, 0x00)                       // immortal era tag
	}
	inner = append(inner, 0x05, 0x02) // module, function
	if relayType == TypeAssets {
		require.NotNil(t, assetID)
		inner = putCompact(inner, uint64(*assetID))
	}
	inner = append(inner, 0x00)   // dest type tag
	inner = append(inner, dest...)
	inner = putCompact(inner, amount)

	return append(body, inner...)
}

func buildRelay(t *testing.T, relayType Type, origin []byte, number uint64, blockHash, parentHash common.Hash) []byte {
	t.Helper()
	var buf []byte
	buf = putCompact(buf, 0) // outer length placeholder
	buf = append(buf, 0x01)  // version: unsigned, version=1
	buf = append(buf, 0x07, 0x03) // module, function
	buf = append(buf, byte(relayType))
	buf = putCompact(buf, uint64(len(origin)))
	buf = append(buf, origin...)
	buf = putCompact(buf, number)
	buf = append(buf, blockHash.Bytes()...)
	buf = append(buf, parentHash.Bytes()...)
	return buf
}

func TestDecodeRelayExtrinsicBalance(t *testing.T) {
	dest := make([]byte, 20)
	dest[0] = 0xAB
	origin := buildOrigin(t, TypeBalance, true, nil, dest, 1000)
	blockHash := common.HexToHash("0x01")
	parentHash := common.HexToHash("0x02")
	raw := buildRelay(t, TypeBalance, origin, 42, blockHash, parentHash)

	re, err := DecodeRelayExtrinsic(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(42), re.Number)
	require.Equal(t, blockHash, re.BlockHash)
	require.Equal(t, parentHash, re.ParentHash)
	require.Equal(t, TypeBalance, re.RelayType)
	require.Equal(t, crypto.Keccak256Hash(origin), re.OriginHash)

	oe, err := DecodeOriginExtrinsic(re.RelayType, re.Origin)
	require.NoError(t, err)
	require.Nil(t, oe.AssetID)
	require.Equal(t, uint64(1000), oe.Amount)
	require.Equal(t, dest, oe.Dest)
	require.Len(t, oe.Signature, 64)
}

func TestDecodeOriginExtrinsicAssets(t *testing.T) {
	dest := make([]byte, 20)
	dest[0] = 0xCD
	assetID := uint32(7)
	origin := buildOrigin(t, TypeAssets, false, &assetID, dest, 55)

	oe, err := DecodeOriginExtrinsic(TypeAssets, origin)
	require.NoError(t, err)
	require.NotNil(t, oe.AssetID)
	require.Equal(t, assetID, *oe.AssetID)
	require.Equal(t, uint64(55), oe.Amount)
	require.Empty(t, oe.Sender)
}

func TestDecodeRelayExtrinsicRejectsShort(t *testing.T) {
	_, err := DecodeRelayExtrinsic(make([]byte, minRelaySize-1))
	require.Error(t, err)
}

func TestDecodeRelayExtrinsicRejectsSigned(t *testing.T) {
	blockHash := common.HexToHash("0x01")
	parentHash := common.HexToHash("0x02")
	origin := buildOrigin(t, TypeBalance, true, nil, make([]byte, 20), 1)
	raw := buildRelay(t, TypeBalance, origin, 1, blockHash, parentHash)
	raw[1] = 0x81 // flip signed bit + version=1

	_, err := DecodeRelayExtrinsic(raw)
	require.Error(t, err)
}

func TestDecodeRelayExtrinsicRejectsBadVersion(t *testing.T) {
	blockHash := common.HexToHash("0x01")
	parentHash := common.HexToHash("0x02")
	origin := buildOrigin(t, TypeBalance, true, nil, make([]byte, 20), 1)
	raw := buildRelay(t, TypeBalance, origin, 1, blockHash, parentHash)
	raw[1] = 0x02 // version=2, unsigned

	_, err := DecodeRelayExtrinsic(raw)
	require.Error(t, err)
}

func TestDecodeRelayExtrinsicRejectsUnknownRelayType(t *testing.T) {
	blockHash := common.HexToHash("0x01")
	parentHash := common.HexToHash("0x02")
	origin := buildOrigin(t, TypeBalance, true, nil, make([]byte, 20), 1)
	raw := buildRelay(t, TypeBalance, origin, 1, blockHash, parentHash)
	raw[4] = 0x09 // relay_type byte offset: version,module,function,relay_type

	_, err := DecodeRelayExtrinsic(raw)
	require.Error(t, err)
}
