package network

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/sharding"
)

type fakeTransport struct {
	statusIn      chan InboundStatus
	extrinsicsIn  chan InboundExtrinsics
	sentStatus    []Status
	sentExtrinsic map[PeerID][]Extrinsics
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		statusIn:      make(chan InboundStatus, 8),
		extrinsicsIn:  make(chan InboundExtrinsics, 8),
		sentExtrinsic: make(map[PeerID][]Extrinsics),
	}
}

func (f *fakeTransport) StatusInbound() <-chan InboundStatus           { return f.statusIn }
func (f *fakeTransport) ExtrinsicsInbound() <-chan InboundExtrinsics   { return f.extrinsicsIn }
func (f *fakeTransport) SendStatus(id PeerID, s Status) error {
	f.sentStatus = append(f.sentStatus, s)
	return nil
}
func (f *fakeTransport) SendExtrinsics(id PeerID, e Extrinsics) error {
	f.sentExtrinsic[id] = append(f.sentExtrinsic[id], e)
	return nil
}

type fakePool struct {
	submitted []chain.Extrinsic
}

func (p *fakePool) SubmitOne(shard uint16, e chain.Extrinsic) error {
	p.submitted = append(p.submitted, e)
	return nil
}
func (p *fakePool) Futures(shard uint16) []chain.Extrinsic { return nil }
func (p *fakePool) Ready(shard uint16) []chain.Extrinsic   { return nil }

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
	for n > 4 && b[n-1] == 0 {
		n--
	}
	out := append(buf, byte((n-4)<<2)|0b11)
	return append(out, b[:n]...)
}

// buildRelayTo builds a well-formed relay extrinsic (with a signed origin,
// to comfortably clear the minimum framing size) whose decoded
// OriginExtrinsic.Dest is dest.
func buildRelayTo(dest []byte) []byte {
	var inner []byte
	inner = putCompact(inner, 0)               // inner length prefix (unused by decode)
	inner = append(inner, 0x81)                // signed, version=1
	inner = append(inner, 0x00)                // sender type tag
	inner = append(inner, make([]byte, 20)...) // sender
	inner = append(inner, make([]byte, 64)...) // signature
	inner = putCompact(inner, 7)               // index
	inner = append(inner, 0x00)                // immortal era tag
	inner = append(inner, 0x05, 0x02)          // module, function
	inner = append(inner, 0x00)                // dest type tag
	inner = append(inner, dest...)
	inner = putCompact(inner, 10) // amount

	var buf []byte
	buf = putCompact(buf, 0)      // outer length prefix (unused by decode)
	buf = append(buf, 0x01)       // version: unsigned, version=1
	buf = append(buf, 0x07, 0x03) // module, function
	buf = append(buf, byte(0))    // relay_type = Balance
	buf = putCompact(buf, uint64(len(inner)))
	buf = append(buf, inner...)
	buf = putCompact(buf, 1) // number
	buf = append(buf, common.HexToHash("0x01").Bytes()...)
	buf = append(buf, common.HexToHash("0x02").Bytes()...)
	return buf
}

// TestRelayRoutingToForeignShard implements spec.md §8 scenario 5: an
// extrinsic whose dest maps to a non-zero shard (the first one found for
// an 8-shard cluster) arrives at a node in shard 0, is forwarded over the
// foreign protocol only to peers with that shard_num, and is not submitted
// to the local pool.
func TestRelayRoutingToForeignShard(t *testing.T) {
	var dest [20]byte
	var shardCount uint16 = 8
	var destShard uint16
	for i := 0; i < 256; i++ {
		dest[0] = byte(i)
		if s := sharding.ComputeShard(dest[:], shardCount); s != 0 {
			destShard = s
			break
		}
	}
	require.NotEqual(t, uint16(0), destShard)

	transport := newFakeTransport()
	pool := &fakePool{}
	bridge := NewBridge(0, shardCount, Status{GenesisHash: common.HexToHash("0xg")}, transport, pool)
	bridge.peers.Add("peer-dest", Status{ShardNum: destShard, GenesisHash: common.HexToHash("0xg"), Version: 1, MinSupportedVersion: 1})
	bridge.peers.Add("peer-other", Status{ShardNum: destShard + 1, GenesisHash: common.HexToHash("0xg"), Version: 1, MinSupportedVersion: 1})

	raw := buildRelayTo(dest[:])
	require.NoError(t, bridge.RouteOutbound(raw, dest[:]))

	require.Len(t, transport.sentExtrinsic["peer-dest"], 1)
	require.Empty(t, transport.sentExtrinsic["peer-other"])
	require.Empty(t, pool.submitted)
}

func TestRelayRoutingToLocalShardSubmitsToPool(t *testing.T) {
	dest := make([]byte, 20)
	transport := newFakeTransport()
	pool := &fakePool{}
	bridge := NewBridge(0, 1, Status{GenesisHash: common.HexToHash("0xg")}, transport, pool)

	raw := buildRelayTo(dest)
	require.NoError(t, bridge.RouteOutbound(raw, dest))
	require.Len(t, pool.submitted, 1)
}

func TestInboundExtrinsicsRouteToLocalPoolOnly(t *testing.T) {
	dest := make([]byte, 20) // shard 0 under shardCount=1
	transport := newFakeTransport()
	pool := &fakePool{}
	bridge := NewBridge(0, 1, Status{GenesisHash: common.HexToHash("0xg")}, transport, pool)

	raw := buildRelayTo(dest)
	bridge.handleExtrinsics("peer-x", Extrinsics{Items: [][]byte{raw}})
	require.Len(t, pool.submitted, 1)
}

func TestStatusSubscriptionReceivesCompatiblePeers(t *testing.T) {
	transport := newFakeTransport()
	pool := &fakePool{}
	bridge := NewBridge(0, 4, Status{GenesisHash: common.HexToHash("0xg")}, transport, pool)

	sub := bridge.SubscribeStatus()
	bridge.handleStatus("peer-1", Status{ShardNum: 2, GenesisHash: common.HexToHash("0xg"), Version: 1, MinSupportedVersion: 1})

	select {
	case s := <-sub:
		require.Equal(t, uint16(2), s.ShardNum)
	case <-time.After(time.Second):
		t.Fatal("expected a status notification")
	}

	state := bridge.NetworkState()
	require.Equal(t, 1, state.PeerCount)
	require.Equal(t, 1, state.PeersByShard[2])
}

func TestIncompatibleGenesisDropped(t *testing.T) {
	transport := newFakeTransport()
	pool := &fakePool{}
	bridge := NewBridge(0, 4, Status{GenesisHash: common.HexToHash("0xg")}, transport, pool)

	bridge.handleStatus("peer-1", Status{ShardNum: 2, GenesisHash: common.HexToHash("0xbad"), Version: 1, MinSupportedVersion: 1})
	require.Equal(t, 0, bridge.peers.Len())
}
