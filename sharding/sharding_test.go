package sharding

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/yeeco/go-yee/core/chain"
)

func TestComputeShardDeterministic(t *testing.T) {
	dest := common.HexToAddress("0xabc").Bytes()
	a := ComputeShard(dest, 8)
	b := ComputeShard(dest, 8)
	require.Equal(t, a, b)
	require.Less(t, a, uint16(8))
}

func TestComputeShardZeroCount(t *testing.T) {
	require.Equal(t, uint16(0), ComputeShard([]byte{1, 2, 3}, 0))
}

// TestRestartOnScaleOut implements spec.md §8 scenario 6: node shard_num=0
// and a coinbase that routes to a non-zero shard under 8-shard sharding.
// After the configured trigger block, the restarter emits Restart.
func TestRestartOnScaleOut(t *testing.T) {
	var coinbase common.Address
	// Find a coinbase whose ComputeShard(., 8) != 0, to exercise the
	// "routes to a different shard" branch deterministically.
	for i := 0; i < 256; i++ {
		coinbase[0] = byte(i)
		if ComputeShard(coinbase.Bytes(), 8) != 0 {
			break
		}
	}
	require.NotEqual(t, uint16(0), ComputeShard(coinbase.Bytes(), 8))

	var gotShard uint16
	var gotSignal Signal
	trigger := func(newShardNum uint16) Signal {
		gotShard = newShardNum
		gotSignal = SignalRestart
		return SignalRestart
	}

	r := NewRestarter(coinbase, 0, &ScaleOut{NewShardCount: 8, TriggerBlock: 1000}, trigger)

	require.Equal(t, SignalNone, r.Observe(&chain.Header{Number: 500}))
	sig := r.Observe(&chain.Header{Number: 1000})
	require.Equal(t, SignalRestart, sig)
	require.Equal(t, gotSignal, sig)
	require.Equal(t, ComputeShard(coinbase.Bytes(), 8), gotShard)

	// Fires only once.
	require.Equal(t, SignalNone, r.Observe(&chain.Header{Number: 1001}))
}

func TestRestarterStopsWhenShardUnchanged(t *testing.T) {
	var coinbase common.Address
	for i := 0; i < 256; i++ {
		coinbase[0] = byte(i)
		if ComputeShard(coinbase.Bytes(), 4) == 0 {
			break
		}
	}
	require.Equal(t, uint16(0), ComputeShard(coinbase.Bytes(), 4))

	r := NewRestarter(coinbase, 0, &ScaleOut{NewShardCount: 4, TriggerBlock: 10}, nil)
	sig := r.Observe(&chain.Header{Number: 10})
	require.Equal(t, SignalStop, sig)
}
