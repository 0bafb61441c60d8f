package crfg

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// memAux is a minimal in-memory external.BlockStore stub exercising only
// the Aux{Get,Put} surface Store needs, the same lightweight-fake style the
// teacher's own tests use.
type memAux struct {
	kv map[string][]byte
}

func newMemAux() *memAux { return &memAux{kv: map[string][]byte{}} }

func (m *memAux) AuxGet(key []byte) ([]byte, bool) { v, ok := m.kv[string(key)]; return v, ok }
func (m *memAux) AuxPut(key, value []byte) error   { m.kv[string(key)] = value; return nil }

// TestVoterSetStatePersistenceRoundTrip implements spec.md §8 invariant 5:
// load(store(set_state)) = set_state for all valid VoterSetState values.
func TestVoterSetStatePersistenceRoundTrip(t *testing.T) {
	cases := []VoterSetState{
		Live(0, RoundState{FinalizedHash: common.HexToHash("0x01"), FinalizedNumber: 0}),
		Live(7, RoundState{FinalizedHash: common.HexToHash("0xaa"), FinalizedNumber: 42}),
		Paused(3, RoundState{FinalizedHash: common.HexToHash("0xbb"), FinalizedNumber: 9}),
	}

	for _, want := range cases {
		aux := newMemAux()
		store := NewStoreFromAux(aux)
		require.NoError(t, store.StoreVoterSetState(want))

		got, ok, err := store.LoadVoterSetState()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, *got)
	}
}

func TestAuthoritySetPersistenceRoundTrip(t *testing.T) {
	aux := newMemAux()
	store := NewStoreFromAux(aux)

	_, ok, err := store.LoadAuthoritySet()
	require.NoError(t, err)
	require.False(t, ok, "no authority set persisted yet")

	want := &AuthoritySet{SetID: 3, Voters: nil}
	require.NoError(t, store.StoreAuthoritySet(want))

	got, ok, err := store.LoadAuthoritySet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.SetID, got.SetID)
}
