package crfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeeco/go-yee/core/chain"
)

// TestHandoff implements spec.md §8 scenario 4: a header at height 100
// carries ScheduledChange{authorities=A', delay=10}; finalizing height 110
// on that branch emits exactly one ChangeAuthorities(A', canon_number=110),
// incrementing set_id by 1. Resetting VoterSetState on that command is the
// voter Driver's job and is not checked here.
func TestHandoff(t *testing.T) {
	aux := newMemAux()
	store := NewStoreFromAux(aux)
	cmds := make(chan VoterCommand, 8)

	genesisAuthorities := []chain.Authority{{ID: chain.AuthorityID{1}, Weight: 1}}
	hook, err := NewImportHook(store, genesisAuthorities, cmds)
	require.NoError(t, err)

	newAuthorities := []chain.Authority{{ID: chain.AuthorityID{2}, Weight: 1}}
	h100 := &chain.Header{Number: 100}
	h100.Digest = append(h100.Digest, chain.NewScheduledChangeDigest(&chain.ScheduledChange{
		NextAuthorities: newAuthorities,
		DelayBlocks:     10,
	}))

	require.NoError(t, hook.OnImport(h100, false, 0))
	require.Len(t, cmds, 0, "handoff not yet reached; no command emitted")

	h110 := &chain.Header{Number: 110, ParentHash: h100.Hash()}
	require.NoError(t, hook.OnImport(h110, true, 110))

	require.Len(t, cmds, 1)
	cmd := (<-cmds).(ChangeAuthorities)
	require.Equal(t, uint64(1), cmd.SetID)
	require.Equal(t, uint64(110), cmd.CanonNumber)
	require.Equal(t, h110.Hash(), cmd.CanonHash)
	require.Equal(t, newAuthorities, cmd.Authorities)

	persisted, ok, err := store.LoadAuthoritySet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), persisted.SetID)
	require.Len(t, persisted.Pending, 0)
}
