package crfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
)

// fakeChainInfoStore satisfies the narrow slice of external.BlockStore
// NewDriver needs: Info() for the genesis round state.
type fakeChainInfoStore struct{ info external.ChainInfo }

func (f fakeChainInfoStore) Header(external.BlockID) (*chain.Header, bool)     { return nil, false }
func (f fakeChainInfoStore) Block(external.BlockID) (*chain.Block, bool)       { return nil, false }
func (f fakeChainInfoStore) Info() external.ChainInfo                         { return f.info }
func (f fakeChainInfoStore) BlockNumberFromID(external.BlockID) (uint64, bool) { return 0, false }
func (f fakeChainInfoStore) ImportNotifications() <-chan *chain.Header        { return nil }
func (f fakeChainInfoStore) AuxGet([]byte) ([]byte, bool)                     { return nil, false }
func (f fakeChainInfoStore) AuxPut([]byte, []byte) error                     { return nil }

// recordingVoterFactory records every NewVoter call's voters argument.
type recordingVoterFactory struct {
	calls []struct {
		round  uint64
		state  RoundState
		voters []chain.Authority
	}
}

func (f *recordingVoterFactory) NewVoter(round uint64, state RoundState, voters []chain.Authority) Voter {
	f.calls = append(f.calls, struct {
		round  uint64
		state  RoundState
		voters []chain.Authority
	}{round, state, voters})
	return noopVoter{}
}

type noopVoter struct{}

func (noopVoter) Poll() (bool, error) { return false, nil }

// TestDriverInstantiatesVoterWithGenesisAuthorities implements spec.md
// §4.6 step 1: a fresh Driver with no persisted AuthoritySet instantiates
// its first voter with the current (genesis) voter set, not an empty one.
func TestDriverInstantiatesVoterWithGenesisAuthorities(t *testing.T) {
	aux := newMemAux()
	store := NewStoreFromAux(aux)
	cmds := make(chan VoterCommand, 8)
	factory := &recordingVoterFactory{}

	genesisAuthorities := []chain.Authority{{ID: chain.AuthorityID{1}, Weight: 1}}
	d, err := NewDriver(store, factory, fakeChainInfoStore{}, cmds, genesisAuthorities)
	require.NoError(t, err)

	d.instantiateVoter()

	require.Len(t, factory.calls, 1)
	require.Equal(t, genesisAuthorities, factory.calls[0].voters)
}

// TestDriverChangeAuthoritiesThreadsNewVoterSet implements spec.md §4.6
// step 3: ChangeAuthorities must instantiate a fresh environment with the
// new authorities and set_id, not discard them.
func TestDriverChangeAuthoritiesThreadsNewVoterSet(t *testing.T) {
	aux := newMemAux()
	store := NewStoreFromAux(aux)
	cmds := make(chan VoterCommand, 8)
	factory := &recordingVoterFactory{}

	genesisAuthorities := []chain.Authority{{ID: chain.AuthorityID{1}, Weight: 1}}
	d, err := NewDriver(store, factory, fakeChainInfoStore{}, cmds, genesisAuthorities)
	require.NoError(t, err)
	d.instantiateVoter()

	newAuthorities := []chain.Authority{{ID: chain.AuthorityID{2}, Weight: 1}, {ID: chain.AuthorityID{3}, Weight: 1}}
	require.NoError(t, d.handleCommand(ChangeAuthorities{SetID: 7, Authorities: newAuthorities, CanonNumber: 110}))

	require.Equal(t, uint64(7), d.authSet.SetID)
	require.Equal(t, newAuthorities, d.authSet.Voters)

	require.Len(t, factory.calls, 2)
	require.Equal(t, newAuthorities, factory.calls[1].voters)
	require.Equal(t, uint64(0), factory.calls[1].round)
}

// TestDriverResumesPersistedAuthoritySet confirms a Driver constructed
// after ImportHook has already persisted a rotated authority set resumes
// from that set rather than genesis.
func TestDriverResumesPersistedAuthoritySet(t *testing.T) {
	aux := newMemAux()
	store := NewStoreFromAux(aux)
	persisted := &AuthoritySet{SetID: 3, Voters: []chain.Authority{{ID: chain.AuthorityID{9}, Weight: 1}}}
	require.NoError(t, store.StoreAuthoritySet(persisted))

	cmds := make(chan VoterCommand, 8)
	factory := &recordingVoterFactory{}
	d, err := NewDriver(store, factory, fakeChainInfoStore{}, cmds, nil)
	require.NoError(t, err)

	d.instantiateVoter()

	require.Len(t, factory.calls, 1)
	require.Equal(t, persisted.Voters, factory.calls[0].voters)
}
