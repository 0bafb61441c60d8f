package crfg

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
)

// Voter is a single round's GRANDPA-style voting future. A real
// implementation drives prevote/precommit broadcast and commit assembly;
// this interface is the seam the Driver polls, per spec.md §9's
// "tasks-and-channels" realization of the voter loop.
type Voter interface {
	// Poll advances the voter by one step. done is true once the round has
	// concluded (spec.md §4.6 step 3: "voter concludes naturally ⇒
	// shutdown (unexpected)" — natural conclusion is not a normal outcome
	// for a live voter and is always treated as Driver shutdown).
	Poll() (done bool, err error)
}

// VoterFactory builds a Voter for round r starting from roundState, bound
// to the current voter set.
type VoterFactory interface {
	NewVoter(round uint64, roundState RoundState, voters []chain.Authority) Voter
}

// Driver is the CRFG Voter Driver of spec.md §4.6: the long-running loop
// owning (env, set_state, voter_commands_rx).
type Driver struct {
	store   *Store
	factory VoterFactory
	chain   external.BlockStore

	state   VoterSetState
	authSet AuthoritySet
	voter   Voter

	commands <-chan VoterCommand
}

// NewDriver constructs a Driver, resuming from the persisted VoterSetState
// and AuthoritySet, or starting Live(0, genesis) with genesisAuthorities if
// neither exists yet — mirroring NewImportHook's own independent load of
// the same persisted authority set (spec.md §3's single writer/many
// readers ownership rule: the hook writes, the Driver only ever reads a
// snapshot taken at the same points the hook's ChangeAuthorities commands
// mark a transition).
func NewDriver(store *Store, factory VoterFactory, bs external.BlockStore, commands <-chan VoterCommand, genesisAuthorities []chain.Authority) (*Driver, error) {
	state, ok, err := store.LoadVoterSetState()
	if err != nil {
		return nil, err
	}
	if !ok {
		info := bs.Info()
		genesis := Live(0, RoundState{FinalizedHash: info.GenesisHash, FinalizedNumber: 0})
		state = &genesis
		if err := store.StoreVoterSetState(*state); err != nil {
			return nil, err
		}
	}

	authSet, ok, err := store.LoadAuthoritySet()
	if err != nil {
		return nil, err
	}
	if !ok {
		authSet = &AuthoritySet{SetID: 0, Voters: genesisAuthorities}
	}

	return &Driver{store: store, factory: factory, chain: bs, state: *state, authSet: *authSet, commands: commands}, nil
}

// Run is the Driver's top-level loop (spec.md §4.6), selecting against
// onExit per spec.md §5's cancellation rule: observing completion
// persists the current voter set state before returning.
func (d *Driver) Run(onExit <-chan struct{}) error {
	d.instantiateVoter()

	for {
		// Paused, or no voter instantiated yet: only commands (and exit)
		// can make progress, so block on them rather than spin.
		if d.state.Status != VoterLive || d.voter == nil {
			select {
			case <-onExit:
				return d.store.StoreVoterSetState(d.state)
			case cmd, ok := <-d.commands:
				if !ok {
					return d.store.StoreVoterSetState(d.state)
				}
				if err := d.handleCommand(cmd); err != nil {
					return errors.Wrap(err, "crfg: voter driver fatal")
				}
			}
			continue
		}

		// Live: select on voter.Poll() vs voter_commands_rx, per spec.md
		// §4.6 step 3. Poll() is itself the suspension point — a real
		// voter implementation blocks inside Poll on network/timer
		// readiness rather than spinning.
		select {
		case <-onExit:
			return d.store.StoreVoterSetState(d.state)
		case cmd, ok := <-d.commands:
			if !ok {
				return d.store.StoreVoterSetState(d.state)
			}
			if err := d.handleCommand(cmd); err != nil {
				return errors.Wrap(err, "crfg: voter driver fatal")
			}
		default:
			done, err := d.voter.Poll()
			if err != nil {
				return errors.Wrap(err, "crfg: voter inner error")
			}
			if done {
				log.Warn("crfg: voter concluded naturally, shutting down driver")
				return d.store.StoreVoterSetState(d.state)
			}
		}
	}
}

func (d *Driver) instantiateVoter() {
	if d.state.Status != VoterLive {
		d.voter = nil
		return
	}
	d.voter = d.factory.NewVoter(d.state.RoundNumber, d.state.RoundState, d.authSet.Voters)
}

func (d *Driver) handleCommand(cmd VoterCommand) error {
	switch c := cmd.(type) {
	case ChangeAuthorities:
		// spec.md §4.6 step 3: a fresh environment with new.authorities,
		// set_id = new.set_id.
		d.authSet = AuthoritySet{SetID: c.SetID, Voters: c.Authorities}
		genesisState := RoundState{FinalizedHash: c.CanonHash, FinalizedNumber: c.CanonNumber}
		d.state = Live(0, genesisState)
		d.instantiateVoter()
	case Pause:
		d.state = Paused(d.state.RoundNumber, d.state.RoundState)
		d.voter = nil
		log.Info("crfg: voter paused", "reason", c.Reason)
	default:
		return errors.New("crfg: unknown voter command")
	}
	// Spec.md §4.6 step 4: every transition writes to durable aux store
	// atomically before continuing.
	return d.store.StoreVoterSetState(d.state)
}
