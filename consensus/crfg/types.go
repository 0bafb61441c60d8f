package crfg

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/yeeco/go-yee/core/chain"
)

// Config is the CRFG engine's configuration, per the teacher's
// params.go-style tagged-struct convention.
type Config struct {
	// GossipDuration is how long a gossip round pump sleeps between pumps
	// (spec: 333ms). spec.md §9 flags this as an open question the source
	// leaves as a TODO for chain-spec configurability; we treat it as a
	// plain startup config value.
	GossipDuration uint64 `toml:",omitempty"` // milliseconds
	// RoundTolerance bounds how far a message's round may lag/lead before
	// being treated as expired (spec: 2).
	RoundTolerance uint64 `toml:",omitempty"`
}

// DefaultConfig mirrors spec.md's constants.
var DefaultConfig = Config{GossipDuration: 333, RoundTolerance: 2}

// RoundState is the GRANDPA round state a voter resumes from: the last
// completed round's finalized target.
type RoundState struct {
	FinalizedHash   common.Hash
	FinalizedNumber uint64
}

// VoterSetState is persisted atomically on every transition (spec.md §3);
// exactly one of Live/Paused is active, selected by Status.
type VoterSetState struct {
	Status      VoterStatus
	RoundNumber uint64
	RoundState  RoundState
}

// VoterStatus distinguishes a VoterSetState's Live/Paused variant.
type VoterStatus uint8

const (
	VoterLive VoterStatus = iota
	VoterPaused
)

// Live builds a Live(round, state) VoterSetState.
func Live(round uint64, state RoundState) VoterSetState {
	return VoterSetState{Status: VoterLive, RoundNumber: round, RoundState: state}
}

// Paused builds a Paused(round, state) VoterSetState.
func Paused(round uint64, state RoundState) VoterSetState {
	return VoterSetState{Status: VoterPaused, RoundNumber: round, RoundState: state}
}

// AuthoritySet is the ordered weighted voter set plus its monotonically
// increasing set id (spec.md §3).
type AuthoritySet struct {
	SetID     uint64
	Voters    []chain.Authority
	// Pending holds ScheduledChange handoffs not yet applied, each tagged
	// with the effective height at which it should fire.
	Pending []PendingChange
}

// PendingChange is a ScheduledChange or ForcedChange awaiting its effective
// height, queued by the CRFG Block-Import Hook (spec.md §4.5).
type PendingChange struct {
	NextAuthorities []chain.Authority
	Effective       uint64
	Forced          bool
	// CanonHash/CanonNumber are not filled in by the import hook; the
	// ChangeAuthorities command emitted when the change fires carries the
	// canon hash and number that seed the new voter generation's genesis
	// round-state.
	CanonHash   common.Hash
	CanonNumber uint64
}

// ConsensusChanges is the ordered pending-handoff-height log of spec.md §3,
// truncated when a handoff applies or its branch is pruned.
type ConsensusChanges struct {
	PendingHeights []uint64
}

// Note records a new pending height, keeping the log sorted.
func (c *ConsensusChanges) Note(height uint64) {
	i := 0
	for i < len(c.PendingHeights) && c.PendingHeights[i] < height {
		i++
	}
	if i < len(c.PendingHeights) && c.PendingHeights[i] == height {
		return
	}
	c.PendingHeights = append(c.PendingHeights, 0)
	copy(c.PendingHeights[i+1:], c.PendingHeights[i:])
	c.PendingHeights[i] = height
}

// Applied removes a height from the log once its handoff has fired.
func (c *ConsensusChanges) Applied(height uint64) {
	out := c.PendingHeights[:0]
	for _, h := range c.PendingHeights {
		if h != height {
			out = append(out, h)
		}
	}
	c.PendingHeights = out
}

// CrfgState is the read-only observability snapshot of spec.md §3.
type CrfgState struct {
	Config      Config
	SetID       uint64
	Voters      []chain.Authority
	SetStatus   VoterStatus
	PendingSkip bool
}

// VoterCommand is posted by the block-import hook to the voter driver
// through a bounded queue (spec.md §3, §4.5, §4.6).
type VoterCommand interface {
	isVoterCommand()
}

// ChangeAuthorities instructs the voter to tear down its current voter and
// start a fresh generation with new authorities.
type ChangeAuthorities struct {
	SetID       uint64
	Authorities []chain.Authority
	CanonHash   common.Hash
	CanonNumber uint64
}

func (ChangeAuthorities) isVoterCommand() {}

// Pause instructs the voter to persist Paused(...) and idle until the next
// command.
type Pause struct {
	Reason string
}

func (Pause) isVoterCommand() {}

// GossipMessageKind tags the two wire variants of spec.md §6's
// GossipMessage.
type GossipMessageKind uint8

const (
	GossipVoteOrPrecommit GossipMessageKind = iota
	GossipCommit
)

// GossipMessage is the codec-encoded envelope of spec.md §6, engine id
// "afg1".
type GossipMessage struct {
	Kind   GossipMessageKind
	Round  uint64
	SetID  uint64
	Vote   chain.SignedMessage // meaningful iff Kind == GossipVoteOrPrecommit
	Commit chain.CompactCommit // meaningful iff Kind == GossipCommit
}
