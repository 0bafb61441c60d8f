package crfg

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/yeeco/go-yee/core/chain"
)

// Decision classifies an inbound gossip message, per spec.md §4.7.
type Decision uint8

const (
	Valid Decision = iota
	Invalid
	Expired
)

// Validator is the CRFG Gossip Validator of spec.md §4.7: it classifies
// inbound finality messages as valid/expired/invalid using round/set
// windows, and tracks which topics are still "live" for the network layer
// to keep forwarding, the same live-topic-set role the teacher's gossip
// code gives an in-memory set (here backed by golang-set/v2, the pack's
// generic set implementation, rather than a hand-rolled map[common.Hash]struct{}).
type Validator struct {
	tolerance uint64

	setID        uint64
	minLiveRound uint64
	maxRound     uint64

	liveTopics mapset.Set[common.Hash]
}

// NewValidator constructs a Validator for the given starting set id.
func NewValidator(tolerance uint64, setID uint64) *Validator {
	return &Validator{
		tolerance:  tolerance,
		setID:      setID,
		liveTopics: mapset.NewSet[common.Hash](),
	}
}

// TopicMessage returns topic_msg = H(fmt("{set}-{round}")), per spec.md
// §4.7.
func TopicMessage(setID, round uint64) common.Hash {
	return hashTopic(fmt.Sprintf("%d-%d", setID, round))
}

// TopicCommit returns topic_commit = H(fmt("{set}-COMMITS")).
func TopicCommit(setID uint64) common.Hash {
	return hashTopic(fmt.Sprintf("%d-COMMITS", setID))
}

func hashTopic(s string) (h common.Hash) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(s))
	hasher.(crypto.KeccakState).Read(h[:])
	return h
}

// ValidateVoteOrPrecommit classifies a VoteOrPrecommit message per the
// decision table of spec.md §4.7, verifying the embedded signature on a
// Valid candidate.
func (v *Validator) ValidateVoteOrPrecommit(round, setID uint64, msg chain.SignedMessage) (Decision, common.Hash) {
	d := v.classify(round, setID)
	if d == Expired {
		return Expired, common.Hash{}
	}
	ok, err := VerifySignature(msg.ID, round, setID, messagePrecommit, msg.Message.TargetHash, msg.Message.TargetNum, msg.Signature)
	if err != nil || !ok {
		return Invalid, common.Hash{}
	}
	return Valid, TopicMessage(setID, round)
}

// ValidateCommit classifies a Commit message. It additionally requires
// precommits.len() == auth_data.len() > 0 and that every precommit's
// signature verifies over (round, set_id), per spec.md §4.7.
func (v *Validator) ValidateCommit(round, setID uint64, commit chain.CompactCommit, authCount int) (Decision, common.Hash) {
	d := v.classify(round, setID)
	if d == Expired {
		return Expired, common.Hash{}
	}
	if len(commit.Precommits) != authCount || authCount == 0 {
		return Invalid, common.Hash{}
	}
	for _, sp := range commit.Precommits {
		ok, err := VerifySignature(sp.ID, round, setID, messagePrecommit, sp.Message.TargetHash, sp.Message.TargetNum, sp.Signature)
		if err != nil || !ok {
			return Invalid, common.Hash{}
		}
	}
	return Valid, TopicCommit(setID)
}

// classify implements spec.md §4.7's decision table, independent of
// signature verification.
func (v *Validator) classify(round, setID uint64) Decision {
	switch {
	case setID < v.setID:
		return Expired
	case setID == v.setID+1 && round > v.tolerance:
		return Expired
	case setID == v.setID && round+v.tolerance < v.minLiveRound:
		return Expired
	case setID > v.setID+1:
		return Expired
	default:
		return Valid
	}
}

// NoteRound bumps max_round for round r under set s.
func (v *Validator) NoteRound(r, s uint64) {
	if s == v.setID && r > v.maxRound {
		v.maxRound = r
	}
	v.liveTopics.Add(TopicMessage(s, r))
}

// DropRound raises min_live_round to r+1 for set s, dropping the topic. A
// stale, out-of-order call for a round already below the current window
// must not move it backward.
func (v *Validator) DropRound(r, s uint64) {
	if s == v.setID && r >= v.minLiveRound {
		v.minLiveRound = r + 1
	}
	v.liveTopics.Remove(TopicMessage(s, r))
}

// NoteSet installs set s as current, resetting round windows.
func (v *Validator) NoteSet(s uint64) {
	v.setID = s
	v.minLiveRound = 0
	v.maxRound = 0
	v.liveTopics.Add(TopicCommit(s))
}

// DropSet sweeps every live topic belonging to set s.
func (v *Validator) DropSet(s uint64) {
	v.liveTopics.Remove(TopicCommit(s))
	v.liveTopics.RemoveIf(func(t common.Hash) bool {
		for r := uint64(0); r <= v.maxRound; r++ {
			if t == TopicMessage(s, r) {
				return true
			}
		}
		return false
	})
}

// IsLive reports whether topic is still tracked as live.
func (v *Validator) IsLive(topic common.Hash) bool {
	return v.liveTopics.Contains(topic)
}
