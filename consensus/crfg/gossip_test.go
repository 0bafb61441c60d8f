package crfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGossipExpiry implements spec.md §8 scenario 3: validator at
// (set_id=5, min_live_round=10, max_round=12). The next-set case follows
// the component's decision table ("set_id = self.set_id+1 and round >
// TOLERANCE ⇒ Expired"): an early round in the next set is tolerated, a
// round that has clearly progressed past the handoff is not.
func TestGossipExpiry(t *testing.T) {
	v := NewValidator(2, 5)
	v.minLiveRound = 10
	v.maxRound = 12

	require.Equal(t, Expired, v.classify(7, 5), "(set_id=5, round=7) should be expired")
	require.Equal(t, Valid, v.classify(8, 5), "(set_id=5, round=8) should not be expired (tolerance 2)")
	require.Equal(t, Valid, v.classify(2, 6), "(set_id=6, round=2) within tolerance of the next set's start")
	require.Equal(t, Expired, v.classify(6, 6), "(set_id=6, round=3+TOL+1) well past the next set's start")
}

func TestGossipSetIDBounds(t *testing.T) {
	v := NewValidator(2, 5)
	require.Equal(t, Expired, v.classify(0, 4), "older set id is always expired")
	require.Equal(t, Expired, v.classify(0, 7), "set id more than one ahead is always expired")
}

func TestNoteAndDropRound(t *testing.T) {
	v := NewValidator(2, 5)
	v.NoteRound(1, 5)
	require.True(t, v.IsLive(TopicMessage(5, 1)))
	v.DropRound(1, 5)
	require.False(t, v.IsLive(TopicMessage(5, 1)))
	require.Equal(t, uint64(2), v.minLiveRound)
}

// TestDropRoundIgnoresStaleRound confirms a late, out-of-order DropRound
// for a round already below the current window cannot move min_live_round
// backward.
func TestDropRoundIgnoresStaleRound(t *testing.T) {
	v := NewValidator(2, 5)
	v.NoteRound(3, 5)
	v.DropRound(3, 5)
	require.Equal(t, uint64(4), v.minLiveRound)

	v.DropRound(1, 5) // stale: round 1 is already below min_live_round
	require.Equal(t, uint64(4), v.minLiveRound)
}
