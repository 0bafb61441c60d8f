package pow

import "errors"

var (
	// errMissingSeal is returned when a header's final digest item does not
	// decode as a PoW seal.
	errMissingSeal = errors.New("pow: header carries no seal")
	// errBadWork is returned when H(work_input) exceeds the seal's declared
	// difficulty.
	errBadWork = errors.New("pow: work does not satisfy declared difficulty")
	// errBadMerkleProof is returned when a WorkProofMultiMine seal's merkle
	// proof does not reconstruct its declared merkle root from the header's
	// own pre-hash.
	errBadMerkleProof = errors.New("pow: multi-mine merkle proof does not reconstruct declared root")
	// errBadDifficulty is returned when the seal's declared difficulty does
	// not match the recomputed expected difficulty.
	errBadDifficulty = errors.New("pow: seal difficulty does not match recomputed difficulty")
	// errTimestampNotIncreasing is returned when a seal's timestamp does not
	// strictly exceed its parent's.
	errTimestampNotIncreasing = errors.New("pow: seal timestamp does not exceed parent timestamp")
	// errTimestampTooFarInFuture is returned when a seal's timestamp exceeds
	// now plus the configured clock-skew bound.
	errTimestampTooFarInFuture = errors.New("pow: seal timestamp too far in the future")
	// errUnknownParent is returned when the candidate or verified header's
	// parent cannot be found in the block store.
	errUnknownParent = errors.New("pow: unknown parent header")
	// errNoBody is returned when the proposer yields no body for a mining
	// attempt; callers should log and skip, not abort the worker loop.
	errNoBody = errors.New("pow: proposer returned no body")
)
