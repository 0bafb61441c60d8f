package pow

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
)

// CalcDifficulty implements spec.md §4.1: it does not use ethash's
// per-block exponential-bomb formula (the pack's
// consensus/ethash.CalcDifficulty), but a period-boundary-walk algorithm —
// difficulty only changes at difficulty_adj-block boundaries, computed from
// the elapsed wall-clock time since the previous boundary.
//
// store is consulted to walk back through parent headers; it must already
// contain every ancestor down to the previous boundary or a seal-less
// header.
func CalcDifficulty(oracle external.RuntimeOracle, store external.BlockStore, parent *chain.Header, candidateNumber uint64, nowMs uint64) (*big.Int, error) {
	at := external.BlockIDHash(parent.Hash())

	genesisDifficulty, err := oracle.GenesisDifficulty(at)
	if err != nil {
		return nil, errors.Wrap(err, "pow: read genesis_difficulty")
	}
	adj, err := oracle.DifficultyAdj(at)
	if err != nil {
		return nil, errors.Wrap(err, "pow: read difficulty_adj")
	}
	targetBlockTime, err := oracle.TargetBlockTime(at)
	if err != nil {
		return nil, errors.Wrap(err, "pow: read target_block_time")
	}

	parentDifficulty, parentHasSeal := sealDifficulty(parent)
	if !parentHasSeal {
		parentDifficulty = genesisDifficulty
	}

	if adj == 0 || candidateNumber%adj != 0 {
		return new(big.Int).Set(parentDifficulty), nil
	}

	lastNum, lastTime, err := walkToBoundary(store, parent, adj)
	if err != nil {
		return nil, err
	}

	expected := new(big.Int).Mul(
		new(big.Int).SetUint64(targetBlockTime*1000),
		new(big.Int).SetUint64(candidateNumber-lastNum),
	)
	if expected.Sign() == 0 {
		// Degenerate boundary (candidate == boundary); nothing to retarget.
		return new(big.Int).Set(parentDifficulty), nil
	}
	actual := new(big.Int).SetUint64(saturatingSub(nowMs, lastTime))

	newDifficulty := new(big.Int).Mul(parentDifficulty, actual)
	newDifficulty.Div(newDifficulty, expected)
	return newDifficulty, nil
}

// walkToBoundary walks back from parent through consecutive sealed headers
// until the prior adjustment boundary (a multiple of adj) or a header
// without a seal, whichever comes first, per spec.md §4.1 step 3.
func walkToBoundary(store external.BlockStore, parent *chain.Header, adj uint64) (num, timeMs uint64, err error) {
	cur := parent
	for {
		if cur.Number%adj == 0 {
			return cur.Number, cur.Time, nil
		}
		if _, ok := cur.Seal(); !ok {
			return cur.Number, cur.Time, nil
		}
		next, ok := store.Header(external.BlockIDHash(cur.ParentHash))
		if !ok {
			return 0, 0, errors.Wrap(errUnknownParent, "pow: walking difficulty boundary")
		}
		cur = next
	}
}

func sealDifficulty(h *chain.Header) (*big.Int, bool) {
	seal, ok := h.Seal()
	if !ok {
		return nil, false
	}
	return seal.Difficulty, true
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
