package pow

import (
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
)

// Verifier checks that a received header's seal meets its declared target
// and is well-formed, per spec.md §4.2. It is the PoW half of the import
// queue's verify→import→hook pipeline (§4.4).
type Verifier struct {
	cfg    Config
	oracle external.RuntimeOracle
	store  external.BlockStore
	clock  external.Clock

	// recents mirrors the teacher's consensus/oasys ARC recents cache: a
	// small cache of recently verified header hashes, avoiding redundant
	// work recomputation for headers re-delivered by multiple peers.
	recents *lru.ARCCache

	inherentsRegistered bool
}

// NewVerifier constructs a Verifier. cacheSize follows the teacher's
// inmemorySignatures-style sizing (a few thousand recent entries).
func NewVerifier(cfg Config, oracle external.RuntimeOracle, store external.BlockStore, clock external.Clock, cacheSize int) (*Verifier, error) {
	ApplyDefaults(&cfg)
	recents, err := lru.NewARC(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "pow: allocate verifier cache")
	}
	return &Verifier{cfg: cfg, oracle: oracle, store: store, clock: clock, recents: recents}, nil
}

// Verify implements spec.md §4.2 in full. It returns the decoded seal on
// success so the caller (import queue) can avoid a second decode.
func (v *Verifier) Verify(header *chain.Header) (*chain.Seal, error) {
	if cached, ok := v.recents.Get(header.Hash()); ok {
		return cached.(*chain.Seal), nil
	}

	seal, ok := header.Seal()
	if !ok {
		return nil, errors.Wrap(errMissingSeal, "pow: verify")
	}

	parent, ok := v.store.Header(external.BlockIDHash(header.ParentHash))
	if !ok {
		return nil, errors.Wrap(errUnknownParent, "pow: verify")
	}

	preHash := header.PreHash()
	if seal.WorkProof.Kind == chain.WorkProofMultiMine {
		mm := seal.WorkProof.MultiMine
		if mm == nil {
			return nil, errors.Wrap(errMissingSeal, "pow: verify")
		}
		if !chain.VerifyMerkleProof(preHash, mm.MerkleProof, int(mm.LeafIndex), mm.MerkleRoot) {
			return nil, errors.Wrap(errBadMerkleProof, "pow: verify")
		}
	}

	postHash := keccak256(seal.PoWInput(preHash))
	if new(big.Int).SetBytes(postHash[:]).Cmp(seal.Difficulty) > 0 {
		return nil, errors.Wrap(errBadWork, "pow: verify")
	}

	expected, err := CalcDifficulty(v.oracle, v.store, parent, header.Number, seal.Timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "pow: verify difficulty")
	}
	if expected.Cmp(seal.Difficulty) != 0 {
		return nil, errors.Wrap(errBadDifficulty, "pow: verify")
	}

	if seal.Timestamp <= parent.Time {
		return nil, errors.Wrap(errTimestampNotIncreasing, "pow: verify")
	}
	now := v.clock.NowMs()
	if seal.Timestamp > now+uint64(v.cfg.ClockSkewBound.Milliseconds()) {
		return nil, errors.Wrap(errTimestampTooFarInFuture, "pow: verify")
	}

	if !v.inherentsRegistered {
		log.Info("pow: registering timestamp inherent data provider")
		v.inherentsRegistered = true
	}

	v.recents.Add(header.Hash(), seal)
	return seal, nil
}
