package pow

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/errkind"
	"github.com/yeeco/go-yee/external"
)

// Importer is the block-importer half of the import queue (spec.md §4.4),
// consumed by the worker to submit a freshly sealed block.
type Importer interface {
	ImportOwn(block *chain.Block) error
}

// Worker is the PoW mining driver of spec.md §4.3: a single cooperative
// task, stop-able via a shared boolean guarded by an RWMutex per spec.md §5.
type Worker struct {
	cfg    Config
	oracle external.RuntimeOracle
	store  external.BlockStore
	clock  external.Clock

	proposer external.Proposer
	importer Importer
	sync     SyncOracle
	signer   Signer

	stopMu sync.RWMutex
	stop   bool
}

// SyncOracle reports whether the node is still in major sync, per spec.md
// §4.3 step 2.
type SyncOracle interface {
	MajorSyncing() bool
}

// Signer produces the authority signature and identity bound into a seal.
// It is the secp256k1 half of §2's cryptography stack (go-ethereum/crypto
// ecrecover-style signing, mirroring the teacher's signer callback).
type Signer interface {
	Address() common.Address
	SignSeal(hash common.Hash) ([]byte, error)
}

// NewWorker constructs a Worker with its collaborators. cfg is defaulted
// via ApplyDefaults.
func NewWorker(cfg Config, oracle external.RuntimeOracle, store external.BlockStore, clock external.Clock, proposer external.Proposer, importer Importer, so SyncOracle, signer Signer) *Worker {
	ApplyDefaults(&cfg)
	return &Worker{cfg: cfg, oracle: oracle, store: store, clock: clock, proposer: proposer, importer: importer, sync: so, signer: signer}
}

// Stop requests the worker to terminate at its next poll.
func (w *Worker) Stop() {
	w.stopMu.Lock()
	w.stop = true
	w.stopMu.Unlock()
}

func (w *Worker) stopped() bool {
	w.stopMu.RLock()
	defer w.stopMu.RUnlock()
	return w.stop
}

// Run is the worker's top-level loop (spec.md §4.3). It selects against
// onExit per spec.md §5's cancellation rule, persisting nothing on its own
// (the worker owns no durable state).
func (w *Worker) Run(onExit <-chan struct{}) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-onExit:
			return
		case <-ticker.C:
			if w.stopped() {
				return
			}
			if w.sync.MajorSyncing() {
				continue
			}
			if err := w.cycle(); err != nil {
				log.Warn("pow: mining cycle failed", "err", err)
			}
		}
	}
}

// candidate is one shard's prepared mining job: a proposed body bound to a
// pre-seal header, ready to be either sealed on its own (the single-shard
// path) or folded as a leaf into a shared merkle commitment (spec.md
// §4.3's multi-mining extension, spec.md §3's Work).
type candidate struct {
	header     *chain.Header
	body       *chain.Body
	preHash    common.Hash
	difficulty *big.Int
}

// cycle runs one mining attempt across every configured shard, per
// spec.md §4.3 steps 3-5. With a single configured shard it seals a plain
// WorkProofNonce seal; with more than one it commits every shard's
// candidate pre-hash into one merkle root and performs a single nonce
// search shared across all of them, splitting the winning nonce into
// per-shard WorkProofMultiMine seals. A failure is logged by the caller
// and never aborts the loop.
func (w *Worker) cycle() error {
	var candidates []*candidate
	for _, shard := range w.cfg.Shards {
		c, err := w.prepareCandidate(shard)
		if err != nil {
			if err == errNoBody {
				log.Warn("pow: proposer yielded no body", "shard", shard)
				continue
			}
			return err
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil
	}

	now := w.clock.NowMs()
	var seals []*chain.Seal
	var err error
	if len(candidates) == 1 {
		seals, err = w.searchSingle(candidates[0], now)
	} else {
		seals, err = w.searchMultiMine(candidates, now)
	}
	if err != nil {
		return err
	}
	if seals == nil {
		// Exhausted IterPerCycle trials without success; try again next poll.
		return nil
	}

	for i, seal := range seals {
		sealed := candidates[i].header.WithSeal(seal)
		block := chain.NewBlock(sealed, candidates[i].body.Extrinsics)
		if err := w.importer.ImportOwn(block); err != nil {
			log.Warn("pow: import own block failed", "shard", candidates[i].header.ShardNum, "err", errors.Wrap(err, "pow: import own block"))
		}
	}
	return nil
}

// prepareCandidate builds shard's candidate header and body against the
// current best chain. It returns errNoBody (not wrapped, since Run/cycle's
// caller treats it as routine and skips just this shard) when the
// proposer has nothing to offer this poll.
func (w *Worker) prepareCandidate(shard uint16) (*candidate, error) {
	info := w.store.Info()
	parent, ok := w.store.Header(external.BlockIDHash(info.BestHash))
	if !ok {
		// Best-effort read failure against the block store: per spec.md §7
		// this is a Blockchain-kind error, and the worker's caller (Run)
		// already treats any cycle error as "log and try again next poll".
		return nil, errkind.Wrap(errkind.Blockchain, errUnknownParent, "pow: worker cycle")
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ProposeTimeout)
	defer cancel()
	body, err := w.proposer.Propose(ctx, parent, shard)
	if err != nil {
		return nil, errors.Wrap(err, "pow: propose body")
	}
	if body == nil {
		return nil, errNoBody
	}

	candidateNumber := parent.Number + 1
	now := w.clock.NowMs()
	difficulty, err := CalcDifficulty(w.oracle, w.store, parent, candidateNumber, now)
	if err != nil {
		return nil, errors.Wrap(err, "pow: compute difficulty")
	}

	header := &chain.Header{
		ParentHash: parent.Hash(),
		Number:     candidateNumber,
		ShardNum:   shard,
		Time:       now,
	}
	return &candidate{header: header, body: body, preHash: header.Hash(), difficulty: difficulty}, nil
}

// searchSingle performs up to cfg.IterPerCycle nonce trials against c's own
// pre-hash, constructing a plain WorkProofNonce seal with the configured
// prefix per spec.md §4.3 step 4. It returns a nil slice (not an error)
// when every trial in this cycle failed.
func (w *Worker) searchSingle(c *candidate, now uint64) ([]*chain.Seal, error) {
	base := &chain.Seal{
		AuthorityID: w.signer.Address(),
		Difficulty:  c.difficulty,
		Timestamp:   now,
	}

	for nonce := uint64(0); nonce < w.cfg.IterPerCycle; nonce++ {
		seal := *base
		seal.WorkProof = chain.WorkProof{
			Kind:  chain.WorkProofNonce,
			Nonce: chain.NewProofNonce(w.cfg.SealPrefix, w.cfg.SealPrefixLen, nonce),
		}
		postHash := keccak256(seal.PoWInput(c.preHash))
		if new(big.Int).SetBytes(postHash[:]).Cmp(c.difficulty) <= 0 {
			sig, err := w.signer.SignSeal(seal.SigningHash(c.preHash))
			if err != nil {
				return nil, errors.Wrap(err, "pow: sign seal")
			}
			seal.Signature = sig
			return []*chain.Seal{&seal}, nil
		}
	}
	return nil, nil
}

// searchMultiMine implements spec.md §4.3's multi-mining extension: the
// candidates' pre-hashes are committed into one merkle root (spec.md §3's
// Work.merkle_root), and a single nonce is searched against the hardest
// (smallest) difficulty among them. Any nonce clearing that threshold
// clears every candidate's own, possibly easier, threshold too, so the
// winning nonce is split into one WorkProofMultiMine seal per shard, each
// carrying that shard's merkle proof of its own leaf.
func (w *Worker) searchMultiMine(candidates []*candidate, now uint64) ([]*chain.Seal, error) {
	leaves := make([]common.Hash, len(candidates))
	difficulties := make([]*big.Int, len(candidates))
	shardNums := make([]uint16, len(candidates))
	for i, c := range candidates {
		leaves[i] = c.preHash
		difficulties[i] = c.difficulty
		shardNums[i] = c.header.ShardNum
	}
	// works is spec.md §3's per-shard Work description: one per candidate,
	// each committing its own pre-hash as a leaf of the same shared root.
	works := chain.BuildWorks(leaves, difficulties, shardNums, nil)
	root := works[0].MerkleRoot
	hardest := chain.HardestDifficulty(difficulties)
	authority := w.signer.Address()
	shardCount := uint16(len(candidates))

	for nonce := uint64(0); nonce < w.cfg.IterPerCycle; nonce++ {
		probe := chain.NewProofNonce(w.cfg.SealPrefix, w.cfg.SealPrefixLen, nonce)
		search := chain.Seal{
			AuthorityID: authority,
			Timestamp:   now,
			WorkProof:   chain.WorkProof{Kind: chain.WorkProofMultiMine, MultiMine: &chain.MultiMineProof{Nonce: probe, MerkleRoot: root}},
		}
		postHash := keccak256(search.MultiMineSearchInput())
		if new(big.Int).SetBytes(postHash[:]).Cmp(hardest) > 0 {
			continue
		}

		seals := make([]*chain.Seal, len(candidates))
		for i := range candidates {
			seal := chain.Seal{
				AuthorityID: authority,
				Difficulty:  difficulties[i],
				Timestamp:   now,
				WorkProof: chain.WorkProof{
					Kind: chain.WorkProofMultiMine,
					MultiMine: &chain.MultiMineProof{
						Nonce:       probe,
						MerkleRoot:  root,
						MerkleProof: works[i].MerkleProof,
						LeafIndex:   uint32(i),
						ShardCount:  shardCount,
					},
				},
			}
			sig, err := w.signer.SignSeal(seal.SigningHash(root))
			if err != nil {
				return nil, errors.Wrap(err, "pow: sign seal")
			}
			seal.Signature = sig
			seals[i] = &seal
		}
		return seals, nil
	}
	return nil, nil
}
