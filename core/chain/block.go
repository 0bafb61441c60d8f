package chain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Extrinsic is an opaque, encoded transaction body (relay extrinsics use
// the compact codec that the relay package reads). Decoding it into a
// concrete relay/origin extrinsic is the relay package's job, not chain's —
// this package only knows how to hash and carry bytes.
type Extrinsic []byte

// Hash returns the extrinsic's own hash, as included (indirectly, via the
// header's ExtrinsicsRoot) in the block it belongs to.
func (e Extrinsic) Hash() common.Hash {
	return rlpHash([]byte(e))
}

// Body is a block's non-header content: its extrinsics in inclusion order.
type Body struct {
	Extrinsics []Extrinsic
}

// Block pairs a Header with its Body. CRFG justifications travel alongside
// a finalized block but are not part of the hashed header/body pair; they
// are stored and gossiped separately (see Justification).
type Block struct {
	Header *Header
	Body   *Body
}

// NewBlock assembles a Block from a header and its extrinsics. The caller
// is responsible for having set header.ExtrinsicsRoot consistently with
// extrinsics before sealing.
func NewBlock(header *Header, extrinsics []Extrinsic) *Block {
	b := &Block{Header: header.Copy(), Body: &Body{Extrinsics: extrinsics}}
	return b
}

// Hash returns the block's canonical hash, i.e. its header hash.
func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// Number returns the block's height within its shard.
func (b *Block) Number() uint64 { return b.Header.Number }

// ShardNum returns the shard the block belongs to.
func (b *Block) ShardNum() uint16 { return b.Header.ShardNum }

// Justification is the CRFG finality proof for a block: the round that
// finalized it and the precommits (one per voting authority, in the
// CompactCommit wire shape) that justify the finalization.
type Justification struct {
	Round      uint64
	Commit     CompactCommit
	TargetHash common.Hash
	TargetNum  uint64
}

// Verify checks that Commit.TargetHash/TargetNum match the justification's
// claimed target and that every precommit is for that same target. It does
// not check signatures or authority-set membership; that is the caller's
// job (see consensus/crfg for the full verification path), since a bare
// Header/Block has no access to the authority set a justification is
// checked against.
func (j *Justification) Verify() error {
	if j.Commit.TargetHash != j.TargetHash || j.Commit.TargetNum != j.TargetNum {
		return errJustificationTargetMismatch
	}
	for _, sp := range j.Commit.Precommits {
		if sp.Message.TargetHash != j.TargetHash || sp.Message.TargetNum != j.TargetNum {
			return errJustificationTargetMismatch
		}
	}
	return nil
}

// Precommit is a CRFG round-vote for a target block, the second phase of a
// GRANDPA-style round after Prevote.
type Precommit struct {
	TargetHash common.Hash
	TargetNum  uint64
}

// Prevote is a CRFG round-vote for a target block, the first phase of a
// GRANDPA-style round.
type Prevote struct {
	TargetHash common.Hash
	TargetNum  uint64
}

// SignedMessage wraps a Prevote or Precommit (RLP-tagged by the embedding
// GossipMessage, see consensus/crfg) with the voter's identity and BLS
// signature.
type SignedMessage struct {
	Message   Precommit
	Signature []byte
	ID        AuthorityID
}

// CompactCommit is the wire form of a completed CRFG round: one target plus
// every precommit that justified it, laid out so a light client can verify
// without the rest of the round's prevotes.
type CompactCommit struct {
	TargetHash common.Hash
	TargetNum  uint64
	Precommits []SignedMessage
}
