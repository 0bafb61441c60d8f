package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func rlpEncodeNoPanic(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// WorkProofKind tags the variant carried by a WorkProof.
type WorkProofKind uint8

const (
	// WorkProofNonce is a prefixed nonce search against the seal's own
	// pre-hash: the plain, single-shard path.
	WorkProofNonce WorkProofKind = iota
	// WorkProofMultiMine is a nonce search shared across every shard mined
	// in the same round (spec.md §4.3's multi-mining extension): the
	// nonce is tested against a shared merkle root, and MultiMine carries
	// the proof that this shard's own pre-hash is the committed leaf.
	WorkProofMultiMine
)

// WorkProof is the proof-of-work evidence embedded in a Seal. Only the
// field matching Kind is populated; extra variants can be added by
// widening this struct the same way DigestItem widens over digest kinds.
type WorkProof struct {
	Kind      WorkProofKind
	Nonce     *ProofNonce     `rlp:"nil"`
	MultiMine *MultiMineProof `rlp:"nil"`
}

// MultiMineProof is the WorkProofMultiMine payload: the nonce searched
// against MerkleRoot, plus this shard's proof that its own pre-hash is
// leaf LeafIndex of the ShardCount leaves committed into MerkleRoot.
type MultiMineProof struct {
	Nonce       *ProofNonce
	MerkleRoot  common.Hash
	MerkleProof []common.Hash
	LeafIndex   uint32
	ShardCount  uint16
}

// ProofNonce is a nonce search proof: the prefix and prefix length used to
// seed the search, and the winning nonce.
type ProofNonce struct {
	Prefix    string
	PrefixLen uint8
	Nonce     uint64
}

// NewProofNonce builds a ProofNonce, truncating or padding prefix to
// prefixLen bytes the way the original miner's ProofNonce::get_with_prefix_len
// does.
func NewProofNonce(prefix string, prefixLen uint8, nonce uint64) *ProofNonce {
	b := []byte(prefix)
	out := make([]byte, prefixLen)
	copy(out, b)
	return &ProofNonce{Prefix: string(out), PrefixLen: prefixLen, Nonce: nonce}
}

// Bytes returns the wire bytes hashed alongside the pre-hash: the fixed
// prefix followed by the big-endian nonce.
func (p *ProofNonce) Bytes() []byte {
	out := make([]byte, 0, int(p.PrefixLen)+8)
	prefix := []byte(p.Prefix)
	if len(prefix) < int(p.PrefixLen) {
		padded := make([]byte, p.PrefixLen)
		copy(padded, prefix)
		prefix = padded
	}
	out = append(out, prefix[:p.PrefixLen]...)
	var nb [8]byte
	for i := 0; i < 8; i++ {
		nb[7-i] = byte(p.Nonce >> (8 * uint(i)))
	}
	return append(out, nb[:]...)
}

// Seal is the final digest item on a sealed header.
type Seal struct {
	AuthorityID common.Address // secp256k1 identity of the producer, as set by the sealer; not recovered from Signature
	Difficulty  *big.Int
	Timestamp   uint64 // milliseconds since epoch
	WorkProof   WorkProof
	Signature   []byte // producer signature over SigningHash, empty until signed
}

// SigningHash is the hash the producer signs to authenticate a seal: the
// pre-hash combined with every seal field except the signature itself.
func (s *Seal) SigningHash(preHash common.Hash) common.Hash {
	unsigned := *s
	unsigned.Signature = nil
	return rlpHash(struct {
		PreHash common.Hash
		Seal    Seal
	}{preHash, unsigned})
}

// WorkInput is the byte sequence hashed and compared against Difficulty:
// pre_hash || seal_without_signature_or_proof || nonce_bytes.
func (s *Seal) WorkInput(preHash common.Hash) []byte {
	unsealed := *s
	unsealed.Signature = nil
	unsealed.WorkProof = WorkProof{}
	head, err := rlpEncodeNoPanic(struct {
		PreHash     common.Hash
		AuthorityID common.Address
		Difficulty  *big.Int
		Timestamp   uint64
	}{preHash, s.AuthorityID, s.Difficulty, s.Timestamp})
	if err != nil {
		panic(err)
	}
	if s.WorkProof.Kind == WorkProofNonce && s.WorkProof.Nonce != nil {
		head = append(head, s.WorkProof.Nonce.Bytes()...)
	}
	return head
}

// HashRoot returns the hash a PoW search is actually bound to: ownPreHash
// for a plain nonce seal, or the committed MerkleRoot for a multi-mine
// seal.
func (s *Seal) HashRoot(ownPreHash common.Hash) common.Hash {
	if s.WorkProof.Kind == WorkProofMultiMine && s.WorkProof.MultiMine != nil {
		return s.WorkProof.MultiMine.MerkleRoot
	}
	return ownPreHash
}

// MultiMineSearchInput is the byte sequence a multi-mining nonce search is
// hashed against: authority and timestamp bound to the shared merkle root,
// followed by the nonce bytes. Unlike WorkInput, it deliberately excludes
// Difficulty: spec.md §4.3 requires one successful nonce to satisfy every
// shard's own, possibly distinct, difficulty, which only works if the
// search hash itself does not depend on which shard's difficulty it is
// later compared against.
func (s *Seal) MultiMineSearchInput() []byte {
	mm := s.WorkProof.MultiMine
	head, err := rlpEncodeNoPanic(struct {
		MerkleRoot  common.Hash
		AuthorityID common.Address
		Timestamp   uint64
	}{mm.MerkleRoot, s.AuthorityID, s.Timestamp})
	if err != nil {
		panic(err)
	}
	if mm.Nonce != nil {
		head = append(head, mm.Nonce.Bytes()...)
	}
	return head
}

// PoWInput returns the byte sequence hashed and compared against
// Difficulty, dispatching on WorkProof.Kind: WorkInput for a plain nonce
// seal, MultiMineSearchInput for a multi-mine seal.
func (s *Seal) PoWInput(ownPreHash common.Hash) []byte {
	if s.WorkProof.Kind == WorkProofMultiMine && s.WorkProof.MultiMine != nil {
		return s.MultiMineSearchInput()
	}
	return s.WorkInput(ownPreHash)
}
