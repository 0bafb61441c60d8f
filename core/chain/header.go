// Package chain defines the header, digest and block types shared by the
// PoW mining/verification engine, the CRFG finality gadget and the relay
// pipeline. It plays the role the teacher's core/types package plays for
// go-ethereum: a small, dependency-light type layer every consensus
// component imports.
package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Header is a block header. The final entry of Digest, when present, is the
// PoW seal; popping it yields the pre-hash used for the work check.
type Header struct {
	ParentHash     common.Hash
	Number         uint64
	ShardNum       uint16
	StateRoot      common.Hash
	ExtrinsicsRoot common.Hash
	Time           uint64 // milliseconds since epoch, set by the seal's timestamp
	Digest         []DigestItem
}

// Hash returns the canonical hash of the header, including its seal.
func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

// Copy returns a deep copy of the header, safe to mutate independently.
func (h *Header) Copy() *Header {
	cpy := *h
	cpy.Digest = make([]DigestItem, len(h.Digest))
	copy(cpy.Digest, h.Digest)
	return &cpy
}

// PreHash returns the hash of the header with its last digest item (the
// seal) removed. It is undefined if the header carries no seal.
func (h *Header) PreHash() common.Hash {
	if len(h.Digest) == 0 {
		return h.Hash()
	}
	cpy := h.Copy()
	cpy.Digest = cpy.Digest[:len(cpy.Digest)-1]
	return rlpHash(cpy)
}

// Seal returns the header's PoW seal, i.e. its last digest item if it
// decodes as one, and whether it was present.
func (h *Header) Seal() (*Seal, bool) {
	if len(h.Digest) == 0 {
		return nil, false
	}
	last := h.Digest[len(h.Digest)-1]
	if last.Kind != DigestSeal {
		return nil, false
	}
	seal, err := last.AsSeal()
	if err != nil {
		return nil, false
	}
	return seal, true
}

// WithSeal returns a copy of the header with the given seal appended as its
// final digest item.
func (h *Header) WithSeal(s *Seal) *Header {
	cpy := h.Copy()
	cpy.Digest = append(cpy.Digest, NewSealDigest(s))
	cpy.Time = s.Timestamp
	return cpy
}

// ScheduledChanges returns every ScheduledChange digest item carried by the
// header, in digest order.
func (h *Header) ScheduledChanges() []*ScheduledChange {
	var out []*ScheduledChange
	for _, d := range h.Digest {
		if d.Kind != DigestScheduledChange {
			continue
		}
		if sc, err := d.AsScheduledChange(); err == nil {
			out = append(out, sc)
		}
	}
	return out
}

// ForcedChanges returns every ForcedChange digest item carried by the header.
func (h *Header) ForcedChanges() []*ForcedChange {
	var out []*ForcedChange
	for _, d := range h.Digest {
		if d.Kind != DigestForcedChange {
			continue
		}
		if fc, err := d.AsForcedChange(); err == nil {
			out = append(out, fc)
		}
	}
	return out
}

func rlpHash(v interface{}) (h common.Hash) {
	hasher := sha3.NewLegacyKeccak256()
	if err := rlp.Encode(hasher, v); err != nil {
		// Encoding our own well-formed types cannot fail; a failure here
		// means a type in the header graph forgot to implement rlp.Encoder.
		panic(err)
	}
	hasher.Sum(h[:0])
	return h
}
