package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// DigestKind tags the payload carried by a DigestItem, the same way
// go-ethereum's typed-transaction envelopes tag their payload with a
// leading type byte.
type DigestKind uint8

const (
	// DigestOther is an opaque, consensus-irrelevant digest item.
	DigestOther DigestKind = iota
	// DigestScheduledChange announces a future, delayed authority-set
	// change that takes effect once the announcing block is finalized.
	DigestScheduledChange
	// DigestForcedChange announces an authority-set change that takes
	// effect immediately against the best chain, bypassing finality lag.
	DigestForcedChange
	// DigestConsensus carries an opaque consensus-engine-specific payload.
	DigestConsensus
	// DigestSeal is the PoW seal. It must be the final digest item on a
	// sealed header.
	DigestSeal
)

// DigestItem is one entry of a header's digest. Only the payload matching
// Kind is meaningful; the others are left as decode helpers.
type DigestItem struct {
	Kind    DigestKind
	Payload []byte
}

// ScheduledChange is a soft authority-set handoff: it applies once the
// block at height num(B)+DelayBlocks is finalized.
type ScheduledChange struct {
	NextAuthorities []Authority
	DelayBlocks     uint64
}

// ForcedChange is a hard authority-set handoff that does not wait for
// finalization: the import hook applies it as soon as it imports the
// announcing header, provided that header's number is at least
// MedianLastFinalized; otherwise the change is ignored, not queued.
type ForcedChange struct {
	NextAuthorities     []Authority
	MedianLastFinalized uint64
}

// Authority is one member of a weighted voter set.
type Authority struct {
	ID     AuthorityID
	Weight uint64
}

// AuthorityID is the BLS public key identifying a CRFG voter. See
// consensus/crfg.Signer for the signing half.
type AuthorityID [48]byte

func (a AuthorityID) String() string { return fmt.Sprintf("%x", a[:]) }

// NewScheduledChangeDigest encodes sc as a digest item.
func NewScheduledChangeDigest(sc *ScheduledChange) DigestItem {
	return encodeDigest(DigestScheduledChange, sc)
}

// NewForcedChangeDigest encodes fc as a digest item.
func NewForcedChangeDigest(fc *ForcedChange) DigestItem {
	return encodeDigest(DigestForcedChange, fc)
}

// NewSealDigest encodes s as a digest item. Callers must append it last.
func NewSealDigest(s *Seal) DigestItem {
	return encodeDigest(DigestSeal, s)
}

// NewOtherDigest wraps an opaque byte payload, unrelated to consensus.
func NewOtherDigest(payload []byte) DigestItem {
	return DigestItem{Kind: DigestOther, Payload: payload}
}

func encodeDigest(kind DigestKind, v interface{}) DigestItem {
	payload, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return DigestItem{Kind: kind, Payload: payload}
}

// AsScheduledChange decodes the item's payload as a ScheduledChange. It
// returns an error if Kind does not match.
func (d DigestItem) AsScheduledChange() (*ScheduledChange, error) {
	if d.Kind != DigestScheduledChange {
		return nil, fmt.Errorf("chain: digest item is not a ScheduledChange (kind %d)", d.Kind)
	}
	sc := new(ScheduledChange)
	if err := rlp.DecodeBytes(d.Payload, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// AsForcedChange decodes the item's payload as a ForcedChange.
func (d DigestItem) AsForcedChange() (*ForcedChange, error) {
	if d.Kind != DigestForcedChange {
		return nil, fmt.Errorf("chain: digest item is not a ForcedChange (kind %d)", d.Kind)
	}
	fc := new(ForcedChange)
	if err := rlp.DecodeBytes(d.Payload, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// AsSeal decodes the item's payload as a PoW Seal.
func (d DigestItem) AsSeal() (*Seal, error) {
	if d.Kind != DigestSeal {
		return nil, fmt.Errorf("chain: digest item is not a Seal (kind %d)", d.Kind)
	}
	s := new(Seal)
	if err := rlp.DecodeBytes(d.Payload, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CrfgEngineID is the gossip engine id CRFG messages are tagged with, per
// the foreign/primary network wire format.
var CrfgEngineID = [4]byte{'a', 'f', 'g', '1'}
