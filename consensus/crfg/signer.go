package crfg

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm/v5/crypto/bls"

	"github.com/yeeco/go-yee/core/chain"
)

var votesSigningErrorCounter = metrics.NewRegisteredCounter("crfg/signer/error", nil)

// Signer is the CRFG round-vote signer: a BLS secret key held in memory.
// It is adapted from the teacher's core/vote.VoteSigner, with the BLS
// wallet/keymanager machinery dropped — key management is an out-of-scope
// external collaborator per spec.md §1, so the secret key here is injected
// by the caller rather than loaded from a wallet.
type Signer struct {
	sk  bls.SecretKey
	pub chain.AuthorityID
}

// NewSigner wraps an already-loaded BLS secret key.
func NewSigner(sk bls.SecretKey) *Signer {
	var id chain.AuthorityID
	copy(id[:], sk.PublicKey().Marshal())
	return &Signer{sk: sk, pub: id}
}

// ID returns the signer's authority identity.
func (s *Signer) ID() chain.AuthorityID { return s.pub }

// SignPrevote signs a Prevote for the given round/set.
func (s *Signer) SignPrevote(round, setID uint64, v chain.Prevote) ([]byte, error) {
	return s.sign(signingRoot(messagePrevote, round, setID, v.TargetHash, v.TargetNum))
}

// SignPrecommit signs a Precommit for the given round/set.
func (s *Signer) SignPrecommit(round, setID uint64, p chain.Precommit) ([]byte, error) {
	return s.sign(signingRoot(messagePrecommit, round, setID, p.TargetHash, p.TargetNum))
}

func (s *Signer) sign(root [32]byte) ([]byte, error) {
	sig := s.sk.Sign(root[:])
	if sig == nil {
		votesSigningErrorCounter.Inc(1)
		return nil, errors.New("crfg: bls sign failed")
	}
	return sig.Marshal(), nil
}

// VerifySignature checks a precommit/prevote signature against the claimed
// authority id, per spec.md §4.7's "verify signature; on success
// Valid(topic), else Invalid".
func VerifySignature(id chain.AuthorityID, round, setID uint64, kind messageKind, targetHash [32]byte, targetNum uint64, sig []byte) (bool, error) {
	pub, err := bls.PublicKeyFromBytes(id[:])
	if err != nil {
		votesSigningErrorCounter.Inc(1)
		return false, errors.Wrap(err, "crfg: decode authority public key")
	}
	s, err := bls.SignatureFromBytes(sig)
	if err != nil {
		votesSigningErrorCounter.Inc(1)
		return false, errors.Wrap(err, "crfg: decode signature")
	}
	root := signingRoot(kind, round, setID, targetHash, targetNum)
	return s.Verify(pub, root[:]), nil
}

// messageKind distinguishes a Prevote signing root from a Precommit one, so
// the two phases of a round never collide under the same signature.
type messageKind uint8

const (
	messagePrevote messageKind = iota
	messagePrecommit
)
