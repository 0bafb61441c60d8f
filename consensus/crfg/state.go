package crfg

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// AuxStore is the narrow slice of external.BlockStore that Store needs: an
// atomic key/value surface. external.BlockStore satisfies this structurally.
type AuxStore interface {
	AuxGet(key []byte) ([]byte, bool)
	AuxPut(key, value []byte) error
}

// Aux persistence keys, per spec.md §6: "authority_set", "voter_set_state",
// "consensus_changes". The set id has no key of its own; it is stored as
// AuthoritySet.SetID inside the authority-set record. Namespaced the way the teacher's
// snapshot.go prefixes its db key with "oasys-".
var (
	keyAuthoritySet     = []byte("crfg-authority_set")
	keyVoterSetState    = []byte("crfg-voter_set_state")
	keyConsensusChanges = []byte("crfg-consensus_changes")
)

// Store wraps a BlockStore's aux KV surface with typed, RLP-codec-encoded
// load/store for CRFG's three persisted records, the same "Marshal, Put
// under a namespaced key / Get+Unmarshal to resume" shape as the teacher's
// Snapshot, but RLP (the pack's wire codec) rather than JSON since these
// values never leave the process and the teacher's JSON choice was driven
// by readability in its own genesis/debug tooling, not a requirement here.
type Store struct {
	aux AuxStore
}

// NewStoreFromAux wraps aux for CRFG's persisted records.
func NewStoreFromAux(aux AuxStore) *Store {
	return &Store{aux: aux}
}

// LoadAuthoritySet resumes the last-persisted authority set, or reports it
// absent (first start).
func (s *Store) LoadAuthoritySet() (*AuthoritySet, bool, error) {
	blob, ok := s.aux.AuxGet(keyAuthoritySet)
	if !ok {
		return nil, false, nil
	}
	as := new(AuthoritySet)
	if err := rlp.DecodeBytes(blob, as); err != nil {
		return nil, false, errors.Wrap(err, "crfg: decode persisted authority set")
	}
	return as, true, nil
}

// StoreAuthoritySet persists as, atomically replacing the prior record.
func (s *Store) StoreAuthoritySet(as *AuthoritySet) error {
	blob, err := rlp.EncodeToBytes(as)
	if err != nil {
		return errors.Wrap(err, "crfg: encode authority set")
	}
	return s.aux.AuxPut(keyAuthoritySet, blob)
}

// LoadVoterSetState resumes the last-persisted voter set state.
func (s *Store) LoadVoterSetState() (*VoterSetState, bool, error) {
	blob, ok := s.aux.AuxGet(keyVoterSetState)
	if !ok {
		return nil, false, nil
	}
	vs := new(VoterSetState)
	if err := rlp.DecodeBytes(blob, vs); err != nil {
		return nil, false, errors.Wrap(err, "crfg: decode persisted voter set state")
	}
	return vs, true, nil
}

// StoreVoterSetState persists vs. Spec.md §4.6 requires every transition to
// write this atomically before the voter driver continues.
func (s *Store) StoreVoterSetState(vs VoterSetState) error {
	blob, err := rlp.EncodeToBytes(vs)
	if err != nil {
		return errors.Wrap(err, "crfg: encode voter set state")
	}
	return s.aux.AuxPut(keyVoterSetState, blob)
}

// LoadConsensusChanges resumes the pending-handoff-height log.
func (s *Store) LoadConsensusChanges() (*ConsensusChanges, error) {
	blob, ok := s.aux.AuxGet(keyConsensusChanges)
	if !ok {
		return &ConsensusChanges{}, nil
	}
	cc := new(ConsensusChanges)
	if err := rlp.DecodeBytes(blob, cc); err != nil {
		return nil, errors.Wrap(err, "crfg: decode persisted consensus changes")
	}
	return cc, nil
}

// StoreConsensusChanges persists cc.
func (s *Store) StoreConsensusChanges(cc *ConsensusChanges) error {
	blob, err := rlp.EncodeToBytes(cc)
	if err != nil {
		return errors.Wrap(err, "crfg: encode consensus changes")
	}
	return s.aux.AuxPut(keyConsensusChanges, blob)
}
