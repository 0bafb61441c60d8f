package crfg

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/errkind"
)

// ImportHook runs inside the importer once a block has passed the PoW
// verifier and ImportBlock has returned (spec.md §4.5); it does not run
// before the block is committed, and an error from it does not undo the
// block import. It mutates the authority set exclusively — per
// spec.md §3's ownership rule, the voter driver only ever reads a snapshot
// taken under the same lock this hook writes through.
type ImportHook struct {
	store   *Store
	as      *AuthoritySet
	changes *ConsensusChanges

	commands chan<- VoterCommand
}

// NewImportHook loads (or initializes) the persisted authority set and
// consensus-changes log and wires the hook to post commands to voterCmds.
func NewImportHook(store *Store, genesis []chain.Authority, voterCmds chan<- VoterCommand) (*ImportHook, error) {
	as, ok, err := store.LoadAuthoritySet()
	if err != nil {
		return nil, err
	}
	if !ok {
		as = &AuthoritySet{SetID: 0, Voters: genesis}
	}
	changes, err := store.LoadConsensusChanges()
	if err != nil {
		return nil, err
	}
	return &ImportHook{store: store, as: as, changes: changes, commands: voterCmds}, nil
}

// AuthoritySetSnapshot returns an immutable copy of the current authority
// set, the "snapshot under lock, process outside" idiom of spec.md §5 —
// callers other than this hook never see the live pointer.
func (h *ImportHook) AuthoritySetSnapshot() AuthoritySet {
	cpy := AuthoritySet{SetID: h.as.SetID, Voters: append([]chain.Authority(nil), h.as.Voters...)}
	cpy.Pending = append([]PendingChange(nil), h.as.Pending...)
	return cpy
}

// OnImport implements spec.md §4.5 in full: inspects header for
// ScheduledChange/ForcedChange digest items, queues or fires handoffs, and
// emits ChangeAuthorities commands when the canonical finalized branch
// reaches a pending handoff's effective height.
//
// Whether header lies on the canonical finalized branch (spec.md §4.5
// step 3) is taken from onCanonicalFinalizedBranch alone. finalizedNumber
// is the chain's finalized height as the importer saw it; OnImport does
// not read it.
func (h *ImportHook) OnImport(header *chain.Header, onCanonicalFinalizedBranch bool, finalizedNumber uint64) error {
	for _, sc := range header.ScheduledChanges() {
		h.as.Pending = append(h.as.Pending, PendingChange{
			NextAuthorities: sc.NextAuthorities,
			Effective:       header.Number + sc.DelayBlocks,
		})
		h.changes.Note(header.Number + sc.DelayBlocks)
		log.Info("crfg: queued scheduled authority-set change", "effective", header.Number+sc.DelayBlocks)
	}

	for _, fc := range header.ForcedChanges() {
		if header.Number < fc.MedianLastFinalized {
			continue
		}
		if err := h.fireChange(PendingChange{NextAuthorities: fc.NextAuthorities, Forced: true}, header); err != nil {
			return err
		}
	}

	if onCanonicalFinalizedBranch && len(h.as.Pending) > 0 {
		earliest := h.as.Pending[0]
		for _, p := range h.as.Pending[1:] {
			if p.Effective < earliest.Effective {
				earliest = p
			}
		}
		if header.Number >= earliest.Effective {
			if err := h.fireEarliest(header); err != nil {
				return err
			}
		}
	}

	if err := h.store.StoreAuthoritySet(h.as); err != nil {
		return errkind.Wrap(errkind.ClientImport, err, "crfg: persist authority set")
	}
	if err := h.store.StoreConsensusChanges(h.changes); err != nil {
		return errkind.Wrap(errkind.ClientImport, err, "crfg: persist consensus changes")
	}
	return nil
}

// fireEarliest pops the earliest pending change (by Effective height) and
// emits ChangeAuthorities, enforcing in-order handoff application.
func (h *ImportHook) fireEarliest(header *chain.Header) error {
	idx := 0
	for i, p := range h.as.Pending {
		if p.Effective < h.as.Pending[idx].Effective {
			idx = i
		}
	}
	change := h.as.Pending[idx]
	for _, height := range h.changes.PendingHeights {
		if height < change.Effective {
			return errkind.Wrap(errkind.CrfgSafety, errNonInOrderHandoff, "crfg: fire earliest pending change")
		}
	}
	h.as.Pending = append(h.as.Pending[:idx], h.as.Pending[idx+1:]...)
	h.changes.Applied(change.Effective)
	return h.fireChange(change, header)
}

// fireChange applies change immediately against the best chain and posts a
// ChangeAuthorities command to the voter driver.
func (h *ImportHook) fireChange(change PendingChange, header *chain.Header) error {
	h.as.SetID++
	h.as.Voters = change.NextAuthorities

	cmd := ChangeAuthorities{
		SetID:       h.as.SetID,
		Authorities: h.as.Voters,
		CanonHash:   header.Hash(),
		CanonNumber: header.Number,
	}
	// Spec.md §5 models this as an unbounded single-producer channel; Go has
	// no literal unbounded channel, so commands is allocated with a buffer
	// generous enough that the hook (the sole producer) never blocks on the
	// voter driver (the sole consumer) in practice.
	h.commands <- cmd
	return nil
}
