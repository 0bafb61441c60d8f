package crfg

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
)

// UntilImported is the "until-imported" barrier of spec.md §4.6: it
// buffers inbound commits referencing unknown hashes until the
// corresponding block appears in the block store, then releases them in
// arrival order.
type UntilImported struct {
	store external.BlockStore

	mu      sync.Mutex
	pending map[common.Hash][]chain.CompactCommit
}

// NewUntilImported constructs a barrier over store.
func NewUntilImported(store external.BlockStore) *UntilImported {
	return &UntilImported{store: store, pending: map[common.Hash][]chain.CompactCommit{}}
}

// Submit offers an inbound commit. If its target is already known to the
// block store it is returned immediately (ready=true); otherwise it is
// buffered and nil is returned.
func (u *UntilImported) Submit(commit chain.CompactCommit) (ready *chain.CompactCommit) {
	if _, ok := u.store.Header(external.BlockIDHash(commit.TargetHash)); ok {
		c := commit
		return &c
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending[commit.TargetHash] = append(u.pending[commit.TargetHash], commit)
	return nil
}

// NotifyImported releases every commit buffered against hash, in arrival
// order, once the importer reports hash has appeared.
func (u *UntilImported) NotifyImported(hash common.Hash) []chain.CompactCommit {
	u.mu.Lock()
	defer u.mu.Unlock()
	released := u.pending[hash]
	delete(u.pending, hash)
	return released
}

// OutboundAllowed reports whether the local key is a member of the current
// voter set, per spec.md §4.6's "Outbound commits are suppressed unless the
// local key is a member of the current voter set."
func OutboundAllowed(localID chain.AuthorityID, voters []chain.Authority) bool {
	for _, a := range voters {
		if a.ID == localID {
			return true
		}
	}
	return false
}
