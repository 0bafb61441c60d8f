package network

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// PeerID identifies a foreign-protocol peer; a libp2p/devp2p peer id in the
// outer, out-of-scope transport.
type PeerID string

// peerInfo is what the bridge remembers about a connected foreign peer.
type peerInfo struct {
	status Status
}

// PeerSet partitions connected foreign peers by the shard_num advertised in
// their Status message, so outbound relay extrinsics are only ever routed
// to peers serving the destination shard (spec.md §4.9).
type PeerSet struct {
	mu      sync.RWMutex
	peers   map[PeerID]peerInfo
	byShard map[uint16]mapset.Set[PeerID]
}

// NewPeerSet constructs an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		peers:   make(map[PeerID]peerInfo),
		byShard: make(map[uint16]mapset.Set[PeerID]),
	}
}

// Add registers a peer under the shard its Status advertises, replacing any
// prior registration for the same peer id.
func (p *PeerSet) Add(id PeerID, status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(id)
	p.peers[id] = peerInfo{status: status}
	set, ok := p.byShard[status.ShardNum]
	if !ok {
		set = mapset.NewSet[PeerID]()
		p.byShard[status.ShardNum] = set
	}
	set.Add(id)
}

// Remove drops a peer from the set.
func (p *PeerSet) Remove(id PeerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(id)
}

func (p *PeerSet) removeLocked(id PeerID) {
	info, ok := p.peers[id]
	if !ok {
		return
	}
	if set, ok := p.byShard[info.status.ShardNum]; ok {
		set.Remove(id)
	}
	delete(p.peers, id)
}

// ShardPeers returns a snapshot of peers currently serving shard.
func (p *PeerSet) ShardPeers(shard uint16) []PeerID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.byShard[shard]
	if !ok {
		return nil
	}
	return set.ToSlice()
}

// Status returns the last-known Status for a peer, if connected.
func (p *PeerSet) Status(id PeerID) (Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info, ok := p.peers[id]
	return info.status, ok
}

// Len returns the total number of connected peers.
func (p *PeerSet) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.peers)
}

// Shards returns every shard_num with at least one connected peer.
func (p *PeerSet) Shards() []uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]uint16, 0, len(p.byShard))
	for shard, set := range p.byShard {
		if set.Cardinality() > 0 {
			out = append(out, shard)
		}
	}
	return out
}

// clientInfoOf is a helper used by Bridge.ClientInfo to build a
// map<shard_num, ChainInfo?> from a single remote peer's last-known Status.
func clientInfoOf(status Status) (bestHash, genesisHash common.Hash, bestNumber uint64) {
	return status.BestHash, status.GenesisHash, status.BestNumber
}
