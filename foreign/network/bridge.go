package network

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/errkind"
	"github.com/yeeco/go-yee/external"
	"github.com/yeeco/go-yee/relay"
	"github.com/yeeco/go-yee/sharding"
)

var errNoPeersForShard = errors.New("foreign network: no connected peer serves destination shard")

// InboundStatus is a Status message received from a connected foreign peer.
type InboundStatus struct {
	Peer   PeerID
	Status Status
}

// InboundExtrinsics is an Extrinsics batch received from a connected
// foreign peer.
type InboundExtrinsics struct {
	Peer       PeerID
	Extrinsics Extrinsics
}

// Transport is the out-of-scope libp2p/devp2p transport the bridge rides
// on: it delivers inbound Status/Extrinsics messages on two channels and
// accepts outbound sends addressed by PeerID.
type Transport interface {
	StatusInbound() <-chan InboundStatus
	ExtrinsicsInbound() <-chan InboundExtrinsics
	SendStatus(id PeerID, s Status) error
	SendExtrinsics(id PeerID, e Extrinsics) error
}

// NetworkState is the network_state() diagnostic surface of spec.md §4.9.
type NetworkState struct {
	LocalShard   uint16
	ShardCount   uint16
	PeerCount    int
	PeersByShard map[uint16]int
}

// Bridge runs the second, foreign-tagged P2P stack: it partitions peers by
// shard_num, routes outbound relay extrinsics to the peers serving their
// destination shard, and hands inbound relay extrinsics that route to the
// local shard to the transaction pool (spec.md §4.9). Its two receive pumps
// are grounded on the teacher's miner worker's errgroup-managed loop
// idiom (other_examples' n42blockchain worker.go taskLoop/resultLoop).
type Bridge struct {
	localShard uint16
	shardCount uint16
	genesis    Status

	peers     *PeerSet
	transport Transport
	pool      external.TxPool

	mu        sync.RWMutex
	localInfo external.ChainInfo

	subMu sync.Mutex
	subs  []chan Status
}

// NewBridge constructs a Bridge for localShard of a shardCount-shard
// cluster, advertising genesis as the local Status template.
func NewBridge(localShard, shardCount uint16, genesis Status, transport Transport, pool external.TxPool) *Bridge {
	genesis.ShardNum = localShard
	genesis.Version = ProtocolVersion
	genesis.MinSupportedVersion = MinSupportedVersion
	return &Bridge{
		localShard: localShard,
		shardCount: shardCount,
		genesis:    genesis,
		peers:      NewPeerSet(),
		transport:  transport,
		pool:       pool,
	}
}

// UpdateLocalInfo refreshes the local chain summary exposed via ClientInfo.
func (b *Bridge) UpdateLocalInfo(info external.ChainInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.localInfo = info
}

// Run pumps inbound Status and Extrinsics messages until onExit fires,
// cooperatively yielding at each channel receive per spec.md §5's
// single-threaded task model.
func (b *Bridge) Run(onExit <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-onExit
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.statusPump(ctx) })
	g.Go(func() error { return b.extrinsicsPump(ctx) })
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (b *Bridge) statusPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-b.transport.StatusInbound():
			b.handleStatus(in.Peer, in.Status)
		}
	}
}

func (b *Bridge) extrinsicsPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-b.transport.ExtrinsicsInbound():
			b.handleExtrinsics(in.Peer, in.Extrinsics)
		}
	}
}

func (b *Bridge) handleStatus(peer PeerID, status Status) {
	if !status.Compatible(b.genesis) {
		log.Warn("foreign network: incompatible peer status, dropping", "peer", peer, "shard", status.ShardNum)
		return
	}
	b.peers.Add(peer, status)
	b.notifyStatus(status)
}

func (b *Bridge) handleExtrinsics(from PeerID, batch Extrinsics) {
	for _, raw := range batch.Items {
		if err := b.handleInboundOne(raw); err != nil {
			log.Debug("foreign network: dropping malformed relay extrinsic", "peer", from, "err", err)
		}
	}
}

func (b *Bridge) handleInboundOne(raw []byte) error {
	re, err := relay.DecodeRelayExtrinsic(raw)
	if err != nil {
		return errors.Wrap(err, "decode relay extrinsic")
	}
	oe, err := relay.DecodeOriginExtrinsic(re.RelayType, re.Origin)
	if err != nil {
		return errors.Wrap(err, "decode origin extrinsic")
	}
	shard := sharding.ComputeShard(oe.Dest, b.shardCount)
	if shard != b.localShard {
		return nil // routes elsewhere; this node is not the destination shard
	}
	return b.pool.SubmitOne(b.localShard, chain.Extrinsic(raw))
}

// RouteOutbound sends raw (an encoded relay extrinsic whose destination
// decodes to dest) to every connected peer serving the destination shard,
// or submits it to the local pool directly when the destination is this
// node's own shard.
func (b *Bridge) RouteOutbound(raw []byte, dest []byte) error {
	shard := sharding.ComputeShard(dest, b.shardCount)
	if shard == b.localShard {
		return b.pool.SubmitOne(b.localShard, chain.Extrinsic(raw))
	}
	peers := b.peers.ShardPeers(shard)
	if len(peers) == 0 {
		return errNoPeersForShard
	}
	msg := Extrinsics{Items: [][]byte{raw}}
	for _, p := range peers {
		// Network errors are non-fatal per spec.md §7: a failed send to one
		// peer is logged and counted, routing continues to the rest.
		if err := b.transport.SendExtrinsics(p, msg); err != nil {
			wrapped := errkind.Wrap(errkind.Network, err, "foreign network: send extrinsics")
			log.Warn("foreign network: send to peer failed", "peer", p, "shard", shard, "err", wrapped)
		}
	}
	return nil
}

// NetworkState implements spec.md §4.9's network_state() capability.
func (b *Bridge) NetworkState() NetworkState {
	byShard := make(map[uint16]int)
	for _, shard := range b.peers.Shards() {
		byShard[shard] = len(b.peers.ShardPeers(shard))
	}
	return NetworkState{
		LocalShard:   b.localShard,
		ShardCount:   b.shardCount,
		PeerCount:    b.peers.Len(),
		PeersByShard: byShard,
	}
}

// ClientInfo implements spec.md §4.9's client_info() → map<shard_num,
// ChainInfo?>, built from the best Status seen per shard (plus this node's
// own shard, from UpdateLocalInfo).
func (b *Bridge) ClientInfo() map[uint16]*external.ChainInfo {
	out := make(map[uint16]*external.ChainInfo)

	for _, shard := range b.peers.Shards() {
		var best *Status
		for _, pid := range b.peers.ShardPeers(shard) {
			s, ok := b.peers.Status(pid)
			if !ok {
				continue
			}
			if best == nil || s.BestNumber > best.BestNumber {
				stash := s
				best = &stash
			}
		}
		if best != nil {
			bestHash, genesisHash, bestNumber := clientInfoOf(*best)
			out[shard] = &external.ChainInfo{
				BestHash:    bestHash,
				BestNumber:  bestNumber,
				GenesisHash: genesisHash,
			}
		}
	}

	b.mu.RLock()
	local := b.localInfo
	b.mu.RUnlock()
	if local != (external.ChainInfo{}) {
		localCopy := local
		out[b.localShard] = &localCopy
	}
	return out
}

// Inspect implements spec.md §4.9's inspect() diagnostic surface.
func (b *Bridge) Inspect() map[string]interface{} {
	return map[string]interface{}{
		"local_shard": b.localShard,
		"shard_count": b.shardCount,
		"peers":       b.peers.Len(),
		"shards":      b.peers.Shards(),
	}
}

// SubscribeStatus implements spec.md §4.9's status subscription capability:
// the returned channel receives every compatible Status processed by the
// bridge. Buffered generously so a slow subscriber cannot stall the pump;
// callers that fall behind simply miss older updates, not newer ones.
func (b *Bridge) SubscribeStatus() <-chan Status {
	ch := make(chan Status, 64)
	b.subMu.Lock()
	b.subs = append(b.subs, ch)
	b.subMu.Unlock()
	return ch
}

func (b *Bridge) notifyStatus(status Status) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- status:
		default:
			// Full: drop the oldest buffered status to make room for this one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}
