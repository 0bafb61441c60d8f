// Package node assembles the PoW worker, the import queue, the CRFG voter
// driver and the foreign-network bridge into one running process, the same
// role the teacher's eth.Ethereum (eth/backend.go) plays for go-ethereum:
// one struct holding every subsystem, a constructor that wires them against
// each other's collaborator interfaces, and Start/Stop lifecycle methods.
package node

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/yeeco/go-yee/consensus/crfg"
	"github.com/yeeco/go-yee/consensus/pow"
	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/external"
	"github.com/yeeco/go-yee/foreign/network"
	"github.com/yeeco/go-yee/importqueue"
	"github.com/yeeco/go-yee/sharding"
	"github.com/yeeco/go-yee/yeeparams"
)

// Deps bundles every external, out-of-scope collaborator a Node is built
// from (spec.md §6): the runtime oracle, block store, tx pool, proposer,
// clock, the two signers (PoW authority + CRFG voter), the foreign-network
// transport and the voter-round implementation. None of these are
// implemented in this repository; they are the seams spec.md §1 names as
// "out-of-scope collaborators".
type Deps struct {
	Oracle    external.RuntimeOracle
	Store     external.BlockStore
	Pool      external.TxPool
	Proposer  external.Proposer
	Clock     external.Clock
	Sync      pow.SyncOracle
	PoWSigner pow.Signer

	Importer     importqueue.BlockImporter
	VoterFactory crfg.VoterFactory
	Transport    network.Transport

	GenesisCrfgAuthorities []chain.Authority
}

// Node is the process-level assembly of one yee shard validator: a PoW
// worker producing blocks, an import queue serializing verify→import→hook
// for every block regardless of origin, a CRFG voter driver pursuing
// finality, a scale-out restarter, and a foreign-network bridge carrying
// relay extrinsics to other shards.
type Node struct {
	cfg yeeparams.ChainConfig

	queue  *importqueue.Queue
	worker *pow.Worker
	voter  *crfg.Driver
	bridge *network.Bridge

	onExit chan struct{}
	wg     sync.WaitGroup
}

// New wires cfg and deps into a Node, without starting any driver (see
// Start). localShard is this process's shard assignment.
func New(cfg yeeparams.ChainConfig, deps Deps, localShard uint16) (*Node, error) {
	yeeparams.ApplyDefaults(&cfg)

	verifier, err := pow.NewVerifier(cfg.PoW, deps.Oracle, deps.Store, deps.Clock, 4096)
	if err != nil {
		return nil, errors.Wrap(err, "node: construct pow verifier")
	}

	commands := make(chan crfg.VoterCommand, 64)
	store := crfg.NewStoreFromAux(deps.Store)

	hook, err := crfg.NewImportHook(store, deps.GenesisCrfgAuthorities, commands)
	if err != nil {
		return nil, errors.Wrap(err, "node: construct crfg import hook")
	}

	voter, err := crfg.NewDriver(store, deps.VoterFactory, deps.Store, commands, deps.GenesisCrfgAuthorities)
	if err != nil {
		return nil, errors.Wrap(err, "node: construct crfg voter driver")
	}

	queue := importqueue.NewQueue(verifier, deps.Importer, hook, 1024)

	worker := pow.NewWorker(cfg.PoW, deps.Oracle, deps.Store, deps.Clock, deps.Proposer, queueImporter{queue}, deps.Sync, deps.PoWSigner)

	genesisStatus := network.Status{GenesisHash: deps.Store.Info().GenesisHash}
	bridge := network.NewBridge(localShard, cfg.ShardCount, genesisStatus, deps.Transport, deps.Pool)

	return &Node{
		cfg:    cfg,
		queue:  queue,
		worker: worker,
		voter:  voter,
		bridge: bridge,
		onExit: make(chan struct{}),
	}, nil
}

// queueImporter adapts the import queue to the pow.Importer seam: a
// freshly mined block is submitted to the same serial verify→import→hook
// pipeline every network-received block passes through, per spec.md §4.4's
// "Import ordering requirement: all blocks (network, own-mined, synced)
// pass through this hook exactly once."
type queueImporter struct {
	queue *importqueue.Queue
}

func (q queueImporter) ImportOwn(block *chain.Block) error {
	return q.queue.Submit(importqueue.Item{Block: block, OnCanonical: true})
}

// AttachRestarter wires the scale-out restarter (spec.md §4.10) onto the
// import queue, so every imported header is observed for a scale-out
// trigger. onSignal receives Restart/Stop process-control signals.
func (n *Node) AttachRestarter(r *sharding.Restarter, onSignal func(sharding.Signal)) {
	n.queue = n.queue.WithRestarter(r, onSignal)
}

// Start launches every driver as a cooperative task on its own goroutine,
// all selecting against the same on_exit signal (spec.md §5).
func (n *Node) Start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.worker.Run(n.onExit)
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.queue.Run(n.onExit); err != nil {
			log.Error("node: import queue exited with error", "err", err)
		}
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.voter.Run(n.onExit); err != nil {
			log.Error("node: crfg voter driver exited with error", "err", err)
		}
	}()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.bridge.Run(n.onExit); err != nil {
			log.Error("node: foreign bridge exited with error", "err", err)
		}
	}()
}

// Stop signals every driver's on_exit and waits for them to unwind,
// mirroring the teacher's Ethereum.Stop shutdown sequencing.
func (n *Node) Stop() error {
	n.worker.Stop()
	close(n.onExit)
	n.wg.Wait()
	return nil
}

// Bridge exposes the foreign-network bridge's diagnostic surface
// (network_state/client_info/inspect, spec.md §4.9) to an RPC layer, out of
// this repository's scope.
func (n *Node) Bridge() *network.Bridge { return n.bridge }

// Submit enqueues a network- or sync-received block for the import queue
// (spec.md §4.4's "fed by network and miner").
func (n *Node) Submit(item importqueue.Item) error {
	return n.queue.Submit(item)
}
