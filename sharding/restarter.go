package sharding

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/yeeco/go-yee/core/chain"
)

// ScaleOut configures a pending shard-topology change, per spec.md §4.10.
type ScaleOut struct {
	NewShardCount uint16
	TriggerBlock  uint64 // number at which the restarter evaluates the new sharding
}

// Signal is a process-control signal emitted to the supervising CLI.
type Signal int

const (
	// SignalNone is returned by Observe when no trigger condition fired.
	SignalNone Signal = iota
	SignalRestart
	SignalStop
)

// Trigger is invoked with the new shard id when the restarter decides the
// outer process must restart under the new sharding.
type Trigger func(newShardNum uint16) Signal

// Restarter watches imported headers for the configured scale-out trigger
// block and, once reached, checks whether the candidate validator's
// coinbase now routes to a different shard under the new shard count. This
// mirrors the teacher's scheduler.go shape (parameters cached at
// construction, a single decision function consulted per block) adapted
// from "whose turn is it to seal" to "does my coinbase still belong here".
type Restarter struct {
	mu       sync.Mutex
	coinbase common.Address
	current  uint16
	pending  *ScaleOut
	trigger  Trigger
	fired    bool
}

// NewRestarter constructs a Restarter for a validator identified by
// coinbase, currently mining shard current, invoking trigger once the
// configured ScaleOut condition is reached.
func NewRestarter(coinbase common.Address, current uint16, pending *ScaleOut, trigger Trigger) *Restarter {
	return &Restarter{
		coinbase: coinbase,
		current:  current,
		pending:  pending,
		trigger:  trigger,
	}
}

// Observe is called by the import queue for every newly imported header,
// whether or not it is on the canonical chain. It returns SignalNone until the
// configured trigger block is reached, after which it fires exactly once.
func (r *Restarter) Observe(header *chain.Header) Signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil || r.fired {
		return SignalNone
	}
	if header.Number < r.pending.TriggerBlock {
		return SignalNone
	}
	r.fired = true

	newShard := ComputeShard(r.coinbase.Bytes(), r.pending.NewShardCount)
	if newShard == r.current {
		log.Info("sharding: scale-out reached, coinbase stays on current shard",
			"shard", r.current, "newShardCount", r.pending.NewShardCount)
		return SignalStop
	}

	log.Info("sharding: scale-out reached, coinbase routes to new shard",
		"oldShard", r.current, "newShard", newShard, "newShardCount", r.pending.NewShardCount)
	if r.trigger != nil {
		return r.trigger(newShard)
	}
	return SignalRestart
}

// Reconfigure installs a new pending ScaleOut condition, replacing any
// prior one and resetting the fired latch.
func (r *Restarter) Reconfigure(pending *ScaleOut) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = pending
	r.fired = false
}
