// Package importqueue implements the serial FIFO verify→import→hook
// pipeline every block (network-received, own-mined, or synced) passes
// through exactly once, per spec.md §4.4.
package importqueue

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"

	"github.com/yeeco/go-yee/core/chain"
	"github.com/yeeco/go-yee/errkind"
	"github.com/yeeco/go-yee/sharding"
)

var (
	importedMeter = metrics.NewRegisteredMeter("importqueue/imported", nil)
	failedMeter   = metrics.NewRegisteredMeter("importqueue/failed", nil)
)

var errEmptyItem = errors.New("importqueue: item carries neither a block nor a justification")

// clientImportMaxRetries bounds how many times an item failing with a
// ClientImport-kind error is re-enqueued before the queue gives up, per
// spec.md §7: "Retried by the queue up to a small bound; persistent
// failure is fatal."
const clientImportMaxRetries = 3

// Verifier checks a candidate header before it is handed to the importer,
// per spec.md §4.2.
type Verifier interface {
	Verify(header *chain.Header) (*chain.Seal, error)
}

// BlockImporter commits a verified block, or a justification, to the block
// store. Justifications use a dedicated path on the same importer, per
// spec.md §4.4 ("justifications import via the same block-importer with a
// dedicated path").
type BlockImporter interface {
	ImportBlock(block *chain.Block) error
	ImportJustification(justification *chain.Justification) error
}

// ImportHook is run synchronously after verification and after ImportBlock
// has returned successfully — spec.md §4.5's CRFG block-import hook. It
// does not run before the block is committed; an error from it fails the
// item but leaves the block imported. It is consulted on every block,
// never on justifications.
type ImportHook interface {
	OnImport(header *chain.Header, onCanonicalFinalizedBranch bool, finalizedNumber uint64) error
}

// Item is one unit of work submitted to the queue.
type Item struct {
	Block         *chain.Block
	Justification *chain.Justification
	OnCanonical   bool   // whether Block lies on the canonical finalized branch
	FinalizedAt   uint64 // the block store's finalized height at submission time

	// retries counts prior ClientImport-kind failures for this item; it is
	// queue-internal bookkeeping, never set by callers of Submit.
	retries int
}

// Queue is a single-consumer FIFO: Submit enqueues, Run drains it serially
// until onExit fires. A failed item is logged and dropped and the queue
// keeps draining subsequent items (spec.md §4.4), except for a ClientImport
// failure that outlasts clientImportMaxRetries re-enqueues or cannot be
// re-enqueued because the backlog is full: Run then returns that error.
type Queue struct {
	items     chan Item
	verifier  Verifier
	importer  BlockImporter
	hook      ImportHook
	restarter *sharding.Restarter // optional; nil when scale-out is not configured
	onSignal  func(sharding.Signal)
}

// NewQueue constructs a Queue with the given verify/import/hook
// collaborators and a bounded backlog capacity.
func NewQueue(verifier Verifier, importer BlockImporter, hook ImportHook, capacity int) *Queue {
	return &Queue{
		items:    make(chan Item, capacity),
		verifier: verifier,
		importer: importer,
		hook:     hook,
	}
}

// WithRestarter attaches the scale-out restarter (spec.md §4.10); onSignal
// is invoked with any non-SignalNone result of Observe.
func (q *Queue) WithRestarter(r *sharding.Restarter, onSignal func(sharding.Signal)) *Queue {
	q.restarter = r
	q.onSignal = onSignal
	return q
}

// Submit enqueues an item, blocking if the queue's backlog is full. FIFO
// ordering falls directly out of using a single channel.
func (q *Queue) Submit(item Item) error {
	if item.Block == nil && item.Justification == nil {
		return errEmptyItem
	}
	q.items <- item
	return nil
}

// Run drains the queue until onExit fires, processing exactly one item at a
// time (spec.md §5: "the import queue is strictly serial per block"). A
// ClientImport-kind failure is re-enqueued up to clientImportMaxRetries
// times before being treated as fatal; every other kind is logged and
// drops only the one item (spec.md §4.4, §7).
func (q *Queue) Run(onExit <-chan struct{}) error {
	for {
		select {
		case <-onExit:
			return nil
		case item := <-q.items:
			if err := q.process(item); err != nil {
				failedMeter.Mark(1)
				if kind, ok := errkind.Of(err); ok && kind == errkind.ClientImport {
					if item.retries < clientImportMaxRetries {
						item.retries++
						log.Warn("importqueue: client import failed, re-enqueuing", "attempt", item.retries, "err", err)
						select {
						case q.items <- item:
						default:
							return errors.Wrap(err, "importqueue: backlog full re-enqueuing after client import failure")
						}
						continue
					}
					log.Error("importqueue: client import failed past retry bound, aborting", "retries", item.retries, "err", err)
					return errors.Wrap(err, "importqueue: persistent client import failure")
				}
				log.Error("importqueue: item failed, continuing with next item", "err", err)
				continue
			}
			importedMeter.Mark(1)
		}
	}
}

func (q *Queue) process(item Item) error {
	if item.Justification != nil {
		if err := item.Justification.Verify(); err != nil {
			return errkind.Wrap(errkind.VerificationRejected, err, "justification")
		}
		if err := q.importer.ImportJustification(item.Justification); err != nil {
			return errkind.Wrap(errkind.ClientImport, err, "import justification")
		}
		return nil
	}

	header := item.Block.Header
	if _, err := q.verifier.Verify(header); err != nil {
		return errkind.Wrap(errkind.VerificationRejected, err, "verify")
	}
	if err := q.importer.ImportBlock(item.Block); err != nil {
		return errkind.Wrap(errkind.ClientImport, err, "import block")
	}
	if q.hook != nil {
		if err := q.hook.OnImport(header, item.OnCanonical, item.FinalizedAt); err != nil {
			return errors.Wrap(err, "import hook")
		}
	}
	if q.restarter != nil {
		if sig := q.restarter.Observe(header); sig != sharding.SignalNone && q.onSignal != nil {
			q.onSignal(sig)
		}
	}
	return nil
}
