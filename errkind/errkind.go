// Package errkind tags an error with one of a fixed set of kinds, per
// spec.md §7's error-handling design: each kind carries its own
// propagation policy, and every tagged error increments a per-kind
// telemetry counter (the telemetry endpoint itself is an out-of-scope
// external collaborator; the counter is the observable stand-in for it).
package errkind

import (
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"
)

// Kind is one of spec.md §7's error kinds.
type Kind uint8

const (
	// VerificationRejected: bad seal, bad difficulty, bad timestamp, unknown
	// parent. Propagated to sender (peer reputation decreased); block
	// discarded.
	VerificationRejected Kind = iota
	// InherentData: missing or conflicting inherent provider. Fatal during
	// initialization; per-block instance demotes the block to Invalid.
	InherentData
	// ClientImport: storage error during import. Retried by the queue up to
	// a small bound; persistent failure is fatal.
	ClientImport
	// CrfgSafety: invariant violation (e.g. non-in-order handoff). Fatal;
	// the voter stops and the aux state is left at the last valid snapshot.
	CrfgSafety
	// Network: transport error. Non-fatal; individual send/receive failures
	// are logged.
	Network
	// Timer: timer subsystem failure. Voter treats as fatal; worker logs
	// and continues.
	Timer
	// Blockchain: best-effort read failure. Worker sleeps one cycle; voter
	// propagates.
	Blockchain
)

func (k Kind) String() string {
	switch k {
	case VerificationRejected:
		return "verification_rejected"
	case InherentData:
		return "inherent_data"
	case ClientImport:
		return "client_import"
	case CrfgSafety:
		return "crfg_safety"
	case Network:
		return "network"
	case Timer:
		return "timer"
	case Blockchain:
		return "blockchain"
	default:
		return "unknown"
	}
}

var counters = map[Kind]metrics.Counter{
	VerificationRejected: metrics.NewRegisteredCounter("errkind/verification_rejected", nil),
	InherentData:         metrics.NewRegisteredCounter("errkind/inherent_data", nil),
	ClientImport:         metrics.NewRegisteredCounter("errkind/client_import", nil),
	CrfgSafety:           metrics.NewRegisteredCounter("errkind/crfg_safety", nil),
	Network:              metrics.NewRegisteredCounter("errkind/network", nil),
	Timer:                metrics.NewRegisteredCounter("errkind/timer", nil),
	Blockchain:           metrics.NewRegisteredCounter("errkind/blockchain", nil),
}

// taggedError pairs an error with its kind, satisfying the standard error
// interface so callers that don't care about the kind can keep treating it
// as a plain error.
type taggedError struct {
	kind Kind
	err  error
}

func (t *taggedError) Error() string { return t.err.Error() }
func (t *taggedError) Cause() error  { return t.err }
func (t *taggedError) Unwrap() error { return t.err }

// Wrap tags err with kind and increments that kind's telemetry counter.
// Returns nil if err is nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	counters[kind].Inc(1)
	return &taggedError{kind: kind, err: errors.Wrap(err, message)}
}

// Of reports the Kind tagged onto err, if any, and whether one was found.
func Of(err error) (Kind, bool) {
	var t *taggedError
	if errors.As(err, &t) {
		return t.kind, true
	}
	return 0, false
}
