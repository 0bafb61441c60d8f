package crfg

import "errors"

// errNonInOrderHandoff is a CrfgSafety violation: the consensus-changes log
// disagrees with the authority set's own pending-change list about which
// height should fire next.
var errNonInOrderHandoff = errors.New("crfg: non-in-order authority-set handoff")
