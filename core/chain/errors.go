package chain

import "errors"

var (
	// errJustificationTargetMismatch is returned when a Justification's
	// claimed target disagrees with its embedded commit or precommits.
	errJustificationTargetMismatch = errors.New("chain: justification target mismatch")
)
