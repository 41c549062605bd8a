package backtest

import "errors"

// Engine errors
var (
	// ErrInvalidSnapshot is returned under the abort policy when a snapshot
	// fails book validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrOutOfOrder is returned under the abort policy when a snapshot's
	// timestamp is earlier than the previous accepted snapshot.
	ErrOutOfOrder = errors.New("snapshot out of order")

	// ErrUnknownPolicy is returned when parsing an unrecognized policy name.
	ErrUnknownPolicy = errors.New("unknown invalid-snapshot policy")
)
