package jsgen

import "errors"

var (
	// ErrUnknownKind means a node kind has no built-in dispatch and no
	// registered extension. The script cannot be compiled.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrYieldMismatch means a yield was emitted for a script whose header
	// does not declare yields. This indicates a producer bug.
	ErrYieldMismatch = errors.New("script yielded but is not marked as yielding")
)
