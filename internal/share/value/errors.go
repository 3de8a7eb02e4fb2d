package value

import "errors"

var (
	// ErrFrozen is returned by every mutator of a frozen composite.
	ErrFrozen = errors.New("value: composite is frozen")

	// ErrIndex is returned when a list index is out of range.
	ErrIndex = errors.New("value: index out of range")
)
