package share

import "errors"

// Domain errors for the share package.
var (
	// ErrNotFound is returned when a share code is unknown, expired, or
	// already consumed. Callers cannot distinguish the three, which is
	// deliberate: a share code is a capability and reveals nothing once
	// spent.
	ErrNotFound = errors.New("share: not found")

	// ErrCodeCollision is returned when a freshly generated share code is
	// already registered. With 256-bit random codes this should never
	// happen; it indicates a broken randomness source.
	ErrCodeCollision = errors.New("share: code collision")
)
