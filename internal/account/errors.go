package account

import "errors"

// Domain errors for the account package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, account.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an account id does not exist.
	ErrNotFound = errors.New("account: not found")

	// ErrIDCollision is returned when a freshly generated account id is
	// already registered. With random 128-bit ids this should never
	// happen; it indicates a broken id source, not a client mistake.
	ErrIDCollision = errors.New("account: id collision")
)
