package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device id does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrExists is returned when registering a device id that is already
	// registered anywhere on the server. Device ids are globally unique,
	// not merely unique within one account.
	ErrExists = errors.New("device: already registered")
)
