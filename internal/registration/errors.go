package registration

import "errors"

// Domain errors for the registration package. The API layer maps these to
// wire status codes.
var (
	// ErrDeviceRegistered is returned when the device id is already
	// registered. It is checked before any share code is touched, so a
	// doomed request never spends a one-time code.
	ErrDeviceRegistered = errors.New("registration: device already registered")

	// ErrCredentialsWithoutShare is returned when account credentials are
	// presented without a share code; there is nothing such a request
	// could mean.
	ErrCredentialsWithoutShare = errors.New("registration: share code required when credentials are provided")

	// ErrCredentialsRequired is returned when a share code is presented
	// without account credentials.
	ErrCredentialsRequired = errors.New("registration: account credentials required to use a share code")

	// ErrInvalidShare is returned when a share code cannot be resolved or
	// does not belong to the presented account.
	ErrInvalidShare = errors.New("registration: invalid share code")

	// ErrShareRace is returned when a resolved share code could not be
	// consumed because a concurrent request won the race. Under correct
	// single-consumer semantics this should not occur, but it must be
	// handled.
	ErrShareRace = errors.New("registration: share code already consumed")

	// ErrAccountVanished is returned when the share's account disappears
	// between resolution and device creation. The consumed share is
	// restored before this is reported.
	ErrAccountVanished = errors.New("registration: share account no longer exists")
)
