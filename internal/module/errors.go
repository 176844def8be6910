package module

import "errors"

// Domain errors for the module package.
var (
	// ErrInvalidID is returned when a module id is empty, too long, or
	// not of the dotted lowercase-segment form.
	ErrInvalidID = errors.New("module: invalid id")
)
