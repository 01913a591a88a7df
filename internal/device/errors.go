package device

import "errors"

// Sentinel errors returned by State operations.
var (
	// ErrUnknownAttribute is returned when reading, writing, or asking for
	// admissible values of an attribute the device model doesn't declare.
	ErrUnknownAttribute = errors.New("device: unknown attribute")

	// ErrReadOnly is returned when Write is called on an attribute that has
	// no encoder.
	ErrReadOnly = errors.New("device: attribute is read-only")

	// ErrInvalidValue is returned when the supplied value cannot be coerced
	// into the attribute's declared type, including by enum-name lookup.
	ErrInvalidValue = errors.New("device: invalid value")

	// ErrUnknownModel is returned by New when asked to build a device model
	// name the registry doesn't recognise.
	ErrUnknownModel = errors.New("device: unknown model")
)
