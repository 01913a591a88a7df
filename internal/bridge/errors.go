package bridge

import "errors"

// Sentinel errors a Connector implementation should wrap its failures in, so
// DeviceBridge can classify them per spec.md §7's error-handling design
// without depending on any particular CoAP library's error types.
var (
	// ErrNetwork indicates a transient transport failure (connection reset,
	// host unreachable, etc.) distinct from a timeout.
	ErrNetwork = errors.New("bridge: coap network error")

	// ErrValidation indicates the device response failed validation — a
	// digest mismatch or a value that couldn't be parsed. Never transient:
	// the bridge disconnects and republishes OFFLINE rather than retrying
	// the same session.
	ErrValidation = errors.New("bridge: coap validation error")

	// ErrLibraryShutdown indicates the underlying CoAP library is already
	// tearing itself down (process exit in progress). The bridge abandons
	// the current operation without tearing down its own connection state.
	ErrLibraryShutdown = errors.New("bridge: coap library shutting down")
)

// ErrUnknownHost is returned by Group.Dispatch when no configured
// device matches the given host.
var ErrUnknownHost = errors.New("bridge: unknown device host")
