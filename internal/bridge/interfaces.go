package bridge

import (
	"context"
	"time"

	"github.com/nerrad567/coap2mqtt-bridge/internal/device"
)

// Logger is the narrow structured-logging capability every component in
// this package depends on instead of a concrete logger type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Connector is one device's CoAP session, per spec.md §6's external CoAP
// client contract. Implementations should wrap library errors in ErrNetwork,
// ErrValidation, or ErrLibraryShutdown so DeviceBridge can classify them.
//
// Connect and Shutdown toggle the session; GetStatus and SetControlValues
// are only ever called while the bridge believes the session is connected.
// All methods must honor ctx cancellation so the bridge's watchdog and
// shutdown paths can bound them.
type Connector interface {
	// Connect establishes the CoAP session. Called with a context bounded
	// by the configured connection_timeout (unbounded if zero).
	Connect(ctx context.Context) error

	// Shutdown tears down the CoAP session. Idempotent.
	Shutdown(ctx context.Context) error

	// GetStatus fetches the device's current raw status dictionary and the
	// device-reported max_age before the next poll should occur. Called
	// with a context bounded by the configured status_timeout.
	GetStatus(ctx context.Context) (device.RawStatus, time.Duration, error)

	// SetControlValues pushes one command (a minimal raw sub-mapping) to
	// the device.
	SetControlValues(ctx context.Context, cmd device.Command) error
}

// StatePublisher is the capability a DeviceBridge needs from the MQTT
// Connection, breaking the circular reference spec.md §9 calls out between
// bridges and the MQTT connection.
type StatePublisher interface {
	PublishState(host string, state *device.State) error
	PublishOnline(host string) error
	PublishOffline(host string) error
}

// CommandRouter is the capability the MQTT Connection needs from the Bridge
// Group: routing an inbound `<root>/<host>/set/<attr>` message to the owning
// bridge without naming DeviceBridge or BridgeGroup directly.
type CommandRouter interface {
	SendUpdate(ctx context.Context, host, attribute, value string)
}
