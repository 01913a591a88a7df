package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/coap2mqtt-bridge/internal/device"
)

// connState is the Device Bridge's connection/poll state machine, per
// spec.md §4.2.
type connState int

const (
	stateDisconnected connState = iota
	stateIdle
	statePolling
	stateSleeping
)

// Tuning constants matching spec.md §4.2/§7's documented defaults.
const (
	// initialCycleTime is the sleep used before the device has ever
	// reported a max_age.
	initialCycleTime = 30 * time.Second

	// minCycleTime is the floor applied to every derived cycle_time
	// regardless of the device-reported max_age (testable property 8).
	minCycleTime = 10 * time.Second

	// networkRetryBackoff is the pause after a transient network error,
	// both for connect attempts and mid-poll failures.
	networkRetryBackoff = 10 * time.Second
)

// Options configures a DeviceBridge.
type Options struct {
	Host              string
	Model             string
	Connector         Connector
	Logger            Logger
	ConnectionTimeout time.Duration // 0 = unbounded
	StatusTimeout     time.Duration // bounds each get_status call
}

// DeviceBridge owns one device's CoAP session and republishes its decoded
// state over MQTT. Create with New, drive with Observe, and stop with
// Shutdown. Safe for concurrent use: Observe runs on its own goroutine;
// SendUpdate is called from the MQTT subscriber goroutine.
type DeviceBridge struct {
	host  string
	model string

	connector         Connector
	logger            Logger
	connectionTimeout time.Duration
	statusTimeout     time.Duration

	state   *device.State
	publish StatePublisher

	// connMu serializes connect/disconnect across Observe and SendUpdate,
	// per spec.md §3's "exactly one outstanding connect attempt" invariant.
	connMu    sync.Mutex
	connected bool

	// fsm is only touched from the Observe goroutine.
	fsm       connState
	cycleTime time.Duration

	// wake is a one-shot, non-blocking signal that cancels the current
	// Sleeping state's observe_wait, per spec.md §9's "interruptible sleep"
	// design note.
	wake chan struct{}

	// wasOnline mirrors the liveness value most recently published for
	// this host (spec.md §3 invariant).
	liveMu    sync.Mutex
	wasOnline bool

	runMu   sync.Mutex
	running bool

	stopOnce sync.Once
}

// New creates a DeviceBridge for one configured device. The bridge is
// created with running = true; call Shutdown to stop it.
func New(opts Options) (*DeviceBridge, error) {
	if opts.Connector == nil {
		return nil, errors.New("bridge: connector is required")
	}
	st, err := device.New(opts.Model)
	if err != nil {
		return nil, fmt.Errorf("bridge %s: %w", opts.Host, err)
	}

	return &DeviceBridge{
		host:              opts.Host,
		model:             opts.Model,
		connector:         opts.Connector,
		logger:            opts.Logger,
		connectionTimeout: opts.ConnectionTimeout,
		statusTimeout:     opts.StatusTimeout,
		state:             st,
		fsm:               stateDisconnected,
		cycleTime:         initialCycleTime,
		wake:              make(chan struct{}, 1),
		wasOnline:         true, // forces the initial OFFLINE publish in Observe
		running:           true,
	}, nil
}

// Host returns the device host this bridge manages.
func (b *DeviceBridge) Host() string { return b.host }

// State returns the bridge's typed device state, for the HTTP API and tests.
func (b *DeviceBridge) State() *device.State { return b.state }

// IsConnected reports whether the CoAP session is currently established.
func (b *DeviceBridge) IsConnected() bool {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return b.connected
}

// Observe drives the connection state machine until ctx is cancelled or
// Shutdown is called. It publishes an initial OFFLINE status, then loops:
// Disconnected → Idle → Polling → Sleeping → Idle → ...
func (b *DeviceBridge) Observe(ctx context.Context, publisher StatePublisher) {
	b.publish = publisher
	b.publishOffline()

	for b.isRunning() {
		select {
		case <-ctx.Done():
			b.Shutdown()
			return
		default:
		}

		switch b.fsm {
		case stateDisconnected:
			if b.connect(ctx) {
				b.fsm = stateIdle
			}
		case stateIdle:
			b.fsm = statePolling
		case statePolling:
			b.poll(ctx)
		case stateSleeping:
			b.sleep(ctx)
		}
	}
}

// connect attempts to establish the CoAP session, honoring
// connection_timeout (0 = unbounded). Returns true on success.
func (b *DeviceBridge) connect(ctx context.Context) bool {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if b.connected {
		return true
	}

	cctx := ctx
	cancel := func() {}
	if b.connectionTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, b.connectionTimeout)
	}
	defer cancel()

	err := b.connector.Connect(cctx)
	if err == nil {
		b.connected = true
		return true
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		b.logWarn("connect timed out", "host", b.host, "error", err)
	case errors.Is(err, ErrNetwork):
		b.logWarn("connect network error, backing off", "host", b.host, "error", err)
		b.interruptibleWait(ctx, networkRetryBackoff)
	default:
		b.logWarn("connect failed, backing off", "host", b.host, "error", err)
		b.interruptibleWait(ctx, networkRetryBackoff)
	}
	b.publishOffline()
	return false
}

// poll performs one get_status call bounded by a watchdog timeout and
// transitions the state machine per spec.md §4.2.
func (b *DeviceBridge) poll(ctx context.Context) {
	timeout := b.statusTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, maxAge, err := b.connector.GetStatus(reqCtx)

	switch {
	case err == nil:
		b.state.ReplaceRaw(raw)
		b.publishOnline()
		if b.publish != nil {
			if pubErr := b.publish.PublishState(b.host, b.state); pubErr != nil {
				b.logWarn("publish state failed", "host", b.host, "error", pubErr)
			}
		}
		b.cycleTime = cycleTimeFor(maxAge)
		b.fsm = stateSleeping

	case errors.Is(err, context.DeadlineExceeded):
		// Request watchdog expired: testable property 7.
		b.logWarn("status watchdog expired, going offline", "host", b.host)
		b.forceDisconnect(ctx)
		b.publishOffline()
		b.fsm = stateDisconnected

	case errors.Is(err, ErrLibraryShutdown):
		// Abandon this attempt; remain in the current connection state and
		// let the outer loop retry, per spec.md §4.2.
		b.logDebug("coap library shutting down, retrying", "host", b.host)

	case errors.Is(err, ErrValidation):
		b.logWarn("status validation failed, disconnecting", "host", b.host, "error", err)
		b.forceDisconnect(ctx)
		b.publishOffline()
		b.fsm = stateDisconnected

	default:
		b.logWarn("status fetch failed, disconnecting", "host", b.host, "error", err)
		b.forceDisconnect(ctx)
		b.publishOffline()
		b.interruptibleWait(ctx, networkRetryBackoff)
		b.fsm = stateDisconnected
	}
}

// cycleTimeFor derives the next sleep duration from a device-reported
// max_age, applying the minCycleTime floor (testable property 8).
func cycleTimeFor(maxAge time.Duration) time.Duration {
	d := maxAge - networkRetryBackoff
	if d < minCycleTime {
		return minCycleTime
	}
	return d
}

// sleep waits for cycleTime, an explicit wake from SendUpdate, or ctx
// cancellation, then transitions back to Idle (which re-enters Polling on
// the next loop iteration).
func (b *DeviceBridge) sleep(ctx context.Context) {
	timer := time.NewTimer(b.cycleTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	case <-b.wake:
	}
	b.fsm = stateIdle
}

// interruptibleWait blocks for d or until ctx is cancelled, whichever comes
// first.
func (b *DeviceBridge) interruptibleWait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// forceDisconnect tears down the CoAP session without regard to prior
// state, used by the watchdog and validation-error paths.
func (b *DeviceBridge) forceDisconnect(ctx context.Context) {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	if !b.connected {
		return
	}
	if err := b.connector.Shutdown(ctx); err != nil {
		b.logWarn("coap shutdown error", "host", b.host, "error", err)
	}
	b.connected = false
}

// SendUpdate resolves attribute, coerces value, drains the resulting
// commands, and dispatches them over the CoAP session in order, then wakes
// the sleeping poll loop so the device is re-polled immediately. Any
// failure is logged and swallowed: a bad command must never kill the
// bridge (spec.md §4.2, §7).
//
// Every call is tagged with a fresh correlation ID so the write that
// produced a command can be traced through the log lines of its eventual
// SetControlValues attempt, even when several writes are in flight.
func (b *DeviceBridge) SendUpdate(ctx context.Context, attribute, value string) {
	corrID := uuid.NewString()

	if err := b.state.Write(attribute, value); err != nil {
		switch {
		case errors.Is(err, device.ErrUnknownAttribute):
			b.logWarn("ignoring command for unknown attribute", "host", b.host, "attribute", attribute, "correlation_id", corrID)
		default:
			b.logWarn("rejecting invalid command", "host", b.host, "attribute", attribute, "value", value, "error", err, "correlation_id", corrID)
		}
		return
	}

	cmds := b.state.DrainCommands()
	if len(cmds) == 0 {
		b.logWarn("write produced no commands to send", "host", b.host, "attribute", attribute, "correlation_id", corrID)
		return
	}

	if !b.IsConnected() {
		b.logWarn("dropping commands, not connected", "host", b.host, "attribute", attribute, "correlation_id", corrID)
		b.signalWake()
		return
	}

	for _, cmd := range cmds {
		if err := b.connector.SetControlValues(ctx, cmd); err != nil {
			b.logWarn("command send failed", "host", b.host, "attribute", attribute, "error", err, "correlation_id", corrID)
			break
		}
	}

	b.signalWake()
}

// signalWake cancels the current Sleeping state's observe_wait without
// blocking. If the bridge isn't sleeping, the signal stays buffered and ends
// the next sleep at once; it is a no-op only when a wake is already pending.
func (b *DeviceBridge) signalWake() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Wake cancels the current Sleeping state's observe_wait, forcing an
// immediate re-poll on the next loop iteration. Exported for the operator
// HTTP API's manual "refresh now" control; SendUpdate calls the same
// mechanism internally after dispatching a command.
func (b *DeviceBridge) Wake() {
	b.signalWake()
}

// Model returns the configured device_model name for this bridge.
func (b *DeviceBridge) Model() string { return b.model }

// Shutdown stops the observe loop and disconnects the CoAP session.
// Idempotent.
func (b *DeviceBridge) Shutdown() {
	b.stopOnce.Do(func() {
		b.runMu.Lock()
		b.running = false
		b.runMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), networkRetryBackoff)
		defer cancel()
		b.forceDisconnect(ctx)
	})
}

func (b *DeviceBridge) isRunning() bool {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	return b.running
}

// publishOnline publishes ONLINE iff the liveness mirror was false,
// updating the mirror before publishing (testable property 1).
func (b *DeviceBridge) publishOnline() {
	b.liveMu.Lock()
	if b.wasOnline {
		b.liveMu.Unlock()
		return
	}
	b.wasOnline = true
	b.liveMu.Unlock()

	if b.publish == nil {
		return
	}
	if err := b.publish.PublishOnline(b.host); err != nil {
		b.logWarn("publish online failed", "host", b.host, "error", err)
	}
}

// publishOffline publishes OFFLINE iff the liveness mirror was true,
// updating the mirror before publishing (testable property 1).
func (b *DeviceBridge) publishOffline() {
	b.liveMu.Lock()
	if !b.wasOnline {
		b.liveMu.Unlock()
		return
	}
	b.wasOnline = false
	b.liveMu.Unlock()

	if b.publish == nil {
		return
	}
	if err := b.publish.PublishOffline(b.host); err != nil {
		b.logWarn("publish offline failed", "host", b.host, "error", err)
	}
}

func (b *DeviceBridge) logWarn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *DeviceBridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
