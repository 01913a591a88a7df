package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HealthPublisher is the capability the HealthReporter needs from the MQTT
// connection: a raw topic publish, distinct from StatePublisher's
// per-device semantics, per the teacher's knx HealthReporter split.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// HealthStatus is the bridge process's own liveness, separate from any one
// device's online/offline status.
type HealthStatus string

const (
	HealthStarting  HealthStatus = "starting"
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthStopping  HealthStatus = "stopping"
)

// HealthMessage is the retained JSON payload published to the bridge health
// topic, giving operators one place to see "is the bridge process itself
// alive" separate from per-device CoAP reachability (SPEC_FULL.md §4's
// ambient-health note).
type HealthMessage struct {
	InstanceID  string       `json:"instance_id"`
	Version     string       `json:"version"`
	Status      HealthStatus `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	DeviceCount int          `json:"device_count"`
	UptimeSec   int64        `json:"uptime_seconds"`
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	Topic     string
	Version   string
	Interval  time.Duration // default 30s
	Publisher HealthPublisher
	Group     *Group
	Logger    Logger
}

// HealthReporter periodically publishes a retained bridge-level health
// message, adapted from the teacher's knx HealthReporter. Every instance is
// tagged with a random instance_id so operators can tell a restarted
// process apart from a long-lived one in retained-message history.
type HealthReporter struct {
	instanceID string
	topic      string
	version    string
	startTime  time.Time
	interval   time.Duration
	publisher  HealthPublisher
	group      *Group
	logger     Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a HealthReporter ready to Start.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "coap_devices/bridge/health"
	}

	return &HealthReporter{
		instanceID: uuid.NewString(),
		topic:      topic,
		version:    cfg.Version,
		startTime:  time.Now(),
		interval:   interval,
		publisher:  cfg.Publisher,
		group:      cfg.Group,
		logger:     cfg.Logger,
		done:       make(chan struct{}),
	}
}

// InstanceID returns this reporter's (and therefore this process's)
// generated instance identifier.
func (h *HealthReporter) InstanceID() string { return h.instanceID }

// Start begins periodic health reporting on its own goroutine.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop gracefully stops health reporting, publishing a final "stopping"
// status. Idempotent.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		_ = h.publishStatus(HealthStopping, "")
	})
}

// PublishStarting publishes the initial "starting" status, typically called
// before the bridge group begins observing devices.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.publishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.publishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

func (h *HealthReporter) publishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil {
		return HealthDegraded, "no MQTT publisher configured"
	}
	if h.group == nil {
		return HealthHealthy, ""
	}
	for _, b := range h.group.Bridges() {
		if !b.IsConnected() {
			return HealthDegraded, "one or more devices disconnected"
		}
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	deviceCount := 0
	if h.group != nil {
		deviceCount = len(h.group.Bridges())
	}

	msg := HealthMessage{
		InstanceID:  h.instanceID,
		Version:     h.version,
		Status:      status,
		Reason:      reason,
		DeviceCount: deviceCount,
		UptimeSec:   int64(time.Since(h.startTime).Seconds()),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(h.topic, payload, 1, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, "error", err)
	}
}
