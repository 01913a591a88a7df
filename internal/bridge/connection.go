package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/coap2mqtt-bridge/internal/device"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/coap2mqtt-bridge/internal/infrastructure/store"
)

// MQTTClient is the narrow capability Connection needs from
// infrastructure/mqtt.Client: publish, subscribe, and connection state.
// Satisfied directly by *mqtt.Client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Broadcaster receives a copy of every attribute publish that passed the
// differential check, for a live operator-facing tail (the HTTP API's
// WebSocket surface) distinct from the durable MQTT publish itself.
type Broadcaster interface {
	BroadcastAttribute(host, attribute string, value any)
}

// HistorySink records decoded climate and filter-life samples for
// long-term trending, independent of (and unconditioned by) MQTT's
// differential publish — every successful poll gets one sample, not just
// changed ones, matching the teacher's InfluxDB sink's "record every
// reading" contract rather than mqtt's "record only changes" one.
type HistorySink interface {
	WriteClimateSample(host string, temperatureC int, humidityPct int)
	WriteFilterLife(host string, percentRemaining float64, runtimeSeconds int)
}

// Connection is the MQTT-facing half of the bridge: it turns decoded device
// state into the topic scheme in internal/infrastructure/mqtt.Topics,
// diffs each attribute against the last published value before publishing
// (spec.md §4.4's differential publish), and routes inbound `.../set/...`
// commands to the Bridge Group. It implements StatePublisher for
// DeviceBridge and is driven by a BridgeGroup acting as CommandRouter.
type Connection struct {
	client      MQTTClient
	topics      mqtt.Topics
	cache       *store.PublishedCache
	router      CommandRouter
	logger      Logger
	qos         byte
	broadcaster Broadcaster
	history     HistorySink
}

// ConnectionConfig configures a Connection.
type ConnectionConfig struct {
	Client      MQTTClient
	Root        string // topic root, e.g. "coap_devices"
	Cache       *store.PublishedCache
	Router      CommandRouter
	Logger      Logger
	QoS         byte
	Broadcaster Broadcaster  // optional: operator WebSocket live tail
	History     HistorySink // optional: time-series export
}

// NewConnection builds a Connection ready to Observe.
func NewConnection(cfg ConnectionConfig) *Connection {
	return &Connection{
		client:      cfg.Client,
		topics:      mqtt.Topics{Root: cfg.Root},
		cache:       cfg.Cache,
		router:      cfg.Router,
		logger:      cfg.Logger,
		qos:         cfg.QoS,
		broadcaster: cfg.Broadcaster,
		history:     cfg.History,
	}
}

// Observe subscribes to the inbound command wildcard and routes every
// matching message to the bridge owning its host, until ctx is cancelled.
func (c *Connection) Observe(ctx context.Context) error {
	err := c.client.Subscribe(c.topics.SetFilter(), c.qos, c.handleCommand)
	if err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}
	<-ctx.Done()
	return nil
}

// handleCommand parses an inbound `<root>/<host>/set/<attribute>` message
// and routes it to the owning bridge. Malformed topics and empty payloads
// are logged and dropped rather than propagated, per spec.md §7's "a bad
// command must never kill the bridge" rule.
func (c *Connection) handleCommand(topic string, payload []byte) error {
	host, attribute, ok := c.topics.ParseSetTopic(topic)
	if !ok {
		c.logWarn("ignoring command on unrecognized topic", "topic", topic)
		return nil
	}
	if c.router == nil {
		return nil
	}
	c.router.SendUpdate(context.Background(), host, attribute, string(payload))
	return nil
}

// PublishState implements StatePublisher. It unconditionally republishes
// last_update and raw_state, then publishes each attribute only if it
// differs from the last cached value (spec.md §4.4's differential publish,
// backed durably by PublishedCache rather than the original's in-memory
// dict so a restart doesn't look like every property changed at once).
func (c *Connection) PublishState(host string, state *device.State) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := c.client.Publish(c.topics.LastUpdate(host), []byte(now), c.qos, true); err != nil {
		return fmt.Errorf("publishing last_update for %s: %w", host, err)
	}

	rawPayload, err := json.Marshal(state.Raw())
	if err != nil {
		return fmt.Errorf("encoding raw_state for %s: %w", host, err)
	}
	if err := c.client.Publish(c.topics.RawState(host), rawPayload, c.qos, true); err != nil {
		return fmt.Errorf("publishing raw_state for %s: %w", host, err)
	}

	dict := state.AsDict()
	for attribute, value := range dict {
		if err := c.publishIfChanged(host, attribute, value); err != nil {
			c.logWarn("publishing attribute failed", "host", host, "attribute", attribute, "error", err)
		}
	}

	c.recordHistory(host, dict)
	return nil
}

// recordHistory forwards decoded climate and filter-life samples to the
// optional HistorySink. A device model that doesn't declare these
// attributes simply contributes no sample; this never blocks or fails
// PublishState.
func (c *Connection) recordHistory(host string, dict map[string]any) {
	if c.history == nil {
		return
	}

	temp, hasTemp := dict["temperature"].(int)
	humidity, hasHumidity := dict["humidity"].(int)
	if hasTemp && hasHumidity {
		c.history.WriteClimateSample(host, temp, humidity)
	}

	percent, hasPercent := dict["percent_unit_before_cleaning"].(float64)
	runtime, hasRuntime := dict["runtime_seconds"].(int)
	if hasPercent && hasRuntime {
		c.history.WriteFilterLife(host, percent, runtime)
	}
}

// publishIfChanged publishes one attribute's value only when it differs
// from (or is absent from) the durable last-published cache, then updates
// the cache to match.
func (c *Connection) publishIfChanged(host, attribute string, value any) error {
	ctx := context.Background()
	cached, ok, err := c.cache.Get(ctx, host, attribute)
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}
	if ok && valuesEqual(cached, value) {
		return nil
	}

	payload, err := attributePayload(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	if err := c.client.Publish(c.topics.Attribute(host, attribute), payload, c.qos, true); err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	if c.broadcaster != nil {
		c.broadcaster.BroadcastAttribute(host, attribute, value)
	}
	return c.cache.Set(ctx, host, attribute, value)
}

// attributePayload renders a decoded attribute value as the raw MQTT
// payload: strings publish unquoted, everything else as JSON.
func attributePayload(value any) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

// valuesEqual compares two decoded attribute values for the differential
// publish check. JSON round-tripping both sides normalizes numeric type
// differences between a freshly decoded value and one read back out of the
// cache (e.g. int vs float64).
func valuesEqual(a, b any) bool {
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(aj) == string(bj)
}

// PublishOnline implements StatePublisher.
func (c *Connection) PublishOnline(host string) error {
	return c.client.Publish(c.topics.Status(host), []byte("ONLINE"), c.qos, true)
}

// PublishOffline implements StatePublisher.
func (c *Connection) PublishOffline(host string) error {
	return c.client.Publish(c.topics.Status(host), []byte("OFFLINE"), c.qos, true)
}

func (c *Connection) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
