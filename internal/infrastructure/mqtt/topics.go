package mqtt

import (
	"fmt"
	"regexp"
)

// BridgeStatusTopic is the retained topic the bridge process itself
// publishes to, separate from any single device's ONLINE/OFFLINE status.
// The LWT message is published here if the process disconnects uncleanly.
const BridgeStatusTopic = "coap2mqtt/bridge/status"

// Topics builds the per-device topic scheme under a configured root, e.g.
// "coap_devices":
//
//	coap_devices/<host>/status
//	coap_devices/<host>/last_update
//	coap_devices/<host>/raw_state
//	coap_devices/<host>/<attribute>
//	coap_devices/<host>/set/<attribute>
//
// Topics is constructed with the configured root so callers never
// concatenate the root themselves.
type Topics struct {
	Root string
}

// Status returns the liveness topic for a device host.
func (t Topics) Status(host string) string {
	return fmt.Sprintf("%s/%s/status", t.Root, host)
}

// LastUpdate returns the topic for the ISO-8601 timestamp of the last
// successful poll.
func (t Topics) LastUpdate(host string) string {
	return fmt.Sprintf("%s/%s/last_update", t.Root, host)
}

// RawState returns the topic for the unconditional JSON dump of the raw
// CoAP status dictionary.
func (t Topics) RawState(host string) string {
	return fmt.Sprintf("%s/%s/raw_state", t.Root, host)
}

// Attribute returns the topic a single typed property publishes to.
func (t Topics) Attribute(host, attribute string) string {
	return fmt.Sprintf("%s/%s/%s", t.Root, host, attribute)
}

// SetAttribute returns the inbound command topic for a single property.
func (t Topics) SetAttribute(host, attribute string) string {
	return fmt.Sprintf("%s/%s/set/%s", t.Root, host, attribute)
}

// SetFilter returns the wildcard subscription pattern that captures every
// inbound command for every device and attribute: "<root>/+/set/#".
func (t Topics) SetFilter() string {
	return fmt.Sprintf("%s/+/set/#", t.Root)
}

// setTopicPattern matches "<root>/<host>/set/<attribute>". It is compiled
// afresh on every call, so each ParseSetTopic call compiles it once.
func (t Topics) setTopicPattern() *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/(?P<host>[^/]+)/set/(?P<attr>.+)$", regexp.QuoteMeta(t.Root)))
}

// ParseSetTopic extracts the host and attribute from an inbound command
// topic. ok is false if the topic doesn't match the "<root>/<host>/set/
// <attribute>" shape.
func (t Topics) ParseSetTopic(topic string) (host, attribute string, ok bool) {
	matches := t.setTopicPattern().FindStringSubmatch(topic)
	if matches == nil {
		return "", "", false
	}
	return matches[1], matches[2], true
}
