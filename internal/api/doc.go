// Package api provides the optional, read-only operator HTTP surface for
// the bridge: per-device health, current typed state, a manual
// observe_wait trigger, and a WebSocket live tail of differential
// property publishes.
//
// It is disabled by default (api.enabled: false in config) and carries no
// write path beyond the single manual-refresh trigger — the MQTT
// `<root>/<host>/set/<attribute>` topic remains the only way to command a
// device, per spec.md §6. This package exists purely so an operator can
// see "is the bridge working" without a separate MQTT client.
//
// # References
//
//   - SPEC_FULL.md §3 (domain stack: chi, gorilla/websocket)
package api
