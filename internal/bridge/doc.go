// Package bridge drives one CoAP-polled device through its connection
// lifecycle and republishes its decoded state over MQTT.
//
// # Architecture
//
//	┌──────────────┐          ┌──────────────┐          ┌──────────────┐
//	│  MQTT Broker │◄────────►│  DeviceBridge │◄────────►│  CoAP Device │
//	│ (mqtt.Client)│  publish/ │  (this pkg)   │  Connector │ (humidifier) │
//	└──────────────┘  subscribe└──────────────┘  interface └──────────────┘
//
// A BridgeGroup owns one DeviceBridge per configured device host and runs
// them concurrently with golang.org/x/sync/errgroup, so a failure isolated
// to one device's connect loop never tears down its siblings.
//
// # Key Responsibilities
//
//   - Drive each device through Disconnected → Idle → Polling → Sleeping
//   - Arm a watchdog around every in-flight status fetch
//   - Diff decoded state against the last published value before publishing
//   - Route inbound MQTT commands to the owning device's typed writer
//   - Publish bridge- and device-level liveness (LWT-backed online/offline)
//
// # Thread Safety
//
// DeviceBridge and BridgeGroup are safe for concurrent use. Observe runs on
// its own goroutine per device; SendUpdate may be called concurrently from
// the MQTT subscriber goroutine at any time.
//
// # References
//
//   - spec.md §4 (bridge lifecycle), §6 (CoAP client contract), §9 (wiring)
package bridge
