// Package history provides optional time-series export for the bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, metric writing, and health monitoring so decoded device
// properties can be trended over the long term, independent of the
// last-published cache in internal/infrastructure/store.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Climate readings (temperature, humidity)
//   - Filter life and cumulative device runtime
//   - Ad-hoc bridge and device telemetry
//
// # Usage
//
//	cfg := config.HistoryConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "coap2mqtt",
//	    Bucket:  "metrics",
//	}
//
//	client, err := history.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write device metrics
//	client.WriteClimateSample("192.168.1.42", 21, 47)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package history
