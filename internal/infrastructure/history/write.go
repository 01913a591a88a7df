package history

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceMetric writes a single device measurement to InfluxDB.
//
// This is the primary method for recording device telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - host: The device's CoAP host/address (e.g., "192.168.1.42")
//   - measurement: The metric name (e.g., "temperature_c", "humidity_pct")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteDeviceMetric("192.168.1.42", "temperature_c", 21.5)
//	client.WriteDeviceMetric("192.168.1.42", "humidity_pct", 47.0)
func (c *Client) WriteDeviceMetric(host string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{
			"host":        host,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteClimateSample writes one decoded temperature/humidity reading as a
// single point, so the two fields stay co-located for trending queries.
//
// Parameters:
//   - host: The device's CoAP host/address
//   - temperatureC: Decoded temperature in whole degrees Celsius
//   - humidityPct: Decoded relative humidity percentage
func (c *Client) WriteClimateSample(host string, temperatureC int, humidityPct int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"climate",
		map[string]string{
			"host": host,
		},
		map[string]interface{}{
			"temperature_c": float64(temperatureC),
			"humidity_pct":  float64(humidityPct),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFilterLife writes the decoded filter-remaining percentage alongside
// cumulative device runtime, the two figures an operator watches to decide
// when a filter needs replacing.
//
// Parameters:
//   - host: The device's CoAP host/address
//   - percentRemaining: percent_unit_before_cleaning, 0-100
//   - runtimeSeconds: cumulative device runtime in seconds
func (c *Client) WriteFilterLife(host string, percentRemaining float64, runtimeSeconds int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"filter_life",
		map[string]string{
			"host": host,
		},
		map[string]interface{}{
			"percent_remaining": percentRemaining,
			"runtime_seconds":   float64(runtimeSeconds),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("bridge_stats",
//	    map[string]string{"bridge_id": "coap2mqtt-bridge"},
//	    map[string]interface{}{"devices_online": 3.0})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
