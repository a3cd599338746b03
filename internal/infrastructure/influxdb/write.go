package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttribute records a numeric device attribute sample.
//
// This is the primary method for recording attribute telemetry from the
// live feed. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - deviceKey: Resolved device key (e.g., "13" or "salon-temperature")
//   - attribute: The attribute name (e.g., "temperature", "level")
//   - value: The numeric value to record
//   - timestamp: When the hub reported the value
//
// Example:
//
//	client.WriteAttribute("13", "temperature", 21.5, msg.ReceivedAt)
func (c *Client) WriteAttribute(deviceKey string, attribute string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_attributes",
		map[string]string{
			"device_key": deviceKey,
			"attribute":  attribute,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteModeActivation records a mode activation event with its outcome.
//
// Parameters:
//   - modeID: Identifier of the activated mode (e.g., "mode_nuit")
//   - actionCount: Total actions in the mode
//   - failedCount: Actions that failed during execution
//   - durationMs: Wall-clock execution time in milliseconds
func (c *Client) WriteModeActivation(modeID string, actionCount, failedCount int, durationMs int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"mode_activations",
		map[string]string{
			"mode_id": modeID,
		},
		map[string]interface{}{
			"action_count": actionCount,
			"failed_count": failedCount,
			"duration_ms":  durationMs,
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
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
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
