package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementServiceBuild is the measurement written by WriteServiceBuild.
const MeasurementServiceBuild = "service_build"

// ServiceBuild describes one registry build for telemetry.
type ServiceBuild struct {
	Service  string
	Class    string
	Cached   bool
	Failed   bool
	Duration time.Duration
	At       time.Time
}

// buildPoint converts b into a point. Tags are the low-cardinality
// identifiers; the duration is recorded in milliseconds.
func buildPoint(b ServiceBuild) *write.Point {
	at := b.At
	if at.IsZero() {
		at = time.Now()
	}

	return write.NewPoint(
		MeasurementServiceBuild,
		map[string]string{
			"service": b.Service,
			"class":   b.Class,
		},
		map[string]any{
			"duration_ms": float64(b.Duration) / float64(time.Millisecond),
			"cached":      b.Cached,
			"failed":      b.Failed,
		},
		at,
	)
}

// WriteServiceBuild queues a service_build point. Dropped after Close.
//
// Example:
//
//	client.WriteServiceBuild(influxdb.ServiceBuild{
//	    Service:  "db",
//	    Class:    "database.sqlite",
//	    Duration: 3 * time.Millisecond,
//	})
func (c *Client) WriteServiceBuild(b ServiceBuild) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(buildPoint(b))
}

// WritePoint queues a custom point timestamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
