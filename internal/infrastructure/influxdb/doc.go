// Package influxdb writes graywire build telemetry to InfluxDB v2.
//
// Every registry build can be recorded as a service_build point tagged with
// the service name and class, carrying duration_ms, cached, and failed.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) {
//	    logger.Warn("influxdb write failed", "error", err)
//	})
//
// Writes are batched (influxdb.batch_size points or every
// influxdb.flush_interval seconds).
package influxdb
