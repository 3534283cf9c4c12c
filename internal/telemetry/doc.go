// Package telemetry connects the registry and cache to the optional
// messaging and time-series backends.
//
// Reporter turns registry build events into MQTT messages on
// <prefix>/registry/built/<name> and InfluxDB service_build points.
// InvalidationHandler lets operators drop cached configuration by
// publishing a source identifier to <prefix>/cache/invalidate.
package telemetry
